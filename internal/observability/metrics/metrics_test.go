package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("relation", "service_type_products"),
		attribute.String("product_id", "456"),
		attribute.String("op", "upsert"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "relation" && attrs[1].Key != "relation" {
		t.Fatalf("expected relation to be retained")
	}
	if attrs[0].Key != "op" && attrs[1].Key != "op" {
		t.Fatalf("expected op to be retained")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordEstimate(context.Background(), "ok")
	m.RecordAssociationChanges(context.Background(), "service_type_products", 1, 2)
	m.RecordRateLimitDenied(context.Background(), "/admin", "limit")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "carhouse"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordOrderTransition(context.Background(), "pending", "processing")
}
