package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	obscontext "github.com/smallbiznis/carhouse/internal/observability/context"
	"github.com/smallbiznis/carhouse/pkg/telemetry/correlation"
)

type EventType string

const (
	EventTypeOrderCreated        EventType = "order.created"
	EventTypeOrderStatusChanged  EventType = "order.status_changed"
	EventTypeOrderDeleted        EventType = "order.deleted"
	EventTypeBookingCreated      EventType = "booking.created"
	EventTypeBookingStatusChange EventType = "booking.status_changed"
	EventTypeServiceTypeSaved    EventType = "service_type.saved"
	EventTypePartsSynced         EventType = "service_type.parts_synced"
	EventTypeProductStockChanged EventType = "product.stock_changed"
)

// Event is the envelope written to the events topic.
type Event struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	Key           string            `json:"key"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

// Publisher delivers domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, eventType EventType, key string, payload any) error
}

// NewEvent builds an envelope for payload, stamping ids and trace metadata from ctx.
func NewEvent(ctx context.Context, eventType EventType, key string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	ctx, cid := correlation.EnsureCorrelationID(ctx)
	metadata := correlation.InjectTrace(ctx, map[string]string{})
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		metadata["request_id"] = requestID
	}
	if actorType, actorID := obscontext.ActorFromContext(ctx); actorID != "" {
		metadata["actor_type"] = actorType
		metadata["actor_id"] = actorID
	}

	return &Event{
		ID:            ulid.Make().String(),
		Type:          eventType,
		Key:           key,
		Data:          data,
		Metadata:      metadata,
		Timestamp:     time.Now().UTC(),
		CorrelationID: cid,
	}, nil
}
