package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/audit/repository"
	"github.com/smallbiznis/carhouse/internal/clock"
	obscontext "github.com/smallbiznis/carhouse/internal/observability/context"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func TestAuditLogCapturesRequestContext(t *testing.T) {
	svc, _ := setupService(t)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, "admin", "42")
	ctx = obscontext.WithIPAddress(ctx, "10.0.0.1")

	target := "7"
	err := svc.AuditLog(ctx, "service_type.parts_synced", "service_type", &target, map[string]any{
		"deleted": 1,
		"email":   "admin@example.com",
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "admin", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "42", *entry.ActorID)
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.Equal(t, "a****@example.com", entry.Metadata["email"])
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.1", *entry.IPAddress)
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	svc, _ := setupService(t)

	require.NoError(t, svc.AuditLog(context.Background(), "order.created", "", nil, nil))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "system", resp.AuditLogs[0].ActorType)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)
	assert.Nil(t, resp.AuditLogs[0].ActorID)
}

func TestAuditLogRejectsEmptyAction(t *testing.T) {
	svc, _ := setupService(t)
	assert.ErrorIs(t, svc.AuditLog(context.Background(), " ", "order", nil, nil), auditdomain.ErrInvalidAction)
}

func TestListNewestFirstWithPaging(t *testing.T) {
	svc, fake := setupService(t)
	ctx := context.Background()

	for _, action := range []string{"a.one", "a.two", "a.three"} {
		require.NoError(t, svc.AuditLog(ctx, action, "order", nil, nil))
		fake.Advance(time.Minute)
	}

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 2)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "a.three", resp.AuditLogs[0].Action)

	filtered, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: "a.one"})
	require.NoError(t, err)
	require.Len(t, filtered.AuditLogs, 1)
}

func TestListRejectsInvertedRange(t *testing.T) {
	svc, _ := setupService(t)
	start := time.Now()
	end := start.Add(-time.Hour)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}
