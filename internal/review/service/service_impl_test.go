package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	productdomain "github.com/smallbiznis/carhouse/internal/product/domain"
	productrepo "github.com/smallbiznis/carhouse/internal/product/repository"
	"github.com/smallbiznis/carhouse/internal/review/domain"
	"github.com/smallbiznis/carhouse/internal/review/repository"
	userdomain "github.com/smallbiznis/carhouse/internal/user/domain"
	userrepo "github.com/smallbiznis/carhouse/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type auditMock struct {
	auditdomain.Service
	mock.Mock
}

func (m *auditMock) AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error {
	args := m.Called(action, targetType, *targetID, metadata)
	return args.Error(0)
}

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	audit *auditMock
	now   time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&productdomain.Product{}, &userdomain.Profile{}, &domain.Review{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	now := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	audit := &auditMock{}

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    clock.NewFakeClock(now),
		Repo:     repository.Provide(),
		AuditSvc: audit,
	})
	return &fixture{svc: svc, db: db, node: node, audit: audit, now: now}
}

func (f *fixture) product(t *testing.T, name string) snowflake.ID {
	t.Helper()
	p := &productdomain.Product{
		ID:        f.node.Generate(),
		Name:      name,
		Brand:     "Bosch",
		Price:     decimal.NewFromInt(100),
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, productrepo.Provide().Create(context.Background(), f.db, p))
	return p.ID
}

func (f *fixture) user(t *testing.T, email, name string) snowflake.ID {
	t.Helper()
	p := &userdomain.Profile{
		ID:        f.node.Generate(),
		Email:     email,
		FullName:  name,
		Role:      userdomain.RoleCustomer,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, userrepo.Provide().Create(context.Background(), f.db, p))
	return p.ID
}

func (f *fixture) review(t *testing.T, productID snowflake.ID, userID *snowflake.ID, rating int, age time.Duration) string {
	t.Helper()
	r := &domain.Review{
		ID:        f.node.Generate(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   "fits perfectly",
		IsVisible: true,
		CreatedAt: f.now.Add(-age),
		UpdatedAt: f.now.Add(-age),
	}
	require.NoError(t, repository.Provide().Create(context.Background(), f.db, r))
	return r.ID.String()
}

func TestListJoinsProductAndReviewer(t *testing.T) {
	f := setup(t)
	pads := f.product(t, "Brake pads")
	filter := f.product(t, "Oil filter")
	mona := f.user(t, "mona@example.com", "Mona Adel")

	older := f.review(t, pads, &mona, 4, 2*time.Hour)
	newer := f.review(t, pads, nil, 5, time.Hour)
	f.review(t, filter, &mona, 3, 0)

	resp, err := f.svc.List(context.Background(), domain.ListRequest{ProductID: pads.String()})
	require.NoError(t, err)
	require.Len(t, resp.Reviews, 2)
	assert.Equal(t, newer, resp.Reviews[0].ID)
	assert.Equal(t, older, resp.Reviews[1].ID)
	assert.Equal(t, "Brake pads", resp.Reviews[1].ProductName)
	assert.Equal(t, "Mona Adel", resp.Reviews[1].ReviewerName)
	assert.Nil(t, resp.Reviews[0].UserID)

	all, err := f.svc.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Reviews, 3)

	_, err = f.svc.List(context.Background(), domain.ListRequest{ProductID: "pads"})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestSetVisibilityAuditsOnlyChanges(t *testing.T) {
	f := setup(t)
	id := f.review(t, f.product(t, "Brake pads"), nil, 2, 0)

	f.audit.On("AuditLog", "review.visibility_changed", "review", id, mock.Anything).Return(nil).Once()

	hidden, err := f.svc.SetVisibility(context.Background(), id, false)
	require.NoError(t, err)
	assert.False(t, hidden.IsVisible)

	again, err := f.svc.SetVisibility(context.Background(), id, false)
	require.NoError(t, err)
	assert.False(t, again.IsVisible)

	visible := true
	shown, err := f.svc.List(context.Background(), domain.ListRequest{Visible: &visible})
	require.NoError(t, err)
	assert.Empty(t, shown.Reviews)

	f.audit.AssertExpectations(t)
}

func TestSetVisibilityUnknownReview(t *testing.T) {
	f := setup(t)

	_, err := f.svc.SetVisibility(context.Background(), "123", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
