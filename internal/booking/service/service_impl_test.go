package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carhouse/internal/booking/domain"
	"github.com/smallbiznis/carhouse/internal/booking/repository"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/events"
	"github.com/smallbiznis/carhouse/internal/pricing"
	productdomain "github.com/smallbiznis/carhouse/internal/product/domain"
	productrepo "github.com/smallbiznis/carhouse/internal/product/repository"
	"github.com/smallbiznis/carhouse/internal/providers/pdf"
	servicetypedomain "github.com/smallbiznis/carhouse/internal/servicetype/domain"
	servicetyperepo "github.com/smallbiznis/carhouse/internal/servicetype/repository"
	servicetypesvc "github.com/smallbiznis/carhouse/internal/servicetype/service"
	userdomain "github.com/smallbiznis/carhouse/internal/user/domain"
	userrepo "github.com/smallbiznis/carhouse/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db           *gorm.DB
	node         *snowflake.Node
	clock        *clock.FakeClock
	recorder     *events.Recorder
	serviceTypes servicetypedomain.Service
	svc          domain.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.Profile{},
		&productdomain.Product{},
		&servicetypedomain.ServiceType{},
		&servicetypedomain.ServiceTypeProduct{},
		&domain.Booking{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	calc, err := pricing.NewCalculator(decimal.RequireFromString("0.14"))
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))
	serviceTypes := servicetypesvc.New(servicetypesvc.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        servicetyperepo.Provide(),
		ProductRepo: productrepo.Provide(),
	})

	recorder := events.NewRecorder()
	svc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fake,
		Repo:         repository.Provide(),
		UserRepo:     userrepo.Provide(),
		ServiceTypes: serviceTypes,
		Calculator:   calc,
		Estimator:    pricing.NewEstimator(calc),
		Formatter:    pricing.NewFormatter("EGP"),
		PDF:          pdf.New(),
		Publisher:    recorder,
	})

	return &fixture{
		db:           db,
		node:         node,
		clock:        fake,
		recorder:     recorder,
		serviceTypes: serviceTypes,
		svc:          svc,
	}
}

func (f *fixture) product(t *testing.T, name, price string) string {
	t.Helper()
	p := &productdomain.Product{
		ID:        f.node.Generate(),
		Name:      name,
		Brand:     "Bosch",
		Price:     decimal.RequireFromString(price),
		Stock:     20,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, productrepo.Provide().Create(context.Background(), f.db, p))
	return p.ID.String()
}

// oilChange creates a service type with base price 50 and two units of a
// part priced 20.
func (f *fixture) oilChange(t *testing.T) (serviceTypeID, filterID string) {
	t.Helper()
	filterID = f.product(t, "Oil filter", "20")
	base := decimal.NewFromInt(50)
	st, err := f.serviceTypes.Create(context.Background(), servicetypedomain.CreateRequest{
		Name:      "Oil Change",
		BasePrice: &base,
		Parts:     []servicetypedomain.PartInput{{ProductID: filterID, Quantity: 2}},
	})
	require.NoError(t, err)
	return st.ID, filterID
}

func (f *fixture) customer(t *testing.T) string {
	t.Helper()
	p := &userdomain.Profile{
		ID:        f.node.Generate(),
		Email:     "karim@example.com",
		FullName:  "Karim Nabil",
		Role:      userdomain.RoleCustomer,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, userrepo.Provide().Create(context.Background(), f.db, p))
	return p.ID.String()
}

func (f *fixture) booking(t *testing.T, serviceTypeID string) *domain.Response {
	t.Helper()
	year := 2019
	resp, err := f.svc.Create(context.Background(), domain.CreateRequest{
		UserID:        f.customer(t),
		ServiceTypeID: serviceTypeID,
		ScheduledDate: f.clock.Now().Add(48 * time.Hour),
		VehicleMake:   "Toyota",
		VehicleModel:  "Corolla",
		VehicleYear:   &year,
	})
	require.NoError(t, err)
	return resp
}

func TestCreateBooking(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)

	b := f.booking(t, stID)
	assert.Equal(t, "Oil Change", b.ServiceType)
	assert.Equal(t, string(domain.StatusScheduled), b.Status)
	assert.Equal(t, "Toyota Corolla 2019", b.VehicleInfo)
	assert.Equal(t, "karim@example.com", b.CustomerEmail)
	assert.True(t, b.CanBeCancelled)
	assert.True(t, b.IsUpcoming)
	assert.Equal(t, []events.EventType{events.EventTypeBookingCreated}, f.recorder.Types())

	got, err := f.svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Karim Nabil", got.CustomerName)
	require.NotNil(t, got.ServiceTypeID)
	assert.Equal(t, stID, *got.ServiceTypeID)
}

func TestCreateBookingValidation(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)
	ctx := context.Background()
	future := f.clock.Now().Add(time.Hour)

	_, err := f.svc.Create(ctx, domain.CreateRequest{ScheduledDate: future})
	assert.ErrorIs(t, err, domain.ErrServiceTypeRequired)

	_, err = f.svc.Create(ctx, domain.CreateRequest{
		ServiceTypeID: stID,
		ScheduledDate: f.clock.Now().Add(-time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrScheduledInPast)

	tooNew := f.clock.Now().Year() + 2
	_, err = f.svc.Create(ctx, domain.CreateRequest{
		ServiceTypeID: stID,
		ScheduledDate: future,
		VehicleYear:   &tooNew,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidVehicleYear)

	_, err = f.svc.Create(ctx, domain.CreateRequest{
		UserID:        f.node.Generate().String(),
		ServiceTypeID: stID,
		ScheduledDate: future,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = f.serviceTypes.SetActive(ctx, stID, false)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, domain.CreateRequest{ServiceTypeID: stID, ScheduledDate: future})
	assert.ErrorIs(t, err, domain.ErrServiceTypeInactive)
}

func TestBookingWithoutVehicleShowsNA(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)

	b, err := f.svc.Create(context.Background(), domain.CreateRequest{
		ServiceTypeID: stID,
		ScheduledDate: f.clock.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "N/A", b.VehicleInfo)
	assert.Nil(t, b.UserID)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)
	ctx := context.Background()
	b := f.booking(t, stID)

	resp, err := f.svc.UpdateStatus(ctx, b.ID, "in_progress")
	require.NoError(t, err)
	assert.False(t, resp.CanBeCancelled)
	assert.False(t, resp.IsUpcoming)

	_, err = f.svc.UpdateStatus(ctx, b.ID, "cancelled")
	assert.ErrorIs(t, err, domain.ErrNotCancellable)

	_, err = f.svc.UpdateStatus(ctx, b.ID, "completed")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, b.ID, "pending")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, b.ID, "unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	var changes int
	for _, ev := range f.recorder.Types() {
		if ev == events.EventTypeBookingStatusChange {
			changes++
		}
	}
	assert.Equal(t, 2, changes)
}

func TestCancelScheduledBooking(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)
	b := f.booking(t, stID)

	resp, err := f.svc.UpdateStatus(context.Background(), b.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.False(t, resp.CanBeCancelled)

	notes := "customer asked"
	_, err = f.svc.Update(context.Background(), domain.UpdateRequest{ID: b.ID, Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdateBooking(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)
	b := f.booking(t, stID)

	later := f.clock.Now().Add(72 * time.Hour)
	model := "Yaris"
	resp, err := f.svc.Update(context.Background(), domain.UpdateRequest{
		ID:            b.ID,
		ScheduledDate: &later,
		VehicleModel:  &model,
	})
	require.NoError(t, err)
	assert.True(t, later.Equal(resp.ScheduledDate))
	assert.Equal(t, "Toyota Yaris 2019", resp.VehicleInfo)

	past := f.clock.Now().Add(-time.Minute)
	_, err = f.svc.Update(context.Background(), domain.UpdateRequest{ID: b.ID, ScheduledDate: &past})
	assert.ErrorIs(t, err, domain.ErrScheduledInPast)
}

func TestListFiltersByStatus(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)
	ctx := context.Background()

	first := f.booking(t, stID)
	f.booking(t, stID)
	third := f.booking(t, stID)
	_, err := f.svc.UpdateStatus(ctx, first.ID, "pending")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, third.ID, "cancelled")
	require.NoError(t, err)

	all, err := f.svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Bookings, 3)

	open, err := f.svc.List(ctx, domain.ListRequest{Status: "scheduled, pending"})
	require.NoError(t, err)
	assert.Len(t, open.Bookings, 2)

	_, err = f.svc.List(ctx, domain.ListRequest{Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestEstimateUsesCurrentPrices(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)
	b := f.booking(t, stID)

	est, err := f.svc.Estimate(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, est.BasePrice.Equal(decimal.NewFromInt(50)), est.BasePrice.String())
	assert.True(t, est.PartsTotal.Equal(decimal.NewFromInt(40)), est.PartsTotal.String())
	assert.True(t, est.Subtotal.Equal(decimal.NewFromInt(90)), est.Subtotal.String())
	assert.True(t, est.Tax.Equal(decimal.RequireFromString("12.6")), est.Tax.String())
	assert.True(t, est.Total.Equal(decimal.RequireFromString("102.6")), est.Total.String())
	require.Len(t, est.Lines, 1)
	assert.Equal(t, int64(2), est.Lines[0].Quantity)
	assert.Equal(t, "Oil Change", est.ServiceType)
	assert.NotEmpty(t, est.TotalDisplay)
}

func TestEstimateWithoutServiceTypeIsZero(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)
	b := f.booking(t, stID)

	// Simulate a service type removed after the booking was made.
	require.NoError(t, f.db.Exec("UPDATE bookings SET service_type_id = NULL WHERE id = ?", b.ID).Error)

	est, err := f.svc.Estimate(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, est.Total.IsZero())
	assert.Empty(t, est.Lines)
}

func TestEstimatePDF(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)
	b := f.booking(t, stID)

	r, err := f.svc.EstimatePDF(context.Background(), b.ID)
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestDeleteBooking(t *testing.T) {
	f := setup(t)
	stID, _ := f.oilChange(t)
	b := f.booking(t, stID)

	require.NoError(t, f.svc.Delete(context.Background(), b.ID))
	_, err := f.svc.Get(context.Background(), b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
