package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carhouse/internal/association"
	bookingdomain "github.com/smallbiznis/carhouse/internal/booking/domain"
	coupondomain "github.com/smallbiznis/carhouse/internal/coupon/domain"
	dashboarddomain "github.com/smallbiznis/carhouse/internal/dashboard/domain"
	inventorydomain "github.com/smallbiznis/carhouse/internal/inventory/domain"
	"github.com/smallbiznis/carhouse/internal/observability"
	orderdomain "github.com/smallbiznis/carhouse/internal/order/domain"
	"github.com/smallbiznis/carhouse/internal/ratelimit"
	reviewdomain "github.com/smallbiznis/carhouse/internal/review/domain"
	servicetypedomain "github.com/smallbiznis/carhouse/internal/servicetype/domain"
	userdomain "github.com/smallbiznis/carhouse/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServiceTypes struct {
	servicetypedomain.Service
	createResp *servicetypedomain.Response
	createErr  error
	syncResp   *servicetypedomain.SyncResult
	syncErr    error
	lastSync   servicetypedomain.SyncPartsRequest
}

func (f *fakeServiceTypes) Create(ctx context.Context, req servicetypedomain.CreateRequest) (*servicetypedomain.Response, error) {
	return f.createResp, f.createErr
}

func (f *fakeServiceTypes) SyncParts(ctx context.Context, req servicetypedomain.SyncPartsRequest) (*servicetypedomain.SyncResult, error) {
	f.lastSync = req
	return f.syncResp, f.syncErr
}

type fakeOrders struct {
	orderdomain.Service
	statusErr error
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, id string, status string) (*orderdomain.Response, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &orderdomain.Response{ID: id, Status: status}, nil
}

func (f *fakeOrders) Breakdown(ctx context.Context, id string) (*orderdomain.BreakdownResponse, error) {
	return &orderdomain.BreakdownResponse{
		OrderID:  id,
		Subtotal: decimal.NewFromInt(90),
		Tax:      decimal.RequireFromString("12.6"),
		Total:    decimal.RequireFromString("102.6"),
	}, nil
}

func (f *fakeOrders) Invoice(ctx context.Context, id string) (io.Reader, error) {
	return strings.NewReader("%PDF-1.4 fake"), nil
}

type fakeBookings struct {
	bookingdomain.Service
	createErr error
}

func (f *fakeBookings) Create(ctx context.Context, req bookingdomain.CreateRequest) (*bookingdomain.Response, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &bookingdomain.Response{ID: "1", ServiceType: "Oil Change"}, nil
}

func (f *fakeBookings) Get(ctx context.Context, id string) (*bookingdomain.Response, error) {
	return nil, bookingdomain.ErrNotFound
}

type fakeDashboard struct {
	dashboarddomain.Service
}

func (fakeDashboard) Statistics(ctx context.Context) (dashboarddomain.Statistics, error) {
	return dashboarddomain.Statistics{TotalProducts: 4, PendingBookings: 1}, nil
}

type fakeReviews struct {
	reviewdomain.Service
	lastID      string
	lastVisible bool
}

func (f *fakeReviews) SetVisibility(ctx context.Context, id string, visible bool) (*reviewdomain.Response, error) {
	f.lastID, f.lastVisible = id, visible
	return &reviewdomain.Response{ID: id, IsVisible: visible}, nil
}

type fakeCoupons struct {
	coupondomain.Service
	createErr error
}

func (f *fakeCoupons) Create(ctx context.Context, req coupondomain.CreateRequest) (*coupondomain.Response, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &coupondomain.Response{ID: "3", Code: req.Code}, nil
}

type fakeInventory struct {
	inventorydomain.Service
	lastUpdate inventorydomain.UpdateLevelRequest
	updateErr  error
}

func (f *fakeInventory) UpdateLevel(ctx context.Context, req inventorydomain.UpdateLevelRequest) (*inventorydomain.StockResponse, error) {
	f.lastUpdate = req
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &inventorydomain.StockResponse{ProductID: req.ProductID, TotalStock: int(req.Quantity)}, nil
}

type fakeUsers struct {
	userdomain.Service
	addErr  error
	lastAdd userdomain.AddAdminRequest
}

func (f *fakeUsers) AddAdmin(ctx context.Context, req userdomain.AddAdminRequest) (*userdomain.Response, error) {
	f.lastAdd = req
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &userdomain.Response{ID: req.UserID, Role: "admin", IsAdmin: true, AdminRole: "admin"}, nil
}

func (f *fakeUsers) RemoveAdmin(ctx context.Context, id string) (*userdomain.Response, error) {
	return nil, userdomain.ErrAdminNotFound
}

type testDeps struct {
	serviceTypes *fakeServiceTypes
	orders       *fakeOrders
	bookings     *fakeBookings
	reviews      *fakeReviews
	coupons      *fakeCoupons
	inventory    *fakeInventory
	users        *fakeUsers
}

func newTestServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := &testDeps{
		serviceTypes: &fakeServiceTypes{},
		orders:       &fakeOrders{},
		bookings:     &fakeBookings{},
		reviews:      &fakeReviews{},
		coupons:      &fakeCoupons{},
		inventory:    &fakeInventory{},
		users:        &fakeUsers{},
	}
	limiter, err := ratelimit.NewAdminWriteLimiter(testConfig(), nil, testLogger())
	require.NoError(t, err)

	srv := NewServer(ServerParams{
		Gin:            NewEngine(observability.Config{}, nil),
		ServiceTypeSvc: deps.serviceTypes,
		OrderSvc:       deps.orders,
		BookingSvc:     deps.bookings,
		UserSvc:        deps.users,
		ReviewSvc:      deps.reviews,
		CouponSvc:      deps.coupons,
		InventorySvc:   deps.inventory,
		DashboardSvc:   fakeDashboard{},
		WriteLimiter:   limiter,
	})
	return srv, deps
}

func doRequest(srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, http.MethodGet, "/admin/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Type)
}

func TestDashboardWrapsData(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data dashboarddomain.Statistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(4), body.Data.TotalProducts)
}

func TestCreateServiceTypePartialFailureReturnsSavedEntity(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.serviceTypes.createResp = &servicetypedomain.Response{ID: "10", Name: "Oil Change"}
	deps.serviceTypes.createErr = fmt.Errorf("%w: %w", servicetypedomain.ErrPartsSyncFailed, &association.PartialError[int64]{
		Op:  association.OpUpsert,
		Err: fmt.Errorf("connection reset"),
	})

	w := doRequest(srv, http.MethodPost, "/admin/service-types", map[string]any{"name": "Oil Change"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Data  servicetypedomain.Response `json:"data"`
		Error errorPayload               `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "10", body.Data.ID)
	assert.Equal(t, "parts_sync_failed", body.Error.Type)
	assert.Equal(t, "Service saved but parts failed update.", body.Error.Message)
}

func TestSyncPartsBindsPathAndBody(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.serviceTypes.syncResp = &servicetypedomain.SyncResult{Result: association.Result{Deleted: 1, Upserted: 2}}

	w := doRequest(srv, http.MethodPut, "/admin/service-types/77/parts", map[string]any{
		"parts": []map[string]any{{"product_id": "5", "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "77", deps.serviceTypes.lastSync.ServiceTypeID)
	require.Len(t, deps.serviceTypes.lastSync.Parts, 1)
	assert.Equal(t, int64(2), deps.serviceTypes.lastSync.Parts[0].Quantity)
}

func TestSyncInProgressIsConflict(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.serviceTypes.syncErr = servicetypedomain.ErrSyncInProgress

	w := doRequest(srv, http.MethodPut, "/admin/service-types/77/parts", map[string]any{"parts": []any{}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decodeError(t, w).Type)
}

func TestValidationErrorsAreBadRequest(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.bookings.createErr = bookingdomain.ErrScheduledInPast

	w := doRequest(srv, http.MethodPost, "/admin/bookings", map[string]any{"service_type_id": "1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	payload := decodeError(t, w)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "scheduled_date_in_past", payload.Errors[0].Code)
}

func TestMalformedBodyIsInvalidRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/bookings", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decodeError(t, w).Errors[0].Code)
}

func TestDomainNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, http.MethodGet, "/admin/bookings/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderTransitionConflict(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.orders.statusErr = orderdomain.ErrInvalidTransition

	w := doRequest(srv, http.MethodPost, "/admin/orders/5/status", map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid transition", decodeError(t, w).Message)
}

func TestOrderInvoiceServesPDF(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, http.MethodGet, "/admin/orders/5/invoice.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-5.pdf")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestOrderBreakdown(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(srv, http.MethodGet, "/admin/orders/5/breakdown", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data orderdomain.BreakdownResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Tax.Equal(decimal.RequireFromString("12.6")))
}

func TestMapErrorDefaults(t *testing.T) {
	status, payload := mapError(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", payload.Type)

	status, _ = mapError(ErrRateLimited)
	assert.Equal(t, http.StatusTooManyRequests, status)

	typ, code := classifyErrorForLog(bookingdomain.ErrInvalidVehicleYear)
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, "invalid_vehicle_year", code)
}

func TestSetReviewVisibility(t *testing.T) {
	srv, deps := newTestServer(t)

	w := doRequest(srv, http.MethodPost, "/admin/reviews/9/visibility", map[string]any{"visible": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9", deps.reviews.lastID)
	assert.False(t, deps.reviews.lastVisible)

	w = doRequest(srv, http.MethodPost, "/admin/reviews/9/visibility", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_visible", decodeError(t, w).Errors[0].Code)
}

func TestCreateCouponErrors(t *testing.T) {
	srv, deps := newTestServer(t)

	w := doRequest(srv, http.MethodPost, "/admin/coupons", map[string]any{"code": "SAVE10"})
	require.Equal(t, http.StatusCreated, w.Code)

	deps.coupons.createErr = coupondomain.ErrCodeTaken
	w = doRequest(srv, http.MethodPost, "/admin/coupons", map[string]any{"code": "SAVE10"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "coupon code taken", decodeError(t, w).Message)

	deps.coupons.createErr = coupondomain.ErrInvalidDiscountValue
	w = doRequest(srv, http.MethodPost, "/admin/coupons", map[string]any{"code": "SAVE10"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_discount_value", decodeError(t, w).Errors[0].Code)
}

func TestUpdateInventoryBindsPath(t *testing.T) {
	srv, deps := newTestServer(t)

	w := doRequest(srv, http.MethodPut, "/admin/products/5/inventory/8", map[string]any{"quantity": 12})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", deps.inventory.lastUpdate.ProductID)
	assert.Equal(t, "8", deps.inventory.lastUpdate.StoreID)
	assert.Equal(t, int64(12), deps.inventory.lastUpdate.Quantity)

	deps.inventory.updateErr = inventorydomain.ErrStoreNotFound
	w = doRequest(srv, http.MethodPut, "/admin/products/5/inventory/8", map[string]any{"quantity": 12})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "store does not exist", decodeError(t, w).Errors[0].Message)

	deps.inventory.updateErr = inventorydomain.ErrProductNotFound
	w = doRequest(srv, http.MethodPut, "/admin/products/5/inventory/8", map[string]any{"quantity": 12})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminGrantRoutes(t *testing.T) {
	srv, deps := newTestServer(t)

	w := doRequest(srv, http.MethodPost, "/admin/users/4/admin", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "4", deps.users.lastAdd.UserID)

	deps.users.addErr = userdomain.ErrAlreadyAdmin
	w = doRequest(srv, http.MethodPost, "/admin/users/4/admin", map[string]any{"role": "super_admin"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "super_admin", deps.users.lastAdd.Role)

	w = doRequest(srv, http.MethodDelete, "/admin/users/4/admin", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
