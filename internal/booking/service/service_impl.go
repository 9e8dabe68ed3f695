package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/booking/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/config"
	"github.com/smallbiznis/carhouse/internal/events"
	"github.com/smallbiznis/carhouse/internal/observability/metrics"
	"github.com/smallbiznis/carhouse/internal/pricing"
	"github.com/smallbiznis/carhouse/internal/providers/pdf"
	servicetypedomain "github.com/smallbiznis/carhouse/internal/servicetype/domain"
	userdomain "github.com/smallbiznis/carhouse/internal/user/domain"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	estimateOK            = "ok"
	estimateNoServiceType = "no_service_type"
	estimateFailed        = "error"
	minVehicleYear        = 1900
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	UserRepo     userdomain.Repository
	ServiceTypes servicetypedomain.Service
	Calculator   *pricing.Calculator
	Estimator    *pricing.Estimator
	Formatter    *pricing.Formatter
	PDF          pdf.Provider        `optional:"true"`
	AuditSvc     auditdomain.Service `optional:"true"`
	Publisher    events.Publisher    `optional:"true"`
	Metrics      *metrics.Metrics    `optional:"true"`
	Config       config.Config       `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	userRepo     userdomain.Repository
	serviceTypes servicetypedomain.Service
	calc         *pricing.Calculator
	estimator    *pricing.Estimator
	formatter    *pricing.Formatter
	pdf          pdf.Provider
	auditSvc     auditdomain.Service
	publisher    events.Publisher
	metrics      *metrics.Metrics
	company      pdf.Company
}

func New(p Params) domain.Service {
	company := pdf.Company{Name: p.Config.AppName}
	if company.Name == "" {
		company.Name = "carhouse"
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("booking.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		userRepo:     p.UserRepo,
		serviceTypes: p.ServiceTypes,
		calc:         p.Calculator,
		estimator:    p.Estimator,
		formatter:    p.Formatter,
		pdf:          p.PDF,
		auditSvc:     p.AuditSvc,
		publisher:    p.Publisher,
		metrics:      p.Metrics,
		company:      company,
	}
}

type statusChanged struct {
	BookingID string `json:"booking_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	now := s.clock.Now()
	b := &domain.Booking{
		ID:           s.genID.Generate(),
		VehicleMake:  strings.TrimSpace(req.VehicleMake),
		VehicleModel: strings.TrimSpace(req.VehicleModel),
		VehicleYear:  req.VehicleYear,
		Status:       domain.StatusScheduled,
		Notes:        strings.TrimSpace(req.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.applyServiceType(ctx, b, req.ServiceTypeID); err != nil {
		return nil, err
	}
	if err := s.applySchedule(b, req.ScheduledDate); err != nil {
		return nil, err
	}
	if err := s.validateVehicleYear(b.VehicleYear); err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		userID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidUser
		}
		user, err := s.userRepo.FindByID(ctx, s.db, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, domain.ErrInvalidUser
		}
		b.UserID = &userID
		b.CustomerEmail = user.Email
		b.CustomerName = user.FullName
	}

	if err := s.repo.Create(ctx, s.db, b); err != nil {
		return nil, err
	}

	s.audit(ctx, "booking.created", b.ID, map[string]any{"service_type": b.ServiceType})
	resp := s.toResponse(b)
	s.publish(ctx, events.EventTypeBookingCreated, b.ID, resp)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	b, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, domain.ErrInvalidTransition
	}

	if req.ServiceTypeID != nil {
		if err := s.applyServiceType(ctx, b, *req.ServiceTypeID); err != nil {
			return nil, err
		}
	}
	if req.ScheduledDate != nil {
		if err := s.applySchedule(b, *req.ScheduledDate); err != nil {
			return nil, err
		}
	}
	if req.VehicleMake != nil {
		b.VehicleMake = strings.TrimSpace(*req.VehicleMake)
	}
	if req.VehicleModel != nil {
		b.VehicleModel = strings.TrimSpace(*req.VehicleModel)
	}
	if req.VehicleYear != nil {
		b.VehicleYear = req.VehicleYear
	}
	if req.Notes != nil {
		b.Notes = strings.TrimSpace(*req.Notes)
	}
	if err := s.validateVehicleYear(b.VehicleYear); err != nil {
		return nil, err
	}

	b.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, b); err != nil {
		return nil, err
	}

	s.audit(ctx, "booking.updated", b.ID, nil)
	resp := s.toResponse(b)
	return &resp, nil
}

// UpdateStatus changes the status of an open booking. Cancelling is only
// allowed before work has started.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*domain.Response, error) {
	target, err := domain.ParseStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, err
	}
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == target {
		resp := s.toResponse(b)
		return &resp, nil
	}
	if b.Status.Terminal() {
		return nil, domain.ErrInvalidTransition
	}
	if target == domain.StatusCancelled && !b.CanBeCancelled() {
		return nil, domain.ErrNotCancellable
	}

	from := b.Status
	b.Status = target
	b.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, b); err != nil {
		return nil, err
	}

	s.audit(ctx, "booking.status_changed", b.ID, map[string]any{
		"from": string(from),
		"to":   string(target),
	})
	s.publish(ctx, events.EventTypeBookingStatusChange, b.ID, statusChanged{
		BookingID: b.ID.String(),
		From:      string(from),
		To:        string(target),
	})

	resp := s.toResponse(b)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	b, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, b.ID); err != nil {
		return err
	}
	s.audit(ctx, "booking.deleted", b.ID, map[string]any{"service_type": b.ServiceType})
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(b)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	var filter domain.ListFilter
	for _, raw := range strings.Split(req.Status, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		userID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidUser
		}
		filter.UserID = &userID
	}

	page := req.Pagination.Normalize()
	items, err := s.repo.List(ctx, s.db, filter, option.ApplyPagination(page))
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, info := pagination.BuildPageInfo(items, page)

	resp := domain.ListResponse{PageInfo: info, Bookings: make([]domain.Response, 0, len(items))}
	for i := range items {
		resp.Bookings = append(resp.Bookings, s.toResponse(&items[i]))
	}
	return resp, nil
}

// Estimate prices the booking from the current base price and current part
// prices of its service type. Bookings without one estimate at zero.
func (s *Service) Estimate(ctx context.Context, id string) (*domain.EstimateResponse, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	estimate, outcome, err := s.estimate(ctx, b)
	s.metrics.RecordEstimate(ctx, outcome)
	if err != nil {
		return nil, err
	}

	return &domain.EstimateResponse{
		BookingID:         b.ID.String(),
		ServiceType:       b.ServiceType,
		Estimate:          estimate,
		BasePriceDisplay:  s.formatter.Money(estimate.BasePrice),
		PartsTotalDisplay: s.formatter.Money(estimate.PartsTotal),
		SubtotalDisplay:   s.formatter.Money(estimate.Subtotal),
		TaxDisplay:        s.formatter.Money(estimate.Tax),
		TotalDisplay:      s.formatter.Money(estimate.Total),
	}, nil
}

func (s *Service) estimate(ctx context.Context, b *domain.Booking) (pricing.Estimate, string, error) {
	if b.ServiceTypeID == nil {
		estimate, err := s.estimator.Estimate(decimal.Zero, nil)
		return estimate, estimateNoServiceType, err
	}

	catalog, err := s.serviceTypes.CatalogFor(ctx, b.ServiceTypeID.String())
	if errors.Is(err, servicetypedomain.ErrNotFound) {
		estimate, err := s.estimator.Estimate(decimal.Zero, nil)
		return estimate, estimateNoServiceType, err
	}
	if err != nil {
		return pricing.Estimate{}, estimateFailed, err
	}

	estimate, err := s.estimator.Estimate(catalog.BasePrice, catalog.Items)
	if err != nil {
		return pricing.Estimate{}, estimateFailed, err
	}
	return estimate, estimateOK, nil
}

func (s *Service) EstimatePDF(ctx context.Context, id string) (io.Reader, error) {
	if s.pdf == nil {
		return nil, fmt.Errorf("pdf provider not configured")
	}
	resp, err := s.Estimate(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	parts := make([]pdf.Line, 0, len(resp.Lines))
	for _, line := range resp.Lines {
		parts = append(parts, pdf.Line{
			Description: line.Name,
			Qty:         line.Quantity,
			UnitPrice:   s.formatter.Money(line.UnitPrice),
			Amount:      s.formatter.Money(line.Amount),
		})
	}

	return s.pdf.GenerateBookingEstimate(ctx, pdf.BookingEstimate{
		Company:       s.company,
		BookingNumber: "BK-" + b.ID.String(),
		ScheduledDate: b.ScheduledDate.Format("2006-01-02 15:04"),
		ServiceType:   b.ServiceType,
		Vehicle:       b.VehicleInfo(),
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		BasePrice:     resp.BasePriceDisplay,
		Parts:         parts,
		Totals: pdf.Totals{
			Subtotal: resp.SubtotalDisplay,
			TaxLabel: "VAT " + s.calc.Rate().Shift(2).String() + "%",
			Tax:      resp.TaxDisplay,
			Total:    resp.TotalDisplay,
		},
	})
}

func (s *Service) applyServiceType(ctx context.Context, b *domain.Booking, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ErrServiceTypeRequired
	}
	st, err := s.serviceTypes.Get(ctx, raw)
	if err != nil {
		if errors.Is(err, servicetypedomain.ErrNotFound) || errors.Is(err, servicetypedomain.ErrInvalidID) {
			return domain.ErrServiceTypeRequired
		}
		return err
	}
	if !st.IsActive {
		return domain.ErrServiceTypeInactive
	}
	id, err := snowflake.ParseString(st.ID)
	if err != nil {
		return err
	}
	b.ServiceTypeID = &id
	b.ServiceType = st.Name
	return nil
}

func (s *Service) applySchedule(b *domain.Booking, scheduled time.Time) error {
	if scheduled.IsZero() {
		return domain.ErrScheduledInPast
	}
	scheduled = scheduled.UTC()
	if scheduled.Before(s.clock.Now()) {
		return domain.ErrScheduledInPast
	}
	b.ScheduledDate = scheduled
	return nil
}

func (s *Service) validateVehicleYear(year *int) error {
	if year == nil {
		return nil
	}
	if *year < minVehicleYear || *year > s.clock.Now().Year()+1 {
		return domain.ErrInvalidVehicleYear
	}
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Booking, error) {
	bookingID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || bookingID == 0 {
		return nil, domain.ErrInvalidID
	}
	b, err := s.repo.FindByID(ctx, s.db, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (s *Service) publish(ctx context.Context, eventType events.EventType, id snowflake.ID, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, id.String(), payload); err != nil {
		s.log.Warn("failed to publish booking event",
			zap.String("event_type", string(eventType)),
			zap.String("booking_id", id.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "booking", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func (s *Service) toResponse(b *domain.Booking) domain.Response {
	resp := domain.Response{
		ID:             b.ID.String(),
		CustomerEmail:  b.CustomerEmail,
		CustomerName:   b.CustomerName,
		ServiceType:    b.ServiceType,
		ScheduledDate:  b.ScheduledDate,
		VehicleMake:    b.VehicleMake,
		VehicleModel:   b.VehicleModel,
		VehicleYear:    b.VehicleYear,
		VehicleInfo:    b.VehicleInfo(),
		Status:         string(b.Status),
		Notes:          b.Notes,
		CanBeCancelled: b.CanBeCancelled(),
		IsUpcoming:     b.IsUpcoming(s.clock.Now()),
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.UserID != nil {
		userID := b.UserID.String()
		resp.UserID = &userID
	}
	if b.ServiceTypeID != nil {
		serviceTypeID := b.ServiceTypeID.String()
		resp.ServiceTypeID = &serviceTypeID
	}
	return resp
}
