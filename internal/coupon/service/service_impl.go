package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/coupon/domain"
	"github.com/smallbiznis/carhouse/internal/pricing"
	"github.com/smallbiznis/carhouse/internal/validation"
	"github.com/smallbiznis/carhouse/pkg/db"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Formatter *pricing.Formatter  `optional:"true"`
	AuditSvc  auditdomain.Service `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	formatter *pricing.Formatter
	auditSvc  auditdomain.Service
}

func New(p Params) domain.Service {
	formatter := p.Formatter
	if formatter == nil {
		formatter = pricing.NewFormatter("")
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("coupon.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		formatter: formatter,
		auditSvc:  p.AuditSvc,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	page := req.Pagination.Normalize()
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{Active: req.Active}, option.ApplyPagination(page))
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, info := pagination.BuildPageInfo(items, page)

	resp := domain.ListResponse{PageInfo: info, Coupons: make([]domain.Response, 0, len(items))}
	for i := range items {
		resp.Coupons = append(resp.Coupons, s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(c)
	return &resp, nil
}

// Create validates and stores a coupon. Codes are stored upper-case and are unique.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	now := s.clock.Now()
	c := &domain.Coupon{
		ID:             s.genID.Generate(),
		Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
		Description:    strings.TrimSpace(req.Description),
		DiscountValue:  req.DiscountValue,
		MinOrderAmount: decimal.Zero,
		MaxUses:        req.MaxUses,
		StartsAt:       req.StartsAt,
		ExpiresAt:      req.ExpiresAt,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.MinOrderAmount != nil {
		c.MinOrderAmount = *req.MinOrderAmount
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	discountType, err := domain.ParseDiscountType(strings.ToLower(strings.TrimSpace(req.DiscountType)))
	if err != nil {
		return nil, err
	}
	c.DiscountType = discountType
	if err := validate(c); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByCode(ctx, s.db, c.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrCodeTaken
	}
	if err := s.repo.Create(ctx, s.db, c); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeTaken
		}
		return nil, err
	}

	s.audit(ctx, "coupon.created", c.ID, map[string]any{
		"code":           c.Code,
		"discount_type":  string(c.DiscountType),
		"discount_value": c.DiscountValue.String(),
	})
	resp := s.toResponse(c)
	return &resp, nil
}

// SetActive switches a coupon on or off. Setting the current value again is a no-op.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*domain.Response, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsActive == active {
		resp := s.toResponse(c)
		return &resp, nil
	}

	now := s.clock.Now()
	if err := s.repo.SetActive(ctx, s.db, c.ID, active, now); err != nil {
		return nil, err
	}
	c.IsActive = active
	c.UpdatedAt = now

	s.audit(ctx, "coupon.toggled", c.ID, map[string]any{"code": c.Code, "is_active": active})
	resp := s.toResponse(c)
	return &resp, nil
}

func validate(c *domain.Coupon) error {
	if !validation.IsCode(c.Code) {
		return domain.ErrInvalidCode
	}
	if validation.TooLong(c.Description, validation.MaxDescriptionLength) {
		return domain.ErrDescriptionTooLong
	}
	if !c.DiscountValue.IsPositive() {
		return domain.ErrInvalidDiscountValue
	}
	if c.DiscountType == domain.DiscountPercentage && c.DiscountValue.GreaterThan(hundred) {
		return domain.ErrInvalidDiscountValue
	}
	if c.MinOrderAmount.IsNegative() {
		return domain.ErrInvalidMinOrderAmount
	}
	if c.MaxUses != nil && *c.MaxUses <= 0 {
		return domain.ErrInvalidMaxUses
	}
	if c.StartsAt != nil && c.ExpiresAt != nil && !c.ExpiresAt.After(*c.StartsAt) {
		return domain.ErrInvalidValidityWindow
	}
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Coupon, error) {
	couponID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || couponID == 0 {
		return nil, domain.ErrInvalidID
	}
	c, err := s.repo.FindByID(ctx, s.db, couponID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "coupon", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func (s *Service) toResponse(c *domain.Coupon) domain.Response {
	resp := domain.Response{
		ID:             c.ID.String(),
		Code:           c.Code,
		Description:    c.Description,
		DiscountType:   string(c.DiscountType),
		DiscountValue:  c.DiscountValue,
		MinOrderAmount: c.MinOrderAmount,
		MaxUses:        c.MaxUses,
		UsedCount:      c.UsedCount,
		StartsAt:       c.StartsAt,
		ExpiresAt:      c.ExpiresAt,
		IsActive:       c.IsActive,
		Status:         string(c.StatusAt(s.clock.Now())),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.DiscountType == domain.DiscountPercentage {
		resp.DiscountDisplay = c.DiscountValue.String() + "%"
	} else {
		resp.DiscountDisplay = s.formatter.Money(c.DiscountValue)
	}
	if c.MinOrderAmount.IsPositive() {
		resp.MinOrderAmountDisplay = s.formatter.Money(c.MinOrderAmount)
	}
	return resp
}
