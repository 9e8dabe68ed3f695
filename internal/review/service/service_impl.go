package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/review/domain"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("review.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{Visible: req.Visible}
	if raw := strings.TrimSpace(req.ProductID); raw != "" {
		productID, err := snowflake.ParseString(raw)
		if err != nil || productID == 0 {
			return domain.ListResponse{}, domain.ErrInvalidProduct
		}
		filter.ProductID = &productID
	}

	page := req.Pagination.Normalize()
	items, err := s.repo.List(ctx, s.db, filter, option.ApplyPagination(page))
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, info := pagination.BuildPageInfo(items, page)

	resp := domain.ListResponse{PageInfo: info, Reviews: make([]domain.Response, 0, len(items))}
	for i := range items {
		resp.Reviews = append(resp.Reviews, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	review, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(review)
	return &resp, nil
}

// SetVisibility hides or shows a review. Setting the current value again is a no-op.
func (s *Service) SetVisibility(ctx context.Context, id string, visible bool) (*domain.Response, error) {
	review, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.IsVisible == visible {
		resp := toResponse(review)
		return &resp, nil
	}

	now := s.clock.Now()
	if err := s.repo.SetVisibility(ctx, s.db, review.ID, visible, now); err != nil {
		return nil, err
	}
	review.IsVisible = visible
	review.UpdatedAt = now

	s.audit(ctx, "review.visibility_changed", review.ID, map[string]any{
		"product_id": review.ProductID.String(),
		"is_visible": visible,
	})
	resp := toResponse(review)
	return &resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Review, error) {
	reviewID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || reviewID == 0 {
		return nil, domain.ErrInvalidID
	}
	review, err := s.repo.FindByID(ctx, s.db, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, domain.ErrNotFound
	}
	return review, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "review", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func toResponse(r *domain.Review) domain.Response {
	resp := domain.Response{
		ID:           r.ID.String(),
		ProductID:    r.ProductID.String(),
		ProductName:  r.ProductName,
		ReviewerName: r.ReviewerName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		IsVisible:    r.IsVisible,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.UserID != nil {
		userID := r.UserID.String()
		resp.UserID = &userID
	}
	return resp
}
