package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/category/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("category.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if validation.TooLong(description, validation.MaxDescriptionLength) {
		return nil, domain.ErrDescriptionTooLong
	}
	icon := strings.TrimSpace(req.Icon)
	if icon == "" {
		icon = domain.DefaultIcon
	}

	now := s.clock.Now()
	category := &domain.Category{
		ID:          s.genID.Generate(),
		Name:        name,
		Icon:        icon,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, category); err != nil {
		return nil, err
	}

	s.audit(ctx, "category.created", category.ID, map[string]any{"name": name})
	resp := toResponse(category)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	category, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := validateName(*req.Name)
		if err != nil {
			return nil, err
		}
		category.Name = name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if validation.TooLong(description, validation.MaxDescriptionLength) {
			return nil, domain.ErrDescriptionTooLong
		}
		category.Description = description
	}
	if req.Icon != nil {
		icon := strings.TrimSpace(*req.Icon)
		if icon == "" {
			icon = domain.DefaultIcon
		}
		category.Icon = icon
	}

	category.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, category); err != nil {
		return nil, err
	}

	s.audit(ctx, "category.updated", category.ID, nil)
	resp := toResponse(category)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	category, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(category)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, req.Name)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	category, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, category.ID); err != nil {
		return err
	}
	s.audit(ctx, "category.deleted", category.ID, map[string]any{"name": category.Name})
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Category, error) {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || categoryID == 0 {
		return nil, domain.ErrInvalidID
	}
	category, err := s.repo.FindByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrNotFound
	}
	return category, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "category", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func validateName(value string) (string, error) {
	name := strings.TrimSpace(value)
	if name == "" {
		return "", domain.ErrInvalidName
	}
	if validation.TooLong(name, validation.MaxNameLength) {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

func toResponse(c *domain.Category) domain.Response {
	return domain.Response{
		ID:          c.ID.String(),
		Name:        c.Name,
		Icon:        c.Icon,
		IconIsURL:   c.IconIsURL(),
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

