package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carhouse/internal/association"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/events"
	"github.com/smallbiznis/carhouse/internal/observability/metrics"
	"github.com/smallbiznis/carhouse/internal/pricing"
	productdomain "github.com/smallbiznis/carhouse/internal/product/domain"
	"github.com/smallbiznis/carhouse/internal/servicetype/domain"
	"github.com/smallbiznis/carhouse/internal/validation"
	"github.com/smallbiznis/carhouse/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const partsRelation = "service_type_products"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ProductRepo productdomain.Repository
	AuditSvc    auditdomain.Service `optional:"true"`
	Publisher   events.Publisher    `optional:"true"`
	Locker      domain.PartsLocker  `optional:"true"`
	Formatter   *pricing.Formatter  `optional:"true"`
	Metrics     *metrics.Metrics    `optional:"true"`
	Jobs        *metrics.JobMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	productRepo productdomain.Repository
	auditSvc    auditdomain.Service
	publisher   events.Publisher
	locker      domain.PartsLocker
	formatter   *pricing.Formatter
	metrics     *metrics.Metrics
	jobs        *metrics.JobMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("servicetype.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		productRepo: p.ProductRepo,
		auditSvc:    p.AuditSvc,
		publisher:   p.Publisher,
		locker:      p.Locker,
		formatter:   p.Formatter,
		metrics:     p.Metrics,
		jobs:        p.Jobs,
	}
}

type partsSynced struct {
	ServiceTypeID string `json:"service_type_id"`
	Deleted       int    `json:"deleted"`
	Upserted      int    `json:"upserted"`
	Parts         int    `json:"parts"`
}

// Create saves the service type and then, when parts are given, syncs them.
// On ErrPartsSyncFailed the saved service type is still returned.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	now := s.clock.Now()
	st := &domain.ServiceType{
		ID:              s.genID.Generate(),
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		DurationMinutes: req.DurationMinutes,
		BasePrice:       req.BasePrice,
		Icon:            strings.TrimSpace(req.Icon),
		Position:        req.Position,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if st.Icon == "" {
		st.Icon = domain.DefaultIcon
	}
	if err := validate(st); err != nil {
		return nil, err
	}

	var desired association.Set[snowflake.ID]
	if req.Parts != nil {
		var err error
		if desired, err = s.desiredParts(ctx, req.Parts); err != nil {
			return nil, err
		}
	}

	if err := s.assignCode(ctx, st); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, s.db, st); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeTaken
		}
		return nil, err
	}
	s.audit(ctx, "service_type.created", st.ID, map[string]any{"name": st.Name})
	s.publishSaved(ctx, st)

	resp := s.toResponse(st)
	if desired == nil {
		return &resp, nil
	}
	result, err := s.syncParts(ctx, st, desired)
	resp.Sync = result
	return &resp, err
}

// Update applies the changed fields and, when parts are given, syncs them.
// On ErrPartsSyncFailed the saved service type is still returned.
func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	st, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	renamed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		renamed = name != st.Name
		st.Name = name
	}
	if req.Description != nil {
		st.Description = strings.TrimSpace(*req.Description)
	}
	if req.DurationMinutes != nil {
		st.DurationMinutes = req.DurationMinutes
	}
	if req.BasePrice != nil {
		st.BasePrice = req.BasePrice
	}
	if req.Icon != nil {
		st.Icon = strings.TrimSpace(*req.Icon)
		if st.Icon == "" {
			st.Icon = domain.DefaultIcon
		}
	}
	if req.Position != nil {
		st.Position = *req.Position
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if err := validate(st); err != nil {
		return nil, err
	}

	var desired association.Set[snowflake.ID]
	if req.Parts != nil {
		if desired, err = s.desiredParts(ctx, req.Parts); err != nil {
			return nil, err
		}
	}

	if renamed {
		if err := s.assignCode(ctx, st); err != nil {
			return nil, err
		}
	}

	st.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, st); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeTaken
		}
		return nil, err
	}
	s.audit(ctx, "service_type.updated", st.ID, map[string]any{"name": st.Name, "code": st.Code})
	s.publishSaved(ctx, st)

	resp := s.toResponse(st)
	if desired == nil {
		return &resp, nil
	}
	result, err := s.syncParts(ctx, st, desired)
	resp.Sync = result
	return &resp, err
}

// assignCode derives the code from the name and rejects it when another
// service type already holds it.
func (s *Service) assignCode(ctx context.Context, st *domain.ServiceType) error {
	code := slug.Make(st.Name)
	if code == "" {
		code = st.ID.String()
	}
	existing, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != st.ID {
		return domain.ErrCodeTaken
	}
	st.Code = code
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(st)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, req.ActiveOnly)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	st, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, st.ID); err != nil {
		return err
	}
	s.audit(ctx, "service_type.deleted", st.ID, map[string]any{"name": st.Name})
	return nil
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*domain.Response, error) {
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	st.IsActive = active
	st.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, st); err != nil {
		return nil, err
	}
	s.audit(ctx, "service_type.toggle_active", st.ID, map[string]any{"is_active": active})
	resp := s.toResponse(st)
	return &resp, nil
}

func (s *Service) ListParts(ctx context.Context, id string) ([]domain.PartResponse, error) {
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.listParts(ctx, st.ID)
}

func (s *Service) SyncParts(ctx context.Context, req domain.SyncPartsRequest) (*domain.SyncResult, error) {
	st, err := s.find(ctx, req.ServiceTypeID)
	if err != nil {
		return nil, err
	}
	desired, err := s.desiredParts(ctx, req.Parts)
	if err != nil {
		return nil, err
	}
	return s.syncParts(ctx, st, desired)
}

func (s *Service) CatalogFor(ctx context.Context, id string) (*domain.Catalog, error) {
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	parts, err := s.repo.ListParts(ctx, s.db, st.ID)
	if err != nil {
		return nil, err
	}

	catalog := &domain.Catalog{
		ServiceTypeID: st.ID.String(),
		Name:          st.Name,
		BasePrice:     st.Base(),
		Items:         make([]pricing.LineItem, 0, len(parts)),
	}
	for _, part := range parts {
		catalog.Items = append(catalog.Items, pricing.LineItem{
			ProductID: part.ProductID,
			Name:      part.Name,
			UnitPrice: part.Price,
			Quantity:  part.Quantity,
		})
	}
	return catalog, nil
}

// syncParts reads the current links, then deletes and upserts one statement
// at a time. A failure stops the run and is reported as ErrPartsSyncFailed;
// operations already applied stay applied.
func (s *Service) syncParts(ctx context.Context, st *domain.ServiceType, desired association.Set[snowflake.ID]) (*domain.SyncResult, error) {
	if s.locker != nil {
		unlock, ok, err := s.locker.LockParts(ctx, st.ID.String())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrSyncInProgress
		}
		defer unlock(context.WithoutCancel(ctx))
	}

	started := time.Now()
	current, err := s.currentParts(ctx, st.ID)
	if err != nil {
		s.jobs.Observe(metrics.JobPartsSync, started, err)
		return nil, err
	}

	plan := association.Reconcile(current, desired)
	store := &partsStore{db: s.db, repo: s.repo, serviceTypeID: st.ID, now: s.clock.Now()}
	applied, execErr := association.Execute(ctx, store, plan)

	s.jobs.Observe(metrics.JobPartsSync, started, execErr)
	s.jobs.AddApplied(metrics.JobPartsSync, string(association.OpDelete), applied.Deleted)
	s.jobs.AddApplied(metrics.JobPartsSync, string(association.OpUpsert), applied.Upserted)
	s.metrics.RecordAssociationChanges(ctx, partsRelation, applied.Deleted, applied.Upserted)

	if execErr != nil {
		s.log.Error("parts sync stopped",
			zap.String("service_type_id", st.ID.String()),
			zap.Int("deleted", applied.Deleted),
			zap.Int("upserted", applied.Upserted),
			zap.Int("planned_deletions", len(plan.Deletions)),
			zap.Int("planned_upserts", len(plan.Upserts)),
			zap.Error(execErr),
		)
		s.audit(ctx, "service_type.parts_sync_failed", st.ID, map[string]any{
			"deleted":  applied.Deleted,
			"upserted": applied.Upserted,
		})
		return &domain.SyncResult{Result: applied}, fmt.Errorf("%w: %w", domain.ErrPartsSyncFailed, execErr)
	}

	parts, err := s.listParts(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "service_type.parts_synced", st.ID, map[string]any{
		"deleted":  applied.Deleted,
		"upserted": applied.Upserted,
	})
	if s.publisher != nil {
		payload := partsSynced{
			ServiceTypeID: st.ID.String(),
			Deleted:       applied.Deleted,
			Upserted:      applied.Upserted,
			Parts:         len(parts),
		}
		if err := s.publisher.Publish(ctx, events.EventTypePartsSynced, st.ID.String(), payload); err != nil {
			s.log.Warn("failed to publish parts sync", zap.String("service_type_id", st.ID.String()), zap.Error(err))
		}
	}

	return &domain.SyncResult{Result: applied, Parts: parts}, nil
}

func (s *Service) currentParts(ctx context.Context, serviceTypeID snowflake.ID) (association.Set[snowflake.ID], error) {
	parts, err := s.repo.ListParts(ctx, s.db, serviceTypeID)
	if err != nil {
		return nil, err
	}
	current := make(association.Set[snowflake.ID], len(parts))
	for _, part := range parts {
		current[part.ProductID] = part.Quantity
	}
	return current, nil
}

// desiredParts parses and validates the requested parts. Every product must exist.
func (s *Service) desiredParts(ctx context.Context, inputs []domain.PartInput) (association.Set[snowflake.ID], error) {
	desired := make(association.Set[snowflake.ID], len(inputs))
	ids := make([]snowflake.ID, 0, len(inputs))
	for _, input := range inputs {
		productID, err := snowflake.ParseString(strings.TrimSpace(input.ProductID))
		if err != nil || productID == 0 {
			return nil, domain.ErrInvalidProductID
		}
		if _, ok := desired[productID]; ok {
			return nil, domain.ErrDuplicateProduct
		}
		desired[productID] = input.Quantity
		ids = append(ids, productID)
	}
	if err := desired.Validate(); err != nil {
		if errors.Is(err, association.ErrInvalidQuantity) {
			return nil, domain.ErrInvalidQuantity
		}
		return nil, err
	}
	if len(ids) == 0 {
		return desired, nil
	}

	products, err := s.productRepo.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	if len(products) != len(ids) {
		return nil, domain.ErrProductNotFound
	}
	return desired, nil
}

func (s *Service) listParts(ctx context.Context, serviceTypeID snowflake.ID) ([]domain.PartResponse, error) {
	parts, err := s.repo.ListParts(ctx, s.db, serviceTypeID)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.PartResponse, 0, len(parts))
	for _, part := range parts {
		subtotal := part.Price.Mul(decimal.NewFromInt(part.Quantity))
		item := domain.PartResponse{
			ProductID: part.ProductID.String(),
			Name:      part.Name,
			Brand:     part.Brand,
			UnitPrice: part.Price,
			Quantity:  part.Quantity,
			Subtotal:  subtotal,
			InStock:   int64(part.Stock) >= part.Quantity,
		}
		if s.formatter != nil {
			item.PriceDisplay = s.formatter.Money(part.Price)
		}
		resp = append(resp, item)
	}
	return resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.ServiceType, error) {
	serviceTypeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || serviceTypeID == 0 {
		return nil, domain.ErrInvalidID
	}
	st, err := s.repo.FindByID(ctx, s.db, serviceTypeID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

func (s *Service) publishSaved(ctx context.Context, st *domain.ServiceType) {
	if s.publisher == nil {
		return
	}
	resp := s.toResponse(st)
	if err := s.publisher.Publish(ctx, events.EventTypeServiceTypeSaved, st.ID.String(), resp); err != nil {
		s.log.Warn("failed to publish service type", zap.String("service_type_id", st.ID.String()), zap.Error(err))
	}
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "service_type", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func validate(st *domain.ServiceType) error {
	switch {
	case st.Name == "":
		return domain.ErrInvalidName
	case validation.TooLong(st.Name, validation.MaxNameLength):
		return domain.ErrNameTooLong
	case validation.TooLong(st.Description, validation.MaxDescriptionLength):
		return domain.ErrDescriptionTooLong
	case st.DurationMinutes != nil && *st.DurationMinutes < 0:
		return domain.ErrInvalidDuration
	case st.BasePrice != nil && st.BasePrice.IsNegative():
		return domain.ErrInvalidBasePrice
	}
	return nil
}

func (s *Service) toResponse(st *domain.ServiceType) domain.Response {
	return domain.Response{
		ID:              st.ID.String(),
		Code:            st.Code,
		Name:            st.Name,
		Description:     st.Description,
		DurationMinutes: st.DurationMinutes,
		DurationDisplay: pricing.FormatDuration(st.DurationMinutes),
		BasePrice:       st.BasePrice,
		Icon:            st.Icon,
		Position:        st.Position,
		IsActive:        st.IsActive,
		CreatedAt:       st.CreatedAt,
		UpdatedAt:       st.UpdatedAt,
	}
}
