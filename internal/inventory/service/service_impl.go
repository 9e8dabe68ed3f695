package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/association"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/config"
	"github.com/smallbiznis/carhouse/internal/events"
	"github.com/smallbiznis/carhouse/internal/inventory/domain"
	"github.com/smallbiznis/carhouse/internal/observability/metrics"
	productdomain "github.com/smallbiznis/carhouse/internal/product/domain"
	"github.com/smallbiznis/carhouse/internal/validation"
	"github.com/smallbiznis/carhouse/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const inventoryRelation = "inventory"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ProductRepo productdomain.Repository
	AuditSvc    auditdomain.Service         `optional:"true"`
	Publisher   events.Publisher            `optional:"true"`
	Pricing     *config.PricingConfigHolder `optional:"true"`
	Metrics     *metrics.Metrics            `optional:"true"`
	Jobs        *metrics.JobMetrics         `optional:"true"`
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
	metrics     *metrics.Metrics
	jobs        *metrics.JobMetrics
	lowStock    int
}

func New(p Params) domain.Service {
	lowStock := productdomain.DefaultLowStockThreshold
	if p.Pricing != nil && p.Pricing.Get().LowStockThreshold > 0 {
		lowStock = p.Pricing.Get().LowStockThreshold
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("inventory.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		productRepo: p.ProductRepo,
		auditSvc:    p.AuditSvc,
		publisher:   p.Publisher,
		metrics:     p.Metrics,
		jobs:        p.Jobs,
		lowStock:    lowStock,
	}
}

type stockChanged struct {
	ProductID string `json:"product_id"`
	Previous  int    `json:"previous"`
	Current   int    `json:"current"`
	LowStock  bool   `json:"low_stock"`
}

func (s *Service) ListStores(ctx context.Context) ([]domain.StoreResponse, error) {
	stores, err := s.repo.ListStores(ctx, s.db)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.StoreResponse, 0, len(stores))
	for i := range stores {
		resp = append(resp, toStoreResponse(&stores[i]))
	}
	return resp, nil
}

func (s *Service) CreateStore(ctx context.Context, req domain.CreateStoreRequest) (*domain.StoreResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidStoreName
	}
	if validation.TooLong(name, validation.MaxNameLength) {
		return nil, domain.ErrStoreNameTooLong
	}

	now := s.clock.Now()
	store := &domain.Store{
		ID:        s.genID.Generate(),
		Name:      name,
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateStore(ctx, s.db, store); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrStoreNameTaken
		}
		return nil, err
	}

	targetID := store.ID.String()
	s.audit(ctx, "store.created", "store", targetID, map[string]any{"name": store.Name})
	resp := toStoreResponse(store)
	return &resp, nil
}

func (s *Service) ListLevels(ctx context.Context, productID string) (*domain.StockResponse, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.stock(ctx, product.ID, product.Stock)
}

// UpdateLevel sets the quantity of one product in one store. Other stores
// are left untouched.
func (s *Service) UpdateLevel(ctx context.Context, req domain.UpdateLevelRequest) (*domain.StockResponse, error) {
	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	storeID, err := parseStoreID(req.StoreID)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := s.requireStores(ctx, []snowflake.ID{storeID}); err != nil {
		return nil, err
	}

	plan := association.Plan[snowflake.ID]{
		Upserts: []association.Link[snowflake.ID]{{Child: storeID, Quantity: req.Quantity}},
	}
	resp, err := s.apply(ctx, product, plan)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "inventory.updated", "product", product.ID.String(), map[string]any{
		"store_id": storeID.String(),
		"quantity": req.Quantity,
	})
	return resp, nil
}

// SyncLevels replaces the product's store levels with the requested ones.
// The whole change runs in one transaction.
func (s *Service) SyncLevels(ctx context.Context, req domain.SyncLevelsRequest) (*domain.StockResponse, error) {
	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	desired := make(association.Set[snowflake.ID], len(req.Levels))
	ids := make([]snowflake.ID, 0, len(req.Levels))
	for _, input := range req.Levels {
		storeID, err := parseStoreID(input.StoreID)
		if err != nil {
			return nil, err
		}
		if _, ok := desired[storeID]; ok {
			return nil, domain.ErrDuplicateStore
		}
		if input.Quantity < 0 {
			return nil, domain.ErrInvalidQuantity
		}
		desired[storeID] = input.Quantity
		ids = append(ids, storeID)
	}
	if err := s.requireStores(ctx, ids); err != nil {
		return nil, err
	}

	levels, err := s.repo.ListLevels(ctx, s.db, product.ID)
	if err != nil {
		return nil, err
	}
	current := make(association.Set[snowflake.ID], len(levels))
	for _, level := range levels {
		current[level.StoreID] = int64(level.Quantity)
	}

	plan := association.Reconcile(current, desired)
	resp, err := s.apply(ctx, product, plan)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "inventory.synced", "product", product.ID.String(), map[string]any{
		"deleted":  len(plan.Deletions),
		"upserted": len(plan.Upserts),
	})
	return resp, nil
}

// apply executes plan and refreshes the product's catalog stock in one
// transaction. Any failure rolls the whole change back.
func (s *Service) apply(ctx context.Context, product *productdomain.Product, plan association.Plan[snowflake.ID]) (*domain.StockResponse, error) {
	started := time.Now()
	now := s.clock.Now()

	var (
		applied association.Result
		total   int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := &levelStore{db: tx, repo: s.repo, productID: product.ID, now: now}
		var execErr error
		applied, execErr = association.Execute(ctx, store, plan)
		if execErr != nil {
			return fmt.Errorf("%w: %w", domain.ErrInventorySyncFailed, execErr)
		}
		var refreshErr error
		total, refreshErr = s.repo.RefreshProductStock(ctx, tx, product.ID, now)
		return refreshErr
	})
	s.jobs.Observe(metrics.JobInventory, started, err)
	if err != nil {
		s.log.Error("inventory update rolled back",
			zap.String("product_id", product.ID.String()),
			zap.Int("planned_deletions", len(plan.Deletions)),
			zap.Int("planned_upserts", len(plan.Upserts)),
			zap.Error(err),
		)
		return nil, err
	}
	s.jobs.AddApplied(metrics.JobInventory, string(association.OpDelete), applied.Deleted)
	s.jobs.AddApplied(metrics.JobInventory, string(association.OpUpsert), applied.Upserted)
	s.metrics.RecordAssociationChanges(ctx, inventoryRelation, applied.Deleted, applied.Upserted)

	if total != product.Stock {
		s.publishStockChanged(ctx, product.ID, product.Stock, total)
	}
	return s.stock(ctx, product.ID, total)
}

func (s *Service) stock(ctx context.Context, productID snowflake.ID, total int) (*domain.StockResponse, error) {
	levels, err := s.repo.ListLevels(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	resp := &domain.StockResponse{
		ProductID:  productID.String(),
		TotalStock: total,
		LowStock:   total < s.lowStock,
		Levels:     make([]domain.LevelResponse, 0, len(levels)),
	}
	for _, level := range levels {
		resp.Levels = append(resp.Levels, domain.LevelResponse{
			StoreID:   level.StoreID.String(),
			StoreName: level.StoreName,
			Quantity:  level.Quantity,
			Reserved:  level.Reserved,
			Available: level.Available(),
			UpdatedAt: level.UpdatedAt,
		})
	}
	return resp, nil
}

func (s *Service) requireStores(ctx context.Context, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	stores, err := s.repo.FindStoresByIDs(ctx, s.db, ids)
	if err != nil {
		return err
	}
	if len(stores) != len(ids) {
		return domain.ErrStoreNotFound
	}
	return nil
}

func (s *Service) findProduct(ctx context.Context, id string) (*productdomain.Product, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidProductID
	}
	product, err := s.productRepo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func parseStoreID(raw string) (snowflake.ID, error) {
	storeID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || storeID == 0 {
		return 0, domain.ErrInvalidStoreID
	}
	return storeID, nil
}

func (s *Service) publishStockChanged(ctx context.Context, productID snowflake.ID, previous, current int) {
	if s.publisher == nil {
		return
	}
	payload := stockChanged{
		ProductID: productID.String(),
		Previous:  previous,
		Current:   current,
		LowStock:  current < s.lowStock,
	}
	if err := s.publisher.Publish(ctx, events.EventTypeProductStockChanged, productID.String(), payload); err != nil {
		s.log.Warn("failed to publish stock change", zap.String("product_id", productID.String()), zap.Error(err))
	}
}

func (s *Service) audit(ctx context.Context, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func toStoreResponse(store *domain.Store) domain.StoreResponse {
	return domain.StoreResponse{
		ID:        store.ID.String(),
		Name:      store.Name,
		Address:   store.Address,
		CreatedAt: store.CreatedAt,
		UpdatedAt: store.UpdatedAt,
	}
}
