package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	categorydomain "github.com/smallbiznis/carhouse/internal/category/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/config"
	"github.com/smallbiznis/carhouse/internal/events"
	"github.com/smallbiznis/carhouse/internal/pricing"
	"github.com/smallbiznis/carhouse/internal/product/domain"
	"github.com/smallbiznis/carhouse/internal/validation"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	CategoryRepo categorydomain.Repository
	AuditSvc     auditdomain.Service         `optional:"true"`
	Publisher    events.Publisher            `optional:"true"`
	Formatter    *pricing.Formatter          `optional:"true"`
	Pricing      *config.PricingConfigHolder `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	categoryRepo categorydomain.Repository
	auditSvc     auditdomain.Service
	publisher    events.Publisher
	formatter    *pricing.Formatter
	lowStock     int
}

func New(p Params) domain.Service {
	lowStock := domain.DefaultLowStockThreshold
	if p.Pricing != nil && p.Pricing.Get().LowStockThreshold > 0 {
		lowStock = p.Pricing.Get().LowStockThreshold
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("product.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		categoryRepo: p.CategoryRepo,
		auditSvc:     p.AuditSvc,
		publisher:    p.Publisher,
		formatter:    p.Formatter,
		lowStock:     lowStock,
	}
}

type stockChanged struct {
	ProductID string `json:"product_id"`
	Previous  int    `json:"previous"`
	Current   int    `json:"current"`
	LowStock  bool   `json:"low_stock"`
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	now := s.clock.Now()
	p := &domain.Product{
		ID:          s.genID.Generate(),
		Name:        strings.TrimSpace(req.Name),
		Brand:       strings.TrimSpace(req.Brand),
		CarModel:    strings.TrimSpace(req.CarModel),
		Price:       req.Price,
		Stock:       req.Stock,
		Rating:      req.Rating,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	categoryID, err := s.resolveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	p.CategoryID = categoryID

	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}

	s.audit(ctx, "product.created", p.ID, map[string]any{
		"name":  p.Name,
		"price": p.Price.String(),
		"stock": p.Stock,
	})
	resp := s.toResponse(p)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	p, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	previousStock := p.Stock

	if req.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		p.CategoryID = categoryID
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Brand != nil {
		p.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.CarModel != nil {
		p.CarModel = strings.TrimSpace(*req.CarModel)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Rating != nil {
		p.Rating = *req.Rating
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, p); err != nil {
		return nil, err
	}

	s.audit(ctx, "product.updated", p.ID, nil)
	if previousStock != p.Stock && s.publisher != nil {
		payload := stockChanged{
			ProductID: p.ID.String(),
			Previous:  previousStock,
			Current:   p.Stock,
			LowStock:  p.IsLowStock(s.lowStock),
		}
		if err := s.publisher.Publish(ctx, events.EventTypeProductStockChanged, p.ID.String(), payload); err != nil {
			s.log.Warn("failed to publish stock change", zap.String("product_id", p.ID.String()), zap.Error(err))
		}
	}

	if err := s.attachImages(ctx, []*domain.Product{p}); err != nil {
		return nil, err
	}
	resp := s.toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachImages(ctx, []*domain.Product{p}); err != nil {
		return nil, err
	}
	resp := s.toResponse(p)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{
		Name:  req.Name,
		Brand: req.Brand,
	}
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		categoryID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidCategory
		}
		filter.CategoryID = &categoryID
	}
	if req.LowStockOnly {
		threshold := s.lowStock
		filter.MaxStock = &threshold
	}

	page := req.Pagination.Normalize()
	items, err := s.repo.List(ctx, s.db, filter,
		option.WithSortBy(option.WithQuerySortBy(req.SortBy, req.OrderBy, map[string]bool{
			"created_at": true,
			"name":       true,
			"price":      true,
			"stock":      true,
			"rating":     true,
		})),
		option.ApplyPagination(page),
	)
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, info := pagination.BuildPageInfo(items, page)

	ptrs := make([]*domain.Product, 0, len(items))
	for i := range items {
		ptrs = append(ptrs, &items[i])
	}
	if err := s.attachImages(ctx, ptrs); err != nil {
		return domain.ListResponse{}, err
	}

	resp := domain.ListResponse{PageInfo: info, Products: make([]domain.Response, 0, len(items))}
	for _, p := range ptrs {
		resp.Products = append(resp.Products, s.toResponse(p))
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, p.ID); err != nil {
		return err
	}
	s.audit(ctx, "product.deleted", p.ID, map[string]any{"name": p.Name})
	return nil
}

func (s *Service) AddImage(ctx context.Context, req domain.AddImageRequest) (*domain.ImageResponse, error) {
	p, err := s.find(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, domain.ErrInvalidImageURL
	}
	position := req.Position
	if position < 0 {
		position = 0
	}

	image := &domain.ProductImage{
		ID:        s.genID.Generate(),
		ProductID: p.ID,
		URL:       url,
		AltText:   strings.TrimSpace(req.AltText),
		Position:  position,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.InsertImage(ctx, s.db, image); err != nil {
		return nil, err
	}

	s.audit(ctx, "product.image_added", p.ID, map[string]any{"image_id": image.ID.String()})
	resp := toImageResponse(image)
	return &resp, nil
}

func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	parsed := make([]snowflake.ID, 0, len(ids))
	for _, raw := range ids {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		parsed = append(parsed, id)
	}
	return s.repo.FindByIDs(ctx, s.db, parsed)
}

func (s *Service) find(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}
	p, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// resolveCategory parses and checks the category id. An empty value clears it.
func (s *Service) resolveCategory(ctx context.Context, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidCategory
	}
	category, err := s.categoryRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrInvalidCategory
	}
	return &id, nil
}

func (s *Service) attachImages(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(products))
	byID := make(map[snowflake.ID]*domain.Product, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
		byID[p.ID] = p
		p.Images = nil
	}
	images, err := s.repo.ListImages(ctx, s.db, ids)
	if err != nil {
		return err
	}
	for _, image := range images {
		if p, ok := byID[image.ProductID]; ok {
			p.Images = append(p.Images, image)
		}
	}
	return nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "product", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func validate(p *domain.Product) error {
	switch {
	case p.Name == "":
		return domain.ErrInvalidName
	case validation.TooLong(p.Name, validation.MaxNameLength):
		return domain.ErrNameTooLong
	case p.Brand == "":
		return domain.ErrInvalidBrand
	case validation.TooLong(p.Description, validation.MaxDescriptionLength):
		return domain.ErrDescriptionTooLong
	case p.Price.IsNegative():
		return domain.ErrInvalidPrice
	case p.Stock < 0:
		return domain.ErrInvalidStock
	case p.Rating < validation.MinRating || p.Rating > validation.MaxRating:
		return domain.ErrInvalidRating
	}
	return nil
}

func (s *Service) toResponse(p *domain.Product) domain.Response {
	resp := domain.Response{
		ID:          p.ID.String(),
		Name:        p.Name,
		Brand:       p.Brand,
		CarModel:    p.CarModel,
		Price:       p.Price,
		Stock:       p.Stock,
		LowStock:    p.IsLowStock(s.lowStock),
		Rating:      p.Rating,
		Description: p.Description,
		Images:      make([]domain.ImageResponse, 0, len(p.Images)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.CategoryID != nil {
		categoryID := p.CategoryID.String()
		resp.CategoryID = &categoryID
	}
	if s.formatter != nil {
		resp.PriceDisplay = s.formatter.Money(p.Price)
	}
	for i := range p.Images {
		resp.Images = append(resp.Images, toImageResponse(&p.Images[i]))
	}
	return resp
}

func toImageResponse(image *domain.ProductImage) domain.ImageResponse {
	return domain.ImageResponse{
		ID:       image.ID.String(),
		URL:      image.URL,
		AltText:  image.AltText,
		Position: image.Position,
	}
}

