package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/config"
	"github.com/smallbiznis/carhouse/internal/events"
	"github.com/smallbiznis/carhouse/internal/observability/metrics"
	"github.com/smallbiznis/carhouse/internal/order/domain"
	"github.com/smallbiznis/carhouse/internal/pricing"
	"github.com/smallbiznis/carhouse/internal/providers/pdf"
	userdomain "github.com/smallbiznis/carhouse/internal/user/domain"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	UserRepo   userdomain.Repository
	Calculator *pricing.Calculator
	Formatter  *pricing.Formatter
	PDF        pdf.Provider        `optional:"true"`
	AuditSvc   auditdomain.Service `optional:"true"`
	Publisher  events.Publisher    `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
	Config     config.Config       `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	userRepo  userdomain.Repository
	calc      *pricing.Calculator
	formatter *pricing.Formatter
	pdf       pdf.Provider
	auditSvc  auditdomain.Service
	publisher events.Publisher
	metrics   *metrics.Metrics
	company   pdf.Company
}

func New(p Params) domain.Service {
	company := pdf.Company{Name: p.Config.AppName}
	if company.Name == "" {
		company.Name = "carhouse"
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("order.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		userRepo:  p.UserRepo,
		calc:      p.Calculator,
		formatter: p.Formatter,
		pdf:       p.PDF,
		auditSvc:  p.AuditSvc,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		company:   company,
	}
}

type statusChanged struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Create prices every item, sums the subtotals and stores the tax-inclusive
// total rounded to the money scale. The response, audit entry and event carry
// the stored value.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	now := s.clock.Now()
	order := &domain.Order{
		ID:        s.genID.Generate(),
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
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
		order.UserID = &userID
		order.CustomerEmail = user.Email
		order.CustomerName = user.FullName
	}
	if req.ShippingAddress != nil {
		order.ShippingAddress = datatypes.JSONMap(req.ShippingAddress)
	}
	if req.BillingAddress != nil {
		order.BillingAddress = datatypes.JSONMap(req.BillingAddress)
	}

	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, input := range req.Items {
		item, err := s.buildItem(order.ID, input)
		if err != nil {
			return nil, err
		}
		item.CreatedAt = now
		subtotal = subtotal.Add(item.Subtotal)
		items = append(items, item)
	}

	gross, err := s.calc.TotalFromSubtotal(subtotal)
	if err != nil {
		return nil, err
	}
	total := pricing.RoundMoney(gross)
	order.TotalAmount = total
	order.Items = items

	if err := s.repo.Create(ctx, s.db, order, items); err != nil {
		return nil, err
	}

	s.audit(ctx, "order.created", order.ID, map[string]any{
		"total_amount": total.String(),
		"items":        len(items),
	})
	s.publish(ctx, events.EventTypeOrderCreated, order.ID, s.toResponse(order))

	resp := s.toResponse(order)
	return &resp, nil
}

func (s *Service) buildItem(orderID snowflake.ID, input domain.ItemInput) (domain.OrderItem, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return domain.OrderItem{}, domain.ErrInvalidItem
	}
	if input.Quantity <= 0 {
		return domain.OrderItem{}, domain.ErrInvalidQuantity
	}
	if input.UnitPrice.IsNegative() {
		return domain.OrderItem{}, domain.ErrInvalidUnitPrice
	}

	item := domain.OrderItem{
		ID:        s.genID.Generate(),
		OrderID:   orderID,
		SKU:       strings.TrimSpace(input.SKU),
		Title:     title,
		UnitPrice: input.UnitPrice,
		Quantity:  input.Quantity,
		Subtotal:  input.UnitPrice.Mul(decimal.NewFromInt(input.Quantity)),
	}
	if raw := strings.TrimSpace(input.ProductID); raw != "" {
		productID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.OrderItem{}, domain.ErrInvalidItem
		}
		item.ProductID = &productID
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(order)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	var filter domain.ListFilter
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		userID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidUser
		}
		filter.UserID = &userID
	}

	page := req.Pagination.Normalize()
	orders, err := s.repo.List(ctx, s.db, filter, option.ApplyPagination(page))
	if err != nil {
		return domain.ListResponse{}, err
	}
	orders, info := pagination.BuildPageInfo(orders, page)

	if err := s.attachItems(ctx, orders); err != nil {
		return domain.ListResponse{}, err
	}

	resp := domain.ListResponse{PageInfo: info, Orders: make([]domain.Response, 0, len(orders))}
	for i := range orders {
		resp.Orders = append(resp.Orders, s.toResponse(&orders[i]))
	}
	return resp, nil
}

// UpdateStatus moves the order along its lifecycle. Setting the current
// status again is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*domain.Response, error) {
	target, err := domain.ParseStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == target {
		resp := s.toResponse(order)
		return &resp, nil
	}
	if !domain.CanTransition(order.Status, target) {
		return nil, domain.ErrInvalidTransition
	}

	now := s.clock.Now()
	ok, err := s.repo.UpdateStatus(ctx, s.db, order.ID, order.Status, target, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrStatusConflict
	}

	from := order.Status
	order.Status = target
	order.UpdatedAt = now

	s.metrics.RecordOrderTransition(ctx, string(from), string(target))
	s.audit(ctx, "order.status_changed", order.ID, map[string]any{
		"from": string(from),
		"to":   string(target),
	})
	s.publish(ctx, events.EventTypeOrderStatusChanged, order.ID, statusChanged{
		OrderID: order.ID.String(),
		From:    string(from),
		To:      string(target),
	})

	resp := s.toResponse(order)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	order, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, order.ID); err != nil {
		return err
	}
	s.audit(ctx, "order.deleted", order.ID, map[string]any{"total_amount": order.TotalAmount.String()})
	s.publish(ctx, events.EventTypeOrderDeleted, order.ID, map[string]string{"order_id": order.ID.String()})
	return nil
}

// Breakdown splits the stored total back into subtotal and tax.
func (s *Service) Breakdown(ctx context.Context, id string) (*domain.BreakdownResponse, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.calc.Reconstruct(order.TotalAmount)
	if err != nil {
		return nil, err
	}
	return &domain.BreakdownResponse{
		OrderID:         order.ID.String(),
		Subtotal:        breakdown.Subtotal,
		Tax:             breakdown.Tax,
		Total:           breakdown.Total,
		TaxRate:         s.calc.Rate(),
		SubtotalDisplay: s.formatter.Money(breakdown.Subtotal),
		TaxDisplay:      s.formatter.Money(breakdown.Tax),
		TotalDisplay:    s.formatter.Money(breakdown.Total),
	}, nil
}

func (s *Service) Invoice(ctx context.Context, id string) (io.Reader, error) {
	if s.pdf == nil {
		return nil, fmt.Errorf("pdf provider not configured")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.calc.Reconstruct(order.TotalAmount)
	if err != nil {
		return nil, err
	}

	lines := make([]pdf.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, pdf.Line{
			Description: item.Title,
			Qty:         item.Quantity,
			UnitPrice:   s.formatter.Money(item.UnitPrice),
			Amount:      s.formatter.Money(item.Subtotal),
		})
	}

	return s.pdf.GenerateOrderInvoice(ctx, pdf.OrderInvoice{
		Company:       s.company,
		InvoiceNumber: "INV-" + order.ID.String(),
		IssueDate:     order.CreatedAt.Format("2006-01-02"),
		Status:        string(order.Status),
		BillToName:    order.CustomerName,
		BillToAddress: formatAddress(order.BillingAddress),
		BillToEmail:   order.CustomerEmail,
		ShipToName:    order.CustomerName,
		ShipToAddress: formatAddress(order.ShippingAddress),
		Items:         lines,
		Totals: pdf.Totals{
			Subtotal: s.formatter.Money(breakdown.Subtotal),
			TaxLabel: "VAT " + s.calc.Rate().Shift(2).String() + "%",
			Tax:      s.formatter.Money(breakdown.Tax),
			Total:    s.formatter.Money(breakdown.Total),
		},
	})
}

func (s *Service) find(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || orderID == 0 {
		return nil, domain.ErrInvalidID
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// load finds the order with its items.
func (s *Service) load(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	orders := []domain.Order{*order}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *Service) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(orders))
	index := make(map[snowflake.ID]int, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		index[orders[i].ID] = i
	}
	items, err := s.repo.ListItems(ctx, s.db, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType events.EventType, id snowflake.ID, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, id.String(), payload); err != nil {
		s.log.Warn("failed to publish order event",
			zap.String("event_type", string(eventType)),
			zap.String("order_id", id.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "order", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func (s *Service) toResponse(o *domain.Order) domain.Response {
	resp := domain.Response{
		ID:            o.ID.String(),
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		Status:        string(o.Status),
		TotalAmount:   o.TotalAmount,
		TotalDisplay:  s.formatter.Money(o.TotalAmount),
		Items:         make([]domain.ItemResponse, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.UserID != nil {
		userID := o.UserID.String()
		resp.UserID = &userID
	}
	if len(o.ShippingAddress) > 0 {
		resp.ShippingAddress = map[string]any(o.ShippingAddress)
	}
	if len(o.BillingAddress) > 0 {
		resp.BillingAddress = map[string]any(o.BillingAddress)
	}
	for _, item := range o.Items {
		ir := domain.ItemResponse{
			ID:        item.ID.String(),
			SKU:       item.SKU,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
		if item.ProductID != nil {
			productID := item.ProductID.String()
			ir.ProductID = &productID
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

// formatAddress joins the usual address keys into one line.
func formatAddress(address datatypes.JSONMap) string {
	if len(address) == 0 {
		return ""
	}
	parts := make([]string, 0, 5)
	for _, key := range []string{"line1", "line2", "city", "state", "postal_code", "country"} {
		if value, ok := address[key].(string); ok && strings.TrimSpace(value) != "" {
			parts = append(parts, strings.TrimSpace(value))
		}
	}
	return strings.Join(parts, ", ")
}
