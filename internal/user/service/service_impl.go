package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/user/domain"
	"github.com/smallbiznis/carhouse/internal/validation"
	"github.com/smallbiznis/carhouse/pkg/db"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:      p.Log.Named("user.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{Search: req.Search}
	if raw := strings.TrimSpace(req.Role); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.Role = role
	}

	page := req.Pagination.Normalize()
	items, err := s.repo.List(ctx, s.db, filter,
		option.WithSortBy(option.WithQuerySortBy("created_at", "desc", map[string]bool{"created_at": true})),
		option.ApplyPagination(page),
	)
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, info := pagination.BuildPageInfo(items, page)

	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	admins, err := s.repo.ListAdminsByUserIDs(ctx, s.db, ids)
	if err != nil {
		return domain.ListResponse{}, err
	}
	grants := make(map[snowflake.ID]*domain.Admin, len(admins))
	for i := range admins {
		grants[admins[i].UserID] = &admins[i]
	}

	resp := domain.ListResponse{PageInfo: info, Users: make([]domain.Response, 0, len(items))}
	for i := range items {
		resp.Users = append(resp.Users, toResponse(&items[i], grants[items[i].ID]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, p)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	p, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	changed := map[string]any{}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !validation.IsEmail(email) {
			return nil, domain.ErrInvalidEmail
		}
		p.Email = email
		changed["email"] = email
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		if validation.TooLong(name, validation.MaxNameLength) {
			return nil, domain.ErrNameTooLong
		}
		p.FullName = name
		changed["full_name"] = name
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
		changed["phone"] = p.Phone
	}

	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, p); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	s.audit(ctx, "user.updated", p.ID, changed)
	return s.respond(ctx, p)
}

func (s *Service) SetRole(ctx context.Context, id string, role string) (*domain.Response, error) {
	parsed, err := domain.ParseRole(strings.TrimSpace(role))
	if err != nil {
		return nil, err
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role == parsed {
		return s.respond(ctx, p)
	}

	previous := p.Role
	p.Role = parsed
	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, p); err != nil {
		return nil, err
	}

	s.audit(ctx, "user.role_changed", p.ID, map[string]any{
		"from": string(previous),
		"to":   string(parsed),
	})
	return s.respond(ctx, p)
}

// AddAdmin grants back-office access and moves the profile to the admin role
// in the same transaction.
func (s *Service) AddAdmin(ctx context.Context, req domain.AddAdminRequest) (*domain.Response, error) {
	role, err := domain.ParseAdminRole(strings.TrimSpace(req.Role))
	if err != nil {
		return nil, err
	}
	p, err := s.find(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindAdminByUserID(ctx, s.db, p.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyAdmin
	}

	now := s.clock.Now()
	admin := &domain.Admin{
		ID:        s.genID.Generate(),
		UserID:    p.ID,
		Role:      role,
		CreatedAt: now,
	}
	if len(req.Meta) > 0 {
		admin.Meta = datatypes.JSONMap(req.Meta)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreateAdmin(ctx, tx, admin); err != nil {
			return err
		}
		p.Role = domain.RoleAdmin
		p.UpdatedAt = now
		return s.repo.Update(ctx, tx, p)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyAdmin
		}
		return nil, err
	}

	s.audit(ctx, "admin.added", p.ID, map[string]any{"role": string(role)})
	resp := toResponse(p, admin)
	return &resp, nil
}

// RemoveAdmin revokes the grant and returns the profile to the customer role.
func (s *Service) RemoveAdmin(ctx context.Context, id string) (*domain.Response, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := s.repo.DeleteAdmin(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if !removed {
			return domain.ErrAdminNotFound
		}
		p.Role = domain.RoleCustomer
		p.UpdatedAt = now
		return s.repo.Update(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "admin.removed", p.ID, nil)
	resp := toResponse(p, nil)
	return &resp, nil
}

func (s *Service) respond(ctx context.Context, p *domain.Profile) (*domain.Response, error) {
	admin, err := s.repo.FindAdminByUserID(ctx, s.db, p.ID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(p, admin)
	return &resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Profile, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || userID == 0 {
		return nil, domain.ErrInvalidID
	}
	p, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "profile", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

func toResponse(p *domain.Profile, admin *domain.Admin) domain.Response {
	resp := domain.Response{
		ID:        p.ID.String(),
		Email:     p.Email,
		FullName:  p.FullName,
		Phone:     p.Phone,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if admin != nil {
		resp.IsAdmin = true
		resp.AdminRole = string(admin.Role)
	}
	return resp
}
