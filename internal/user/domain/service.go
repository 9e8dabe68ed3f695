package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/carhouse/pkg/db/pagination"
)

type Service interface {
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	SetRole(ctx context.Context, id string, role string) (*Response, error)
	AddAdmin(ctx context.Context, req AddAdminRequest) (*Response, error)
	RemoveAdmin(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	pagination.Pagination
	Role   string
	Search string
}

type ListResponse struct {
	pagination.PageInfo
	Users []Response `json:"users"`
}

type UpdateRequest struct {
	ID       string  `json:"-"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

type AddAdminRequest struct {
	UserID string         `json:"-"`
	Role   string         `json:"role"`
	Meta   map[string]any `json:"meta"`
}

type Response struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	AdminRole string    `json:"admin_role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidName  = errors.New("invalid_name")
	ErrNameTooLong  = errors.New("name_too_long")
	ErrInvalidRole  = errors.New("invalid_role")
	ErrEmailTaken   = errors.New("email_taken")
	ErrNotFound     = errors.New("not_found")

	ErrInvalidAdminRole = errors.New("invalid_admin_role")
	ErrAlreadyAdmin     = errors.New("already_admin")
	ErrAdminNotFound    = errors.New("admin_not_found")
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleCustomer, RoleAdmin:
		return Role(value), nil
	default:
		return "", ErrInvalidRole
	}
}

// ParseAdminRole defaults an empty value to admin.
func ParseAdminRole(value string) (AdminRole, error) {
	switch AdminRole(value) {
	case "":
		return AdminRoleAdmin, nil
	case AdminRoleAdmin, AdminRoleSuperAdmin:
		return AdminRole(value), nil
	default:
		return "", ErrInvalidAdminRole
	}
}
