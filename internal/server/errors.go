package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/carhouse/internal/association"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/carhouse/internal/booking/domain"
	categorydomain "github.com/smallbiznis/carhouse/internal/category/domain"
	coupondomain "github.com/smallbiznis/carhouse/internal/coupon/domain"
	inventorydomain "github.com/smallbiznis/carhouse/internal/inventory/domain"
	orderdomain "github.com/smallbiznis/carhouse/internal/order/domain"
	"github.com/smallbiznis/carhouse/internal/pricing"
	productdomain "github.com/smallbiznis/carhouse/internal/product/domain"
	reviewdomain "github.com/smallbiznis/carhouse/internal/review/domain"
	servicetypedomain "github.com/smallbiznis/carhouse/internal/servicetype/domain"
	userdomain "github.com/smallbiznis/carhouse/internal/user/domain"
	"gorm.io/gorm"
)

const partsSyncFailedMessage = "Service saved but parts failed update."

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// respondSaved answers a write whose entity was stored but whose bundled
// parts failed to sync: the saved entity is returned with the error.
func respondSaved(c *gin.Context, data any, err error) {
	status, payload := mapError(err)
	c.JSON(status, gin.H{"data": data, "error": payload})
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	// Checked first: the wrapped cause may itself be a domain error.
	if errors.Is(err, servicetypedomain.ErrPartsSyncFailed) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "parts_sync_failed",
			Message: partsSyncFailedMessage,
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code written to request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrors = []error{
	ErrInvalidRequest,

	pricing.ErrInvalidAmount,
	pricing.ErrInvalidEstimateInput,
	association.ErrInvalidQuantity,

	categorydomain.ErrInvalidID,
	categorydomain.ErrInvalidName,
	categorydomain.ErrNameTooLong,
	categorydomain.ErrDescriptionTooLong,

	productdomain.ErrInvalidID,
	productdomain.ErrInvalidCategory,
	productdomain.ErrInvalidName,
	productdomain.ErrInvalidBrand,
	productdomain.ErrNameTooLong,
	productdomain.ErrDescriptionTooLong,
	productdomain.ErrInvalidPrice,
	productdomain.ErrInvalidStock,
	productdomain.ErrInvalidRating,
	productdomain.ErrInvalidImageURL,

	servicetypedomain.ErrInvalidID,
	servicetypedomain.ErrInvalidName,
	servicetypedomain.ErrNameTooLong,
	servicetypedomain.ErrDescriptionTooLong,
	servicetypedomain.ErrInvalidDuration,
	servicetypedomain.ErrInvalidBasePrice,
	servicetypedomain.ErrInvalidProductID,
	servicetypedomain.ErrInvalidQuantity,
	servicetypedomain.ErrDuplicateProduct,
	servicetypedomain.ErrProductNotFound,

	orderdomain.ErrInvalidID,
	orderdomain.ErrInvalidUser,
	orderdomain.ErrInvalidStatus,
	orderdomain.ErrEmptyOrder,
	orderdomain.ErrInvalidItem,
	orderdomain.ErrInvalidQuantity,
	orderdomain.ErrInvalidUnitPrice,

	bookingdomain.ErrInvalidID,
	bookingdomain.ErrInvalidUser,
	bookingdomain.ErrInvalidStatus,
	bookingdomain.ErrServiceTypeRequired,
	bookingdomain.ErrServiceTypeInactive,
	bookingdomain.ErrScheduledInPast,
	bookingdomain.ErrInvalidVehicleYear,

	userdomain.ErrInvalidID,
	userdomain.ErrInvalidEmail,
	userdomain.ErrInvalidName,
	userdomain.ErrNameTooLong,
	userdomain.ErrInvalidRole,
	userdomain.ErrInvalidAdminRole,

	reviewdomain.ErrInvalidID,
	reviewdomain.ErrInvalidProduct,

	coupondomain.ErrInvalidID,
	coupondomain.ErrInvalidCode,
	coupondomain.ErrInvalidDiscountType,
	coupondomain.ErrInvalidDiscountValue,
	coupondomain.ErrInvalidMinOrderAmount,
	coupondomain.ErrInvalidMaxUses,
	coupondomain.ErrInvalidValidityWindow,
	coupondomain.ErrDescriptionTooLong,

	inventorydomain.ErrInvalidStoreName,
	inventorydomain.ErrStoreNameTooLong,
	inventorydomain.ErrInvalidProductID,
	inventorydomain.ErrInvalidStoreID,
	inventorydomain.ErrInvalidQuantity,
	inventorydomain.ErrDuplicateStore,
	inventorydomain.ErrStoreNotFound,

	auditdomain.ErrInvalidTimeRange,
	auditdomain.ErrInvalidAction,
}

func validationErrorCode(err error) (string, bool) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, servicetypedomain.ErrCodeTaken),
		errors.Is(err, servicetypedomain.ErrSyncInProgress),
		errors.Is(err, userdomain.ErrEmailTaken),
		errors.Is(err, userdomain.ErrAlreadyAdmin),
		errors.Is(err, coupondomain.ErrCodeTaken),
		errors.Is(err, inventorydomain.ErrStoreNameTaken),
		errors.Is(err, orderdomain.ErrInvalidTransition),
		errors.Is(err, orderdomain.ErrStatusConflict),
		errors.Is(err, bookingdomain.ErrInvalidTransition),
		errors.Is(err, bookingdomain.ErrNotCancellable):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	for _, target := range []error{
		servicetypedomain.ErrCodeTaken,
		servicetypedomain.ErrSyncInProgress,
		userdomain.ErrEmailTaken,
		userdomain.ErrAlreadyAdmin,
		coupondomain.ErrCodeTaken,
		inventorydomain.ErrStoreNameTaken,
		orderdomain.ErrInvalidTransition,
		orderdomain.ErrStatusConflict,
		bookingdomain.ErrInvalidTransition,
		bookingdomain.ErrNotCancellable,
	} {
		if errors.Is(err, target) {
			return strings.ReplaceAll(target.Error(), "_", " ")
		}
	}
	return "conflict"
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, categorydomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, servicetypedomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, bookingdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrAdminNotFound),
		errors.Is(err, reviewdomain.ErrNotFound),
		errors.Is(err, coupondomain.ErrNotFound),
		errors.Is(err, inventorydomain.ErrProductNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	switch {
	case code == "invalid_request":
		return "request"
	case strings.HasPrefix(code, "invalid_"):
		return strings.TrimPrefix(code, "invalid_")
	case strings.HasSuffix(code, "_too_long"):
		return strings.TrimSuffix(code, "_too_long")
	default:
		return ""
	}
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "scheduled_date_in_past":
		return "scheduled date must not be in the past"
	case "service_type_inactive":
		return "service type is not active"
	case "service_type_required":
		return "service type is required"
	case "duplicate_product":
		return "product listed more than once"
	case "duplicate_store":
		return "store listed more than once"
	case "store_not_found":
		return "store does not exist"
	case "product_not_found":
		return "product does not exist"
	case "empty_order":
		return "order has no items"
	default:
		if strings.HasSuffix(code, "_too_long") {
			return "value too long"
		}
		return "invalid value"
	}
}
