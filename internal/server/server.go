package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/carhouse/internal/audit"
	auditdomain "github.com/smallbiznis/carhouse/internal/audit/domain"
	"github.com/smallbiznis/carhouse/internal/booking"
	bookingdomain "github.com/smallbiznis/carhouse/internal/booking/domain"
	"github.com/smallbiznis/carhouse/internal/cache"
	"github.com/smallbiznis/carhouse/internal/category"
	categorydomain "github.com/smallbiznis/carhouse/internal/category/domain"
	"github.com/smallbiznis/carhouse/internal/config"
	"github.com/smallbiznis/carhouse/internal/coupon"
	coupondomain "github.com/smallbiznis/carhouse/internal/coupon/domain"
	"github.com/smallbiznis/carhouse/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/carhouse/internal/dashboard/domain"
	"github.com/smallbiznis/carhouse/internal/events"
	"github.com/smallbiznis/carhouse/internal/inventory"
	inventorydomain "github.com/smallbiznis/carhouse/internal/inventory/domain"
	"github.com/smallbiznis/carhouse/internal/metricspush"
	"github.com/smallbiznis/carhouse/internal/observability"
	obslogger "github.com/smallbiznis/carhouse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/carhouse/internal/observability/metrics"
	obstracing "github.com/smallbiznis/carhouse/internal/observability/tracing"
	"github.com/smallbiznis/carhouse/internal/order"
	orderdomain "github.com/smallbiznis/carhouse/internal/order/domain"
	"github.com/smallbiznis/carhouse/internal/pricing"
	"github.com/smallbiznis/carhouse/internal/product"
	productdomain "github.com/smallbiznis/carhouse/internal/product/domain"
	"github.com/smallbiznis/carhouse/internal/providers"
	"github.com/smallbiznis/carhouse/internal/ratelimit"
	"github.com/smallbiznis/carhouse/internal/review"
	reviewdomain "github.com/smallbiznis/carhouse/internal/review/domain"
	"github.com/smallbiznis/carhouse/internal/servicetype"
	servicetypedomain "github.com/smallbiznis/carhouse/internal/servicetype/domain"
	"github.com/smallbiznis/carhouse/internal/user"
	userdomain "github.com/smallbiznis/carhouse/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	cache.Module,
	events.Module,
	pricing.Module,
	providers.Module,
	ratelimit.Module,
	audit.Module,
	category.Module,
	product.Module,
	servicetype.Module,
	order.Module,
	booking.Module,
	user.Module,
	review.Module,
	coupon.Module,
	inventory.Module,
	dashboard.Module,
	metricspush.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	auditSvc       auditdomain.Service
	categorySvc    categorydomain.Service
	productSvc     productdomain.Service
	serviceTypeSvc servicetypedomain.Service
	orderSvc       orderdomain.Service
	bookingSvc     bookingdomain.Service
	userSvc        userdomain.Service
	reviewSvc      reviewdomain.Service
	couponSvc      coupondomain.Service
	inventorySvc   inventorydomain.Service
	dashboardSvc   dashboarddomain.Service
	writeLimiter   *ratelimit.AdminWriteLimiter
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	AuditSvc       auditdomain.Service
	CategorySvc    categorydomain.Service
	ProductSvc     productdomain.Service
	ServiceTypeSvc servicetypedomain.Service
	OrderSvc       orderdomain.Service
	BookingSvc     bookingdomain.Service
	UserSvc        userdomain.Service
	ReviewSvc      reviewdomain.Service
	CouponSvc      coupondomain.Service
	InventorySvc   inventorydomain.Service
	DashboardSvc   dashboarddomain.Service
	WriteLimiter   *ratelimit.AdminWriteLimiter `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics          `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		auditSvc:       p.AuditSvc,
		categorySvc:    p.CategorySvc,
		productSvc:     p.ProductSvc,
		serviceTypeSvc: p.ServiceTypeSvc,
		orderSvc:       p.OrderSvc,
		bookingSvc:     p.BookingSvc,
		userSvc:        p.UserSvc,
		reviewSvc:      p.ReviewSvc,
		couponSvc:      p.CouponSvc,
		inventorySvc:   p.InventorySvc,
		dashboardSvc:   p.DashboardSvc,
		writeLimiter:   p.WriteLimiter,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AdminWriteRateLimit())

	// -------- Dashboard --------
	admin.GET("/dashboard", s.GetDashboard)

	// -------- Categories --------
	admin.GET("/categories", s.ListCategories)
	admin.POST("/categories", s.CreateCategory)
	admin.GET("/categories/:id", s.GetCategory)
	admin.PATCH("/categories/:id", s.UpdateCategory)
	admin.DELETE("/categories/:id", s.DeleteCategory)

	// -------- Products --------
	admin.GET("/products", s.ListProducts)
	admin.POST("/products", s.CreateProduct)
	admin.GET("/products/:id", s.GetProduct)
	admin.PATCH("/products/:id", s.UpdateProduct)
	admin.DELETE("/products/:id", s.DeleteProduct)
	admin.POST("/products/:id/images", s.AddProductImage)
	admin.GET("/products/:id/inventory", s.GetProductInventory)
	admin.PUT("/products/:id/inventory", s.SyncProductInventory)
	admin.PUT("/products/:id/inventory/:store_id", s.UpdateProductInventory)

	// -------- Stores --------
	admin.GET("/stores", s.ListStores)
	admin.POST("/stores", s.CreateStore)

	// -------- Service types --------
	admin.GET("/service-types", s.ListServiceTypes)
	admin.POST("/service-types", s.CreateServiceType)
	admin.GET("/service-types/:id", s.GetServiceType)
	admin.PATCH("/service-types/:id", s.UpdateServiceType)
	admin.DELETE("/service-types/:id", s.DeleteServiceType)
	admin.POST("/service-types/:id/active", s.SetServiceTypeActive)
	admin.GET("/service-types/:id/parts", s.ListServiceTypeParts)
	admin.PUT("/service-types/:id/parts", s.SyncServiceTypeParts)

	// -------- Orders --------
	admin.GET("/orders", s.ListOrders)
	admin.POST("/orders", s.CreateOrder)
	admin.GET("/orders/:id", s.GetOrder)
	admin.DELETE("/orders/:id", s.DeleteOrder)
	admin.POST("/orders/:id/status", s.UpdateOrderStatus)
	admin.GET("/orders/:id/breakdown", s.GetOrderBreakdown)
	admin.GET("/orders/:id/invoice.pdf", s.GetOrderInvoice)

	// -------- Bookings --------
	admin.GET("/bookings", s.ListBookings)
	admin.POST("/bookings", s.CreateBooking)
	admin.GET("/bookings/:id", s.GetBooking)
	admin.PATCH("/bookings/:id", s.UpdateBooking)
	admin.DELETE("/bookings/:id", s.DeleteBooking)
	admin.POST("/bookings/:id/status", s.UpdateBookingStatus)
	admin.GET("/bookings/:id/estimate", s.GetBookingEstimate)
	admin.GET("/bookings/:id/estimate.pdf", s.GetBookingEstimatePDF)

	// -------- Users --------
	admin.GET("/users", s.ListUsers)
	admin.GET("/users/:id", s.GetUser)
	admin.PATCH("/users/:id", s.UpdateUser)
	admin.POST("/users/:id/role", s.SetUserRole)
	admin.POST("/users/:id/admin", s.AddAdmin)
	admin.DELETE("/users/:id/admin", s.RemoveAdmin)

	// -------- Reviews --------
	admin.GET("/reviews", s.ListReviews)
	admin.GET("/reviews/:id", s.GetReview)
	admin.POST("/reviews/:id/visibility", s.SetReviewVisibility)

	// -------- Coupons --------
	admin.GET("/coupons", s.ListCoupons)
	admin.POST("/coupons", s.CreateCoupon)
	admin.GET("/coupons/:id", s.GetCoupon)
	admin.POST("/coupons/:id/active", s.SetCouponActive)

	// -------- Audit --------
	admin.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
