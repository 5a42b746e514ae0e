package router

import (
	"github.com/citadelbuy/returns/internal/infrastructure/logger"
	"github.com/citadelbuy/returns/internal/infrastructure/telemetry"
	"github.com/citadelbuy/returns/internal/interfaces/http/handler"
	"github.com/citadelbuy/returns/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler of the service
type Handlers struct {
	Returns     *handler.ReturnHandler
	Refunds     *handler.RefundHandler
	StoreCredit *handler.StoreCreditHandler
	Health      *handler.HealthHandler
}

// Options configures the engine built by New
type Options struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	Meter          *telemetry.MeterProvider
	CORS           middleware.CORSConfig
	MaxBodyBytes   int64
	TrustedProxies []string
	Profiling      bool
}

// New builds the gin engine with the middleware chain and every route.
// /health sits outside the API group and needs no caller identity.
func New(h Handlers, opts Options) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(opts.Tracing),
		logger.GinMiddleware(opts.Logger),
		logger.Recovery(opts.Logger),
		middleware.HTTPMetrics(opts.Meter, opts.Logger),
		middleware.Secure(),
		middleware.CORS(opts.CORS),
	)
	if opts.Profiling {
		engine.Use(middleware.ProfilingLabels())
	}
	if opts.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodyBytes))
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	r := NewRouter(engine)
	r.Register(returnRoutes(h)).
		Register(refundRoutes(h)).
		Register(storeCreditRoutes(h))
	r.Setup(middleware.Actor(), middleware.SpanEnricher())

	return engine, nil
}

func returnRoutes(h Handlers) *DomainGroup {
	returns, refunds, credits := h.Returns, h.Refunds, h.StoreCredit
	return NewDomainGroup("returns", "/returns").
		POST("", returns.Create).
		GET("", returns.List).
		GET("/analytics", returns.Analytics).
		GET("/rma/:rma", returns.GetByRMA).
		GET("/:id", returns.Get).
		POST("/:id/review", returns.Review).
		POST("/:id/approve", returns.Approve).
		POST("/:id/label", returns.GenerateLabel).
		POST("/:id/receive", returns.Receive).
		POST("/:id/inspect", returns.Inspect).
		POST("/:id/cancel", returns.Cancel).
		POST("/:id/restock", returns.Restock).
		POST("/:id/photos", returns.RequestPhotoUpload).
		POST("/:id/refund", refunds.CreateForReturn).
		GET("/:id/refund", refunds.GetForReturn).
		POST("/:id/store-credit", credits.IssueForReturn)
}

func refundRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("refunds", "/refunds").
		GET("/:id", h.Refunds.Get).
		POST("/:id/process", h.Refunds.Process).
		POST("/:id/cancel", h.Refunds.Cancel).
		POST("/:id/fail", h.Refunds.FailStale)
}

func storeCreditRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("store_credit", "/store-credit").
		GET("/:userId", h.StoreCredit.GetBalance).
		GET("/:userId/transactions", h.StoreCredit.ListTransactions)
}
