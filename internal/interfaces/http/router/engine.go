package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/invsync/backend/internal/infrastructure/auth"
	"github.com/invsync/backend/internal/infrastructure/config"
	"github.com/invsync/backend/internal/infrastructure/logger"
	"github.com/invsync/backend/internal/interfaces/http/handler"
	"github.com/invsync/backend/internal/interfaces/http/middleware"
)

// MetricsRecorder records request metrics and serves the scrape endpoint
type MetricsRecorder interface {
	middleware.HTTPRecorder
	Handler() http.Handler
}

// Dependencies are the services the HTTP layer is built from. Jobs,
// Metrics, DB and RateLimiter are optional.
type Dependencies struct {
	HTTP        config.HTTPConfig
	ServiceName string
	Version     string
	Logger      *zap.Logger

	Channels handler.ChannelService
	Jobs     handler.JobHistory
	Adjuster handler.StockAdjuster
	DB       handler.Pinger
	Tokens   middleware.TokenValidator

	Metrics     MetricsRecorder
	RateLimiter *middleware.RateLimiter
}

// New builds the gin engine with the global middleware chain and every
// route registered
func New(deps Dependencies) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(deps.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	// Order matters: the request id and span must exist before the request
	// logger reads them
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(deps.ServiceName)...)
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     deps.HTTP.CORSAllowOrigins,
		AllowMethods:     deps.HTTP.CORSAllowMethods,
		AllowHeaders:     deps.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if deps.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(deps.HTTP.MaxBodySize))
	}
	if deps.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(deps.Metrics))
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	systemHandler := handler.NewSystemHandler(deps.DB, deps.Version)
	engine.GET("/health", systemHandler.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}
	r.Use(middleware.JWTAuth(deps.Tokens, log))

	// reads only need a valid token, mutations need an operator role
	operators := middleware.RequireRoles(auth.RoleAdmin, auth.RoleInventoryManager)

	channelHandler := handler.NewChannelHandler(deps.Channels, deps.Jobs)
	channels := NewDomainGroup("channels", "/channels")
	channels.POST("", operators, channelHandler.Connect)
	channels.DELETE("/:id", operators, channelHandler.Delete)
	channels.POST("/sync", operators, channelHandler.SyncAll)
	channels.POST("/:id/sync", operators, channelHandler.Sync)
	channels.POST("/:id/sync/:category", operators, channelHandler.SyncCategory)
	channels.GET("/:id/health", channelHandler.Health)
	channels.GET("/:id/jobs", channelHandler.ChannelJobs)

	syncRoutes := NewDomainGroup("sync", "/sync")
	syncRoutes.GET("/jobs", channelHandler.Jobs)

	inventoryHandler := handler.NewInventoryHandler(deps.Adjuster)
	inventoryRoutes := NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.POST("/adjust", operators, inventoryHandler.Adjust)

	r.Register(channels).
		Register(syncRoutes).
		Register(inventoryRoutes)
	r.Setup()

	return engine, nil
}
