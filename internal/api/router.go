package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/glcc/command-center/internal/api/handler"
	"github.com/glcc/command-center/internal/api/middleware"
	"github.com/glcc/command-center/internal/core/carrier"
	"github.com/glcc/command-center/internal/core/domain"
	"github.com/glcc/command-center/internal/core/ports"
	"github.com/glcc/command-center/internal/infrastructure/scheduler"
)

// Deps carries everything the router needs, wired by the composition root.
type Deps struct {
	Detector  *carrier.Detector
	Packages  ports.PackageService
	Refresh   ports.RefreshService
	Driver    *scheduler.Driver
	Auth      ports.AuthService
	Mongo     *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("glcc"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	packageHandler := handler.NewPackageHandler(deps.Packages, deps.Refresh)
	carrierHandler := handler.NewCarrierHandler(deps.Detector)
	schedulerHandler := handler.NewSchedulerHandler(deps.Driver)

	authRequired := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Carrier discovery (public, consumed by the registration form) ---
	e.GET("/v1/carriers", carrierHandler.List)
	e.POST("/v1/carriers/detect", carrierHandler.Detect)

	// --- Packages ---
	packages := e.Group("/v1/packages", authRequired)
	packages.POST("", packageHandler.Register)
	packages.GET("", packageHandler.List)
	packages.POST("/refresh", schedulerHandler.TriggerNow)
	packages.GET("/:id", packageHandler.Get)
	packages.PUT("/:id", packageHandler.Update)
	packages.DELETE("/:id", packageHandler.Delete, adminOnly)
	packages.POST("/:id/track", packageHandler.Track)

	// --- Scheduler control ---
	sched := e.Group("/v1/scheduler", authRequired)
	sched.GET("", schedulerHandler.Status)
	sched.POST("/start", schedulerHandler.Start, adminOnly)
	sched.POST("/stop", schedulerHandler.Stop, adminOnly)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
