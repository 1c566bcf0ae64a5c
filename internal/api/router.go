package api

import (
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mechanicapp/tracking-system/docs"
	"github.com/mechanicapp/tracking-system/internal/api/handler"
	"github.com/mechanicapp/tracking-system/internal/api/middleware"
	"github.com/mechanicapp/tracking-system/internal/api/stream"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Tracking   ports.TrackingService
	Dispatcher handler.EventDispatcher
	Hub        *stream.Hub
	// Jobs, when set, restricts participant tokens to the jobs they belong to.
	Jobs ports.JobDirectory
	// Checks are pinged by the readiness probe, keyed by dependency name.
	Checks    map[string]handler.Check
	JWTSecret string
	Log       zerolog.Logger
}

// httpMetrics registers the request collectors with the default registry once per
// process, however many routers are built.
var httpMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("tracking")
})

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(httpMetrics())

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Dependencies ---
	trackingHandler := handler.NewTrackingHandler(d.Tracking)
	locationHandler := handler.NewLocationHandler(d.Dispatcher)
	streamHandler := stream.NewHandler(d.Hub, d.Tracking, d.Log)

	v1 := e.Group("/v1", middleware.Auth(d.JWTSecret))

	devices := middleware.RBAC(middleware.RoleCustomer, middleware.RoleMechanic, middleware.RoleService)
	v1.POST("/tracking/permission", trackingHandler.RequestPermission, devices)
	v1.GET("/tracking/permission", trackingHandler.PermissionStatus, devices)
	v1.DELETE("/tracking/permission", trackingHandler.RevokePermission, devices)
	v1.GET("/tracking/active", trackingHandler.ListActive,
		middleware.RBAC(middleware.RoleAdmin, middleware.RoleService))

	jobs := v1.Group("/jobs/:job_id",
		middleware.RBAC(middleware.RoleCustomer, middleware.RoleMechanic, middleware.RoleAdmin, middleware.RoleService),
		middleware.JobMembership(d.Jobs))

	jobs.POST("/tracking", trackingHandler.Start)
	jobs.GET("/tracking", trackingHandler.Get)
	jobs.DELETE("/tracking", trackingHandler.Stop)
	jobs.GET("/tracking/stream", streamHandler.Serve)
	jobs.POST("/locations", locationHandler.Receive)
	jobs.POST("/locations/batch", locationHandler.ReceiveBatch)

	return e
}
