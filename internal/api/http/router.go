package http

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/api/http/handlers"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/auth"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/rbac"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	ServiceName        string
	Registry           *prometheus.Registry
	Health             *handlers.HealthHandler
	Auth               *handlers.AuthHandler
	Users              *handlers.UsersHandler
	PermissionRequests *handlers.PermissionRequestsHandler
	Complaints         *handlers.ComplaintsHandler
	Announcements      *handlers.AnnouncementsHandler
	Sitios             *handlers.SitiosHandler
	AuthMiddleware     fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Registry != nil {
		prom := fiberprometheus.NewWithRegistry(cfg.Registry, cfg.ServiceName, "brgykonek", "fiber", nil)
		app.Use(prom.Middleware)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware, auth.RequireAuthenticated(), cfg.Auth.ChangePassword)

	protected := app.Group("", cfg.AuthMiddleware, auth.RequireAuthenticated())

	protected.Get("/me", cfg.Users.Me)
	protected.Put("/me/profile", cfg.Users.UpdateProfile)
	protected.Get("/users", auth.RequireCapability(rbac.ActionViewAllUsers), cfg.Users.List)

	requests := protected.Group("/permission-requests")
	requests.Post("/", cfg.PermissionRequests.Submit)
	requests.Get("/", cfg.PermissionRequests.List)
	requests.Get("/:id", cfg.PermissionRequests.Get)
	requests.Put("/:id/status", cfg.PermissionRequests.UpdateStatus)

	complaints := protected.Group("/complaints")
	complaints.Post("/", cfg.Complaints.Create)
	complaints.Get("/", cfg.Complaints.List)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Patch("/:id/priority", cfg.Complaints.UpdatePriority)
	complaints.Put("/:id/resolution", cfg.Complaints.ToggleResolution)

	announcements := protected.Group("/announcements")
	announcements.Get("/", cfg.Announcements.List)
	announcements.Get("/:id", cfg.Announcements.Get)
	announcements.Post("/", cfg.Announcements.Create)
	announcements.Put("/:id", cfg.Announcements.Update)
	announcements.Delete("/:id", cfg.Announcements.Delete)

	sitios := protected.Group("/sitios")
	sitios.Get("/", cfg.Sitios.List)
	sitios.Post("/", cfg.Sitios.Create)
}
