package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/contacts-api/internal/config"
	"github.com/iliyamo/contacts-api/internal/handler"
	"github.com/iliyamo/contacts-api/internal/middleware"
)

// Limiter builds a rate limit middleware for one named route.
type Limiter func(policy config.Policy, name string) echo.MiddlewareFunc

// NoLimit is a Limiter that lets every request through.
func NoLimit(config.Policy, string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}

// Handlers groups everything the API routes dispatch to.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Contacts *handler.ContactHandler
}

// Register mounts the whole API under /api plus /metrics. resolver backs the
// Bearer authentication of protected routes; limit supplies per-route rate
// limits.
func Register(e *echo.Echo, h Handlers, resolver middleware.UserResolver, limit Limiter) {
	if limit == nil {
		limit = NoLimit
	}
	authn := middleware.Authenticate(resolver)

	api := e.Group("/api")
	RegisterRoutes(api, h.Health)
	RegisterAuth(api, h.Auth, authn)
	RegisterUsers(api, h.Users, authn, limit)
	RegisterContacts(api, h.Contacts, authn)
	RegisterMetrics(e)
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check.
func RegisterRoutes(g *echo.Group, h *handler.HealthHandler) {
	g.GET("/healthchecker", h.Check)
}

// RegisterAuth registers the account flows under /auth. Only admin
// registration needs an existing session.
func RegisterAuth(g *echo.Group, a *handler.AuthHandler, authn echo.MiddlewareFunc) {
	ag := g.Group("/auth")
	ag.POST("/register", a.Register)
	ag.POST("/register-admin", a.RegisterAdmin, authn, middleware.RequireAdmin())
	ag.POST("/login", a.Login)
	ag.GET("/confirmed_email/:token", a.ConfirmedEmail)
	ag.POST("/request_email", a.RequestEmail)
	ag.POST("/request-password-reset", a.RequestPasswordReset)
	ag.POST("/confirm-password-reset", a.ConfirmPasswordReset)
}

// RegisterMetrics exposes the Prometheus registry.
func RegisterMetrics(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
