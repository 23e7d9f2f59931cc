package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/config"
	"github.com/iliyamo/contacts-api/internal/handler"
	"github.com/iliyamo/contacts-api/internal/middleware"
)

// RegisterUsers registers the profile routes. Every route authenticates
// first so the rate limiter can key on the user; avatar and role changes
// are admin-only.
func RegisterUsers(g *echo.Group, u *handler.UserHandler, authn echo.MiddlewareFunc, limit Limiter) {
	ug := g.Group("/users", authn)
	admin := middleware.RequireAdmin()

	ug.GET("/me", u.Me, limit(config.MeRateLimit, "users_me"))
	ug.PATCH("/avatar", u.UpdateAvatar, admin, limit(config.AvatarUpdateRateLimit, "users_avatar_update"))
	ug.DELETE("/avatar", u.DeleteAvatar, admin, limit(config.AvatarDeleteRateLimit, "users_avatar_delete"))
	ug.PATCH("/role", u.UpdateRole, admin)
}
