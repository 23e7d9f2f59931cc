package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/handler"
)

// RegisterContacts registers the contact book. All routes require a
// session and only touch the caller's own contacts.
func RegisterContacts(g *echo.Group, h *handler.ContactHandler, authn echo.MiddlewareFunc) {
	cg := g.Group("/contacts", authn)
	cg.POST("", h.Create)
	cg.GET("", h.List)
	cg.GET("/upcoming-birthdays", h.UpcomingBirthdays)
	cg.GET("/:id", h.Get)
	cg.PATCH("/:id", h.Update)
	cg.DELETE("/:id", h.Delete)
}
