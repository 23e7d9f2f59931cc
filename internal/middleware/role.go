package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/contacts-api/internal/apperr"
    "github.com/iliyamo/contacts-api/internal/auth"
)

// RequireRole returns a middleware that lets the request through only when
// the authenticated user passes gate. It must run after Authenticate; a
// request without a user is answered with 401, a user with the wrong role
// with 403.
func RequireRole(gate auth.RoleGate) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, ok := CurrentUser(c)
            if !ok {
                c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
            }
            if _, err := gate.Check(u); err != nil {
                return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": apperr.Message(err, "forbidden")})
            }
            return next(c)
        }
    }
}

// RequireAdmin is RequireRole(auth.AdminGate).
func RequireAdmin() echo.MiddlewareFunc { return RequireRole(auth.AdminGate) }
