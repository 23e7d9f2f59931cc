package middleware

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/contacts-api/internal/apperr"
    "github.com/iliyamo/contacts-api/internal/model"
)

// UserResolver turns a raw bearer token into the authenticated user.
type UserResolver interface {
    Resolve(ctx context.Context, raw string) (model.User, error)
}

// Authenticate returns an Echo middleware that resolves the Bearer access
// token into a user and stores it in the context for CurrentUser. Any
// failure ends the request with 401 and a WWW-Authenticate challenge,
// except backend outages which surface as 500.
func Authenticate(resolver UserResolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
            u, err := resolver.Resolve(c.Request().Context(), raw)
            if err != nil {
                status := apperr.HTTPStatus(err)
                if status == http.StatusUnauthorized {
                    c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
                }
                return c.JSON(status, echo.Map{"error": apperr.Message(err, "could not validate credentials")})
            }
            setUser(c, u)
            return next(c)
        }
    }
}

// bearerToken extracts the token of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively; anything else yields "".
func bearerToken(header string) string {
    scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
    if !ok || !strings.EqualFold(scheme, "Bearer") {
        return ""
    }
    return strings.TrimSpace(token)
}
