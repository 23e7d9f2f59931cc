package middleware

// identity.go holds the context accessors for the authenticated user and
// the subject used to key per-user middleware such as the rate limiter.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/contacts-api/internal/model"
)

const userKey = "user"

func setUser(c echo.Context, u model.User) { c.Set(userKey, u) }

// CurrentUser returns the user stored by Authenticate.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(userKey).(model.User)
    return u, ok
}

// subject identifies the caller for rate limiting by client IP and
// username ("anon" before authentication).
func subject(c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    user := "anon"
    if u, ok := CurrentUser(c); ok && u.Username != "" {
        user = u.Username
    }
    return "ip:" + ip + ":user:" + user
}
