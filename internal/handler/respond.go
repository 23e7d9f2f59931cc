package handler // declare the package name; contains HTTP handlers

import (
    "errors"
    "log/slog"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/contacts-api/internal/apperr"
    "github.com/iliyamo/contacts-api/internal/validation"
)

// respondErr writes err as {"error": message} with the status of its kind.
// Validation errors also carry per-field messages. Server-side failures are
// logged and answered with the error's public message only.
func respondErr(c echo.Context, log *slog.Logger, err error) error {
    var ve *validation.ValidationError
    if errors.As(err, &ve) {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": ve.Fields()})
    }
    status := apperr.HTTPStatus(err)
    if status >= http.StatusInternalServerError {
        log.ErrorContext(c.Request().Context(), "request failed",
            slog.String("method", c.Request().Method),
            slog.String("path", c.Path()),
            slog.Any("error", err))
    }
    if status == http.StatusUnauthorized {
        c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
    }
    return c.JSON(status, echo.Map{"error": apperr.Message(err, http.StatusText(status))})
}

// bindAndValidate decodes the request into dst and runs its validate tags.
// A body that cannot be decoded is a 400, a rule violation a 422.
func bindAndValidate(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return apperr.BadRequest("invalid body")
    }
    return c.Validate(dst)
}

// linkBase normalizes a configured public URL to end in exactly one slash.
func linkBase(raw string) string {
    return strings.TrimRight(strings.TrimSpace(raw), "/") + "/"
}

func message(c echo.Context, msg string) error {
    return c.JSON(http.StatusOK, echo.Map{"message": msg})
}
