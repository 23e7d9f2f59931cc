package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "log/slog"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger checks the relational store.
type Pinger interface {
    Ping(ctx context.Context) error
}

// CachePinger reports whether the cache answers.
type CachePinger interface {
    Ping(ctx context.Context) bool
}

// HealthHandler is used by load balancers and monitoring systems. A broken
// database fails the check; a broken cache is only reported because the
// service degrades to uncached lookups.
type HealthHandler struct {
    DB    Pinger
    Cache CachePinger
    Log   *slog.Logger
}

func NewHealthHandler(db Pinger, cache CachePinger, log *slog.Logger) *HealthHandler {
    return &HealthHandler{DB: db, Cache: cache, Log: log}
}

func (h *HealthHandler) Check(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
    defer cancel()

    if err := h.DB.Ping(ctx); err != nil {
        h.Log.ErrorContext(ctx, "health check: database unreachable", slog.Any("error", err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Error connecting to the database"})
    }
    redisState := "connected"
    if !h.Cache.Ping(ctx) {
        redisState = "disconnected"
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":  "Contacts API is up and running",
        "database": "connected",
        "redis":    redisState,
    })
}
