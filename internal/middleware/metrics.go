package middleware

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/contacts-api/internal/metrics"
)

// PrometheusMetrics returns middleware that records request count, latency
// and in-flight requests, labelled by the matched route pattern.
func PrometheusMetrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            metrics.HTTPRequestsInFlight.Inc()
            defer metrics.HTTPRequestsInFlight.Dec()

            err := next(c)

            status := c.Response().Status
            if err != nil {
                var he *echo.HTTPError
                if errors.As(err, &he) {
                    status = he.Code
                } else if !c.Response().Committed {
                    status = http.StatusInternalServerError
                }
            }
            path := c.Path()
            if path == "" {
                path = "unknown"
            }
            labels := []string{c.Request().Method, path, strconv.Itoa(status)}
            metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
            metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
            return err
        }
    }
}
