package loggingmw

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/authz"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

// RequestLogger puts a request-scoped logger into the context and writes one
// request_completed line per request. The line carries the caller's session
// id (read from sessionCookie) and, once an auth middleware has run, the
// capability subject and whether it is an admin.
func RequestLogger(base *slog.Logger, sessionCookie string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := base.With(
				"method", req.Method,
				"route", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			if rid := requestID(c); rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			if sessionCookie != "" {
				if ck, err := req.Cookie(sessionCookie); err == nil && ck.Value != "" {
					l = l.With("session_id", ck.Value)
				}
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}
			status := c.Response().Status

			attrs := []any{
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", c.Response().Size,
			}
			if capability, ok := authz.FromContext(c.Request().Context()); ok {
				attrs = append(attrs, "subject", capability.Subject, "admin", capability.Admin)
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}
			l.Log(context.Background(), levelFor(status), "request_completed", attrs...)
			return nil
		}
	}
}

func requestID(c echo.Context) string {
	if rid := c.Request().Header.Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
