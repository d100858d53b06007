package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/transport"
	"github.com/Skotchmaster/boutique/pkg/hash"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
	"github.com/Skotchmaster/boutique/pkg/tokens"
)

const (
	adminSubject    = "admin"
	defaultTokenTTL = 12 * time.Hour
)

type AdminHTTP struct {
	PasswordHash string
	JWTSecret    []byte
	TokenTTL     time.Duration

	// InsecureCookies drops the Secure flag from the access cookie.
	InsecureCookies bool
}

func (h *AdminHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "login_error", "password required", err)
	}

	if h.PasswordHash == "" || !hash.CheckPassword(h.PasswordHash, req.Password) {
		l.Warn("login_error", "status", http.StatusUnauthorized, "reason", "invalid credentials")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	exp := time.Now().Add(ttl)
	tok, err := tokens.NewAccessToken(adminSubject, tokens.RoleAdmin, exp, h.JWTSecret)
	if err != nil {
		l.Error("login_error", "status", http.StatusInternalServerError, "reason", "sign token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(authmw.CreateCookie(authmw.AccessCookie, tok, "/", exp, !h.InsecureCookies))
	l.Info("login_success")
	return c.JSON(http.StatusOK, map[string]any{
		"status":       "ok",
		"access_token": tok,
		"expires_at":   exp.UTC(),
	})
}

func (h *AdminHTTP) Logout(c echo.Context) error {
	c.SetCookie(authmw.DeleteCookie(authmw.AccessCookie, "/", !h.InsecureCookies))
	return c.NoContent(http.StatusNoContent)
}
