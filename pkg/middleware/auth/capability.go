package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/authz"
	"github.com/Skotchmaster/boutique/pkg/tokens"
)

const AccessCookie = "accessToken"

type CapabilityMiddleware struct {
	JWTSecret       []byte
	InsecureCookies bool
}

func NewCapabilityMiddleware(secret []byte) *CapabilityMiddleware {
	return &CapabilityMiddleware{JWTSecret: secret}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

// Identify attaches a capability when the request carries a valid token and
// lets anonymous requests through untouched.
func (m *CapabilityMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return next(c)
		}
		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err == nil {
			setCapability(c, claims)
		}
		return next(c)
	}
}

func (m *CapabilityMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != tokens.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *CapabilityMiddleware) requireWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil || claims == nil {
			c.SetCookie(DeleteCookie(AccessCookie, "/", !m.InsecureCookies))
			if errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				return validationErr
			}
		}

		setCapability(c, claims)
		return next(c)
	}
}

func tokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if v, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(v)
		}
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func setCapability(c echo.Context, claims *tokens.AccessClaims) {
	capability := authz.Capability{
		Subject: claims.Subject,
		Admin:   claims.Role == tokens.RoleAdmin,
	}
	ctx := authz.WithCapability(c.Request().Context(), capability)
	c.SetRequest(c.Request().WithContext(ctx))
	c.Set("user_id", claims.Subject)
	c.Set("role", claims.Role)
}
