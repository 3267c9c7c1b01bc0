package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"product_catalog/internal/logging"
)

// attach parses the access token cookie into a Principal on the
// context. Absence or an invalid token is not an error here; the
// Require* middlewares decide how to fail per surface.
func (t *TokenService) attach(c echo.Context) bool {
	cookie, err := c.Cookie(AccessCookieName)
	if err != nil {
		return false
	}

	p, err := t.ParseAccessToken(cookie.Value)
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("invalid access token", "error", err)
		return false
	}

	SetPrincipal(c, p)
	return true
}

// RequireAuthWeb gates the HTML surface: browsers without a valid
// session are redirected to the login form.
func (t *TokenService) RequireAuthWeb(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !t.attach(c) {
			return c.Redirect(http.StatusFound, "/login")
		}
		return next(c)
	}
}

// RequireAuthAPI gates JSON endpoints: unauthenticated callers get 401.
func (t *TokenService) RequireAuthAPI(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !t.attach(c) {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

// RequireAdmin terminates the request with 403 unless the principal's
// admin flag is set. A missing principal fails closed with 401 before
// the admin check runs.
func (t *TokenService) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := CurrentPrincipal(c)
		if !ok {
			if !t.attach(c) {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			p, _ = CurrentPrincipal(c)
		}
		if !p.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}
