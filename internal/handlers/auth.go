package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"product_catalog/internal/hash"
	"product_catalog/internal/logging"
	"product_catalog/internal/middleware/auth"
	"product_catalog/internal/repository"
)

// AuthHandler serves the HTML login flow. Sessions are the same JWT
// cookie the API surface verifies.
type AuthHandler struct {
	Users  repository.UserRepository
	Tokens *auth.TokenService
}

func (h *AuthHandler) ShowLoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", takeFlash(c))
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	email := c.FormValue("email")
	password := c.FormValue("password")

	fail := func() error {
		setFlash(c, flashData{
			Errors: map[string][]string{"email": {"These credentials do not match our records."}},
			Old:    map[string]string{"email": email},
		})
		return c.Redirect(http.StatusFound, "/login")
	}

	user, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		l.Warn("login_failed", "reason", "unknown email")
		return fail()
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password")
		return fail()
	}

	token, exp, err := h.Tokens.SignAccessToken(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}

	c.SetCookie(auth.CreateCookie(auth.AccessCookieName, token, "/", exp))

	l.Info("login_success", "user_id", user.ID)
	return c.Redirect(http.StatusFound, "/products")
}

func (h *AuthHandler) Logout(c echo.Context) error {
	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(auth.CreateCookie(auth.AccessCookieName, "", "/", expired))
	return c.Redirect(http.StatusFound, "/login")
}
