package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"product_catalog/internal/apperr"
	"product_catalog/internal/hash"
	"product_catalog/internal/logging"
	"product_catalog/internal/middleware/auth"
	"product_catalog/internal/models"
	"product_catalog/internal/repository"
)

type AuthHandler struct {
	Users  repository.UserRepository
	Tokens *auth.TokenService
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a regular user. There is no way to request the
// admin flag here; it is only ever set directly in storage.
func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "api.auth.register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ve := apperr.NewValidationError()
	if strings.TrimSpace(req.Email) == "" {
		ve.Add("email", "The email field is required.")
	}
	if req.Password == "" {
		ve.Add("password", "The password field is required.")
	}
	if ve.HasErrors() {
		return validationResponse(c, ve)
	}

	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		ve.Add("email", "The email has already been taken.")
		return validationResponse(c, ve)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	if err := h.Users.Create(ctx, &user); err != nil {
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "api.auth.login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		l.Warn("login_failed", "reason", "unknown email")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "wrong password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, exp, err := h.Tokens.SignAccessToken(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}

	c.SetCookie(auth.CreateCookie(auth.AccessCookieName, token, "/", exp))

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"is_admin":     user.IsAdmin,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(auth.CreateCookie(auth.AccessCookieName, "", "/", expired))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
