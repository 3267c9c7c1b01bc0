package handlers

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"

	"product_catalog/internal/middleware/auth"
)

const flashCookieName = "flash"

// flashData carries validation errors and old form input across the
// redirect-back so forms can re-render with field-level messages.
type flashData struct {
	Errors map[string][]string `json:"errors,omitempty"`
	Old    map[string]string   `json:"old,omitempty"`
}

func setFlash(c echo.Context, f flashData) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(data)
	c.SetCookie(auth.CreateCookie(flashCookieName, value, "/", time.Now().Add(5*time.Minute)))
}

// takeFlash reads and expires the flash cookie.
func takeFlash(c echo.Context) flashData {
	f := flashData{Errors: map[string][]string{}, Old: map[string]string{}}

	cookie, err := c.Cookie(flashCookieName)
	if err != nil {
		return f
	}

	c.SetCookie(auth.CreateCookie(flashCookieName, "", "/", time.Now().Add(-1*time.Hour)))

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return f
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return flashData{Errors: map[string][]string{}, Old: map[string]string{}}
	}
	if f.Errors == nil {
		f.Errors = map[string][]string{}
	}
	if f.Old == nil {
		f.Old = map[string]string{}
	}
	return f
}
