package auth

import (
	"github.com/labstack/echo/v4"
)

// Principal is the verified identity of the caller, derived from the
// access token cookie. Handlers receive it through the echo context
// instead of reading ambient auth state.
type Principal struct {
	ID      uint
	IsAdmin bool
}

const principalKey = "principal"

func SetPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
}

func CurrentPrincipal(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}
