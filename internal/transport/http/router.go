package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"product_catalog/internal/handlers"
	"product_catalog/internal/handlers/api"
	"product_catalog/internal/middleware/auth"
)

type Deps struct {
	Tokens *auth.TokenService

	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler

	APIAuthHandler    *api.AuthHandler
	APIProductHandler *api.ProductHandler
	SearchHandler     *api.SearchHandler
}

// Register wires both surfaces. The HTML product routes sit behind
// auth, mutations additionally behind the admin guard; the JSON
// product routes are open except destroy, which needs authentication.
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/products") })
	e.GET("/login", d.AuthHandler.ShowLoginForm)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout)

	products := e.Group("/products", d.Tokens.RequireAuthWeb)
	products.GET("", d.ProductHandler.List)

	admin := products.Group("", d.Tokens.RequireAdmin)
	admin.GET("/create", d.ProductHandler.ShowCreateForm)
	admin.POST("", d.ProductHandler.Create)
	admin.GET("/:id/edit", d.ProductHandler.ShowEditForm)
	admin.PUT("/:id", d.ProductHandler.Update)
	admin.DELETE("/:id", d.ProductHandler.Delete)

	apiGroup := e.Group("/api")
	apiGroup.POST("/register", d.APIAuthHandler.Register)
	apiGroup.POST("/login", d.APIAuthHandler.Login)
	apiGroup.POST("/logout", d.APIAuthHandler.Logout)

	apiProducts := apiGroup.Group("/products")
	if d.SearchHandler != nil {
		apiProducts.GET("/search", d.SearchHandler.Handler)
	}
	apiProducts.GET("", d.APIProductHandler.Index)
	apiProducts.POST("", d.APIProductHandler.Store)
	apiProducts.GET("/:id", d.APIProductHandler.Show)
	apiProducts.PUT("/:id", d.APIProductHandler.Update)
	apiProducts.DELETE("/:id", d.APIProductHandler.Destroy, d.Tokens.RequireAuthAPI)
}
