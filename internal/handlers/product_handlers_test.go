package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"product_catalog/internal/handlers"
	"product_catalog/internal/handlers/api"
	"product_catalog/internal/hash"
	authmw "product_catalog/internal/middleware/auth"
	"product_catalog/internal/models"
	"product_catalog/internal/repository"
	"product_catalog/internal/service"
	httpserver "product_catalog/internal/transport/http"
	"product_catalog/internal/view"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *authmw.TokenService

	userSeq int
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	tokens := &authmw.TokenService{JWTSecret: []byte("test_secret")}
	productRepo := repository.NewGormProductRepo(db)
	userRepo := repository.NewGormUserRepo(db)
	svc := &service.ProductService{Repo: productRepo}

	e := echo.New()
	e.Renderer = view.New()
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))

	httpserver.Register(e, &httpserver.Deps{
		Tokens:            tokens,
		AuthHandler:       &handlers.AuthHandler{Users: userRepo, Tokens: tokens},
		ProductHandler:    &handlers.ProductHandler{Svc: svc},
		APIAuthHandler:    &api.AuthHandler{Users: userRepo, Tokens: tokens},
		APIProductHandler: &api.ProductHandler{Svc: svc},
	})

	return &testEnv{T: t, E: e, DB: db, Tokens: tokens}
}

func (env *testEnv) createUser(isAdmin bool, password string) *models.User {
	env.userSeq++
	passwordHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := models.User{
		Name:         fmt.Sprintf("user %d", env.userSeq),
		Email:        fmt.Sprintf("user%d@example.com", env.userSeq),
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) loginCookie(isAdmin bool) *http.Cookie {
	user := env.createUser(isAdmin, "password123")
	token, _, err := env.Tokens.SignAccessToken(user)
	require.NoError(env.T, err)
	return &http.Cookie{Name: authmw.AccessCookieName, Value: token, Path: "/"}
}

func (env *testEnv) doForm(method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body string
	if form != nil {
		body = form.Encode()
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doGet(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return env.doForm(http.MethodGet, path, nil, cookies...)
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestProductsPageRequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doGet("/products")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
}

func TestProductsPageEmptyState(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(false)

	rec := env.doGet("/products", ck)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "No products found")
	require.NotContains(t, rec.Body.String(), "Add new product")
}

func TestAdminSeesCreateButton(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(true)

	rec := env.doGet("/products", ck)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Add new product")
}

func TestProductsPageShowsEURColumn(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(false)

	require.NoError(t, env.DB.Create(&models.Product{Name: "Converted", Price: 10000}).Error)

	rec := env.doGet("/products", ck)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "100.00") // USD
	require.Contains(t, rec.Body.String(), "98.00")  // EUR
}

func TestNonAdminCannotAccessCreatePage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doGet("/products/create", env.loginCookie(false))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.doGet("/products/create", env.loginCookie(true))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateProductSuccessful(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(true)

	form := url.Values{
		"name":  {"Product 123"},
		"price": {"1234"},
	}
	rec := env.doForm(http.MethodPost, "/products", form, ck)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/products", rec.Header().Get(echo.HeaderLocation))

	var prod models.Product
	require.NoError(t, env.DB.Where("name = ?", "Product 123").First(&prod).Error)
	require.Equal(t, int64(123400), prod.Price)
}

func TestCreateProductNonAdminForbidden(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"name": {"nope"}, "price": {"1"}}
	rec := env.doForm(http.MethodPost, "/products", form, env.loginCookie(false))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var count int64
	env.DB.Model(&models.Product{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestCreateProductValidationRedirectsBack(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(true)

	form := url.Values{"name": {""}, "price": {""}}
	rec := env.doForm(http.MethodPost, "/products", form, ck)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/products/create", rec.Header().Get(echo.HeaderLocation))

	flash := cookieByName(rec, "flash")
	require.NotNil(t, flash)

	// Following the redirect renders the field-level messages.
	rec = env.doGet("/products/create", ck, flash)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "The name field is required.")
	require.Contains(t, rec.Body.String(), "The price field is required.")

	var count int64
	env.DB.Model(&models.Product{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestEditFormContainsCurrentValues(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(true)

	prod := models.Product{Name: "Editable", Price: 123400}
	require.NoError(t, env.DB.Create(&prod).Error)

	rec := env.doGet(fmt.Sprintf("/products/%d/edit", prod.ID), ck)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="Editable"`)
	require.Contains(t, rec.Body.String(), `value="1234"`)
}

func TestEditFormMissingProduct(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doGet("/products/42/edit", env.loginCookie(true))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProductSuccessful(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(true)

	prod := models.Product{Name: "before", Price: 100}
	require.NoError(t, env.DB.Create(&prod).Error)

	form := url.Values{
		"_method": {"PUT"},
		"name":    {"after"},
		"price":   {"2"},
	}
	rec := env.doForm(http.MethodPost, fmt.Sprintf("/products/%d", prod.ID), form, ck)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/products", rec.Header().Get(echo.HeaderLocation))

	var updated models.Product
	require.NoError(t, env.DB.First(&updated, prod.ID).Error)
	require.Equal(t, "after", updated.Name)
	require.Equal(t, int64(200), updated.Price)
}

func TestUpdateValidationRedirectsBackToForm(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(true)

	prod := models.Product{Name: "unchanged", Price: 100}
	require.NoError(t, env.DB.Create(&prod).Error)

	form := url.Values{
		"_method": {"PUT"},
		"name":    {""},
		"price":   {""},
	}
	rec := env.doForm(http.MethodPost, fmt.Sprintf("/products/%d", prod.ID), form, ck)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, fmt.Sprintf("/products/%d/edit", prod.ID), rec.Header().Get(echo.HeaderLocation))

	var kept models.Product
	require.NoError(t, env.DB.First(&kept, prod.ID).Error)
	require.Equal(t, "unchanged", kept.Name)
}

func TestDeleteProductSuccessful(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(true)

	prod := models.Product{Name: "doomed", Price: 100}
	require.NoError(t, env.DB.Create(&prod).Error)

	form := url.Values{"_method": {"DELETE"}}
	rec := env.doForm(http.MethodPost, fmt.Sprintf("/products/%d", prod.ID), form, ck)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/products", rec.Header().Get(echo.HeaderLocation))

	var count int64
	env.DB.Model(&models.Product{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestPaginationShowsTenPerPage(t *testing.T) {
	env := newTestEnv(t)
	ck := env.loginCookie(false)

	for i := 1; i <= 11; i++ {
		require.NoError(t, env.DB.Create(&models.Product{
			Name:  fmt.Sprintf("Product %02d", i),
			Price: int64(i * 100),
		}).Error)
	}

	rec := env.doGet("/products", ck)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Product 10")
	require.NotContains(t, rec.Body.String(), "Product 11")

	rec = env.doGet("/products?page=2", ck)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Product 11")
	require.NotContains(t, rec.Body.String(), "Product 10")
}

func TestLoginRedirectsToProducts(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(false, "password123")

	form := url.Values{
		"email":    {user.Email},
		"password": {"password123"},
	}
	rec := env.doForm(http.MethodPost, "/login", form)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/products", rec.Header().Get(echo.HeaderLocation))
	require.NotNil(t, cookieByName(rec, authmw.AccessCookieName))
}

func TestLoginWrongPasswordRedirectsBack(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(false, "password123")

	form := url.Values{
		"email":    {user.Email},
		"password": {"wrong"},
	}
	rec := env.doForm(http.MethodPost, "/login", form)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	require.Nil(t, cookieByName(rec, authmw.AccessCookieName))
}
