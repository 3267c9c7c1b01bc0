package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"product_catalog/internal/apperr"
	"product_catalog/internal/currency"
	"product_catalog/internal/logging"
	"product_catalog/internal/middleware/auth"
	"product_catalog/internal/models"
	"product_catalog/internal/service"
	"product_catalog/internal/util"
)

// ProductHandler serves the server-rendered surface: list page for any
// authenticated user, create/edit/delete behind the admin guard.
type ProductHandler struct {
	Svc *service.ProductService
}

type productRow struct {
	ID   uint
	Name string
	USD  string
	EUR  string
}

type listPageData struct {
	Products []productRow
	IsAdmin  bool
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

type editPageData struct {
	Product     *models.Product
	Name        string
	Price       string
	Description string
	Errors      map[string][]string
}

func formatDecimal(minor int64) string {
	return strconv.FormatFloat(float64(minor)/100, 'f', -1, 64)
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, util.DefaultPageSize)

	total, items, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		l.Error("list_products_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	p, _ := auth.CurrentPrincipal(c)

	rows := make([]productRow, 0, len(items))
	for _, item := range items {
		usd := float64(item.Price) / 100
		eur, _ := currency.Convert(usd, "usd", "eur")
		rows = append(rows, productRow{
			ID:   item.ID,
			Name: item.Name,
			USD:  fmt.Sprintf("%.2f", usd),
			EUR:  fmt.Sprintf("%.2f", eur),
		})
	}

	return c.Render(http.StatusOK, "products_index.html", listPageData{
		Products: rows,
		IsAdmin:  p.IsAdmin,
		HasPrev:  page > 1,
		HasNext:  int64(offset+limit) < total,
		PrevPage: page - 1,
		NextPage: page + 1,
	})
}

func (h *ProductHandler) ShowCreateForm(c echo.Context) error {
	return c.Render(http.StatusOK, "products_create.html", takeFlash(c))
}

// formInput builds the service input from posted form fields. Price
// arrives as a string; an unparsable non-empty value is flagged rather
// than dropped so validation can report it.
func formInput(c echo.Context) (service.ProductInput, map[string]string) {
	name := c.FormValue("name")
	priceRaw := c.FormValue("price")
	description := c.FormValue("description")

	in := service.ProductInput{
		Name:          name,
		Description:   description,
		PriceRequired: true,
	}
	if priceRaw != "" {
		if v, err := strconv.ParseFloat(priceRaw, 64); err == nil {
			in.Price = &v
		} else {
			in.PriceInvalid = true
		}
	}

	old := map[string]string{
		"name":        name,
		"price":       priceRaw,
		"description": description,
	}
	return in, old
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	in, old := formInput(c)

	if _, err := h.Svc.Create(ctx, in); err != nil {
		if ve, ok := apperr.AsValidation(err); ok {
			l.Warn("create_product_invalid", "status", 302, "fields", ve.Error())
			setFlash(c, flashData{Errors: ve.Fields, Old: old})
			return c.Redirect(http.StatusFound, "/products/create")
		}
		l.Error("create_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create product")
	}

	l.Info("create_product_success")
	return c.Redirect(http.StatusFound, "/products")
}

func (h *ProductHandler) ShowEditForm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.edit_form")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	prod, err := h.Svc.Get(ctx, uint(id))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("edit_form_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load product")
	}

	flash := takeFlash(c)
	data := editPageData{
		Product:     prod,
		Name:        prod.Name,
		Price:       formatDecimal(prod.Price),
		Description: prod.Description,
		Errors:      flash.Errors,
	}
	if v, ok := flash.Old["name"]; ok && len(flash.Errors) > 0 {
		data.Name = v
	}
	if v, ok := flash.Old["price"]; ok && len(flash.Errors) > 0 {
		data.Price = v
	}
	if v, ok := flash.Old["description"]; ok && len(flash.Errors) > 0 {
		data.Description = v
	}

	return c.Render(http.StatusOK, "products_edit.html", data)
}

func (h *ProductHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	in, old := formInput(c)

	if _, err := h.Svc.Update(ctx, uint(id), in); err != nil {
		if ve, ok := apperr.AsValidation(err); ok {
			l.Warn("update_product_invalid", "status", 302, "fields", ve.Error())
			setFlash(c, flashData{Errors: ve.Fields, Old: old})
			return c.Redirect(http.StatusFound, fmt.Sprintf("/products/%d/edit", id))
		}
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("update_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
	}

	l.Info("update_product_success")
	return c.Redirect(http.StatusFound, "/products")
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	if err := h.Svc.Delete(ctx, uint(id)); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("delete_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product")
	}

	l.Info("delete_product_success")
	return c.Redirect(http.StatusFound, "/products")
}
