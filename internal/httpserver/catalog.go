package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/repo"
	"github.com/Skotchmaster/boutique/internal/service"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetCatalog(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_catalog")

	blocks, err := h.Svc.Catalog(ctx)
	if err != nil {
		return fail(l, "get_catalog_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": blocks})
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_categories")

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": cats})
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_products")

	f, err := filterFromQuery(c.QueryParam("category_id"))
	if err != nil {
		return badRequest(l, "list_products_error", "category_id is not an id", err)
	}

	items, err := h.Svc.ListProducts(ctx, f)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_products")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_product_error", "id is not an id", err)
	}

	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

// filterFromQuery reads "" as every product and "uncategorized" as the
// products without a category.
func filterFromQuery(v string) (repo.ProductFilter, error) {
	switch v {
	case "":
		return repo.ProductFilter{}, nil
	case uncategorized:
		return repo.ProductFilter{Uncategorized: true}, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return repo.ProductFilter{}, err
	}
	id := uint(n)
	return repo.ProductFilter{CategoryID: &id}, nil
}

const uncategorized = "uncategorized"
