package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/service"
	"github.com/Skotchmaster/boutique/internal/transport"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

// ManageHTTP serves the admin-only catalog edits.
type ManageHTTP struct {
	Svc *service.CatalogService
}

func (h *ManageHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.create_category")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_category_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "create_category_error", "category name required", err)
	}

	cat, err := h.Svc.CreateCategory(ctx, req.Name)
	if err != nil {
		return fail(l, "create_category_error", err)
	}

	l.Info("create_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *ManageHTTP) RenameCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.rename_category")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "rename_category_error", "id is not an id", err)
	}
	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "rename_category_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "rename_category_error", "category name required", err)
	}

	cat, err := h.Svc.RenameCategory(ctx, id, req.Name)
	if err != nil {
		return fail(l, "rename_category_error", err)
	}

	l.Info("rename_category_success", "category_id", id)
	return c.JSON(http.StatusOK, cat)
}

func (h *ManageHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.delete_category")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_category_error", "id is not an id", err)
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return fail(l, "delete_category_error", err)
	}

	l.Info("delete_category_success", "category_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ManageHTTP) ReorderCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.reorder_categories")

	var req transport.ReorderCategoriesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "reorder_categories_error", "Bad payload", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "reorder_categories_error", "Bad payload", err)
	}

	placed, err := h.Svc.ReorderCategories(ctx, transport.ParseIDs(req.OrderedCategoryIDs))
	if err != nil {
		return fail(l, "reorder_categories_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "placed": placed})
}

// ReorderProducts takes a category id or "uncategorized" in the path.
func (h *ManageHTTP) ReorderProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.reorder_products")

	f, err := filterFromQuery(c.Param("id"))
	if err != nil || (f.CategoryID == nil && !f.Uncategorized) {
		return badRequest(l, "reorder_products_error", "id is not an id", err)
	}
	var req transport.ReorderProductsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "reorder_products_error", "Bad payload", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "reorder_products_error", "Bad payload", err)
	}

	placed, err := h.Svc.ReorderProducts(ctx, f.CategoryID, transport.ParseIDs(req.OrderedProductIDs))
	if err != nil {
		return fail(l, "reorder_products_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "placed": placed})
}

func (h *ManageHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "create_product_error", "invalid body", err)
	}

	p, err := h.Svc.CreateProduct(ctx, req.NewProduct())
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ManageHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.patch_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "patch_product_error", "id is not an id", err)
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_product_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "patch_product_error", "invalid body", err)
	}

	p, err := h.Svc.UpdateProduct(ctx, id, req.Patch())
	if err != nil {
		return fail(l, "patch_product_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, p)
}

func (h *ManageHTTP) BulkUpdateProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.bulk_update_products")

	var req transport.BulkUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "bulk_update_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "bulk_update_error", "invalid body", err)
	}

	items, err := h.Svc.BulkUpdateProducts(ctx, req.Edits())
	if err != nil {
		return fail(l, "bulk_update_error", err)
	}

	l.Info("bulk_update_success", "updated", len(items))
	return c.JSON(http.StatusOK, map[string]any{"data": items, "updated": len(items)})
}

func (h *ManageHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.delete_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_product_error", "id is not an id", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
