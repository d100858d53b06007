package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/conflicts"
	"github.com/Skotchmaster/boutique/internal/domain"
	"github.com/Skotchmaster/boutique/internal/service"
	"github.com/Skotchmaster/boutique/internal/transport"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

type InventoryHTTP struct {
	Svc     *service.CatalogService
	Mailbox *conflicts.Mailbox
}

// View lists the stock of one category, or of everything, and hands over
// the conflicts left by the caller's last rejected purchase.
func (h *InventoryHTTP) View(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "inventory.view")

	f, err := filterFromQuery(c.QueryParam("category_id"))
	if err != nil {
		return badRequest(l, "inventory_view_error", "category_id is not an id", err)
	}

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "inventory_view_error", err)
	}
	items, err := h.Svc.ListProducts(ctx, f)
	if err != nil {
		return fail(l, "inventory_view_error", err)
	}

	pending := []domain.Conflict{}
	if key := sessionID(c, false); key != "" && h.Mailbox != nil {
		if got := h.Mailbox.Drain(key); len(got) > 0 {
			pending = got
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"categories":        cats,
		"products":          items,
		"selected_category": f.CategoryID,
		"conflicts":         pending,
	})
}

func (h *InventoryHTTP) Receive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "inventory.receive")

	var req transport.ReceiveStockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "receive_stock_error", "Bad payload", err)
	}

	updated, err := h.Svc.ReceiveStock(ctx, req.Receipts())
	if err != nil {
		return fail(l, "receive_stock_error", err)
	}

	l.Info("receive_stock_success", "updated", updated)
	return c.JSON(http.StatusOK, map[string]any{"updated": updated})
}

func (h *InventoryHTTP) Positions(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "inventory.positions")

	var req transport.PositionsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_positions_error", "Bad payload", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "set_positions_error", "Bad payload", err)
	}

	updated, err := h.Svc.SetProductPositions(ctx, req.Entries())
	if err != nil {
		return fail(l, "set_positions_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "updated": updated})
}
