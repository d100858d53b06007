package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/conflicts"
	"github.com/Skotchmaster/boutique/internal/service"
	"github.com/Skotchmaster/boutique/internal/transport"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

const conflictRedirect = "/inventory"

type PurchaseHTTP struct {
	Svc     *service.PurchaseService
	Mailbox *conflicts.Mailbox
}

func (h *PurchaseHTTP) Purchase(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "purchase.purchase")

	var req transport.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "purchase_error", "invalid body", err)
	}
	lines := req.Lines()
	if len(lines) == 0 {
		return badRequest(l, "purchase_error", "no items", nil)
	}

	receipt, err := h.Svc.Purchase(ctx, lines)
	var ce *service.ConflictError
	switch {
	case errors.As(err, &ce):
		if h.Mailbox != nil {
			h.Mailbox.Put(sessionID(c, true), ce.Conflicts)
		}
		l.Warn("purchase_conflict", "status", http.StatusConflict, "conflicts", len(ce.Conflicts))
		return c.JSON(http.StatusConflict, map[string]any{
			"status":    "conflict",
			"redirect":  conflictRedirect,
			"conflicts": ce.Conflicts,
		})
	case err != nil:
		return fail(l, "purchase_error", err)
	}

	l.Info("purchase_success", "order_id", receipt.OrderID, "total", receipt.Total)
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"order_id": receipt.OrderID,
		"total":    receipt.Total,
	})
}
