package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/boutique/internal/domain"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/repo"
	"github.com/Skotchmaster/boutique/pkg/events"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

type PurchaseService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type Receipt struct {
	OrderID uint               `json:"order_id"`
	Total   int64              `json:"total"`
	Lines   []models.OrderLine `json:"lines"`
}

type snapshot struct {
	name     string
	price    int64
	category string
}

// Purchase validates every line against current stock and, only when no
// line conflicts, deducts the stock and records the order in the same
// transaction.
//
// Lines for the same product draw on one balance. A rejected purchase
// returns a *ConflictError listing every conflict in input order and
// changes nothing. Store failures roll the whole unit back and come back
// as ErrTransaction; nothing is retried.
func (s *PurchaseService) Purchase(ctx context.Context, lines []domain.Line) (*Receipt, error) {
	l := logging.FromContext(ctx).With("svc", "purchase")

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrValidation)
	}
	ids := make([]uint, 0, len(lines))
	for _, ln := range lines {
		if ln.ProductID == 0 || ln.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d: quantity must be > 0", ErrValidation, ln.ProductID)
		}
		ids = append(ids, ln.ProductID)
	}

	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		products, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}
		snaps, err := snapshots(ctx, tx, products)
		if err != nil {
			return err
		}

		remaining := make(map[uint]int64, len(products))
		for id, p := range products {
			remaining[id] = p.Inventory
		}

		var conflicts []domain.Conflict
		for _, ln := range lines {
			snap, ok := snaps[ln.ProductID]
			if !ok {
				conflicts = append(conflicts, domain.NotFoundConflict(ln.ProductID))
				continue
			}
			if ln.Quantity > remaining[ln.ProductID] {
				conflicts = append(conflicts, domain.StockConflict(
					ln.ProductID, snap.name, snap.category, ln.Quantity, remaining[ln.ProductID],
				))
				continue
			}
			remaining[ln.ProductID] -= ln.Quantity
		}
		if len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}

		order = &models.Order{Lines: make([]models.OrderLine, 0, len(lines))}
		for _, ln := range lines {
			if err := tx.DeductInventory(ctx, ln.ProductID, ln.Quantity); err != nil {
				return err
			}

			snap := snaps[ln.ProductID]
			pct := domain.ClampDiscount(ln.DiscountPercent)
			total, err := domain.LineTotal(snap.price, ln.Quantity, pct)
			if err != nil {
				return fmt.Errorf("%w: product %d: line total: %w", ErrValidation, ln.ProductID, err)
			}
			order.Total, err = domain.AddAmount(order.Total, total)
			if err != nil {
				return fmt.Errorf("%w: order total: %w", ErrValidation, err)
			}
			line := models.OrderLine{
				ProductID:       ln.ProductID,
				ProductName:     snap.name,
				CategoryName:    snap.category,
				UnitPrice:       snap.price,
				Quantity:        ln.Quantity,
				DiscountPercent: pct,
				LineTotal:       total,
			}
			order.Lines = append(order.Lines, line)
		}
		return tx.CreateOrder(ctx, order)
	})

	var ce *ConflictError
	switch {
	case errors.As(err, &ce):
		l.Info("purchase_conflict", "conflicts", len(ce.Conflicts))
		return nil, ce
	case errors.Is(err, ErrValidation):
		l.Warn("purchase_rejected", "reason", "rolled back", "error", err)
		return nil, err
	case err != nil:
		l.Error("purchase_failed", "reason", "rolled back", "error", err)
		return nil, fmt.Errorf("%w: purchase: %v", ErrTransaction, err)
	}

	s.publishOrder(ctx, order)
	l.Info("purchase_committed", "order_id", order.ID, "total", order.Total, "lines", len(order.Lines))
	return &Receipt{OrderID: order.ID, Total: order.Total, Lines: order.Lines}, nil
}

func snapshots(ctx context.Context, tx *repo.GormRepo, products map[uint]models.Product) (map[uint]snapshot, error) {
	catIDs := make([]uint, 0, len(products))
	for _, p := range products {
		if p.CategoryID != nil {
			catIDs = append(catIDs, *p.CategoryID)
		}
	}
	names, err := tx.CategoryNames(ctx, catIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[uint]snapshot, len(products))
	for id, p := range products {
		cat := domain.UnknownCategory
		if p.CategoryID != nil {
			if n, ok := names[*p.CategoryID]; ok {
				cat = n
			}
		}
		out[id] = snapshot{name: p.Name, price: p.Price, category: cat}
	}
	return out, nil
}

func (s *PurchaseService) publishOrder(ctx context.Context, order *models.Order) {
	n := notifier{Events: s.Events}

	items := make([]map[string]any, 0, len(order.Lines))
	deducted := make(map[uint]int64, len(order.Lines))
	for _, ln := range order.Lines {
		items = append(items, map[string]any{
			"product_id":       ln.ProductID,
			"quantity":         ln.Quantity,
			"unit_price":       ln.UnitPrice,
			"discount_percent": ln.DiscountPercent,
			"line_total":       ln.LineTotal,
		})
		deducted[ln.ProductID] += ln.Quantity
	}

	n.publish(ctx, events.TopicOrders, idKey(order.ID), "order_created", map[string]any{
		"order_id": order.ID,
		"total":    order.Total,
		"items":    items,
	})
	for id, qty := range deducted {
		n.publish(ctx, events.TopicInventory, idKey(id), "stock_deducted", map[string]any{
			"product_id": id,
			"quantity":   qty,
			"order_id":   order.ID,
		})
	}
}
