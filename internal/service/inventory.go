package service

import (
	"context"

	"github.com/Skotchmaster/boutique/internal/authz"
	"github.com/Skotchmaster/boutique/internal/repo"
	"github.com/Skotchmaster/boutique/pkg/events"
)

type StockReceipt struct {
	ProductID uint
	Quantity  int64
}

// ReceiveStock adds received units. Receiving never subtracts: entries with
// a zero id or a quantity below 1 are ignored. The count is of products
// actually updated, so unknown ids are not counted either.
func (s *CatalogService) ReceiveStock(ctx context.Context, entries []StockReceipt) (int, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return 0, err
	}

	var applied []StockReceipt
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		for _, e := range entries {
			if e.ProductID == 0 || e.Quantity <= 0 {
				continue
			}
			ok, err := tx.AdjustInventory(ctx, e.ProductID, e.Quantity)
			if err != nil {
				return err
			}
			if ok {
				applied = append(applied, e)
			}
		}
		return nil
	})
	if err != nil {
		return 0, storeErr(err)
	}

	n := s.notify()
	for _, e := range applied {
		n.publish(ctx, events.TopicInventory, idKey(e.ProductID), "stock_received", map[string]any{
			"product_id": e.ProductID,
			"quantity":   e.Quantity,
		})
	}
	return len(applied), nil
}
