package service

import (
	"context"

	"github.com/Skotchmaster/boutique/internal/authz"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/repo"
	"github.com/Skotchmaster/boutique/pkg/events"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type OrderHistory struct {
	Orders     []models.Order `json:"orders"`
	GrandTotal int64          `json:"grand_total"`
}

// ListOrders returns every order newest first with its lines.
func (s *OrderService) ListOrders(ctx context.Context) (*OrderHistory, error) {
	orders, err := s.Repo.ListOrders(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	h := &OrderHistory{Orders: orders}
	if h.Orders == nil {
		h.Orders = []models.Order{}
	}
	for _, o := range orders {
		h.GrandTotal += o.Total
	}
	return h, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return o, nil
}

// DeleteOrder removes an order together with its lines. Stock is not returned.
func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	if err := authz.RequireAdmin(ctx); err != nil {
		return err
	}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return storeErr(err)
	}

	notifier{Events: s.Events}.publish(ctx, events.TopicOrders, idKey(id), "order_deleted", map[string]any{
		"order_id": id,
	})
	return nil
}
