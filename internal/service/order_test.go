package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/boutique/internal/authz"
	"github.com/Skotchmaster/boutique/internal/domain"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/pkg/events"
)

func TestOrders_ListAndDelete(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	empty, err := e.orders.ListOrders(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty.Orders)
	assert.Zero(t, empty.GrandTotal)

	p := e.product(t, "cap", 100, 10, nil)
	first, err := e.purchase.Purchase(ctx, []domain.Line{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)
	second, err := e.purchase.Purchase(ctx, []domain.Line{{ProductID: p.ID, Quantity: 2}, {ProductID: p.ID, Quantity: 1, DiscountPercent: 10}})
	require.NoError(t, err)

	h, err := e.orders.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, h.Orders, 2)
	assert.Equal(t, second.OrderID, h.Orders[0].ID)
	assert.Len(t, h.Orders[0].Lines, 2)
	assert.Equal(t, first.Total+second.Total, h.GrandTotal)
	assert.Equal(t, int64(100+200+90), h.GrandTotal)

	err = e.orders.DeleteOrder(authz.WithCapability(ctx, authz.Capability{Subject: "visitor"}), second.OrderID)
	require.ErrorIs(t, err, authz.ErrForbidden)

	require.NoError(t, e.orders.DeleteOrder(e.admin, second.OrderID))
	require.ErrorIs(t, e.orders.DeleteOrder(e.admin, second.OrderID), ErrNotFound)

	assert.Equal(t, int64(1), e.count(t, &models.Order{}))
	assert.Equal(t, int64(1), e.count(t, &models.OrderLine{}))
	assert.Equal(t, int64(6), e.inventory(t, p.ID))
	assert.Contains(t, e.events.types(events.TopicOrders), "order_deleted")

	_, err = e.orders.GetOrder(ctx, second.OrderID)
	require.ErrorIs(t, err, ErrNotFound)
}
