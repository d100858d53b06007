package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/boutique/internal/authz"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/repo"
	"github.com/Skotchmaster/boutique/internal/testdb"
	"github.com/Skotchmaster/boutique/pkg/events"
)

type recordedEvent struct {
	Topic string
	Key   string
	Type  string
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
	fail   bool
}

func (r *recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broker down")
	}
	var typ string
	if ev, ok := event.(events.Event); ok {
		typ, _ = ev["type"].(string)
	}
	r.events = append(r.events, recordedEvent{Topic: topic, Key: key, Type: typ})
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types(topic string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Topic == topic {
			out = append(out, e.Type)
		}
	}
	return out
}

type env struct {
	repo     *repo.GormRepo
	catalog  *CatalogService
	purchase *PurchaseService
	orders   *OrderService
	events   *recorder
	admin    context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	r := &repo.GormRepo{DB: testdb.Open(t)}
	rec := &recorder{}
	return &env{
		repo:     r,
		catalog:  &CatalogService{Repo: r, Events: rec},
		purchase: &PurchaseService{Repo: r, Events: rec},
		orders:   &OrderService{Repo: r, Events: rec},
		events:   rec,
		admin:    authz.AsAdmin(context.Background(), "test-admin"),
	}
}

func (e *env) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := e.catalog.CreateCategory(e.admin, name)
	require.NoError(t, err)
	return c
}

func (e *env) product(t *testing.T, name string, price, inventory int64, cat *models.Category) *models.Product {
	t.Helper()
	in := NewProduct{Name: name, Price: price, Inventory: inventory}
	if cat != nil {
		in.CategoryID = &cat.ID
	}
	p, err := e.catalog.CreateProduct(e.admin, in)
	require.NoError(t, err)
	return p
}

func (e *env) inventory(t *testing.T, id uint) int64 {
	t.Helper()
	p, err := e.repo.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Inventory
}

func (e *env) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.repo.DB.Model(model).Count(&n).Error)
	return n
}

func ptr[T any](v T) *T { return &v }
