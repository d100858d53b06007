package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/boutique/internal/conflicts"
	"github.com/Skotchmaster/boutique/internal/repo"
	"github.com/Skotchmaster/boutique/internal/service"
	"github.com/Skotchmaster/boutique/internal/testdb"
	"github.com/Skotchmaster/boutique/pkg/events"
	"github.com/Skotchmaster/boutique/pkg/hash"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
	"github.com/Skotchmaster/boutique/pkg/tokens"
)

var testSecret = []byte("httpserver-test-secret")

type server struct {
	e       *echo.Echo
	mailbox *conflicts.Mailbox
	admin   string
	ready   error
}

func newServer(t *testing.T) *server {
	t.Helper()

	r := &repo.GormRepo{DB: testdb.Open(t)}
	catalog := &service.CatalogService{Repo: r, Events: events.Nop{}}
	pwHash, err := hash.HashPassword("letmein")
	require.NoError(t, err)

	s := &server{e: echo.New(), mailbox: conflicts.NewMailbox(time.Minute)}
	Register(s.e, Deps{
		Catalog:   &CatalogHTTP{Svc: catalog},
		Manage:    &ManageHTTP{Svc: catalog},
		Inventory: &InventoryHTTP{Svc: catalog, Mailbox: s.mailbox},
		Purchase:  &PurchaseHTTP{Svc: &service.PurchaseService{Repo: r, Events: events.Nop{}}, Mailbox: s.mailbox},
		Orders:    &OrderHTTP{Svc: &service.OrderService{Repo: r, Events: events.Nop{}}},
		Admin:     &AdminHTTP{PasswordHash: pwHash, JWTSecret: testSecret, TokenTTL: time.Hour},
		JWTSecret: testSecret,
		Ready:     func(context.Context) error { return s.ready },
	})

	s.admin, err = tokens.NewAccessToken("admin", tokens.RoleAdmin, time.Now().Add(time.Hour), testSecret)
	require.NoError(t, err)
	return s
}

type reqOpt func(*http.Request)

func asAdmin(s *server) reqOpt {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+s.admin) }
}

func withCookie(ck *http.Cookie) reqOpt {
	return func(r *http.Request) { r.AddCookie(ck) }
}

func (s *server) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

type productOut struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Position   int    `json:"position"`
	CategoryID *uint  `json:"category_id"`
	Inventory  int64  `json:"inventory"`
}

type categoryOut struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

func (s *server) category(t *testing.T, name string) categoryOut {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/manage/categories", map[string]any{"name": name}, asAdmin(s))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[categoryOut](t, rec)
}

func (s *server) product(t *testing.T, body map[string]any) productOut {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/manage/products", body, asAdmin(s))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[productOut](t, rec)
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", nil).Code)

	s.ready = errors.New("db down")
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/health/ready", nil).Code)
}

func TestAdminLogin(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/admin/login", map[string]any{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/login", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/login", map[string]any{"password": "letmein"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ck := cookie(rec, authmw.AccessCookie)
	require.NotNil(t, ck)
	assert.True(t, ck.Secure)
	assert.True(t, ck.HttpOnly)

	rec = s.do(t, http.MethodPost, "/manage/categories", map[string]any{"name": "Hats"}, withCookie(ck))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/admin/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, cookie(rec, authmw.AccessCookie))
	assert.Equal(t, "", cookie(rec, authmw.AccessCookie).Value)
}

func TestAdminLogin_InsecureCookies(t *testing.T) {
	pwHash, err := hash.HashPassword("letmein")
	require.NoError(t, err)

	e := echo.New()
	e.Validator = NewValidator()
	h := &AdminHTTP{PasswordHash: pwHash, JWTSecret: testSecret, InsecureCookies: true}
	e.POST("/admin/login", h.Login)
	e.POST("/admin/logout", h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"password":"letmein"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ck := cookie(rec, authmw.AccessCookie)
	require.NotNil(t, ck)
	assert.False(t, ck.Secure)
	assert.NotEmpty(t, ck.Value)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, cookie(rec, authmw.AccessCookie))
	assert.False(t, cookie(rec, authmw.AccessCookie).Secure)
}

func TestManage_RequiresAdmin(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/manage/categories", map[string]any{"name": "Hats"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user, err := tokens.NewAccessToken("u1", "user", time.Now().Add(time.Hour), testSecret)
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/manage/categories", map[string]any{"name": "Hats"}, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+user)
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/inventory/receive", map[string]any{"entries": []any{}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, "/orders/1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCategories(t *testing.T) {
	s := newServer(t)

	hats := s.category(t, "  Hats ")
	assert.Equal(t, "Hats", hats.Name)
	assert.Equal(t, 1, hats.Position)
	shoes := s.category(t, "Shoes")
	assert.Equal(t, 2, shoes.Position)

	rec := s.do(t, http.MethodPost, "/manage/categories", map[string]any{"name": "hats"}, asAdmin(s))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/manage/categories", map[string]any{"name": ""}, asAdmin(s))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, fmt.Sprintf("/manage/categories/%d", shoes.ID), map[string]any{"name": "Boots"}, asAdmin(s))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Boots", decode[categoryOut](t, rec).Name)

	rec = s.do(t, http.MethodPatch, "/manage/categories/999", map[string]any{"name": "Ghost"}, asAdmin(s))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/manage/categories/reorder",
		map[string]any{"ordered_category_ids": []any{shoes.ID, "999", "junk", hats.ID}}, asAdmin(s))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["placed"])

	rec = s.do(t, http.MethodGet, "/catalog/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Data []categoryOut `json:"data"`
	}](t, rec).Data
	require.Len(t, list, 2)
	assert.Equal(t, []uint{shoes.ID, hats.ID}, []uint{list[0].ID, list[1].ID})

	s.product(t, map[string]any{"name": "cap", "price": "10", "category_id": hats.ID})
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/manage/categories/%d", hats.ID), nil, asAdmin(s))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/manage/categories/%d", shoes.ID), nil, asAdmin(s))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestProducts(t *testing.T) {
	s := newServer(t)
	hats := s.category(t, "Hats")

	p := s.product(t, map[string]any{
		"name":            "the RED shirt",
		"price":           "$1,200",
		"category_id":     hats.ID,
		"start_inventory": "4",
	})
	assert.Equal(t, "The red Shirt", p.Name)
	assert.EqualValues(t, 1200, p.Price)
	assert.EqualValues(t, 4, p.Inventory)
	assert.Equal(t, 1, p.Position)

	rec := s.do(t, http.MethodPost, "/manage/products", map[string]any{"name": "THE RED SHIRT", "price": 5}, asAdmin(s))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/manage/products", map[string]any{"name": "Ghost", "category_id": 999}, asAdmin(s))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, fmt.Sprintf("/manage/products/%d", p.ID), map[string]any{"price": "950", "category_id": 0}, asAdmin(s))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[productOut](t, rec)
	assert.EqualValues(t, 950, patched.Price)
	assert.Nil(t, patched.CategoryID)

	rec = s.do(t, http.MethodGet, "/catalog/products?category_id=uncategorized", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Data []productOut `json:"data"`
	}](t, rec).Data, 1)

	rec = s.do(t, http.MethodGet, "/catalog/products?category_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/catalog/products/%d", p.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/catalog/products/search?q=shirt", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[struct {
		Data []productOut `json:"data"`
	}](t, rec).Data, 1)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/manage/products/%d", p.ID), nil, asAdmin(s))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, fmt.Sprintf("/catalog/products/%d", p.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkUpdateAndReorder(t *testing.T) {
	s := newServer(t)
	hats := s.category(t, "Hats")
	a := s.product(t, map[string]any{"name": "alpha", "price": 1, "category_id": hats.ID})
	b := s.product(t, map[string]any{"name": "bravo", "price": 2, "category_id": hats.ID})

	rec := s.do(t, http.MethodPost, "/manage/products/bulk", map[string]any{
		"products": []any{
			map[string]any{"id": a.ID, "price": "15"},
			map[string]any{"id": b.ID, "name": "Charlie"},
		},
	}, asAdmin(s))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["updated"])

	rec = s.do(t, http.MethodPost, "/manage/products/bulk", map[string]any{
		"products": []any{map[string]any{"id": a.ID, "name": "charlie"}},
	}, asAdmin(s))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/manage/products/bulk", map[string]any{"products": []any{}}, asAdmin(s))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/manage/categories/%d/products/reorder", hats.ID),
		map[string]any{"ordered_product_ids": []any{b.ID, a.ID}}, asAdmin(s))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/catalog/products?category_id=%d", hats.ID), nil)
	list := decode[struct {
		Data []productOut `json:"data"`
	}](t, rec).Data
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, 15, int(list[1].Price))

	rec = s.do(t, http.MethodPost, "/manage/categories/uncategorized/products/reorder",
		map[string]any{"ordered_product_ids": []any{a.ID}}, asAdmin(s))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, rec)["placed"])

	rec = s.do(t, http.MethodPost, "/inventory/positions", map[string]any{
		"positions": []any{
			map[string]any{"id": a.ID, "position": 7},
			map[string]any{"id": "x", "position": 1},
		},
	}, asAdmin(s))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["updated"])
}

func TestPurchaseAndConflictMailbox(t *testing.T) {
	s := newServer(t)
	hats := s.category(t, "Hats")
	p := s.product(t, map[string]any{"name": "cap", "price": 1000, "category_id": hats.ID, "start_inventory": 3})

	rec := s.do(t, http.MethodPost, "/api/purchase", map[string]any{
		"items": []any{map[string]any{"product_id": p.ID, "qty": "2", "discount_percent": 40}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ok := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", ok["status"])
	assert.EqualValues(t, 1500, ok["total"])

	rec = s.do(t, http.MethodPost, "/api/purchase", map[string]any{
		"items": []any{
			map[string]any{"product_id": p.ID, "qty": 2},
			map[string]any{"product_id": 999, "qty": 1},
		},
	})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	body := decode[struct {
		Status    string           `json:"status"`
		Redirect  string           `json:"redirect"`
		Conflicts []map[string]any `json:"conflicts"`
	}](t, rec)
	assert.Equal(t, "conflict", body.Status)
	assert.Equal(t, "/inventory", body.Redirect)
	require.Len(t, body.Conflicts, 2)
	assert.Equal(t, "insufficient_stock", body.Conflicts[0]["reason"])
	assert.EqualValues(t, 1, body.Conflicts[0]["available"])
	assert.Equal(t, "not_found", body.Conflicts[1]["reason"])

	session := cookie(rec, SessionCookie)
	require.NotNil(t, session)

	rec = s.do(t, http.MethodGet, "/inventory", nil, withCookie(session))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[struct {
		Products  []productOut     `json:"products"`
		Conflicts []map[string]any `json:"conflicts"`
	}](t, rec)
	assert.Len(t, view.Conflicts, 2)
	require.Len(t, view.Products, 1)
	assert.EqualValues(t, 1, view.Products[0].Inventory)

	rec = s.do(t, http.MethodGet, "/inventory", nil, withCookie(session))
	assert.Empty(t, decode[struct {
		Conflicts []map[string]any `json:"conflicts"`
	}](t, rec).Conflicts)

	rec = s.do(t, http.MethodPost, "/api/purchase", map[string]any{
		"items": []any{map[string]any{"product_id": "abc", "qty": 1}, map[string]any{"product_id": p.ID, "qty": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/purchase", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveStockAndOrders(t *testing.T) {
	s := newServer(t)
	p := s.product(t, map[string]any{"name": "scarf", "price": 500})

	rec := s.do(t, http.MethodPost, "/inventory/receive", map[string]any{
		"entries": []any{
			map[string]any{"product_id": p.ID, "received_qty": "5"},
			map[string]any{"product_id": "nope", "received_qty": 3},
			map[string]any{"product_id": 999, "received_qty": 3},
		},
	}, asAdmin(s))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["updated"])

	rec = s.do(t, http.MethodPost, "/api/purchase", map[string]any{
		"items": []any{map[string]any{"product_id": p.ID, "qty": 5}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	orderID := uint(decode[map[string]any](t, rec)["order_id"].(float64))

	rec = s.do(t, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Orders []struct {
			ID    uint             `json:"id"`
			Lines []map[string]any `json:"lines"`
		} `json:"orders"`
		GrandTotal int64 `json:"grand_total"`
	}](t, rec)
	require.Len(t, history.Orders, 1)
	assert.EqualValues(t, 2500, history.GrandTotal)
	assert.Equal(t, "Unknown", history.Orders[0].Lines[0]["category_name"])

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", orderID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/orders/%d", orderID), nil, asAdmin(s))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/orders/%d", orderID), nil, asAdmin(s))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
