package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/boutique/internal/models"
)

// Index keeps a searchable copy of the catalog. Search returns product ids
// best match first; the store stays the source of truth for everything else.
type Index interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, q string, offset, limit int) ([]uint, error)
}

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

type ESIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewESIndex(cfg Config) (*ESIndex, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("search: ES_URL is empty")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("search: new client: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = "products"
	}
	return &ESIndex{es: client, index: index}, nil
}

func (x *ESIndex) Ping(ctx context.Context) error {
	res, err := x.es.Info(x.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("info", res.StatusCode, res.Body)
	}
	return nil
}

type document struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Image      string `json:"image"`
	CategoryID *uint  `json:"category_id"`
}

func (x *ESIndex) IndexProduct(ctx context.Context, p models.Product) error {
	body, err := json.Marshal(document{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Image:      p.Image,
		CategoryID: p.CategoryID,
	})
	if err != nil {
		return fmt.Errorf("search: encode document: %w", err)
	}

	res, err := x.es.Index(
		x.index,
		bytes.NewReader(body),
		x.es.Index.WithDocumentID(docID(p.ID)),
		x.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.StatusCode, res.Body)
	}
	return nil
}

func (x *ESIndex) DeleteProduct(ctx context.Context, id uint) error {
	res, err := x.es.Delete(x.index, docID(id), x.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete", res.StatusCode, res.Body)
	}
	return nil
}

func (x *ESIndex) Search(ctx context.Context, q string, offset, limit int) ([]uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"name": map[string]any{
					"query":     q,
					"fuzziness": "AUTO",
				},
			},
		},
		"_source": false,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
		x.es.Search.WithFrom(offset),
		x.es.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		n, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func responseError(op string, status int, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 4096))
	return fmt.Errorf("search: %s: status %d: %s", op, status, bytes.TrimSpace(b))
}
