package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/boutique/internal/authz"
	"github.com/Skotchmaster/boutique/internal/domain"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/repo"
	"github.com/Skotchmaster/boutique/internal/search"
	"github.com/Skotchmaster/boutique/pkg/events"
	"github.com/Skotchmaster/boutique/pkg/logging"
	"github.com/Skotchmaster/boutique/pkg/paging"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Index  search.Index
}

func (s *CatalogService) notify() notifier {
	return notifier{Events: s.Events, Index: s.Index}
}

// CategoryBlock is one category with its products in display order.
// Category is nil for the uncategorized block.
type CategoryBlock struct {
	Category *models.Category `json:"category"`
	Products []models.Product `json:"products"`
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	items, err := s.Repo.ListCategories(ctx)
	return items, storeErr(err)
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter) ([]models.Product, error) {
	items, err := s.Repo.ListProducts(ctx, f)
	return items, storeErr(err)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

// Catalog groups every product under its category in category order.
// Products without a known category come last.
func (s *CatalogService) Catalog(ctx context.Context) ([]CategoryBlock, error) {
	cats, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	prods, err := s.Repo.ListProductsGrouped(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	byCat := make(map[uint][]models.Product, len(cats))
	var loose []models.Product
	known := make(map[uint]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
	}
	for _, p := range prods {
		if p.CategoryID == nil || !known[*p.CategoryID] {
			loose = append(loose, p)
			continue
		}
		byCat[*p.CategoryID] = append(byCat[*p.CategoryID], p)
	}

	blocks := make([]CategoryBlock, 0, len(cats)+1)
	for i := range cats {
		blocks = append(blocks, CategoryBlock{Category: &cats[i], Products: nonNil(byCat[cats[i].ID])})
	}
	if len(loose) > 0 {
		blocks = append(blocks, CategoryBlock{Products: loose})
	}
	return blocks, nil
}

func nonNil(p []models.Product) []models.Product {
	if p == nil {
		return []models.Product{}
	}
	return p
}

// SearchProducts asks the search index first and falls back to a name match
// in the store when there is no index or it fails. Pages are 1-based.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, page, size int) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	offset, limit := paging.Calculate(page, size)

	if s.Index != nil {
		ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return s.productsInOrder(ctx, ids)
		}
		l.Warn("search_index_failed", "reason", "falling back to store", "error", err)
	}

	items, err := s.Repo.SearchProductsByName(ctx, q, offset, limit)
	return items, storeErr(err)
}

// productsInOrder drops ids the store no longer knows.
func (s *CatalogService) productsInOrder(ctx context.Context, ids []uint) ([]models.Product, error) {
	found, err := s.Repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// IsDuplicateProductName compares case-insensitively against every product
// other than excludeID.
func (s *CatalogService) IsDuplicateProductName(ctx context.Context, name string, excludeID *uint) (bool, error) {
	return isDuplicateProductName(ctx, s.Repo, name, excludeID)
}

func isDuplicateProductName(ctx context.Context, r *repo.GormRepo, name string, excludeID *uint) (bool, error) {
	p, err := r.FindProductByNormalizedName(ctx, name, excludeID)
	if err != nil {
		return false, storeErr(err)
	}
	return p != nil, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name required", ErrValidation)
	}

	cat := &models.Category{Name: name}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		dup, err := tx.FindCategoryByName(ctx, name, nil)
		if err != nil {
			return err
		}
		if dup != nil {
			return ErrDuplicateName
		}
		pos, err := nextCategoryPosition(ctx, tx)
		if err != nil {
			return err
		}
		cat.Position = pos
		return tx.CreateCategory(ctx, cat)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.notify().publish(ctx, events.TopicCatalog, idKey(cat.ID), "category_created", map[string]any{
		"category_id": cat.ID,
		"name":        cat.Name,
		"position":    cat.Position,
	})
	return cat, nil
}

func (s *CatalogService) RenameCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name required", ErrValidation)
	}

	var cat *models.Category
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		dup, err := tx.FindCategoryByName(ctx, name, &id)
		if err != nil {
			return err
		}
		if dup != nil {
			return ErrDuplicateName
		}
		if err := tx.RenameCategory(ctx, id, name); err != nil {
			return err
		}
		cat, err = tx.GetCategory(ctx, id)
		return err
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.notify().publish(ctx, events.TopicCatalog, idKey(id), "category_renamed", map[string]any{
		"category_id": id,
		"name":        cat.Name,
	})
	return cat, nil
}

// DeleteCategory refuses with ErrCategoryNotEmpty while any product points at it.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if err := authz.RequireAdmin(ctx); err != nil {
		return err
	}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.DeleteCategory(ctx, id)
	})
	if err != nil {
		return storeErr(err)
	}

	s.notify().publish(ctx, events.TopicCatalog, idKey(id), "category_deleted", map[string]any{
		"category_id": id,
	})
	return nil
}

type NewProduct struct {
	Name       string
	Price      int64
	Image      string
	CategoryID *uint
	Inventory  int64
}

// ProductPatch changes only the fields that are set. A CategoryID pointing
// at 0 moves the product out of its category.
type ProductPatch struct {
	Name       *string
	Price      *int64
	Image      *string
	Position   *int
	CategoryID *uint
}

func (s *CatalogService) CreateProduct(ctx context.Context, in NewProduct) (*models.Product, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	name := domain.Normalize(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name required", ErrValidation)
	}
	if in.CategoryID != nil && *in.CategoryID == 0 {
		in.CategoryID = nil
	}

	prod := &models.Product{
		Name:       name,
		Price:      in.Price,
		Image:      in.Image,
		CategoryID: in.CategoryID,
		Inventory:  in.Inventory,
	}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := requireCategory(ctx, tx, prod.CategoryID); err != nil {
			return err
		}
		dup, err := isDuplicateProductName(ctx, tx, name, nil)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		pos, err := nextProductPosition(ctx, tx, prod.CategoryID)
		if err != nil {
			return err
		}
		prod.Position = pos
		return tx.CreateProduct(ctx, prod)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.afterProductWrite(ctx, "product_created", *prod)
	return prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var prod *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		prod, err = applyPatch(ctx, tx, id, patch)
		return err
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.afterProductWrite(ctx, "product_updated", *prod)
	return prod, nil
}

type BulkEdit struct {
	ID uint
	ProductPatch
}

// BulkUpdateProducts checks every new name before touching anything, then
// applies all edits in one transaction. Edits for unknown ids are skipped.
func (s *CatalogService) BulkUpdateProducts(ctx context.Context, edits []BulkEdit) ([]models.Product, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	seen := make(map[string]uint, len(edits))
	for i := range edits {
		if edits[i].Name == nil {
			continue
		}
		name := domain.Normalize(*edits[i].Name)
		if name == "" {
			return nil, fmt.Errorf("%w: product %d: name required", ErrValidation, edits[i].ID)
		}
		key := strings.ToLower(name)
		if other, ok := seen[key]; ok && other != edits[i].ID {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[key] = edits[i].ID
	}

	var updated []models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		for i := range edits {
			if edits[i].Name == nil {
				continue
			}
			dup, err := isDuplicateProductName(ctx, tx, domain.Normalize(*edits[i].Name), &edits[i].ID)
			if err != nil {
				return err
			}
			if dup {
				return fmt.Errorf("%w: %q", ErrDuplicateName, domain.Normalize(*edits[i].Name))
			}
		}

		for i := range edits {
			p, err := applyPatch(ctx, tx, edits[i].ID, edits[i].ProductPatch)
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			updated = append(updated, *p)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	for _, p := range updated {
		s.afterProductWrite(ctx, "product_updated", p)
	}
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := authz.RequireAdmin(ctx); err != nil {
		return err
	}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return storeErr(err)
	}

	n := s.notify()
	n.publish(ctx, events.TopicCatalog, idKey(id), "product_deleted", map[string]any{"product_id": id})
	n.unindexProduct(ctx, id)
	return nil
}

func (s *CatalogService) afterProductWrite(ctx context.Context, eventType string, p models.Product) {
	n := s.notify()
	n.publish(ctx, events.TopicCatalog, idKey(p.ID), eventType, map[string]any{
		"product_id":  p.ID,
		"name":        p.Name,
		"price":       p.Price,
		"category_id": p.CategoryID,
		"position":    p.Position,
	})
	n.indexProduct(ctx, p)
}

func applyPatch(ctx context.Context, tx *repo.GormRepo, id uint, patch ProductPatch) (*models.Product, error) {
	prod, err := tx.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := domain.Normalize(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: product name required", ErrValidation)
		}
		dup, err := isDuplicateProductName(ctx, tx, name, &id)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		prod.Name = name
	}
	if patch.Price != nil {
		prod.Price = *patch.Price
	}
	if patch.Image != nil {
		prod.Image = *patch.Image
	}
	if patch.Position != nil {
		prod.Position = *patch.Position
	}

	if patch.CategoryID != nil {
		var dest *uint
		if *patch.CategoryID != 0 {
			dest = patch.CategoryID
		}
		if !sameCategory(prod.CategoryID, dest) {
			if err := requireCategory(ctx, tx, dest); err != nil {
				return nil, err
			}
			pos, err := nextProductPosition(ctx, tx, dest)
			if err != nil {
				return nil, err
			}
			prod.CategoryID = dest
			prod.Position = pos
		}
	}

	if err := tx.SaveProduct(ctx, prod); err != nil {
		return nil, err
	}
	return prod, nil
}

func requireCategory(ctx context.Context, tx *repo.GormRepo, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := tx.GetCategory(ctx, *id); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: unknown category %d", ErrValidation, *id)
		}
		return err
	}
	return nil
}

func sameCategory(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
