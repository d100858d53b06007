package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/boutique/internal/authz"
	"github.com/Skotchmaster/boutique/internal/repo"
	"github.com/Skotchmaster/boutique/pkg/events"
)

// Positions are dense from 1 within a scope: the category list, or the
// products of one category (nil for uncategorized). Readers break ties by id.

func nextCategoryPosition(ctx context.Context, tx *repo.GormRepo) (int, error) {
	n, err := tx.MaxCategoryPosition(ctx)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

func nextProductPosition(ctx context.Context, tx *repo.GormRepo, categoryID *uint) (int, error) {
	n, err := tx.MaxProductPosition(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// ReorderCategories gives the listed categories positions 1..n in list order.
// Ids that do not resolve, and repeats, are skipped; the rest still commit as
// one batch. It returns how many categories were placed.
func (s *CatalogService) ReorderCategories(ctx context.Context, ids []uint) (int, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return 0, err
	}

	placed := 0
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		known, err := tx.CategoryNames(ctx, ids)
		if err != nil {
			return err
		}
		done := make(map[uint]bool, len(ids))
		for _, id := range ids {
			if _, ok := known[id]; !ok || done[id] {
				continue
			}
			done[id] = true
			placed++
			if _, err := tx.SetCategoryPosition(ctx, id, placed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, storeErr(err)
	}

	s.notify().publish(ctx, events.TopicCatalog, "categories", "categories_reordered", map[string]any{
		"ordered_category_ids": ids,
		"placed":               placed,
	})
	return placed, nil
}

// ReorderProducts is the full reorder of one category scope. Ids outside the
// scope are skipped.
func (s *CatalogService) ReorderProducts(ctx context.Context, categoryID *uint, ids []uint) (int, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return 0, err
	}

	placed := 0
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := requireCategory(ctx, tx, categoryID); err != nil {
			return err
		}
		found, err := tx.GetProducts(ctx, ids)
		if err != nil {
			return err
		}
		done := make(map[uint]bool, len(ids))
		for _, id := range ids {
			p, ok := found[id]
			if !ok || done[id] || !sameCategory(p.CategoryID, categoryID) {
				continue
			}
			done[id] = true
			placed++
			if _, err := tx.SetProductPosition(ctx, id, placed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, storeErr(err)
	}

	s.notify().publish(ctx, events.TopicCatalog, scopeKey(categoryID), "products_reordered", map[string]any{
		"category_id": categoryID,
		"ordered_ids": ids,
		"placed":      placed,
	})
	return placed, nil
}

type PositionEntry struct {
	ProductID uint
	Position  int
}

// SetProductPositions writes positions as given, without reindexing. Entries
// with a zero id or a position below 1 are skipped, as are unknown products.
// Every product that does resolve must belong to the same category.
func (s *CatalogService) SetProductPositions(ctx context.Context, entries []PositionEntry) (int, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return 0, err
	}

	valid := make([]PositionEntry, 0, len(entries))
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		if e.ProductID == 0 || e.Position <= 0 {
			continue
		}
		valid = append(valid, e)
		ids = append(ids, e.ProductID)
	}

	updated := 0
	var scope *uint
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		found, err := tx.GetProducts(ctx, ids)
		if err != nil {
			return err
		}

		first := true
		for _, e := range valid {
			p, ok := found[e.ProductID]
			if !ok {
				continue
			}
			if first {
				scope, first = p.CategoryID, false
			} else if !sameCategory(scope, p.CategoryID) {
				return fmt.Errorf("%w: positions span more than one category", ErrValidation)
			}
		}

		for _, e := range valid {
			if _, ok := found[e.ProductID]; !ok {
				continue
			}
			if _, err := tx.SetProductPosition(ctx, e.ProductID, e.Position); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, storeErr(err)
	}

	if updated > 0 {
		s.notify().publish(ctx, events.TopicCatalog, scopeKey(scope), "product_positions_set", map[string]any{
			"category_id": scope,
			"updated":     updated,
		})
	}
	return updated, nil
}

func scopeKey(categoryID *uint) string {
	if categoryID == nil {
		return "uncategorized"
	}
	return idKey(*categoryID)
}
