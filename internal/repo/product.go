package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/boutique/internal/models"
)

// ProductFilter selects one category scope. The zero value selects every product.
type ProductFilter struct {
	CategoryID    *uint
	Uncategorized bool
}

func (f ProductFilter) scoped() bool {
	return f.CategoryID != nil || f.Uncategorized
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.scoped() {
		q = q.Scopes(inCategory(f.CategoryID))
	}
	var items []models.Product
	if err := q.Order("position ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListProductsGrouped orders by category first, for views that render one
// block per category.
func (r *GormRepo) ListProductsGrouped(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("category_id ASC, position ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&prod).Error; err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	return r.productsByID(r.DB.WithContext(ctx), ids)
}

// LockProducts loads the given products for update. Rows are locked in
// ascending id order so two purchases over the same products cannot
// deadlock. SQLite already serialises writers and gets a plain read.
func (r *GormRepo) LockProducts(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	q := r.DB.WithContext(ctx)
	if r.rowLocks() {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.productsByID(q, ids)
}

func (r *GormRepo) productsByID(q *gorm.DB, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.Product
	if err := q.Where("id IN ?", uniqueSorted(ids)).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

// FindProductByNormalizedName returns nil when no other product has the name.
func (r *GormRepo) FindProductByNormalizedName(ctx context.Context, name string, excludeID *uint) (*models.Product, error) {
	q := r.DB.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var items []models.Product
	if err := q.Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *GormRepo) SearchProductsByName(ctx context.Context, q string, offset, limit int) ([]models.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Where("LOWER(name) LIKE ?", pattern).
		Order("position ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

// SaveProduct writes every column of prod, including a nil category.
func (r *GormRepo) SaveProduct(ctx context.Context, prod *models.Product) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", prod.ID).
		Select("name", "price", "image", "position", "category_id", "inventory").
		Updates(prod)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) CountProductsInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

func (r *GormRepo) MaxProductPosition(ctx context.Context, categoryID *uint) (int, error) {
	var n int
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Scopes(inCategory(categoryID)).
		Select("COALESCE(MAX(position), 0)").
		Scan(&n).Error
	return n, err
}

func (r *GormRepo) SetProductPosition(ctx context.Context, id uint, pos int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).UpdateColumn("position", pos)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AdjustInventory adds delta, which may be negative, and reports whether the
// product exists.
func (r *GormRepo) AdjustInventory(ctx context.Context, id uint, delta int64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		UpdateColumn("inventory", gorm.Expr("inventory + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeductInventory never takes inventory below zero. ErrStaleInventory means
// the row no longer holds qty units.
func (r *GormRepo) DeductInventory(ctx context.Context, id uint, qty int64) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND inventory >= ?", id, qty).
		UpdateColumn("inventory", gorm.Expr("inventory - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleInventory
	}
	return nil
}
