package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/boutique/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := r.DB.WithContext(ctx).Order("position ASC, name ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// CategoryNames maps each existing id to its name.
func (r *GormRepo) CategoryNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.Category
	if err := r.DB.WithContext(ctx).Where("id IN ?", uniqueSorted(ids)).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, c := range items {
		out[c.ID] = c.Name
	}
	return out, nil
}

// FindCategoryByName returns nil when no other category has the name.
func (r *GormRepo) FindCategoryByName(ctx context.Context, name string, excludeID *uint) (*models.Category, error) {
	q := r.DB.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var items []models.Category
	if err := q.Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *GormRepo) RenameCategory(ctx context.Context, id uint, name string) error {
	res := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCategory locks the category row before counting its products so a
// concurrent insert into it waits for the delete. The products foreign key
// refuses the delete if one still slips in.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	q := r.DB.WithContext(ctx)
	if r.rowLocks() {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var cat models.Category
	if err := q.First(&cat, id).Error; err != nil {
		return err
	}

	n, err := r.CountProductsInCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryNotEmpty
	}

	res := r.DB.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) MaxCategoryPosition(ctx context.Context) (int, error) {
	var n int
	err := r.DB.WithContext(ctx).Model(&models.Category{}).
		Select("COALESCE(MAX(position), 0)").
		Scan(&n).Error
	return n, err
}

// SetCategoryPosition reports whether a row was updated.
func (r *GormRepo) SetCategoryPosition(ctx context.Context, id uint, pos int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).UpdateColumn("position", pos)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
