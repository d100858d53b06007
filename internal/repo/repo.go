package repo

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/models"
)

var (
	ErrCategoryNotEmpty = errors.New("category still owns products")
	ErrStaleInventory   = errors.New("inventory changed under the transaction")
)

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// Transaction runs fn against a repo bound to one database transaction.
// fn must only use the repo it is given.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

// Ping is used by the readiness check.
func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepo) rowLocks() bool {
	return r.DB.Dialector.Name() == "postgres"
}

func uniqueSorted(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func inCategory(categoryID *uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if categoryID == nil {
			return db.Where("category_id IS NULL")
		}
		return db.Where("category_id = ?", *categoryID)
	}
}
