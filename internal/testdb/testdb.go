// Package testdb opens throwaway migrated databases for tests.
package testdb

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/repo"
	pkgdb "github.com/Skotchmaster/boutique/pkg/db"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	if err := repo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
