// Package dbtest поднимает sqlite-базу со схемой и сидингом для тестов.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/db"
	"github.com/Leganyst/session-booking/internal/model"
)

// Open возвращает свежую мигрированную базу во временной директории теста.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := db.Seed(context.Background(), gdb, db.SeedOptions{TimeZone: "UTC"}); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	return gdb
}
