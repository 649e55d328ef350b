package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type counter struct {
	ID    int64 `gorm:"primaryKey"`
	Value int
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:repo_base?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := conn.Migrator().DropTable(&counter{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if err := conn.AutoMigrate(&counter{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}

	if withoutCtx := base.DB(nil); withoutCtx != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestTransactionCommitsAndRollsBack(t *testing.T) {
	base := NewBase(newTestDB(t))
	ctx := context.Background()

	err := base.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&counter{ID: 1, Value: 1}).Error
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	boom := errors.New("boom")
	err = base.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&counter{}).Where("id = ?", 1).Update("value", 2).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected rollback error, got %v", err)
	}

	var row counter
	if err := base.DB(ctx).First(&row, 1).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.Value != 1 {
		t.Fatalf("expected rolled back value 1, got %d", row.Value)
	}
}
