// Package migratetest opens throwaway sqlite databases with the schema and
// seed catalog applied.
package migratetest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/genericsdirect/dealtracker/pkg/config"
	"github.com/genericsdirect/dealtracker/pkg/db"
	"github.com/genericsdirect/dealtracker/pkg/migrate"
)

// NewSQLite returns a migrated in-memory database private to the test.
func NewSQLite(t *testing.T) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// shared-cache memory databases lock per table across connections
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Up(context.Background(), sqlDB, config.DriverSQLite))
	return db.NewFromGorm(conn)
}
