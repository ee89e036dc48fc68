package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ezm_trade_backend/internal/platform/database"
)

// MustOpenTestDB opens an isolated in-memory SQLite database and migrates the supplied models.
// The returned connection is automatically closed via t.Cleanup.
func MustOpenTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	// Named shared-cache database so every pooled connection sees the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db, models...))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}
