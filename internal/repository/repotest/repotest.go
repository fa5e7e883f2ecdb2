// Package repotest provides throwaway SQLite databases for tests.
package repotest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/domain/roomtype"
	"github.com/innhub/service-reservation/internal/platform/database"
	"github.com/innhub/service-reservation/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory database with the schema migrated. A single
// connection is used so every transaction is serialised.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         database.NewGormLogger(zaptest.NewLogger(t)),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Models()...))
	return db
}

// SeedRoomType stores a room type with the given unit count and nightly rate.
func SeedRoomType(t testing.TB, db *gorm.DB, name string, units int, rateCents int64) *roomtype.RoomType {
	t.Helper()
	rt, err := roomtype.NewRoomType(name, "", rateCents, "MYR", units)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormRoomTypeRepository(db).Save(context.Background(), rt))
	return rt
}
