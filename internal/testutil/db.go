// Package testutil sets up SQLite-backed stores for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/pkg/database"
)

// NewStore opens a file-backed SQLite database in a temp dir and runs the
// same migrations as production. A single connection serialises
// transactions the way row locks do on postgres.
func NewStore(t testing.TB) *database.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "authorhub_test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), database.Config(true))
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := database.NewStore(db)
	require.NoError(t, store.Migrate(), "run migrations")

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// CreateUser inserts a user row directly.
func CreateUser(t testing.TB, db *gorm.DB, cognitoID, email string, role entity.Role) *entity.User {
	t.Helper()

	name := cognitoID
	user := &entity.User{
		CognitoID: cognitoID,
		Email:     email,
		Name:      &name,
		Role:      role,
	}
	require.NoError(t, db.Create(user).Error, "create user %s", cognitoID)
	return user
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
