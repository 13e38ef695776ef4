package bootstrap

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/authorhub/internal/config"
	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/internal/testutil"
)

func TestSeedAdminUser(t *testing.T) {
	store := testutil.NewStore(t)
	db := store.DB()
	log := zerolog.New(io.Discard)
	seed := config.SeedConfig{AdminCognitoID: "admin-sub", AdminEmail: "admin@example.com"}

	require.NoError(t, SeedAdminUser(db, config.SeedConfig{}, log))
	var n int64
	require.NoError(t, db.Model(&entity.User{}).Count(&n).Error)
	assert.Zero(t, n)

	require.NoError(t, SeedAdminUser(db, seed, log))
	require.NoError(t, SeedAdminUser(db, seed, log), "repeatable")

	var admin entity.User
	require.NoError(t, db.Where("cognito_id = ?", "admin-sub").First(&admin).Error)
	assert.Equal(t, entity.RoleAdmin, admin.Role)

	require.NoError(t, db.Model(&admin).Update("role", entity.RoleUser).Error)
	require.NoError(t, SeedAdminUser(db, seed, log))
	require.NoError(t, db.First(&admin, "id = ?", admin.ID).Error)
	assert.Equal(t, entity.RoleAdmin, admin.Role, "existing identity is promoted")
}
