package bootstrap

import (
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"anoa.com/authorhub/internal/config"
	"anoa.com/authorhub/internal/entity"
)

// SeedAdminUser makes sure the configured development identity exists with
// the ADMIN role. It is a no-op when no identity is configured.
func SeedAdminUser(db *gorm.DB, seed config.SeedConfig, log zerolog.Logger) error {
	if seed.AdminCognitoID == "" || seed.AdminEmail == "" {
		return nil
	}

	var admin entity.User
	err := db.Where("cognito_id = ?", seed.AdminCognitoID).First(&admin).Error
	switch {
	case err == nil:
		if admin.Role == entity.RoleAdmin {
			log.Info().Msg("admin user already exists, skipping seed")
			return nil
		}
		log.Info().Str("cognito_id", seed.AdminCognitoID).Msg("promoting seeded admin user")
		return db.Model(&admin).Update("role", entity.RoleAdmin).Error
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	name := "Administrator"
	admin = entity.User{
		CognitoID: seed.AdminCognitoID,
		Email:     seed.AdminEmail,
		Name:      &name,
		Role:      entity.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Info().Str("email", seed.AdminEmail).Msg("admin user seeded")
	return nil
}
