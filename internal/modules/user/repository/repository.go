package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"anoa.com/authorhub/internal/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByCognitoID(ctx context.Context, cognitoID string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// UpdateRole sets the role and returns the number of rows changed.
	UpdateRole(ctx context.Context, id uuid.UUID, role entity.Role) (int64, error)
	CountByRole(ctx context.Context) (map[entity.Role]int64, error)
	WithTx(tx *gorm.DB) UserRepository
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByCognitoID(ctx context.Context, cognitoID string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("cognito_id = ?", cognitoID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update writes the editable profile columns only. Role is never touched here.
func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).
		Model(user).
		Select("email", "name", "avatar_url", "updated_at").
		Updates(user).Error
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role entity.Role) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update("role", role)
	return result.RowsAffected, result.Error
}

func (r *userRepository) CountByRole(ctx context.Context) (map[entity.Role]int64, error) {
	var rows []struct {
		Role  entity.Role
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Select("role, count(*) as total").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.Role]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}
