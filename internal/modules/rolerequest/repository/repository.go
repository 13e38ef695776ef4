package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"anoa.com/authorhub/internal/entity"
)

// ListFilter narrows FindAll. A nil Status lists every request; zero Limit disables paging.
type ListFilter struct {
	Status *entity.RoleRequestStatus
	Limit  int
	Offset int
}

type RoleRequestRepository interface {
	Create(ctx context.Context, request *entity.RoleRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RoleRequest, error)
	// FindOutstanding returns the newest PENDING or APPROVED request for the user and role.
	FindOutstanding(ctx context.Context, userID uuid.UUID, role entity.Role) (*entity.RoleRequest, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.RoleRequest, error)
	FindAll(ctx context.Context, filter ListFilter) ([]entity.RoleRequest, int64, error)
	// UpdateStatus moves a request out of PENDING. It only matches rows still
	// PENDING, so callers must treat zero affected rows as a lost race.
	UpdateStatus(ctx context.Context, id uuid.UUID, to entity.RoleRequestStatus, reviewerID *uuid.UUID, at time.Time) (int64, error)
	// DeletePending removes the request only when it is owned by userID and still PENDING.
	DeletePending(ctx context.Context, id, userID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[entity.RoleRequestStatus]int64, error)
	WithTx(tx *gorm.DB) RoleRequestRepository
}

type roleRequestRepository struct {
	db *gorm.DB
}

func NewRoleRequestRepository(db *gorm.DB) RoleRequestRepository {
	return &roleRequestRepository{db: db}
}

func (r *roleRequestRepository) WithTx(tx *gorm.DB) RoleRequestRepository {
	return &roleRequestRepository{db: tx}
}

func (r *roleRequestRepository) Create(ctx context.Context, request *entity.RoleRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *roleRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RoleRequest, error) {
	var request entity.RoleRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *roleRequestRepository) FindOutstanding(ctx context.Context, userID uuid.UUID, role entity.Role) (*entity.RoleRequest, error) {
	var request entity.RoleRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND requested_role = ? AND status IN ?", userID, role, entity.OutstandingStatuses()).
		Order("created_at desc").
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *roleRequestRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.RoleRequest, error) {
	requests := []entity.RoleRequest{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&requests).Error
	return requests, err
}

func (r *roleRequestRepository) FindAll(ctx context.Context, filter ListFilter) ([]entity.RoleRequest, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&entity.RoleRequest{})
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	requests := []entity.RoleRequest{}
	query := scoped().
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "cognito_id", "email", "name", "role")
		}).
		Order("created_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *roleRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to entity.RoleRequestStatus, reviewerID *uuid.UUID, at time.Time) (int64, error) {
	columns := map[string]any{
		"status":      to,
		"reviewed_at": at,
		"updated_at":  at,
	}
	if reviewerID != nil {
		columns["reviewed_by_id"] = *reviewerID
	}

	result := r.db.WithContext(ctx).
		Model(&entity.RoleRequest{}).
		Where("id = ? AND status = ?", id, entity.RoleRequestPending).
		Updates(columns)
	return result.RowsAffected, result.Error
}

func (r *roleRequestRepository) DeletePending(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, entity.RoleRequestPending).
		Delete(&entity.RoleRequest{})
	return result.RowsAffected, result.Error
}

func (r *roleRequestRepository) CountByStatus(ctx context.Context) (map[entity.RoleRequestStatus]int64, error) {
	var rows []struct {
		Status entity.RoleRequestStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.RoleRequest{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.RoleRequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
