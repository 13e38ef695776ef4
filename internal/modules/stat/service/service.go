package service

import (
	"context"

	"anoa.com/authorhub/internal/entity"
	roleRequestRepo "anoa.com/authorhub/internal/modules/rolerequest/repository"
	"anoa.com/authorhub/internal/modules/stat/dto"
	userRepo "anoa.com/authorhub/internal/modules/user/repository"
	"anoa.com/authorhub/pkg/apperror"
)

type StatService interface {
	Overview(ctx context.Context) (*dto.Overview, error)
}

type statService struct {
	userRepo    userRepo.UserRepository
	requestRepo roleRequestRepo.RoleRequestRepository
}

func NewStatService(users userRepo.UserRepository, requests roleRequestRepo.RoleRequestRepository) StatService {
	return &statService{
		userRepo:    users,
		requestRepo: requests,
	}
}

func (s *statService) Overview(ctx context.Context) (*dto.Overview, error) {
	roles, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, apperror.Internal("Lỗi khi lấy thống kê.", err)
	}
	statuses, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, apperror.Internal("Lỗi khi lấy thống kê.", err)
	}

	overview := &dto.Overview{
		UsersByRole:      map[string]int64{},
		RequestsByStatus: map[string]int64{},
	}
	for _, role := range []entity.Role{entity.RoleUser, entity.RoleAuthor, entity.RoleAdmin} {
		overview.UsersByRole[role.String()] = roles[role]
		overview.TotalUsers += roles[role]
	}
	for _, status := range []entity.RoleRequestStatus{entity.RoleRequestPending, entity.RoleRequestApproved, entity.RoleRequestDenied} {
		overview.RequestsByStatus[status.String()] = statuses[status]
	}
	overview.PendingRequests = statuses[entity.RoleRequestPending]

	return overview, nil
}
