package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/internal/modules/admin/dto"
	notification "anoa.com/authorhub/internal/modules/notification/service"
	"anoa.com/authorhub/internal/modules/rolerequest/repository"
	userRepo "anoa.com/authorhub/internal/modules/user/repository"
	"anoa.com/authorhub/pkg/apperror"
	"anoa.com/authorhub/pkg/database"
)

const (
	msgRequestNotFound = "Không tìm thấy yêu cầu."
	msgUserVanished    = "Người dùng liên kết với yêu cầu không tồn tại."
)

type AdminService interface {
	ListRoleRequests(ctx context.Context, filter dto.RoleRequestFilter) (*dto.RoleRequestList, error)
	// ApproveRoleRequest marks a PENDING request APPROVED and grants the
	// requested role in the same transaction.
	ApproveRoleRequest(ctx context.Context, caller entity.Caller, requestID string) (*dto.ApproveResult, error)
	DenyRoleRequest(ctx context.Context, caller entity.Caller, requestID string) (*dto.DenyResult, error)
}

type adminService struct {
	tx            database.Transactor
	users         userRepo.UserRepository
	requests      repository.RoleRequestRepository
	notifications notification.NotificationService
	log           zerolog.Logger
	now           func() time.Time
}

// NewAdminService wires the moderation service. notifications may be nil.
func NewAdminService(
	tx database.Transactor,
	users userRepo.UserRepository,
	requests repository.RoleRequestRepository,
	notifications notification.NotificationService,
	log zerolog.Logger,
) AdminService {
	return &adminService{
		tx:            tx,
		users:         users,
		requests:      requests,
		notifications: notifications,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *adminService) ListRoleRequests(ctx context.Context, filter dto.RoleRequestFilter) (*dto.RoleRequestList, error) {
	var query repository.ListFilter
	if filter.Status != "" {
		// Unknown values fall back to no filter.
		if status, err := entity.ParseRoleRequestStatus(filter.Status); err == nil {
			query.Status = &status
		}
	}

	meta := dto.PaginationMeta{}
	if filter.Page > 0 || filter.Limit > 0 {
		meta.Page = max(filter.Page, 1)
		meta.Limit = filter.Limit
		if meta.Limit <= 0 {
			meta.Limit = 20
		}
		query.Limit = meta.Limit
		query.Offset = (meta.Page - 1) * meta.Limit
	}

	requests, total, err := s.requests.FindAll(ctx, query)
	if err != nil {
		return nil, apperror.Internal("Không thể lấy danh sách yêu cầu nâng quyền.", err)
	}

	items := make([]dto.RoleRequestItem, 0, len(requests))
	for _, r := range requests {
		items = append(items, dto.NewRoleRequestItem(r))
	}
	meta.Total = total

	return &dto.RoleRequestList{Items: items, Meta: meta}, nil
}

func (s *adminService) ApproveRoleRequest(ctx context.Context, caller entity.Caller, requestID string) (*dto.ApproveResult, error) {
	request, err := s.resolve(ctx, caller, requestID, entity.RoleRequestApproved)
	if err != nil {
		return nil, s.wrap(err, "Không thể phê duyệt yêu cầu nâng quyền.")
	}

	s.notify(ctx, request, entity.NotificationRoleRequestApproved,
		fmt.Sprintf("Yêu cầu trở thành %s của bạn đã được phê duyệt.", request.RequestedRole))

	return &dto.ApproveResult{
		RoleRequest: request,
		User:        dto.UserRole{ID: request.UserID, Role: request.RequestedRole},
	}, nil
}

func (s *adminService) DenyRoleRequest(ctx context.Context, caller entity.Caller, requestID string) (*dto.DenyResult, error) {
	request, err := s.resolve(ctx, caller, requestID, entity.RoleRequestDenied)
	if err != nil {
		return nil, s.wrap(err, "Không thể từ chối yêu cầu nâng quyền.")
	}

	s.notify(ctx, request, entity.NotificationRoleRequestDenied,
		fmt.Sprintf("Yêu cầu trở thành %s của bạn đã bị từ chối.", request.RequestedRole))

	return &dto.DenyResult{RoleRequest: request}, nil
}

// resolve moves a PENDING request to the target status. The status guard,
// the conditional update and (for approvals) the role write share one
// transaction, so of two racing moderators exactly one wins.
func (s *adminService) resolve(ctx context.Context, caller entity.Caller, requestID string, to entity.RoleRequestStatus) (*entity.RoleRequest, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperror.NotFound(msgRequestNotFound)
	}

	var resolved *entity.RoleRequest
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		requests := s.requests.WithTx(tx)

		request, err := requests.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(msgRequestNotFound)
			}
			return err
		}
		if !request.Status.CanTransitionTo(to) {
			return notPending(request.Status)
		}

		var reviewerID *uuid.UUID
		if reviewer, err := users.FindByCognitoID(ctx, caller.ExternalID); err == nil {
			reviewerID = &reviewer.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := s.now()
		updated, err := requests.UpdateStatus(ctx, id, to, reviewerID, now)
		if err != nil {
			return err
		}
		if updated == 0 {
			current, err := requests.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound(msgRequestNotFound)
				}
				return err
			}
			return notPending(current.Status)
		}

		if to == entity.RoleRequestApproved {
			changed, err := users.UpdateRole(ctx, request.UserID, request.RequestedRole)
			if err != nil {
				return err
			}
			if changed == 0 {
				return apperror.NotFound(msgUserVanished)
			}
		}

		request.Status = to
		request.ReviewedByID = reviewerID
		request.ReviewedAt = &now
		request.UpdatedAt = now
		resolved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", resolved.ID.String()).
		Str("user_id", resolved.UserID.String()).
		Str("status", resolved.Status.String()).
		Str("reviewer", caller.ExternalID).
		Msg("role request resolved")

	return resolved, nil
}

// notify runs after commit. A failed notification never undoes the decision.
func (s *adminService) notify(ctx context.Context, request *entity.RoleRequest, kind, message string) {
	if s.notifications == nil {
		return
	}

	err := s.notifications.CreateNotification(ctx, &entity.Notification{
		UserID:   request.UserID,
		Type:     kind,
		EntityID: request.ID,
		Message:  message,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("request_id", request.ID.String()).Msg("failed to create notification")
	}
}

func (s *adminService) wrap(err error, message string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("Người dùng đã có yêu cầu khác được phê duyệt.")
	}
	return apperror.Internal(message, err)
}

func notPending(current entity.RoleRequestStatus) error {
	return apperror.InvalidState(fmt.Sprintf("Yêu cầu không ở trạng thái PENDING. Trạng thái hiện tại: %s.", current))
}
