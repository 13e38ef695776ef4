package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"anoa.com/authorhub/internal/entity"
	notifRepo "anoa.com/authorhub/internal/modules/notification/repository"
	userRepo "anoa.com/authorhub/internal/modules/user/repository"
	"anoa.com/authorhub/pkg/apperror"
)

const DefaultLimit = 20

// Channel is the redis pub/sub channel carrying a user's notifications.
func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

type NotificationService interface {
	// CreateNotification stores the notification and publishes it to the owner's channel.
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, caller entity.Caller, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, caller entity.Caller, id string) error
	MarkAllAsRead(ctx context.Context, caller entity.Caller) error
	UnreadCount(ctx context.Context, caller entity.Caller) (int64, error)
	// ResolveUserID maps the caller to the stored user id.
	ResolveUserID(ctx context.Context, caller entity.Caller) (uuid.UUID, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	users       userRepo.UserRepository
	redisClient *redis.Client
	log         zerolog.Logger
}

func NewNotificationService(repo notifRepo.NotificationRepository, users userRepo.UserRepository, redisClient *redis.Client, log zerolog.Logger) NotificationService {
	return &notificationService{
		repo:        repo,
		users:       users,
		redisClient: redisClient,
		log:         log,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err != nil {
			return nil
		}
		if err := s.redisClient.Publish(ctx, Channel(notification.UserID), payload).Err(); err != nil {
			s.log.Warn().Err(err).Str("user_id", notification.UserID.String()).Msg("failed to publish notification")
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, caller entity.Caller, limit, offset int) ([]entity.Notification, error) {
	userID, err := s.ResolveUserID(ctx, caller)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.repo.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Internal("Không thể lấy danh sách thông báo.", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, caller entity.Caller, id string) error {
	notificationID, err := uuid.Parse(id)
	if err != nil {
		return apperror.NotFound("Không tìm thấy thông báo.")
	}

	userID, err := s.ResolveUserID(ctx, caller)
	if err != nil {
		return err
	}

	found, err := s.repo.MarkAsRead(ctx, notificationID, userID)
	if err != nil {
		return apperror.Internal("Không thể cập nhật thông báo.", err)
	}
	if !found {
		return apperror.NotFound("Không tìm thấy thông báo.")
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, caller entity.Caller) error {
	userID, err := s.ResolveUserID(ctx, caller)
	if err != nil {
		return err
	}
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return apperror.Internal("Không thể cập nhật thông báo.", err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, caller entity.Caller) (int64, error) {
	userID, err := s.ResolveUserID(ctx, caller)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.Internal("Không thể đếm thông báo.", err)
	}
	return count, nil
}

func (s *notificationService) ResolveUserID(ctx context.Context, caller entity.Caller) (uuid.UUID, error) {
	if caller.ExternalID == "" {
		return uuid.Nil, apperror.NotAuthenticated("Bạn chưa đăng nhập.")
	}

	user, err := s.users.FindByCognitoID(ctx, caller.ExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperror.NotFound("Không tìm thấy người dùng.")
		}
		return uuid.Nil, apperror.Internal("Đã xảy ra lỗi khi lấy người dùng.", err)
	}
	return user.ID, nil
}
