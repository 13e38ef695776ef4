package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/internal/modules/rolerequest/dto"
	"anoa.com/authorhub/internal/modules/rolerequest/repository"
	userRepo "anoa.com/authorhub/internal/modules/user/repository"
	"anoa.com/authorhub/pkg/apperror"
	"anoa.com/authorhub/pkg/cache"
	"anoa.com/authorhub/pkg/database"
	"anoa.com/authorhub/pkg/sanitize"
)

const (
	MinReasonLength = 10
	MaxReasonLength = 500

	rateLimitAction = "role_request"

	msgNotAuthenticated = "Bạn chưa đăng nhập."
	msgUserNotFound     = "Không tìm thấy người dùng."
	msgRequestNotFound  = "Không tìm thấy yêu cầu."
	msgAlreadyPending   = "Bạn đã gửi yêu cầu và đang chờ phê duyệt."
	msgAlreadyApproved  = "Yêu cầu của bạn đã được phê duyệt trước đó."
)

type RoleRequestService interface {
	// File submits an AUTHOR request for the caller.
	File(ctx context.Context, caller entity.Caller, input dto.FileRoleRequestInput) (*entity.RoleRequest, error)
	ListOwn(ctx context.Context, caller entity.Caller) ([]entity.RoleRequest, error)
	// Cancel deletes one of the caller's PENDING requests.
	Cancel(ctx context.Context, caller entity.Caller, requestID string) error
}

type roleRequestService struct {
	tx          database.Transactor
	users       userRepo.UserRepository
	requests    repository.RoleRequestRepository
	redisClient *redis.Client
	cooldown    time.Duration
	log         zerolog.Logger
}

// NewRoleRequestService wires the service. redisClient may be nil, which disables filing cooldowns.
func NewRoleRequestService(
	tx database.Transactor,
	users userRepo.UserRepository,
	requests repository.RoleRequestRepository,
	redisClient *redis.Client,
	cooldown time.Duration,
	log zerolog.Logger,
) RoleRequestService {
	return &roleRequestService{
		tx:          tx,
		users:       users,
		requests:    requests,
		redisClient: redisClient,
		cooldown:    cooldown,
		log:         log,
	}
}

func (s *roleRequestService) File(ctx context.Context, caller entity.Caller, input dto.FileRoleRequestInput) (*entity.RoleRequest, error) {
	if caller.ExternalID == "" {
		return nil, apperror.NotAuthenticated(msgNotAuthenticated)
	}

	reason, err := normalizeReason(input.Reason)
	if err != nil {
		return nil, err
	}

	var created *entity.RoleRequest
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		requests := s.requests.WithTx(tx)

		user, err := users.FindByCognitoID(ctx, caller.ExternalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(msgUserNotFound)
			}
			return err
		}

		if err := checkEligible(user.Role); err != nil {
			return err
		}

		existing, err := requests.FindOutstanding(ctx, user.ID, entity.RoleAuthor)
		switch {
		case err == nil:
			return duplicateError(existing.Status)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := s.checkCooldown(ctx, user.ID); err != nil {
			return err
		}

		request := &entity.RoleRequest{
			UserID:        user.ID,
			RequestedRole: entity.RoleAuthor,
			Status:        entity.RoleRequestPending,
			Reason:        reason,
		}
		if err := requests.Create(ctx, request); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict(msgAlreadyPending)
			}
			return err
		}

		created = request
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.Internal("Lỗi trong quá trình gửi yêu cầu.", err)
	}

	s.log.Info().
		Str("request_id", created.ID.String()).
		Str("user_id", created.UserID.String()).
		Msg("role request filed")

	return created, nil
}

func (s *roleRequestService) ListOwn(ctx context.Context, caller entity.Caller) ([]entity.RoleRequest, error) {
	if caller.ExternalID == "" {
		return nil, apperror.NotAuthenticated(msgNotAuthenticated)
	}

	user, err := s.users.FindByCognitoID(ctx, caller.ExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		return nil, apperror.Internal("Không thể lấy danh sách yêu cầu.", err)
	}

	requests, err := s.requests.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("Không thể lấy danh sách yêu cầu.", err)
	}
	return requests, nil
}

func (s *roleRequestService) Cancel(ctx context.Context, caller entity.Caller, requestID string) error {
	if caller.ExternalID == "" {
		return apperror.NotAuthenticated(msgNotAuthenticated)
	}

	id, err := uuid.Parse(requestID)
	if err != nil {
		return apperror.NotFound(msgRequestNotFound)
	}

	user, err := s.users.FindByCognitoID(ctx, caller.ExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound(msgRequestNotFound)
		}
		return apperror.Internal("Không thể hủy yêu cầu.", err)
	}

	deleted, err := s.requests.DeletePending(ctx, id, user.ID)
	if err != nil {
		return apperror.Internal("Không thể hủy yêu cầu.", err)
	}
	if deleted == 0 {
		return apperror.NotFound(msgRequestNotFound)
	}

	s.log.Info().Str("request_id", id.String()).Str("user_id", user.ID.String()).Msg("role request cancelled")

	if _, err := cache.CheckAndSetRateLimit(ctx, s.redisClient, user.ID.String(), rateLimitAction, s.cooldown); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to start role request cooldown")
	}
	return nil
}

// checkCooldown blocks refiling shortly after a cancellation. Callers run it
// after the eligibility and duplicate checks. Redis trouble never blocks filing.
func (s *roleRequestService) checkCooldown(ctx context.Context, userID uuid.UUID) error {
	if s.redisClient == nil || s.cooldown <= 0 {
		return nil
	}

	ttl, err := cache.GetRateLimitTTL(ctx, s.redisClient, userID.String(), rateLimitAction)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("role request cooldown check failed")
		return nil
	}
	// -2: no key. -1: key without expiry, treated as still cooling down.
	if ttl == -2 || ttl == 0 {
		return nil
	}

	return apperror.RateLimited(fmt.Sprintf("Bạn thao tác quá nhanh. Vui lòng thử lại sau %d giây.", retryAfterSeconds(ttl)))
}

// retryAfterSeconds rounds up and never reports less than one second.
func retryAfterSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 1
	}
	return max(int(math.Ceil(ttl.Seconds())), 1)
}

func checkEligible(role entity.Role) error {
	switch role {
	case entity.RoleUser:
		return nil
	case entity.RoleAuthor:
		return apperror.InvalidState("Bạn đã có quyền Author.")
	case entity.RoleAdmin:
		return apperror.InvalidState("Admin không thể gửi yêu cầu trở thành Author.")
	default:
		return apperror.Forbidden("Chỉ người dùng có vai trò USER mới được gửi yêu cầu.")
	}
}

func duplicateError(status entity.RoleRequestStatus) error {
	if status == entity.RoleRequestApproved {
		return apperror.Conflict(msgAlreadyApproved)
	}
	return apperror.Conflict(msgAlreadyPending)
}

// normalizeReason strips markup and enforces the length bounds on what remains.
func normalizeReason(raw *string) (*string, error) {
	reason := sanitize.OptionalText(raw)
	if reason == nil {
		return nil, nil
	}

	n := utf8.RuneCountInString(*reason)
	if n < MinReasonLength {
		return nil, apperror.Validation(fmt.Sprintf("Lý do phải có ít nhất %d ký tự.", MinReasonLength))
	}
	if n > MaxReasonLength {
		return nil, apperror.Validation(fmt.Sprintf("Lý do không được vượt quá %d ký tự.", MaxReasonLength))
	}
	return reason, nil
}
