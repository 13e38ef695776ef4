package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/internal/modules/user/dto"
	"anoa.com/authorhub/internal/modules/user/repository"
	"anoa.com/authorhub/pkg/apperror"
	"anoa.com/authorhub/pkg/sanitize"
	"anoa.com/authorhub/pkg/storage"
)

const msgUserNotFound = "Không tìm thấy người dùng."

type UserService interface {
	// Register creates a USER account. An existing cognitoId is returned
	// unchanged with created=false.
	Register(ctx context.Context, input dto.CreateUserInput) (user *entity.User, created bool, err error)
	GetByCognitoID(ctx context.Context, cognitoID string) (*entity.User, error)
	Update(ctx context.Context, caller entity.Caller, cognitoID string, input dto.UpdateUserInput) (*entity.User, error)
	UpdateAvatar(ctx context.Context, caller entity.Caller, cognitoID string, avatar dto.AvatarFile) (*entity.User, error)
}

type userService struct {
	repo    repository.UserRepository
	avatars storage.AvatarStorage
	log     zerolog.Logger
}

// NewUserService builds the service. avatars may be nil when media storage is not configured.
func NewUserService(repo repository.UserRepository, avatars storage.AvatarStorage, log zerolog.Logger) UserService {
	return &userService{
		repo:    repo,
		avatars: avatars,
		log:     log,
	}
}

func (s *userService) Register(ctx context.Context, input dto.CreateUserInput) (*entity.User, bool, error) {
	cognitoID := strings.TrimSpace(input.CognitoID)
	email := strings.TrimSpace(input.Email)
	if cognitoID == "" {
		return nil, false, apperror.Validation("Cognito ID là bắt buộc.")
	}

	existing, err := s.repo.FindByCognitoID(ctx, cognitoID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperror.Internal("Đã xảy ra lỗi khi tạo người dùng.", err)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, false, apperror.Conflict(fmt.Sprintf("Email %s đã được sử dụng.", email))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperror.Internal("Đã xảy ra lỗi khi tạo người dùng.", err)
	}

	user := &entity.User{
		CognitoID: cognitoID,
		Email:     email,
		Name:      sanitize.OptionalText(input.Name),
		AvatarURL: trimOptional(input.AvatarURL),
		Role:      entity.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent registration of the same identity.
			if existing, findErr := s.repo.FindByCognitoID(ctx, cognitoID); findErr == nil {
				return existing, false, nil
			}
			return nil, false, apperror.Conflict(fmt.Sprintf("Email %s đã được sử dụng.", email))
		}
		return nil, false, apperror.Internal("Đã xảy ra lỗi khi tạo người dùng.", err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("cognito_id", cognitoID).Msg("user registered")
	return user, true, nil
}

func (s *userService) GetByCognitoID(ctx context.Context, cognitoID string) (*entity.User, error) {
	user, err := s.repo.FindByCognitoID(ctx, cognitoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		return nil, apperror.Internal("Đã xảy ra lỗi khi lấy người dùng.", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, caller entity.Caller, cognitoID string, input dto.UpdateUserInput) (*entity.User, error) {
	user, err := s.editableUser(ctx, caller, cognitoID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != user.Email {
			other, err := s.repo.FindByEmail(ctx, email)
			if err == nil && other.ID != user.ID {
				return nil, apperror.Conflict(fmt.Sprintf("Email %s đã được sử dụng.", email))
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.Internal("Đã xảy ra lỗi khi cập nhật người dùng.", err)
			}
			user.Email = email
		}
	}
	if input.Name != nil {
		user.Name = sanitize.OptionalText(input.Name)
	}
	if input.AvatarURL != nil {
		user.AvatarURL = trimOptional(input.AvatarURL)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(fmt.Sprintf("Email %s đã được sử dụng.", user.Email))
		}
		return nil, apperror.Internal("Đã xảy ra lỗi khi cập nhật người dùng.", err)
	}

	return user, nil
}

func (s *userService) UpdateAvatar(ctx context.Context, caller entity.Caller, cognitoID string, avatar dto.AvatarFile) (*entity.User, error) {
	if s.avatars == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "Chức năng tải ảnh chưa được cấu hình.", nil)
	}

	user, err := s.editableUser(ctx, caller, cognitoID)
	if err != nil {
		return nil, err
	}

	url, err := s.avatars.UploadAvatar(ctx, avatar.Reader, avatar.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return nil, apperror.Validation("Định dạng ảnh không được hỗ trợ.")
		}
		return nil, apperror.Internal("Không thể tải ảnh đại diện lên.", err)
	}

	previous := user.AvatarURL
	user.AvatarURL = &url
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperror.Internal("Đã xảy ra lỗi khi cập nhật người dùng.", err)
	}

	if previous != nil && storage.ExtractPublicID(*previous) != "" {
		if err := s.avatars.DeleteAvatar(ctx, *previous); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to delete previous avatar")
		}
	}

	return user, nil
}

// editableUser loads the target and checks the caller is that user or an admin.
func (s *userService) editableUser(ctx context.Context, caller entity.Caller, cognitoID string) (*entity.User, error) {
	if caller.ExternalID != cognitoID && caller.Role != entity.RoleAdmin {
		return nil, apperror.Forbidden("Bạn không có quyền chỉnh sửa người dùng này.")
	}
	return s.GetByCognitoID(ctx, cognitoID)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
