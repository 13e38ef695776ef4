package dto

import (
	"time"

	"github.com/google/uuid"

	"anoa.com/authorhub/internal/entity"
)

// RoleRequestFilter is the query of the admin listing. Unknown statuses are ignored.
type RoleRequestFilter struct {
	Status string `form:"status"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// UserSummary is the owner projection shown next to each request.
type UserSummary struct {
	ID        uuid.UUID   `json:"id"`
	CognitoID string      `json:"cognitoId"`
	Email     string      `json:"email"`
	Name      *string     `json:"name"`
	Role      entity.Role `json:"role"`
}

type RoleRequestItem struct {
	ID            uuid.UUID                `json:"id"`
	UserID        uuid.UUID                `json:"userId"`
	RequestedRole entity.Role              `json:"requestedRole"`
	Status        entity.RoleRequestStatus `json:"status"`
	Reason        *string                  `json:"reason"`
	ReviewedByID  *uuid.UUID               `json:"reviewedById,omitempty"`
	ReviewedAt    *time.Time               `json:"reviewedAt,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
	User          *UserSummary             `json:"user"`
}

type PaginationMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page,omitempty"`
	Limit int   `json:"limit,omitempty"`
}

type RoleRequestList struct {
	Items []RoleRequestItem
	Meta  PaginationMeta
}

type UserRole struct {
	ID   uuid.UUID   `json:"id"`
	Role entity.Role `json:"role"`
}

type ApproveResult struct {
	RoleRequest *entity.RoleRequest `json:"roleRequest"`
	User        UserRole            `json:"user"`
}

type DenyResult struct {
	RoleRequest *entity.RoleRequest `json:"roleRequest"`
}

func NewRoleRequestItem(r entity.RoleRequest) RoleRequestItem {
	item := RoleRequestItem{
		ID:            r.ID,
		UserID:        r.UserID,
		RequestedRole: r.RequestedRole,
		Status:        r.Status,
		Reason:        r.Reason,
		ReviewedByID:  r.ReviewedByID,
		ReviewedAt:    r.ReviewedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.User != nil {
		item.User = &UserSummary{
			ID:        r.User.ID,
			CognitoID: r.User.CognitoID,
			Email:     r.User.Email,
			Name:      r.User.Name,
			Role:      r.User.Role,
		}
	}
	return item
}
