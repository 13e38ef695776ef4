package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRequest struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"userId"`
	User          *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	RequestedRole Role              `gorm:"type:varchar(16);not null;check:chk_role_requests_requested_role,requested_role IN ('USER','AUTHOR','ADMIN')" json:"requestedRole"`
	Status        RoleRequestStatus `gorm:"type:varchar(16);not null;default:'PENDING';index;check:chk_role_requests_status,status IN ('PENDING','APPROVED','DENIED')" json:"status"`
	Reason        *string           `gorm:"type:text" json:"reason"`
	ReviewedByID  *uuid.UUID        `gorm:"type:uuid" json:"reviewedById,omitempty"`
	ReviewedAt    *time.Time        `json:"reviewedAt,omitempty"`
	CreatedAt     time.Time         `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (r *RoleRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RoleRequestPending
	}
	return nil
}
