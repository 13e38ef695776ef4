package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CognitoID string    `gorm:"size:128;uniqueIndex;not null" json:"cognitoId"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name      *string   `gorm:"size:100" json:"name"`
	AvatarURL *string   `gorm:"type:text" json:"avatarUrl"`
	Role      Role      `gorm:"type:varchar(16);not null;default:'USER';check:chk_users_role,role IN ('USER','AUTHOR','ADMIN')" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// Caller is the identity resolved by the access gate for the current request.
type Caller struct {
	ExternalID string
	Role       Role
	Email      string
	Name       string
}
