package dto

import "io"

// AvatarFile is an uploaded avatar image.
type AvatarFile struct {
	Reader   io.Reader
	FileName string
}

type CreateUserInput struct {
	CognitoID string  `json:"cognitoId" binding:"required,max=128"`
	Email     string  `json:"email" binding:"required,email,max=255"`
	Name      *string `json:"name" binding:"omitempty,max=100"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url"`
}

type UpdateUserInput struct {
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	Name      *string `json:"name" binding:"omitempty,max=100"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url"`
}

type CognitoIDParam struct {
	CognitoID string `uri:"cognitoId" binding:"required,max=128"`
}
