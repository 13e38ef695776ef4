package dto

type FileRoleRequestInput struct {
	Reason *string `json:"reason" binding:"omitempty,max=2000"`
}

type RequestIDParam struct {
	RequestID string `uri:"requestId" binding:"required"`
}
