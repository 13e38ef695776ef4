package dto

type ListNotificationsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
