package dto

// Overview is the admin dashboard summary. Every enum value is present, zero when unused.
type Overview struct {
	TotalUsers       int64            `json:"totalUsers"`
	UsersByRole      map[string]int64 `json:"usersByRole"`
	PendingRequests  int64            `json:"pendingRequests"`
	RequestsByStatus map[string]int64 `json:"requestsByStatus"`
}
