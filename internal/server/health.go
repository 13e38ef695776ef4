package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	store       pinger
	redisClient *redis.Client
}

func newHealthHandler(store pinger, redisClient *redis.Client) *healthHandler {
	return &healthHandler{store: store, redisClient: redisClient}
}

// Check pings the database and, when configured, redis.
func (h *healthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	healthy := true

	if err := h.store.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	if h.redisClient != nil {
		checks["redis"] = "ok"
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "Lỗi kết nối cơ sở dữ liệu",
			"data":    checks,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Hệ thống đang hoạt động bình thường",
		"data":    checks,
	})
}
