package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/authorhub/internal/entity"
	notifRepo "anoa.com/authorhub/internal/modules/notification/repository"
	notification "anoa.com/authorhub/internal/modules/notification/service"
	userRepo "anoa.com/authorhub/internal/modules/user/repository"
	"anoa.com/authorhub/internal/testutil"
	"anoa.com/authorhub/pkg/response"
)

func TestWebSocketRelayEndsOnClose(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := testutil.NewStore(t)
	alice := testutil.CreateUser(t, store.DB(), "alice", "alice@example.com", entity.RoleUser)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zerolog.New(io.Discard)
	svc := notification.NewNotificationService(
		notifRepo.NewNotificationRepository(store.DB()),
		userRepo.NewUserRepository(store.DB()),
		rdb,
		log,
	)
	h := NewNotificationHandler(svc, rdb, response.NewRenderer(log, false), log, func(*http.Request) bool { return true })

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		c.Set(response.CallerKey, entity.Caller{ExternalID: "alice", Role: entity.RoleUser})
		c.Next()
	}, h.HandleWebSocket)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, svc.CreateNotification(context.Background(), &entity.Notification{
		UserID:   alice.ID,
		Type:     entity.NotificationRoleRequestApproved,
		EntityID: uuid.New(),
		Message:  "ok",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), entity.NotificationRoleRequestApproved)

	h.Close()
	h.Close()

	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.True(t, errors.As(err, &closeErr), "got %v", err)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
