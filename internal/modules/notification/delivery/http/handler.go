package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"anoa.com/authorhub/internal/modules/notification/dto"
	notification "anoa.com/authorhub/internal/modules/notification/service"
	"anoa.com/authorhub/pkg/response"
	"anoa.com/authorhub/pkg/validator"
)

type NotificationHandler struct {
	service     notification.NotificationService
	redisClient *redis.Client
	render      *response.Renderer
	log         zerolog.Logger
	upgrader    websocket.Upgrader

	done      chan struct{}
	closeOnce sync.Once
}

// NewNotificationHandler builds the handler. checkOrigin decides which
// browser origins may open the websocket stream.
func NewNotificationHandler(
	service notification.NotificationService,
	redisClient *redis.Client,
	render *response.Renderer,
	log zerolog.Logger,
	checkOrigin func(r *http.Request) bool,
) *NotificationHandler {
	return &NotificationHandler{
		service:     service,
		redisClient: redisClient,
		render:      render,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		done: make(chan struct{}),
	}
}

// Close ends every open websocket relay. Hijacked connections are not
// tracked by http.Server, so the server calls this on shutdown.
func (h *NotificationHandler) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	var query dto.ListNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.render.Fail(c, http.StatusBadRequest, validator.FormatValidationError(err))
		return
	}

	notifications, err := h.service.GetNotifications(c.Request.Context(), caller, query.Limit, query.Offset)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "", notifications)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "Đã đánh dấu là đã đọc.", nil)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	if err := h.service.MarkAllAsRead(c.Request.Context(), caller); err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "Đã đánh dấu tất cả là đã đọc.", nil)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), caller)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "", dto.UnreadCountResponse{Count: count})
}

// HandleWebSocket relays the caller's redis notification channel to a websocket.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	if h.redisClient == nil {
		h.render.Fail(c, http.StatusServiceUnavailable, "Thông báo thời gian thực chưa được cấu hình.")
		return
	}

	select {
	case <-h.done:
		h.render.Fail(c, http.StatusServiceUnavailable, "Máy chủ đang tắt.")
		return
	default:
	}

	userID, err := h.service.ResolveUserID(c.Request.Context(), caller)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	pubsub := h.redisClient.Subscribe(ctx, notification.Channel(userID))
	defer pubsub.Close()

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Error().Err(err).Msg("failed to subscribe to notification channel")
		h.render.Fail(c, http.StatusServiceUnavailable, "Thông báo thời gian thực chưa được cấu hình.")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to upgrade websocket")
		return
	}
	defer conn.Close()

	ch := pubsub.Channel()
	clientClosed := make(chan struct{})

	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Payload is already the JSON encoded notification.
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-h.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}
