package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/pkg/apperror"
)

const (
	// CallerKey is the gin context key the access gate stores the caller under.
	CallerKey = "caller"

	internalMessage = "Đã xảy ra lỗi hệ thống."
)

// Envelope is the shape of every JSON body the API returns.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// Renderer writes envelopes. Outside production, internal error details are
// exposed under meta.error to ease debugging.
type Renderer struct {
	log        zerolog.Logger
	production bool
}

func NewRenderer(log zerolog.Logger, production bool) *Renderer {
	return &Renderer{log: log, production: production}
}

// GetCaller retrieves the authenticated caller from the context
func GetCaller(c *gin.Context) (entity.Caller, error) {
	value, exists := c.Get(CallerKey)
	if !exists {
		return entity.Caller{}, apperror.NotAuthenticated("Bạn chưa đăng nhập.")
	}

	caller, ok := value.(entity.Caller)
	if !ok || caller.ExternalID == "" {
		return entity.Caller{}, apperror.NotAuthenticated("Bạn chưa đăng nhập.")
	}

	return caller, nil
}

func (r *Renderer) Success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func (r *Renderer) SuccessWithMeta(c *gin.Context, status int, message string, data, meta any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data, Meta: meta})
}

// Fail writes a failure envelope with an explicit status and message.
func (r *Renderer) Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// Error standardized error response
func (r *Renderer) Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	message := err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}

	if code != http.StatusInternalServerError {
		c.AbortWithStatusJSON(code, Envelope{Success: false, Message: message})
		return
	}

	// Log internal errors
	r.log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Str("request_id", c.GetString("X-Request-Id")).
		Msg("internal error")

	if appErr == nil {
		message = internalMessage
	}

	body := Envelope{Success: false, Message: message}
	if !r.production {
		body.Meta = gin.H{"error": err.Error()}
	}
	c.AbortWithStatusJSON(code, body)
}
