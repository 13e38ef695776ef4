package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"anoa.com/authorhub/pkg/response"
)

func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("error", r).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.GetString(RequestIDHeader)).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Envelope{
					Success: false,
					Message: "Đã xảy ra lỗi hệ thống.",
				})
			}
		}()
		c.Next()
	}
}
