package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not authenticated", NotAuthenticated("thiếu token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("cấm"), http.StatusForbidden},
		{"not found", NotFound("không tìm thấy"), http.StatusNotFound},
		{"invalid state", InvalidState("trạng thái hiện tại: APPROVED"), http.StatusBadRequest},
		{"conflict", Conflict("trùng"), http.StatusConflict},
		{"validation", Validation("quá ngắn"), http.StatusBadRequest},
		{"rate limited", RateLimited("chậm lại"), http.StatusTooManyRequests},
		{"wrapped sentinel", fmt.Errorf("repo: %w", ErrNotFound), http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("svc: %w", Conflict("x")), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatus(tc.err))
		})
	}
}

func TestAppErrorMatchesSentinel(t *testing.T) {
	err := InvalidState("Yêu cầu không ở trạng thái PENDING. Trạng thái hiện tại: DENIED.")

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Contains(t, err.Error(), "DENIED")
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("Đã xảy ra lỗi hệ thống.", cause)

	assert.True(t, errors.Is(err, ErrInternal))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Đã xảy ra lỗi hệ thống.", err.Error())
}
