package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/pkg/apperror"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorRendersAppError(t *testing.T) {
	r := NewRenderer(zerolog.New(io.Discard), true)
	c, w := newContext()

	r.Error(c, apperror.Conflict("Bạn đã gửi yêu cầu và đang chờ phê duyệt."))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Bạn đã gửi yêu cầu và đang chờ phê duyệt.", body["message"])
	assert.NotContains(t, body, "meta")
}

func TestErrorHidesInternalsInProduction(t *testing.T) {
	r := NewRenderer(zerolog.New(io.Discard), true)
	c, w := newContext()

	r.Error(c, errors.New("pq: relation \"users\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, internalMessage, body["message"])
	assert.NotContains(t, body, "meta")
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestErrorExposesDetailsOutsideProduction(t *testing.T) {
	r := NewRenderer(zerolog.New(io.Discard), false)
	c, w := newContext()

	r.Error(c, errors.New("disk full"))

	body := decode(t, w)
	meta, ok := body["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "disk full", meta["error"])
}

func TestSuccessEnvelope(t *testing.T) {
	r := NewRenderer(zerolog.New(io.Discard), true)
	c, w := newContext()

	r.SuccessWithMeta(c, http.StatusOK, "ok", []int{1, 2}, gin.H{"total": 2})

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["message"])
	assert.Len(t, body["data"], 2)
	assert.Equal(t, float64(2), body["meta"].(map[string]any)["total"])
}

func TestGetCaller(t *testing.T) {
	c, _ := newContext()

	_, err := GetCaller(c)
	assert.ErrorIs(t, err, apperror.ErrNotAuthenticated)

	c.Set(CallerKey, entity.Caller{ExternalID: "sub-1", Role: entity.RoleUser})
	caller, err := GetCaller(c)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", caller.ExternalID)
}
