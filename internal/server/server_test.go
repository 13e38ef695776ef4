package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/authorhub/internal/config"
	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/internal/middleware"
	"anoa.com/authorhub/internal/testutil"
)

const secret = "e2e-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

type harness struct {
	t       *testing.T
	handler http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := testutil.NewStore(t)
	testutil.CreateUser(t, store.DB(), "bob", "bob@example.com", entity.RoleAdmin)

	srv, err := NewServer(Deps{
		Config: &config.Config{
			AppEnv:         "test",
			Port:           "0",
			APIPrefix:      "/api",
			AllowedOrigins: []string{"http://localhost:3000"},
			Auth:           config.AuthConfig{JWTSecret: secret},
		},
		Log:   zerolog.New(io.Discard),
		Store: store,
	})
	require.NoError(t, err)

	return &harness{t: t, handler: srv.Handler()}
}

func token(t *testing.T, sub string, role entity.Role) string {
	t.Helper()
	claims := middleware.AccessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func (h *harness) do(method, path, tok string, body any) (int, envelope) {
	h.t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

type roleRequestJSON struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	User   *struct {
		ID        string  `json:"id"`
		CognitoID string  `json:"cognitoId"`
		Email     string  `json:"email"`
		Name      *string `json:"name"`
		Role      string  `json:"role"`
	} `json:"user"`
}

func (h *harness) registerAlice() {
	code, env := h.do(http.MethodPost, "/api/users", "", map[string]any{
		"cognitoId": "alice",
		"email":     "alice@example.com",
		"name":      "Alice",
	})
	require.Equal(h.t, http.StatusCreated, code, env.Message)
}

func TestApproveScenario(t *testing.T) {
	h := newHarness(t)
	h.registerAlice()
	alice := token(t, "alice", entity.RoleUser)
	bob := token(t, "bob", entity.RoleAdmin)

	code, env := h.do(http.MethodPost, "/api/request-author", alice, map[string]any{"reason": "Tôi muốn chia sẻ kiến thức"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	r1 := decode[roleRequestJSON](t, env.Data)
	assert.Equal(t, "PENDING", r1.Status)

	code, env = h.do(http.MethodGet, "/api/admin/role-requests?status=pending", bob, nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[[]roleRequestJSON](t, env.Data)
	require.Len(t, list, 1)
	assert.Equal(t, r1.ID, list[0].ID)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "alice", list[0].User.CognitoID)
	assert.Equal(t, "alice@example.com", list[0].User.Email)
	assert.Equal(t, "USER", list[0].User.Role)

	code, env = h.do(http.MethodPut, "/api/admin/role-requests/"+r1.ID+"/approve", bob, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	approved := decode[struct {
		RoleRequest roleRequestJSON `json:"roleRequest"`
		User        struct {
			Role string `json:"role"`
		} `json:"user"`
	}](t, env.Data)
	assert.Equal(t, "APPROVED", approved.RoleRequest.Status)
	assert.Equal(t, "AUTHOR", approved.User.Role)

	code, env = h.do(http.MethodGet, "/api/users/alice", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "AUTHOR", decode[struct {
		Role string `json:"role"`
	}](t, env.Data).Role)

	// Alice's token still says USER; the stored role decides eligibility.
	code, env = h.do(http.MethodPost, "/api/request-author", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Bạn đã có quyền Author.", env.Message)

	code, _ = h.do(http.MethodPut, "/api/admin/role-requests/"+r1.ID+"/approve", bob, nil)
	assert.Equal(t, http.StatusBadRequest, code, "second approval is an invalid state")

	code, env = h.do(http.MethodGet, "/api/notifications/unread-count", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	code, env = h.do(http.MethodGet, "/api/admin/stats", bob, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[struct {
		TotalUsers       int64            `json:"totalUsers"`
		UsersByRole      map[string]int64 `json:"usersByRole"`
		RequestsByStatus map[string]int64 `json:"requestsByStatus"`
	}](t, env.Data)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.UsersByRole["AUTHOR"])
	assert.Equal(t, int64(1), stats.RequestsByStatus["APPROVED"])
}

func TestDenyScenario(t *testing.T) {
	h := newHarness(t)
	h.registerAlice()
	alice := token(t, "alice", entity.RoleUser)
	bob := token(t, "bob", entity.RoleAdmin)

	code, env := h.do(http.MethodPost, "/api/request-author", alice, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	r1 := decode[roleRequestJSON](t, env.Data)

	code, env = h.do(http.MethodPost, "/api/request-author", alice, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Bạn đã gửi yêu cầu và đang chờ phê duyệt.", env.Message)

	code, env = h.do(http.MethodPut, "/api/admin/role-requests/"+r1.ID+"/deny", bob, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	denied := decode[struct {
		RoleRequest roleRequestJSON `json:"roleRequest"`
	}](t, env.Data)
	assert.Equal(t, "DENIED", denied.RoleRequest.Status)

	code, env = h.do(http.MethodGet, "/api/users/alice", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "USER", decode[struct {
		Role string `json:"role"`
	}](t, env.Data).Role)

	code, env = h.do(http.MethodPost, "/api/request-author", alice, nil)
	require.Equal(t, http.StatusCreated, code, "denied requests do not block refiling: %s", env.Message)

	code, env = h.do(http.MethodGet, "/api/my-role-requests", alice, nil)
	require.Equal(t, http.StatusOK, code)
	mine := decode[[]roleRequestJSON](t, env.Data)
	require.Len(t, mine, 2)
	assert.Equal(t, "PENDING", mine[0].Status)
	assert.Equal(t, "DENIED", mine[1].Status)
}

func TestCancelScenario(t *testing.T) {
	h := newHarness(t)
	h.registerAlice()
	alice := token(t, "alice", entity.RoleUser)

	code, env := h.do(http.MethodPost, "/api/users", "", map[string]any{"cognitoId": "carol", "email": "carol@example.com"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	carol := token(t, "carol", entity.RoleUser)

	code, env = h.do(http.MethodPost, "/api/request-author", alice, nil)
	require.Equal(t, http.StatusCreated, code)
	r1 := decode[roleRequestJSON](t, env.Data)

	code, _ = h.do(http.MethodDelete, "/api/role-requests/"+r1.ID, carol, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(http.MethodDelete, "/api/role-requests/"+r1.ID, alice, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = h.do(http.MethodGet, "/api/my-role-requests", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestAccessControl(t *testing.T) {
	h := newHarness(t)
	h.registerAlice()

	code, env := h.do(http.MethodGet, "/api/admin/role-requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = h.do(http.MethodGet, "/api/admin/role-requests", token(t, "alice", entity.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = h.do(http.MethodPost, "/api/request-author", token(t, "bob", entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusForbidden, code, "gate only lets USER file")

	code, _ = h.do(http.MethodPost, "/api/request-author", token(t, "nobody", entity.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(http.MethodPut, "/api/users/bob", token(t, "alice", entity.RoleUser), map[string]any{"name": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = h.do(http.MethodPost, "/api/request-author", token(t, "alice", entity.RoleUser), map[string]any{"reason": "short"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "10")
}

func TestRegistration(t *testing.T) {
	h := newHarness(t)
	h.registerAlice()

	code, env := h.do(http.MethodPost, "/api/users", "", map[string]any{"cognitoId": "alice", "email": "alice@example.com"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Người dùng với cognitoId này đã tồn tại.", env.Message)

	code, _ = h.do(http.MethodPost, "/api/users", "", map[string]any{"cognitoId": "mallory", "email": "alice@example.com"})
	assert.Equal(t, http.StatusConflict, code)

	code, env = h.do(http.MethodPost, "/api/users", "", map[string]any{"cognitoId": "dave", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "Email")

	// Role is not client settable.
	code, env = h.do(http.MethodPost, "/api/users", "", map[string]any{"cognitoId": "eve", "email": "eve@example.com", "role": "ADMIN"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "USER", decode[struct {
		Role string `json:"role"`
	}](t, env.Data).Role)
}

func TestHealthAndFallback(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = h.do(http.MethodGet, "/api/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Không tìm thấy tài nguyên yêu cầu", env.Message)
}
