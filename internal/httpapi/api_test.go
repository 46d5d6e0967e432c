package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiliankoe/faceoff/internal/game"
	"github.com/kiliankoe/faceoff/internal/httpapi"
	"github.com/kiliankoe/faceoff/internal/scenario"
	"github.com/kiliankoe/faceoff/internal/store/memory"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := memory.New()
	gen := scenario.New(nil, "", zerolog.Nop())
	ctrl := game.NewController(store, gen, nil, zerolog.Nop())
	httpapi.New(ctrl, "http://party.local").Register(r)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createSession(t *testing.T, r *gin.Engine) (code, pin string) {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/session", map[string]any{
		"role_a_name": "Sam", "role_b_name": "Lee", "total_rounds": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	return body["session_code"].(string), body["admin_pin"].(string)
}

func TestCreateSession(t *testing.T) {
	r := newTestRouter()
	code, pin := createSession(t, r)
	assert.Len(t, code, game.CodeLen)
	assert.Len(t, pin, game.PINLen)

	w := do(t, r, http.MethodPost, "/api/session", map[string]any{"role_a_name": "", "role_b_name": "Lee"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinErrors(t *testing.T) {
	r := newTestRouter()
	code, _ := createSession(t, r)

	w := do(t, r, http.MethodPost, "/api/session/"+code+"/join", map[string]any{"name": "Ann"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["is_admin"], "first joiner is admin")

	w = do(t, r, http.MethodPost, "/api/session/"+code+"/join", map[string]any{"name": "ann"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/session/ZZZZZZ/join", map[string]any{"name": "Ben"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGameFlow(t *testing.T) {
	r := newTestRouter()
	code, pin := createSession(t, r)

	w := do(t, r, http.MethodPost, "/api/session/"+code+"/start", map[string]any{"admin_pin": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/api/session/"+code+"/start", map[string]any{"admin_pin": pin})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "voting", body["status"])
	assert.Equal(t, float64(1), body["current_round"])
	assert.Len(t, body["scenarios"], 2)

	w = do(t, r, http.MethodPost, "/api/session/"+code+"/vote", map[string]any{
		"name": "Ann", "round": 1, "choice": "A",
	})
	require.Equal(t, http.StatusOK, w.Code)
	tally := decode(t, w)["tally"].(map[string]any)
	assert.Equal(t, float64(1), tally["a"])

	w = do(t, r, http.MethodPost, "/api/session/"+code+"/vote", map[string]any{
		"name": "Ben", "round": 1, "choice": "X",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/session/"+code+"/vote", map[string]any{
		"name": "Ben", "round": 2, "choice": "B",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "stale round is rejected")

	w = do(t, r, http.MethodPost, "/api/session/"+code+"/reveal", map[string]any{"admin_pin": pin, "round": 1})
	require.Equal(t, http.StatusOK, w.Code)
	result := decode(t, w)["result"].(map[string]any)
	assert.Equal(t, "A", result["winner"])

	w = do(t, r, http.MethodPost, "/api/session/"+code+"/next", map[string]any{"admin_pin": pin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "voting", decode(t, w)["status"])

	w = do(t, r, http.MethodGet, "/api/session/"+code, nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode(t, w)
	session := snap["session"].(map[string]any)
	assert.Equal(t, float64(2), session["currentRound"])
	require.NotNil(t, snap["scenario"])
	assert.Equal(t, float64(2), snap["scenario"].(map[string]any)["round"])
}

func TestStatusNotFound(t *testing.T) {
	r := newTestRouter()
	w := do(t, r, http.MethodGet, "/api/session/ZZZZZZ", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJoinQR(t *testing.T) {
	r := newTestRouter()
	code, _ := createSession(t, r)

	w := do(t, r, http.MethodGet, "/api/session/"+code+"/qr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())

	w = do(t, r, http.MethodGet, "/api/session/ZZZZZZ/qr", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
