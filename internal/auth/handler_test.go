package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/walidbsn/tasdiq/internal/store"
)

func newTestHandler() *Handler {
	return NewHandler(store.NewSeeded(), zap.NewNop().Sugar(), []byte("test-secret"))
}

func doRequest(t *testing.T, h func(echo.Context) error, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestSignup(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, h.Signup, `{"name":"جديد","email":"new@example.com","password":"secret1","role":"merchant"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, string(body["user"]), "secret1", "password never serializes")
}

func TestSignupValidation(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, h.Signup, `{"name":"x","email":"x@example.com","password":"123","role":"merchant"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "short password")

	rec = doRequest(t, h.Signup, `{"name":"x","email":"x@example.com","password":"secret1","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "admin cannot self register")

	rec = doRequest(t, h.Signup, `{"name":"x","email":"merchant@example.com","password":"secret1","role":"merchant"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "email already taken")
}

func TestLogin(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, h.Login, `{"email":"merchant@example.com","password":"`+store.DemoPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, h.Login, `{"email":"merchant@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h.Login, `{"email":"nobody@example.com","password":"whatever"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSuspendedAccount(t *testing.T) {
	h := newTestHandler()

	rec := doRequest(t, h.Login, `{"email":"freelancer2@example.com","password":"`+store.DemoPassword+`"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "suspended")
}

func TestMe(t *testing.T) {
	h := newTestHandler()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "merchant1")
	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "merchant@example.com")
}
