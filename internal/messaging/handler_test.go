package messaging

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

	"github.com/walidbsn/tasdiq/internal/model"
	"github.com/walidbsn/tasdiq/internal/store"
)

func newTestContext(t *testing.T, method, body, userID, peerID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	if peerID != "" {
		c.SetParamNames("peer_id")
		c.SetParamValues(peerID)
	}
	return c, rec
}

func TestListConversations(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	// merchant1 has one active offer: o2 with freelancer1.
	c, rec := newTestContext(t, http.MethodGet, "", "merchant1", "")
	require.NoError(t, h.ListConversations(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	var convs []conversationSummary
	require.NoError(t, json.Unmarshal(body["conversations"], &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, "freelancer1", convs[0].PeerID)
	assert.NotEmpty(t, convs[0].LastMessage)
}

func TestSendMessageRequiresActiveOffer(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	// o1 with confirmer1 is still pending, so the channel is closed.
	c, rec := newTestContext(t, http.MethodPost, `{"text":"مرحبا"}`, "merchant1", "confirmer1")
	require.NoError(t, h.SendMessage(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendMessageOpensAfterAccept(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	_, err := st.ApplyOfferTransition("o1", func(o model.Offer) (model.OfferStatus, error) {
		return model.OfferAccepted, nil
	})
	require.NoError(t, err)

	before := len(st.NotificationsFor("confirmer1"))

	c, rec := newTestContext(t, http.MethodPost, `{"text":"مرحبا، متى نبدأ؟"}`, "merchant1", "confirmer1")
	require.NoError(t, h.SendMessage(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	conv, ok := st.Conversation("merchant1", "confirmer1")
	require.True(t, ok)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "merchant1", conv.Messages[0].SenderID)

	assert.Len(t, st.NotificationsFor("confirmer1"), before+1, "recipient is notified")
}

func TestSendMessageValidation(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodPost, `{"text":""}`, "merchant1", "freelancer1")
	require.NoError(t, h.SendMessage(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(t, http.MethodPost, `{"text":"hi"}`, "merchant1", "ghost")
	require.NoError(t, h.SendMessage(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetConversation(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodGet, "", "merchant1", "freelancer1")
	require.NoError(t, h.GetConversation(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	var msgs []model.Message
	require.NoError(t, json.Unmarshal(body["messages"], &msgs))
	assert.Len(t, msgs, 2)
}
