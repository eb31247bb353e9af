package offers

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

func newTestContext(t *testing.T, method, path, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateOfferNotifiesReceiver(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())
	before := len(st.NotificationsFor("confirmer1"))

	c, rec := newTestContext(t, http.MethodPost, "/marketplace/offers",
		`{"to_user_id":"confirmer1","service_id":"sl1","details":"تأكيد 50 طلبية","price":25000}`, "merchant1")
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	var offer model.Offer
	require.NoError(t, json.Unmarshal(body["offer"], &offer))
	assert.Equal(t, model.OfferPending, offer.Status)
	assert.Equal(t, "merchant1", offer.FromUserID)

	assert.Len(t, st.NotificationsFor("confirmer1"), before+1)
}

func TestCreateOfferValidation(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodPost, "/marketplace/offers",
		`{"to_user_id":"confirmer1","details":"","price":0}`, "merchant1")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(t, http.MethodPost, "/marketplace/offers",
		`{"to_user_id":"merchant1","details":"x","price":100}`, "merchant1")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "self offers are refused")

	c, rec = newTestContext(t, http.MethodPost, "/marketplace/offers",
		`{"to_user_id":"ghost","details":"x","price":100}`, "merchant1")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAcceptOffer(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodPost, "/", "", "confirmer1")
	c.SetParamNames("id")
	c.SetParamValues("o1")
	require.NoError(t, h.Act(ActionAccept)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	offer, err := st.OfferByID("o1")
	require.NoError(t, err)
	assert.Equal(t, model.OfferAccepted, offer.Status)
}

func TestAcceptOfferWrongActor(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodPost, "/", "", "merchant1")
	c.SetParamNames("id")
	c.SetParamValues("o1")
	require.NoError(t, h.Act(ActionAccept)(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	offer, err := st.OfferByID("o1")
	require.NoError(t, err)
	assert.Equal(t, model.OfferPending, offer.Status, "failed action must not change status")
}

func TestActOfferNonParticipant(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodPost, "/", "", "freelancer1")
	c.SetParamNames("id")
	c.SetParamValues("o1")
	require.NoError(t, h.Act(ActionAccept)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestActOfferNotFound(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodPost, "/", "", "merchant1")
	c.SetParamNames("id")
	c.SetParamValues("missing")
	require.NoError(t, h.Act(ActionCancel)(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateCompletedOffer(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodPost, "/", `{"stars":4,"comment":"عمل جيد"}`, "merchant1")
	c.SetParamNames("id")
	c.SetParamValues("o5")
	require.NoError(t, h.Rate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rated, err := st.UserByID("freelancer2")
	require.NoError(t, err)
	assert.Equal(t, 4.0, rated.AvgRating)

	// A second rating on the same offer is refused.
	c, rec = newTestContext(t, http.MethodPost, "/", `{"stars":5,"comment":""}`, "merchant1")
	c.SetParamNames("id")
	c.SetParamValues("o5")
	require.NoError(t, h.Rate(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRateValidation(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodPost, "/", `{"stars":6}`, "merchant1")
	c.SetParamNames("id")
	c.SetParamValues("o5")
	require.NoError(t, h.Rate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Only completed offers can be rated.
	c, rec = newTestContext(t, http.MethodPost, "/", `{"stars":3}`, "merchant1")
	c.SetParamNames("id")
	c.SetParamValues("o1")
	require.NoError(t, h.Rate(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListOffersFilters(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodGet, "/marketplace/offers?type=incoming", "", "merchant1")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	var incoming []model.Offer
	require.NoError(t, json.Unmarshal(body["offers"], &incoming))
	require.Len(t, incoming, 1)
	assert.Equal(t, "o4", incoming[0].ID)

	c, rec = newTestContext(t, http.MethodGet, "/marketplace/offers", "", "merchant1")
	require.NoError(t, h.List(c))
	body = decodeBody(t, rec)
	var all []model.Offer
	require.NoError(t, json.Unmarshal(body["offers"], &all))
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "offers come newest first")
	}
}

func TestGetOfferDegradesMissingService(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	require.NoError(t, st.DeleteListing("sl1"))

	c, rec := newTestContext(t, http.MethodGet, "/", "", "merchant1")
	c.SetParamNames("id")
	c.SetParamValues("o1")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, string(body["service"]), "غير متوفر")
}

func TestMyStats(t *testing.T) {
	st := store.NewSeeded()
	h := NewHandler(st, zap.NewNop().Sugar())

	c, rec := newTestContext(t, http.MethodGet, "/marketplace/stats/me", "", "merchant1")
	require.NoError(t, h.MyStats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	var stats Stats
	require.NoError(t, json.Unmarshal(body["stats"], &stats))
	assert.Equal(t, 5, stats.TotalOffers)
	assert.Equal(t, 2, stats.CompletedOffers)
	assert.Equal(t, int64(25000), stats.TotalSpending)
	assert.Equal(t, int64(0), stats.TotalEarnings)
	assert.Equal(t, 40.0, stats.SuccessRate)
}
