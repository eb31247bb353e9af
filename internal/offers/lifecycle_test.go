package offers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walidbsn/tasdiq/internal/model"
)

func testOffer(status model.OfferStatus) model.Offer {
	return model.Offer{
		ID:         "o-test",
		FromUserID: "sender",
		ToUserID:   "receiver",
		Details:    "test details",
		Price:      1000,
		Status:     status,
	}
}

func TestTransitionHappyPath(t *testing.T) {
	o := testOffer(model.OfferPending)

	next, err := Transition(o, "receiver", ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.OfferAccepted, next)

	o.Status = next
	next, err = Transition(o, "receiver", ActionDeliver)
	require.NoError(t, err)
	assert.Equal(t, model.OfferDelivered, next)

	o.Status = next
	next, err = Transition(o, "sender", ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, model.OfferCompleted, next)
}

func TestTransitionModificationLoop(t *testing.T) {
	o := testOffer(model.OfferDelivered)

	next, err := Transition(o, "sender", ActionRequestModification)
	require.NoError(t, err)
	assert.Equal(t, model.OfferModificationRequested, next)

	o.Status = next
	next, err = Transition(o, "receiver", ActionDeliver)
	require.NoError(t, err)
	assert.Equal(t, model.OfferDelivered, next)
}

func TestTransitionReject(t *testing.T) {
	o := testOffer(model.OfferPending)

	next, err := Transition(o, "receiver", ActionReject)
	require.NoError(t, err)
	assert.Equal(t, model.OfferRejected, next)
}

func TestTransitionWrongActor(t *testing.T) {
	o := testOffer(model.OfferPending)

	_, err := Transition(o, "sender", ActionAccept)
	assert.ErrorIs(t, err, ErrWrongActor)

	o.Status = model.OfferDelivered
	_, err = Transition(o, "receiver", ActionComplete)
	assert.ErrorIs(t, err, ErrWrongActor)
}

func TestTransitionNonParticipant(t *testing.T) {
	o := testOffer(model.OfferPending)

	_, err := Transition(o, "stranger", ActionAccept)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestTransitionTerminalStates(t *testing.T) {
	actions := []Action{ActionAccept, ActionReject, ActionDeliver, ActionComplete, ActionRequestModification, ActionCancel}
	for _, status := range []model.OfferStatus{model.OfferCompleted, model.OfferRejected, model.OfferCancelled} {
		for _, action := range actions {
			_, err := Transition(testOffer(status), "receiver", action)
			assert.ErrorIs(t, err, ErrInvalidTransition, "status %s action %s", status, action)
		}
	}
}

func TestTransitionCancelByEitherParty(t *testing.T) {
	for _, status := range []model.OfferStatus{model.OfferPending, model.OfferAccepted, model.OfferDelivered, model.OfferModificationRequested} {
		for _, actor := range []string{"sender", "receiver"} {
			next, err := Transition(testOffer(status), actor, ActionCancel)
			require.NoError(t, err, "status %s actor %s", status, actor)
			assert.Equal(t, model.OfferCancelled, next)
		}
	}
}

func TestCanRate(t *testing.T) {
	o := testOffer(model.OfferCompleted)
	require.NoError(t, CanRate(o, "sender"))

	assert.ErrorIs(t, CanRate(testOffer(model.OfferPending), "sender"), ErrNotRatable)
	assert.ErrorIs(t, CanRate(o, "receiver"), ErrWrongActor)
	assert.ErrorIs(t, CanRate(o, "stranger"), ErrNotParticipant)

	rated := o
	rated.IsRated = true
	assert.ErrorIs(t, CanRate(rated, "sender"), ErrAlreadyRated)
}

func TestComputeStats(t *testing.T) {
	all := []model.Offer{
		{ID: "a", FromUserID: "u1", ToUserID: "u2", Price: 1000, Status: model.OfferCompleted},
		{ID: "b", FromUserID: "u1", ToUserID: "u2", Price: 2000, Status: model.OfferPending},
		{ID: "c", FromUserID: "u2", ToUserID: "u1", Price: 3000, Status: model.OfferCompleted},
		{ID: "d", FromUserID: "u1", ToUserID: "u3", Price: 4000, Status: model.OfferRejected},
		{ID: "e", FromUserID: "u3", ToUserID: "u4", Price: 5000, Status: model.OfferCompleted},
	}

	stats := ComputeStats(all, "u1")
	assert.Equal(t, 4, stats.TotalOffers)
	assert.Equal(t, 2, stats.CompletedOffers)
	assert.Equal(t, int64(3000), stats.TotalEarnings)
	assert.Equal(t, int64(1000), stats.TotalSpending)
	assert.Equal(t, 50.0, stats.SuccessRate)

	empty := ComputeStats(all, "nobody")
	assert.Equal(t, 0, empty.TotalOffers)
	assert.Equal(t, 0.0, empty.SuccessRate)
}
