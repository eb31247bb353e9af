package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walidbsn/tasdiq/internal/model"
)

func TestSeedReferentialIntegrity(t *testing.T) {
	s := NewSeeded()

	users := map[string]model.User{}
	for _, u := range s.Users() {
		users[u.ID] = u
	}
	require.NotEmpty(t, users)

	for _, l := range s.Listings() {
		owner, ok := users[l.UserID]
		require.True(t, ok, "listing %s has unknown owner", l.ID)
		assert.Contains(t, []model.Role{model.RoleConfirmer, model.RoleFreelancer}, owner.Role)
	}
	for _, o := range s.Offers() {
		_, ok := users[o.FromUserID]
		assert.True(t, ok, "offer %s has unknown sender", o.ID)
		_, ok = users[o.ToUserID]
		assert.True(t, ok, "offer %s has unknown receiver", o.ID)
	}
	for _, n := range s.NotificationsFor("merchant1") {
		assert.Equal(t, "merchant1", n.UserID)
	}
}

func TestSeedRatingAggregation(t *testing.T) {
	s := NewSeeded()

	rated, err := s.UserByID("confirmer2")
	require.NoError(t, err)
	assert.Equal(t, 5.0, rated.AvgRating)
	assert.Len(t, rated.RatingsReceived, 1)

	offer, err := s.OfferByID("o3")
	require.NoError(t, err)
	assert.True(t, offer.IsRated)

	r, ok := s.RatingForOffer("o3")
	require.True(t, ok)
	assert.Equal(t, 5, r.Stars)
}

func TestAddUserRejectsDuplicateEmail(t *testing.T) {
	s := NewSeeded()

	err := s.AddUser(model.User{
		ID: "u-dup", Name: "Someone", Email: "MERCHANT@example.com",
		Role: model.RoleMerchant, Status: model.UserActive,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateOfferAppendsOneNotification(t *testing.T) {
	s := NewSeeded()
	before := len(s.NotificationsFor("confirmer1"))

	err := s.CreateOffer(model.Offer{
		ID: "o-new", FromUserID: "merchant1", ToUserID: "confirmer1",
		Details: "طلب جديد", Price: 2000, Status: model.OfferPending,
		CreatedAt: time.Now(),
	}, model.Notification{
		ID: "n-new", UserID: "confirmer1", Text: "عرض جديد",
		Type: model.NotifOffer, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	after := s.NotificationsFor("confirmer1")
	assert.Len(t, after, before+1)

	_, err = s.OfferByID("o-new")
	assert.NoError(t, err)
}

func TestCreateOfferRejectsUnknownUsers(t *testing.T) {
	s := NewSeeded()
	count := len(s.Offers())

	err := s.CreateOffer(model.Offer{
		ID: "o-bad", FromUserID: "merchant1", ToUserID: "ghost",
		Details: "x", Price: 100, Status: model.OfferPending,
	}, model.Notification{ID: "n-bad", UserID: "ghost"})
	assert.ErrorIs(t, err, ErrBadReference)
	assert.Len(t, s.Offers(), count, "failed create must not leave partial state")
}

func TestApplyOfferTransition(t *testing.T) {
	s := NewSeeded()

	updated, err := s.ApplyOfferTransition("o1", func(o model.Offer) (model.OfferStatus, error) {
		return model.OfferAccepted, nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.OfferAccepted, updated.Status)

	stored, err := s.OfferByID("o1")
	require.NoError(t, err)
	assert.Equal(t, model.OfferAccepted, stored.Status)
}

func TestApplyOfferTransitionKeepsStateOnError(t *testing.T) {
	s := NewSeeded()
	boom := errors.New("refused")

	_, err := s.ApplyOfferTransition("o1", func(o model.Offer) (model.OfferStatus, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := s.OfferByID("o1")
	require.NoError(t, err)
	assert.Equal(t, model.OfferPending, stored.Status)
}

func TestSubmitRatingRecomputesAverage(t *testing.T) {
	s := NewSeeded()

	// o5 is completed and unrated; freelancer2 has no ratings yet.
	rating, err := s.SubmitRating("o5", func(o model.Offer) (model.Rating, error) {
		return model.Rating{
			ID: "r-new", OfferID: o.ID, FromUserID: o.FromUserID, ToUserID: o.ToUserID,
			Stars: 4, Comment: "جيد", CreatedAt: time.Now(),
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rating.Stars)

	offer, err := s.OfferByID("o5")
	require.NoError(t, err)
	assert.True(t, offer.IsRated)

	rated, err := s.UserByID("freelancer2")
	require.NoError(t, err)
	assert.Equal(t, 4.0, rated.AvgRating)
	assert.Len(t, rated.RatingsReceived, 1)
}

func TestNotificationsReadFlow(t *testing.T) {
	s := NewSeeded()

	require.Greater(t, s.UnreadCount("merchant1"), 0)

	err := s.MarkNotificationRead("n2", "confirmer1")
	assert.ErrorIs(t, err, ErrNotPermitted, "n2 belongs to merchant1")

	require.NoError(t, s.MarkNotificationRead("n2", "merchant1"))

	s.MarkAllNotificationsRead("merchant1")
	assert.Equal(t, 0, s.UnreadCount("merchant1"))
}

func TestNotificationsNewestFirst(t *testing.T) {
	s := NewSeeded()

	list := s.NotificationsFor("merchant1")
	require.Greater(t, len(list), 1)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
	}
}

func TestConversations(t *testing.T) {
	s := NewSeeded()

	assert.Equal(t, "a_b", ConversationID("b", "a"))

	conv, ok := s.Conversation("merchant1", "freelancer1")
	require.True(t, ok)
	assert.Len(t, conv.Messages, 2)

	err := s.AppendMessage("merchant1", "confirmer1", model.Message{
		ID: "m-new", SenderID: "merchant1", Text: "مرحبا", CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	conv, ok = s.Conversation("confirmer1", "merchant1")
	require.True(t, ok)
	assert.Len(t, conv.Messages, 1)
}

func TestUpdateUserClonesState(t *testing.T) {
	s := NewSeeded()

	u, err := s.UserByID("freelancer1")
	require.NoError(t, err)
	require.NotNil(t, u.Freelancer)
	u.Freelancer.Skills = append(u.Freelancer.Skills, "hacking")

	fresh, err := s.UserByID("freelancer1")
	require.NoError(t, err)
	assert.NotContains(t, fresh.Freelancer.Skills, "hacking", "returned users must be copies")
}

func TestCollectionCounts(t *testing.T) {
	s := NewSeeded()

	counts := s.CollectionCounts()
	assert.Equal(t, 6, counts.Users)
	assert.Equal(t, 5, counts.Listings)
	assert.Equal(t, 5, counts.Offers)
	assert.Equal(t, 3, counts.Campaigns)
}
