// Package offers implements the offer lifecycle: the status state machine,
// its side effects (notifications on creation, rating aggregation), and the
// HTTP surface for creating, listing, advancing, and rating offers.
package offers

import (
	"errors"
	"fmt"

	"github.com/walidbsn/tasdiq/internal/model"
)

// Action is a lifecycle request verb. Which statuses it applies to, and who
// may invoke it, is fixed by the transition table below.
type Action string

const (
	ActionAccept              Action = "accept"
	ActionReject              Action = "reject"
	ActionDeliver             Action = "deliver"
	ActionComplete            Action = "complete"
	ActionRequestModification Action = "request_modification"
	ActionCancel              Action = "cancel"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotParticipant    = errors.New("not a participant in this offer")
	ErrWrongActor        = errors.New("action not available to this party")
	ErrNotRatable        = errors.New("offer cannot be rated yet")
	ErrAlreadyRated      = errors.New("offer already rated")
)

// actor designates which side of an offer may trigger a transition.
type actor int

const (
	actorReceiver actor = iota // the party doing the work (offer.ToUserID)
	actorSender                // the party paying (offer.FromUserID)
	actorEither
)

type edge struct {
	to model.OfferStatus
	by actor
}

// transitions is the full state machine. Anything absent here is illegal.
var transitions = map[model.OfferStatus]map[Action]edge{
	model.OfferPending: {
		ActionAccept: {model.OfferAccepted, actorReceiver},
		ActionReject: {model.OfferRejected, actorReceiver},
		ActionCancel: {model.OfferCancelled, actorEither},
	},
	model.OfferAccepted: {
		ActionDeliver: {model.OfferDelivered, actorReceiver},
		ActionCancel:  {model.OfferCancelled, actorEither},
	},
	model.OfferDelivered: {
		ActionComplete:            {model.OfferCompleted, actorSender},
		ActionRequestModification: {model.OfferModificationRequested, actorSender},
		ActionCancel:              {model.OfferCancelled, actorEither},
	},
	// Redelivery after a modification request re-enters delivered; repeated
	// cycles are allowed.
	model.OfferModificationRequested: {
		ActionDeliver: {model.OfferDelivered, actorReceiver},
		ActionCancel:  {model.OfferCancelled, actorEither},
	},
}

// Transition validates that actorID may apply action to the offer in its
// current status and returns the resulting status. It never mutates the
// offer; callers store the result only on success.
func Transition(o model.Offer, actorID string, action Action) (model.OfferStatus, error) {
	if actorID != o.FromUserID && actorID != o.ToUserID {
		return "", ErrNotParticipant
	}
	e, ok := transitions[o.Status][action]
	if !ok {
		return "", fmt.Errorf("%s %s from %s: %w", action, o.ID, o.Status, ErrInvalidTransition)
	}
	switch e.by {
	case actorReceiver:
		if actorID != o.ToUserID {
			return "", ErrWrongActor
		}
	case actorSender:
		if actorID != o.FromUserID {
			return "", ErrWrongActor
		}
	}
	return e.to, nil
}

// CanRate reports whether raterID may rate the offer right now: the offer is
// completed, unrated, and the rater is the paying party.
func CanRate(o model.Offer, raterID string) error {
	if raterID != o.FromUserID && raterID != o.ToUserID {
		return ErrNotParticipant
	}
	if raterID != o.FromUserID {
		return fmt.Errorf("only the offer sender may rate: %w", ErrWrongActor)
	}
	if o.Status != model.OfferCompleted {
		return fmt.Errorf("offer %s is %s: %w", o.ID, o.Status, ErrNotRatable)
	}
	if o.IsRated {
		return fmt.Errorf("offer %s: %w", o.ID, ErrAlreadyRated)
	}
	return nil
}
