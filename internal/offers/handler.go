package offers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/walidbsn/tasdiq/internal/model"
	"github.com/walidbsn/tasdiq/internal/store"
)

// Handler serves the offer endpoints against the state store.
type Handler struct {
	store *store.Store
	log   *zap.SugaredLogger
}

func NewHandler(st *store.Store, log *zap.SugaredLogger) *Handler {
	return &Handler{store: st, log: log}
}

type createOfferRequest struct {
	ToUserID  string `json:"to_user_id"`
	ServiceID string `json:"service_id,omitempty"`
	Details   string `json:"details"`
	Price     int64  `json:"price"`
}

// Create - a user sends an offer to another user, optionally linked to a
// service listing. Exactly one notification is appended for the receiver.
func (h *Handler) Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createOfferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := echo.Map{}
	if req.ToUserID == "" {
		fields["to_user_id"] = "required"
	}
	if req.Details == "" {
		fields["details"] = "required"
	}
	if req.Price <= 0 {
		fields["price"] = "must be positive"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}
	if req.ToUserID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "you cannot send an offer to yourself"})
	}

	sender, err := h.store.UserByID(uid)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if _, err := h.store.UserByID(req.ToUserID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "receiver not found"})
	}
	if req.ServiceID != "" {
		if _, err := h.store.ListingByID(req.ServiceID); err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
	}

	now := time.Now()
	offer := model.Offer{
		ID:         uuid.New().String(),
		FromUserID: uid,
		ToUserID:   req.ToUserID,
		ServiceID:  req.ServiceID,
		Details:    req.Details,
		Price:      req.Price,
		Status:     model.OfferPending,
		CreatedAt:  now,
	}
	notif := model.Notification{
		ID:     uuid.New().String(),
		UserID: req.ToUserID,
		Text:   "لقد تلقيت عرضًا جديدًا من " + sender.Name + ".",
		Type:   model.NotifOffer,
		Link: model.NotificationLink{
			View:   "offers",
			Params: map[string]string{"offer_id": offer.ID},
		},
		CreatedAt: now,
	}

	if err := h.store.CreateOffer(offer, notif); err != nil {
		h.log.Errorw("create offer", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create offer"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"offer": offer})
}

// List - the caller's offers, newest first, with direction and category
// filters.
func (h *Handler) List(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	direction := c.QueryParam("type") // all, incoming, outgoing
	category := c.QueryParam("category")
	listings := map[string]model.ServiceListing{}
	for _, l := range h.store.Listings() {
		listings[l.ID] = l
	}

	var out []model.Offer
	for _, o := range h.store.Offers() {
		if o.FromUserID != uid && o.ToUserID != uid {
			continue
		}
		switch direction {
		case "incoming":
			if o.ToUserID != uid {
				continue
			}
		case "outgoing":
			if o.FromUserID != uid {
				continue
			}
		}
		if category != "" && category != "all" {
			l, ok := listings[o.ServiceID]
			if o.ServiceID == "" || !ok || string(l.Category) != category {
				continue
			}
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return c.JSON(http.StatusOK, echo.Map{"offers": out})
}

// Get - offer details for a participant. Missing referenced entities degrade
// to placeholders instead of failing the whole view.
func (h *Handler) Get(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	offer, err := h.store.OfferByID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
	}
	if offer.FromUserID != uid && offer.ToUserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this offer"})
	}

	otherID := offer.ToUserID
	if offer.ToUserID == uid {
		otherID = offer.FromUserID
	}
	resp := echo.Map{"offer": offer}
	if other, err := h.store.UserByID(otherID); err == nil {
		resp["other_party"] = echo.Map{
			"id": other.ID, "name": other.Name, "role": other.Role,
			"avatar_url": other.AvatarURL, "avg_rating": other.AvgRating,
		}
	} else {
		resp["other_party"] = echo.Map{"id": otherID, "name": "غير معروف"}
	}
	if offer.ServiceID != "" {
		if l, err := h.store.ListingByID(offer.ServiceID); err == nil {
			resp["service"] = echo.Map{"id": l.ID, "title": l.Title, "category": l.Category}
		} else {
			resp["service"] = echo.Map{"id": offer.ServiceID, "title": "غير متوفر"}
		}
	}
	if r, ok := h.store.RatingForOffer(offer.ID); ok {
		resp["rating"] = r
	}
	return c.JSON(http.StatusOK, resp)
}

// Act applies a lifecycle action to an offer. Illegal (status, action)
// pairs fail without mutating anything.
func (h *Handler) Act(action Action) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get("user_id").(string)
		if !ok || uid == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}

		offerID := c.Param("id")
		updated, err := h.store.ApplyOfferTransition(offerID, func(o model.Offer) (model.OfferStatus, error) {
			return Transition(o, uid, action)
		})
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
			case errors.Is(err, ErrNotParticipant):
				return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this offer"})
			case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrWrongActor):
				return c.JSON(http.StatusConflict, echo.Map{"error": "no action available"})
			}
			h.log.Errorw("offer transition", "offer_id", offerID, "action", action, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update offer"})
		}

		return c.JSON(http.StatusOK, echo.Map{"offer": updated})
	}
}

type rateRequest struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

// Rate - the paying party rates a completed offer. The rated user's average
// is recomputed in the same store operation.
func (h *Handler) Rate(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req rateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Stars < 1 || req.Stars > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"stars": "must be between 1 and 5"}})
	}
	if len(req.Comment) > 1000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"comment": "too long"}})
	}

	offerID := c.Param("id")
	rating, err := h.store.SubmitRating(offerID, func(o model.Offer) (model.Rating, error) {
		if err := CanRate(o, uid); err != nil {
			return model.Rating{}, err
		}
		return model.Rating{
			ID:         uuid.New().String(),
			OfferID:    o.ID,
			FromUserID: uid,
			ToUserID:   o.ToUserID,
			Stars:      req.Stars,
			Comment:    req.Comment,
			CreatedAt:  time.Now(),
		}, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrWrongActor):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the offer sender may rate"})
		case errors.Is(err, ErrAlreadyRated):
			return c.JSON(http.StatusConflict, echo.Map{"error": "review already exists for this offer"})
		case errors.Is(err, ErrNotRatable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "can only rate completed offers"})
		}
		h.log.Errorw("submit rating", "offer_id", offerID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit rating"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"rating": rating})
}

// MyStats - the caller's derived offer statistics.
func (h *Handler) MyStats(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"stats": ComputeStats(h.store.Offers(), uid)})
}
