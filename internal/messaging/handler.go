package messaging

import (
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/walidbsn/tasdiq/internal/model"
	"github.com/walidbsn/tasdiq/internal/store"
)

type Handler struct {
	store *store.Store
	log   *zap.SugaredLogger
}

func NewHandler(st *store.Store, log *zap.SugaredLogger) *Handler {
	return &Handler{store: st, log: log}
}

// activeOfferStatuses are the offer states that open a message channel
// between the two participants.
var activeOfferStatuses = map[model.OfferStatus]bool{
	model.OfferAccepted:              true,
	model.OfferDelivered:             true,
	model.OfferModificationRequested: true,
}

// contacts returns the ids of users the given user has an active offer with.
func (h *Handler) contacts(uid string) []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range h.store.Offers() {
		if !activeOfferStatuses[o.Status] {
			continue
		}
		var peer string
		switch uid {
		case o.FromUserID:
			peer = o.ToUserID
		case o.ToUserID:
			peer = o.FromUserID
		default:
			continue
		}
		if !seen[peer] {
			seen[peer] = true
			out = append(out, peer)
		}
	}
	return out
}

func (h *Handler) canMessage(a, b string) bool {
	for _, peer := range h.contacts(a) {
		if peer == b {
			return true
		}
	}
	return false
}

type conversationSummary struct {
	PeerID      string    `json:"peer_id"`
	PeerName    string    `json:"peer_name"`
	PeerAvatar  string    `json:"peer_avatar,omitempty"`
	LastMessage string    `json:"last_message,omitempty"`
	LastAt      time.Time `json:"last_at,omitempty"`
	Unread      int       `json:"unread"`
}

// ListConversations - one entry per active-offer contact, most recent
// conversation first. Contacts without messages yet still appear so the
// user can start the thread.
func (h *Handler) ListConversations(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var out []conversationSummary
	for _, peerID := range h.contacts(uid) {
		peer, err := h.store.UserByID(peerID)
		if err != nil {
			continue
		}
		s := conversationSummary{PeerID: peer.ID, PeerName: peer.Name, PeerAvatar: peer.AvatarURL}
		if conv, ok := h.store.Conversation(uid, peerID); ok && len(conv.Messages) > 0 {
			last := conv.Messages[len(conv.Messages)-1]
			s.LastMessage = last.Text
			s.LastAt = last.CreatedAt
			for _, m := range conv.Messages {
				if m.SenderID == peerID && !m.IsRead {
					s.Unread++
				}
			}
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastAt.After(out[j].LastAt)
	})
	return c.JSON(http.StatusOK, echo.Map{"conversations": out})
}

// GetConversation - the message history with one peer.
func (h *Handler) GetConversation(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	peerID := c.Param("peer_id")
	if !h.canMessage(uid, peerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no active offer with this user"})
	}

	conv, ok := h.store.Conversation(uid, peerID)
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"messages": []model.Message{}})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": conv.Messages})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage - appends a message to the thread with a peer. Requires an
// active offer between the two users.
func (h *Handler) SendMessage(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"text": "required"}})
	}
	if len(req.Text) > 2000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"text": "too long"}})
	}

	peerID := c.Param("peer_id")
	if _, err := h.store.UserByID(peerID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if !h.canMessage(uid, peerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no active offer with this user"})
	}

	sender, err := h.store.UserByID(uid)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	msg := model.Message{
		ID:        uuid.New().String(),
		SenderID:  uid,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}
	if err := h.store.AppendMessage(uid, peerID, msg); err != nil {
		h.log.Errorw("send message", "peer_id", peerID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not send message"})
	}
	h.store.AddNotification(model.Notification{
		ID:     uuid.New().String(),
		UserID: peerID,
		Text:   "رسالة جديدة من " + sender.Name + ".",
		Type:   model.NotifMessage,
		Link: model.NotificationLink{
			View:   "messages",
			Params: map[string]string{"peer_id": uid},
		},
		CreatedAt: msg.CreatedAt,
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": msg})
}
