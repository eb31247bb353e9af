package notifications

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/walidbsn/tasdiq/internal/store"
)

type Handler struct {
	store *store.Store
	log   *zap.SugaredLogger
}

func NewHandler(st *store.Store, log *zap.SugaredLogger) *Handler {
	return &Handler{store: st, log: log}
}

// List - the caller's notifications, newest first.
func (h *Handler) List(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"notifications": h.store.NotificationsFor(uid),
		"unread_count":  h.store.UnreadCount(uid),
	})
}

// UnreadCount - badge counter for the header bell.
func (h *Handler) UnreadCount(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread_count": h.store.UnreadCount(uid)})
}

// MarkRead - marks one of the caller's notifications as read.
func (h *Handler) MarkRead(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	id := c.Param("id")
	if err := h.store.MarkNotificationRead(id, uid); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		case errors.Is(err, store.ErrNotPermitted):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your notification"})
		}
		h.log.Errorw("mark notification read", "notification_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update notification"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notification marked as read"})
}

// MarkAllRead - clears the caller's unread counter in one pass.
func (h *Handler) MarkAllRead(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	n := h.store.MarkAllNotificationsRead(uid)
	return c.JSON(http.StatusOK, echo.Map{"message": "all notifications marked as read", "updated": n})
}
