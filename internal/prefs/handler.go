package prefs

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Handler struct {
	prefs *Store
	log   *zap.SugaredLogger
}

func NewHandler(p *Store, log *zap.SugaredLogger) *Handler {
	return &Handler{prefs: p, log: log}
}

// GetTheme - current UI theme.
func (h *Handler) GetTheme(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"theme": h.prefs.Theme()})
}

type setThemeRequest struct {
	Theme string `json:"theme"`
}

// SetTheme - switch between light and dark, persisted across restarts.
func (h *Handler) SetTheme(c echo.Context) error {
	var req setThemeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.prefs.SetTheme(req.Theme); err != nil {
		if errors.Is(err, ErrInvalidTheme) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"theme": "must be light or dark"}})
		}
		h.log.Errorw("persist theme", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save preference"})
	}
	return c.JSON(http.StatusOK, echo.Map{"theme": req.Theme})
}
