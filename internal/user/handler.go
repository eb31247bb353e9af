package user

import (
	"errors"
	"net/http"

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

type updateProfileRequest struct {
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Region    *string   `json:"region,omitempty"`
	Skills    *[]string `json:"skills,omitempty"`
}

// UpdateProfile edits the caller's own profile. Region is only writable for
// confirmers and skills only for freelancers.
func (h *Handler) UpdateProfile(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"name": "required"}})
	}

	var updated model.User
	err := h.store.UpdateUser(uid, func(u *model.User) error {
		u.Name = req.Name
		if req.AvatarURL != "" {
			u.AvatarURL = req.AvatarURL
		}
		switch u.Role {
		case model.RoleConfirmer:
			if req.Region != nil {
				if u.Confirmer == nil {
					u.Confirmer = &model.ConfirmerProfile{}
				}
				u.Confirmer.Region = *req.Region
			}
		case model.RoleFreelancer:
			if req.Skills != nil {
				if u.Freelancer == nil {
					u.Freelancer = &model.FreelancerProfile{}
				}
				u.Freelancer.Skills = *req.Skills
			}
		}
		updated = *u
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		h.log.Errorw("update profile", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": updated})
}

// PublicProfile - the profile card shown to other users: identity, rating
// summary, reviews and published listings. The password hash and wallet
// never leave the store here.
func (h *Handler) PublicProfile(c echo.Context) error {
	u, err := h.store.UserByID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var listings []model.ServiceListing
	for _, l := range h.store.Listings() {
		if l.UserID == u.ID {
			listings = append(listings, l)
		}
	}

	profile := echo.Map{
		"id":           u.ID,
		"name":         u.Name,
		"role":         u.Role,
		"status":       u.Status,
		"avatar_url":   u.AvatarURL,
		"badges":       u.Badges,
		"avg_rating":   u.AvgRating,
		"rating_count": len(u.RatingsReceived),
		"ratings":      u.RatingsReceived,
		"listings":     listings,
	}
	switch u.Role {
	case model.RoleConfirmer:
		if u.Confirmer != nil {
			profile["region"] = u.Confirmer.Region
		}
	case model.RoleFreelancer:
		if u.Freelancer != nil {
			profile["skills"] = u.Freelancer.Skills
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": profile})
}
