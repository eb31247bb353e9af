package admin

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

type Handler struct {
	store *store.Store
	log   *zap.SugaredLogger
}

func NewHandler(st *store.Store, log *zap.SugaredLogger) *Handler {
	return &Handler{store: st, log: log}
}

// Stats - collection sizes for the admin dashboard header.
func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"stats": h.store.CollectionCounts()})
}

// ListUsers - every account, for the admin user table.
func (h *Handler) ListUsers(c echo.Context) error {
	users := h.store.Users()
	sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeUserRole reassigns a user's role. Switching to confirmer or
// freelancer attaches an empty role profile; switching away drops it.
func (h *Handler) ChangeUserRole(c echo.Context) error {
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"role": "unknown role"}})
	}

	id := c.Param("id")
	var updated model.User
	err := h.store.UpdateUser(id, func(u *model.User) error {
		u.Role = role
		u.Confirmer = nil
		u.Freelancer = nil
		switch role {
		case model.RoleConfirmer:
			u.Confirmer = &model.ConfirmerProfile{}
		case model.RoleFreelancer:
			u.Freelancer = &model.FreelancerProfile{}
		}
		updated = *u
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		h.log.Errorw("change user role", "user_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update user"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": updated})
}

func (h *Handler) setUserStatus(c echo.Context, status model.UserStatus) error {
	id := c.Param("id")
	var updated model.User
	err := h.store.UpdateUser(id, func(u *model.User) error {
		if u.Role == model.RoleAdmin {
			return store.ErrNotPermitted
		}
		u.Status = status
		updated = *u
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, store.ErrNotPermitted):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin accounts cannot be suspended"})
		}
		h.log.Errorw("set user status", "user_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update user"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": updated})
}

// SuspendUser blocks an account from logging in. Admin accounts are exempt.
func (h *Handler) SuspendUser(c echo.Context) error {
	return h.setUserStatus(c, model.UserSuspended)
}

// ActivateUser restores a suspended account.
func (h *Handler) ActivateUser(c echo.Context) error {
	return h.setUserStatus(c, model.UserActive)
}

// TogglePin flips a listing's pinned flag. Pinned listings rank above all
// others in the marketplace.
func (h *Handler) TogglePin(c echo.Context) error {
	id := c.Param("id")
	var updated model.ServiceListing
	err := h.store.UpdateListing(id, func(l *model.ServiceListing) error {
		l.IsPinned = !l.IsPinned
		updated = *l
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		h.log.Errorw("toggle pin", "listing_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update listing"})
	}
	return c.JSON(http.StatusOK, echo.Map{"listing": updated})
}

// DeleteListing removes any listing, regardless of owner.
func (h *Handler) DeleteListing(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.DeleteListing(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		h.log.Errorw("delete listing", "listing_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete listing"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "listing deleted"})
}

type siteServiceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
}

func (r siteServiceRequest) validate() echo.Map {
	fields := echo.Map{}
	if r.Title == "" {
		fields["title"] = "required"
	}
	if r.Description == "" {
		fields["description"] = "required"
	}
	if r.Price <= 0 {
		fields["price"] = "must be positive"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// CreateSiteService adds an entry to the platform service catalog.
func (h *Handler) CreateSiteService(c echo.Context) error {
	var req siteServiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if fields := req.validate(); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	svc := model.SiteService{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Provider:    req.Provider,
		Price:       req.Price,
		Category:    req.Category,
	}
	h.store.AddSiteService(svc)
	return c.JSON(http.StatusCreated, echo.Map{"service": svc})
}

// UpdateSiteService edits a catalog entry in place.
func (h *Handler) UpdateSiteService(c echo.Context) error {
	var req siteServiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if fields := req.validate(); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	id := c.Param("id")
	var updated model.SiteService
	err := h.store.UpdateSiteService(id, func(s *model.SiteService) error {
		s.Title = req.Title
		s.Description = req.Description
		s.Provider = req.Provider
		s.Price = req.Price
		s.Category = req.Category
		updated = *s
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		h.log.Errorw("update site service", "service_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update service"})
	}
	return c.JSON(http.StatusOK, echo.Map{"service": updated})
}

// DeleteSiteService removes a catalog entry.
func (h *Handler) DeleteSiteService(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.DeleteSiteService(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		h.log.Errorw("delete site service", "service_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete service"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted"})
}

// ListCampaigns - every campaign, newest first, for the review queue.
func (h *Handler) ListCampaigns(c echo.Context) error {
	campaigns := h.store.Campaigns()
	sort.SliceStable(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})
	return c.JSON(http.StatusOK, echo.Map{"campaigns": campaigns})
}

// campaignTransitions is the review lifecycle: a campaign is approved or
// rejected, an approved one is started, a running one is closed out.
var campaignTransitions = map[model.CampaignStatus]map[model.CampaignStatus]bool{
	model.CampaignPendingReview: {model.CampaignApproved: true, model.CampaignRejected: true},
	model.CampaignApproved:      {model.CampaignRunning: true},
	model.CampaignRunning:       {model.CampaignCompleted: true},
}

func (h *Handler) setCampaignStatus(c echo.Context, target model.CampaignStatus) error {
	id := c.Param("id")
	var updated model.AdCampaign
	err := h.store.UpdateCampaign(id, func(cmp *model.AdCampaign) error {
		if !campaignTransitions[cmp.Status][target] {
			return store.ErrNotPermitted
		}
		cmp.Status = target
		updated = *cmp
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "campaign not found"})
		case errors.Is(err, store.ErrNotPermitted):
			return c.JSON(http.StatusConflict, echo.Map{"error": "no action available"})
		}
		h.log.Errorw("set campaign status", "campaign_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update campaign"})
	}

	switch target {
	case model.CampaignApproved:
		h.notifyCampaignOwner(updated, "تمت الموافقة على حملتك الإعلانية \""+updated.Name+"\".")
	case model.CampaignRejected:
		h.notifyCampaignOwner(updated, "تم رفض حملتك الإعلانية \""+updated.Name+"\".")
	}
	return c.JSON(http.StatusOK, echo.Map{"campaign": updated})
}

func (h *Handler) notifyCampaignOwner(cmp model.AdCampaign, text string) {
	err := h.store.AddNotification(model.Notification{
		ID:        uuid.New().String(),
		UserID:    cmp.UserID,
		Text:      text,
		Type:      model.NotifSystem,
		Link:      model.NotificationLink{View: "campaigns"},
		CreatedAt: time.Now(),
	})
	if err != nil {
		h.log.Warnw("notify campaign owner", "campaign_id", cmp.ID, "error", err)
	}
}

func (h *Handler) ApproveCampaign(c echo.Context) error {
	return h.setCampaignStatus(c, model.CampaignApproved)
}

func (h *Handler) RejectCampaign(c echo.Context) error {
	return h.setCampaignStatus(c, model.CampaignRejected)
}

func (h *Handler) StartCampaign(c echo.Context) error {
	return h.setCampaignStatus(c, model.CampaignRunning)
}

func (h *Handler) CompleteCampaign(c echo.Context) error {
	return h.setCampaignStatus(c, model.CampaignCompleted)
}
