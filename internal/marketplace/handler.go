package marketplace

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/walidbsn/tasdiq/internal/assistant"
	"github.com/walidbsn/tasdiq/internal/model"
	"github.com/walidbsn/tasdiq/internal/store"
)

type Handler struct {
	store     *store.Store
	assistant *assistant.Client
	log       *zap.SugaredLogger
}

func NewHandler(st *store.Store, ai *assistant.Client, log *zap.SugaredLogger) *Handler {
	return &Handler{store: st, assistant: ai, log: log}
}

// Browse - the public marketplace view. Supports search, provider role and
// region filters, pinned listings first.
func (h *Handler) Browse(c echo.Context) error {
	crit := Criteria{
		Search: c.QueryParam("search"),
		Role:   model.Role(c.QueryParam("role")),
		Region: c.QueryParam("region"),
	}
	ranked := Rank(h.store.Listings(), h.store.Users(), crit)
	return c.JSON(http.StatusOK, echo.Map{"listings": ranked})
}

// BrowseRegions - distinct confirmer regions for the region filter.
func (h *Handler) BrowseRegions(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"regions": Regions(h.store.Users())})
}

type listingRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	PriceType   string `json:"price_type"`
	ImageURL    string `json:"image_url,omitempty"`
}

func (r listingRequest) validate() echo.Map {
	fields := echo.Map{}
	if r.Title == "" {
		fields["title"] = "required"
	}
	if !model.ServiceCategory(r.Category).Valid() {
		fields["category"] = "unknown category"
	}
	if r.Description == "" {
		fields["description"] = "required"
	}
	if r.Price <= 0 {
		fields["price"] = "must be positive"
	}
	if pt := model.PriceType(r.PriceType); pt != model.PricePerOrder && pt != model.PriceFixed {
		fields["price_type"] = "must be per_order or fixed"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// MyListings - the caller's own service listings.
func (h *Handler) MyListings(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var out []model.ServiceListing
	for _, l := range h.store.Listings() {
		if l.UserID == uid {
			out = append(out, l)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"listings": out})
}

// CreateListing - providers publish a new service listing.
func (h *Handler) CreateListing(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if fields := req.validate(); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	listing := model.ServiceListing{
		ID:          uuid.New().String(),
		UserID:      uid,
		Title:       req.Title,
		Category:    model.ServiceCategory(req.Category),
		Description: req.Description,
		Price:       req.Price,
		PriceType:   model.PriceType(req.PriceType),
		ImageURL:    req.ImageURL,
	}
	if err := h.store.AddListing(listing); err != nil {
		if errors.Is(err, store.ErrNotPermitted) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only confirmers and freelancers can publish services"})
		}
		h.log.Errorw("create listing", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create listing"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"listing": listing})
}

// UpdateListing - owners edit their listing. Pinning is an admin concern and
// is not touchable here.
func (h *Handler) UpdateListing(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if fields := req.validate(); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	id := c.Param("id")
	var updated model.ServiceListing
	err := h.store.UpdateListing(id, func(l *model.ServiceListing) error {
		if l.UserID != uid {
			return store.ErrNotPermitted
		}
		l.Title = req.Title
		l.Category = model.ServiceCategory(req.Category)
		l.Description = req.Description
		l.Price = req.Price
		l.PriceType = model.PriceType(req.PriceType)
		l.ImageURL = req.ImageURL
		updated = *l
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		case errors.Is(err, store.ErrNotPermitted):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not own this listing"})
		}
		h.log.Errorw("update listing", "listing_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update listing"})
	}
	return c.JSON(http.StatusOK, echo.Map{"listing": updated})
}

// DeleteListing - owners remove their listing. Existing offers keep their
// service reference and degrade gracefully on read.
func (h *Handler) DeleteListing(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	id := c.Param("id")
	listing, err := h.store.ListingByID(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}
	if listing.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not own this listing"})
	}
	if err := h.store.DeleteListing(id); err != nil {
		h.log.Errorw("delete listing", "listing_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete listing"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "listing deleted"})
}

type suggestDescriptionRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

// SuggestDescription drafts a listing description with the text generation
// service. Failures never touch stored state.
func (h *Handler) SuggestDescription(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req suggestDescriptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"title": "required"}})
	}

	prompt := "اكتب وصفًا قصيرًا وجذابًا بالعربية لخدمة بعنوان \"" + req.Title + "\""
	if req.Category != "" {
		prompt += " ضمن فئة \"" + req.Category + "\""
	}
	prompt += " تُعرض في سوق خدمات للتجار."

	text, err := h.assistant.GenerateText(c.Request().Context(), prompt)
	if err != nil {
		if errors.Is(err, assistant.ErrUnavailable) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "عذرًا، فشل إنشاء المحتوى. يرجى المحاولة مرة أخرى."})
		}
		h.log.Errorw("suggest description", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not generate content"})
	}
	return c.JSON(http.StatusOK, echo.Map{"description": text})
}

// SiteServices - the catalog of services offered by the platform itself.
func (h *Handler) SiteServices(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"services": h.store.SiteServices()})
}

// RequestSiteService - a user requests a platform service. This opens a
// pending offer addressed to the platform admin and notifies them.
func (h *Handler) RequestSiteService(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	svc, err := h.store.SiteServiceByID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	admin, err := h.store.AdminUser()
	if err != nil {
		h.log.Errorw("request site service", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit request"})
	}
	requester, err := h.store.UserByID(uid)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	now := time.Now()
	offer := model.Offer{
		ID:         uuid.New().String(),
		FromUserID: uid,
		ToUserID:   admin.ID,
		Details:    "طلب خدمة من المنصة: " + svc.Title,
		Price:      svc.Price,
		Status:     model.OfferPending,
		CreatedAt:  now,
	}
	notif := model.Notification{
		ID:     uuid.New().String(),
		UserID: admin.ID,
		Text:   "طلب " + requester.Name + " خدمة \"" + svc.Title + "\".",
		Type:   model.NotifOffer,
		Link: model.NotificationLink{
			View:   "offers",
			Params: map[string]string{"offer_id": offer.ID},
		},
		CreatedAt: now,
	}
	if err := h.store.CreateOffer(offer, notif); err != nil {
		h.log.Errorw("request site service", "service_id", svc.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit request"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"offer": offer})
}
