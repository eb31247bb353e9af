package campaigns

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

type createCampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	AdLink      string `json:"ad_link,omitempty"`
	PostLink    string `json:"post_link,omitempty"`
}

// Create submits a new ad campaign. Every campaign starts in pending_review
// and waits for an admin decision.
func (h *Handler) Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createCampaignRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	fields := echo.Map{}
	if req.Name == "" {
		fields["name"] = "required"
	}
	if req.Description == "" {
		fields["description"] = "required"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	campaign := model.AdCampaign{
		ID:          uuid.New().String(),
		UserID:      uid,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		AdLink:      req.AdLink,
		PostLink:    req.PostLink,
		Status:      model.CampaignPendingReview,
		CreatedAt:   time.Now(),
	}
	if err := h.store.AddCampaign(campaign); err != nil {
		h.log.Errorw("create campaign", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create campaign"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"campaign": campaign})
}

// List - the caller's campaigns, newest first.
func (h *Handler) List(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"campaigns": h.store.CampaignsFor(uid)})
}

type generateCopyRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

// GenerateCopy drafts a campaign name and description with the text
// generation service. A failed call never changes stored state; the error
// message is localized for the campaign form.
func (h *Handler) GenerateCopy(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req generateCopyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Prompt == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"prompt": "required"}})
	}

	cc, err := h.assistant.GenerateCampaignCopy(c.Request().Context(), req.Prompt, req.ImageBase64, req.MimeType)
	if err != nil {
		if errors.Is(err, assistant.ErrUnavailable) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "عذرًا، فشل إنشاء المحتوى. يرجى المحاولة مرة أخرى."})
		}
		h.log.Errorw("generate campaign copy", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not generate content"})
	}
	return c.JSON(http.StatusOK, echo.Map{"name": cc.Name, "description": cc.Description})
}
