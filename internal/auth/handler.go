package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/walidbsn/tasdiq/internal/model"
	"github.com/walidbsn/tasdiq/internal/store"
)

const tokenTTL = 72 * time.Hour

type Handler struct {
	store  *store.Store
	log    *zap.SugaredLogger
	secret []byte
}

func NewHandler(st *store.Store, log *zap.SugaredLogger, secret []byte) *Handler {
	return &Handler{store: st, log: log, secret: secret}
}

func (h *Handler) issueToken(userID string, role model.Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Region   string `json:"region,omitempty"`
}

// Signup registers a merchant, confirmer or freelancer account. Admin
// accounts cannot be self-registered.
func (h *Handler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := echo.Map{}
	if req.Name == "" {
		fields["name"] = "required"
	}
	if req.Email == "" {
		fields["email"] = "required"
	}
	if len(req.Password) < 6 {
		fields["password"] = "must be at least 6 characters"
	}
	role := model.Role(req.Role)
	if role != model.RoleMerchant && role != model.RoleConfirmer && role != model.RoleFreelancer {
		fields["role"] = "must be merchant, confirmer or freelancer"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Errorw("hash password", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create account"})
	}

	user := model.User{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
		Role:     role,
		Status:   model.UserActive,
	}
	switch role {
	case model.RoleConfirmer:
		user.Confirmer = &model.ConfirmerProfile{Region: req.Region}
	case model.RoleFreelancer:
		user.Freelancer = &model.FreelancerProfile{}
	}

	if err := h.store.AddUser(user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		h.log.Errorw("add user", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create account"})
	}

	token, err := h.issueToken(user.ID, user.Role)
	if err != nil {
		h.log.Errorw("sign token", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token. Suspended accounts are
// refused even with valid credentials.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	user, err := h.store.UserByEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if user.Status == model.UserSuspended {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account suspended"})
	}

	token, err := h.issueToken(user.ID, user.Role)
	if err != nil {
		h.log.Errorw("sign token", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

// Me returns the authenticated user's own record.
func (h *Handler) Me(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	user, err := h.store.UserByID(uid)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}
