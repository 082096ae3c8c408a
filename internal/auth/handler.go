package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/httpx"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/store"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/validation"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 16 << 10

// Accounts is the persistence the account endpoints need.
type Accounts interface {
	CreateUser(ctx context.Context, email, passwordHash, displayName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	Roles(ctx context.Context, userID string) ([]models.Role, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID, displayName string) (*models.Profile, error)
}

// PasswordChecker flags passwords seen in breaches.
type PasswordChecker interface {
	Breached(ctx context.Context, password string) bool
}

type Handler struct {
	accounts Accounts
	tokens   *Tokens
	breach   PasswordChecker
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewHandler(accounts Accounts, tokens *Tokens, breach PasswordChecker, logger *logrus.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		tokens:   tokens,
		breach:   breach,
		validate: validation.New(),
		logger:   logger,
	}
}

const maxPasswordBytes = 72

type registerRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type SessionResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *models.User  `json:"user"`
	Roles     []models.Role `json:"roles"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondWithDetails(w, http.StatusBadRequest, "Validation failed", validation.Fields(err))
		return
	}
	// bcrypt hashes at most 72 bytes; the max tag above counts characters.
	if len(req.Password) > maxPasswordBytes {
		httpx.RespondWithDetails(w, http.StatusBadRequest, "Validation failed", validation.Errors{
			"password": fmt.Sprintf("must be at most %d bytes", maxPasswordBytes),
		})
		return
	}

	if h.breach != nil && h.breach.Breached(r.Context(), req.Password) {
		httpx.RespondWithDetails(w, http.StatusBadRequest, "Validation failed", validation.Errors{
			"password": "appears in a known data breach, choose another",
		})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), req.Email, hash, req.DisplayName)
	if errors.Is(err, store.ErrEmailTaken) {
		httpx.RespondWithError(w, http.StatusConflict, "An account with this email already exists")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	h.logger.WithField("user_id", user.ID).Info("Account created")
	h.respondWithSession(w, http.StatusCreated, user, []models.Role{models.RoleCustomer})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondWithDetails(w, http.StatusBadRequest, "Validation failed", validation.Fields(err))
		return
	}

	user, err := h.accounts.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to load user")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}
	if user == nil || !CheckPassword(user.PasswordHash, req.Password) {
		httpx.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	roles, err := h.accounts.Roles(r.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load roles")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	h.respondWithSession(w, http.StatusOK, user, roles)
}

func (h *Handler) respondWithSession(w http.ResponseWriter, code int, user *models.User, roles []models.Role) {
	token, expires, err := h.tokens.Issue(user.ID, roles)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue token")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}
	httpx.RespondWithJSON(w, code, SessionResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      user,
		Roles:     roles,
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := UserFromContext(r.Context())

	profile, err := h.accounts.GetProfile(r.Context(), claims.UserID())
	if errors.Is(err, store.ErrNotFound) {
		httpx.RespondWithError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load profile")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	httpx.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := UserFromContext(r.Context())

	var req profileRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondWithDetails(w, http.StatusBadRequest, "Validation failed", validation.Fields(err))
		return
	}

	profile, err := h.accounts.UpdateProfile(r.Context(), claims.UserID(), req.DisplayName)
	if err != nil {
		h.logger.WithError(err).Error("Failed to update profile")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	httpx.RespondWithJSON(w, http.StatusOK, profile)
}
