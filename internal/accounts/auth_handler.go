package accounts

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/streetpaws/tnvr-booking/internal/identity"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// AuthHandler serves login and self-service signup.
type AuthHandler struct {
	svc      *Service
	repo     *Repository
	provider identity.Provider
	secret   string
	ttl      time.Duration
	logger   *logging.Logger
}

func NewAuthHandler(svc *Service, repo *Repository, provider identity.Provider, jwtSecret string, tokenTTL time.Duration, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{
		svc:      svc,
		repo:     repo,
		provider: provider,
		secret:   jwtSecret,
		ttl:      tokenTTL,
		logger:   logger,
	}
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID, err := h.provider.Verify(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			http.Error(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		h.logger.Error("login failed", "error", err)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}

	account, err := h.repo.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("login profile load failed", "error", err, "user_id", userID)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}
	if account == nil || !account.IsActive {
		http.Error(w, "account is not active", http.StatusForbidden)
		return
	}

	token, err := identity.NewToken(h.secret, account.ID, account.Role, h.ttl)
	if err != nil {
		h.logger.Error("token issue failed", "error", err, "user_id", userID)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"account": account,
	})
}

// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	account, err := h.svc.Signup(r.Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrEmailExists):
			http.Error(w, "email already registered", http.StatusConflict)
		default:
			h.logger.Error("signup failed", "error", err)
			http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		}
		return
	}

	token, err := identity.NewToken(h.secret, account.ID, account.Role, h.ttl)
	if err != nil {
		h.logger.Error("token issue failed", "error", err, "user_id", account.ID)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":   token,
		"account": account,
	})
}
