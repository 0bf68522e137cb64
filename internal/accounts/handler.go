package accounts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streetpaws/tnvr-booking/internal/session"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// Handler serves the admin account surface plus the caller's own profile.
type Handler struct {
	svc    *Service
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(svc *Service, repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, repo: repo, logger: logger}
}

// GET /me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	a, err := h.repo.Get(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if a == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GET /admin/accounts
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

// GET /admin/accounts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if a == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// POST /admin/accounts
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var params CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	a, err := h.svc.Create(r.Context(), user.ID, params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": a.ID})
}

// PUT /admin/accounts/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var a Account
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	a.ID = chi.URLParam(r, "id")
	if err := h.svc.Update(r.Context(), user.ID, &a); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DELETE /admin/accounts/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if err := h.svc.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /admin/accounts/{id}/code
func (h *Handler) ChangeCode(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.svc.ChangeCode(r.Context(), user.ID, chi.URLParam(r, "id"), body.Code); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "code changed"})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		http.Error(w, "permission denied", http.StatusForbidden)
	case errors.Is(err, ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "account not found", http.StatusNotFound)
	case errors.Is(err, ErrEmailExists):
		http.Error(w, "email already registered", http.StatusConflict)
	default:
		h.logger.Error("account request failed", "error", err)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
