package appointments

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streetpaws/tnvr-booking/internal/session"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// AdminHandler serves the admin appointment surface. Role checks happen in
// the admin middleware; handlers only need the caller for audit fields.
type AdminHandler struct {
	svc    *BookingService
	logger *logging.Logger
}

func NewAdminHandler(svc *BookingService, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{svc: svc, logger: logger}
}

// GET /admin/appointments?date=YYYY-MM-DD
func (h *AdminHandler) ListDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required", http.StatusBadRequest)
		return
	}
	out, err := h.svc.ListDay(r.Context(), date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

// POST /admin/appointments
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var req AdminCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	booked, err := h.svc.AdminCreate(r.Context(), user.ID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"appointments": booked})
}

// PUT /admin/appointments/{id}
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Edit(r.Context(), user.ID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// DELETE /admin/appointments/{id}
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if err := h.svc.Release(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// POST /admin/appointments/release-group
func (h *AdminHandler) ReleaseGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var req ReleaseGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	released, err := h.svc.ReleaseGroup(r.Context(), user.ID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"released": released})
}

func (h *AdminHandler) writeError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err)
}
