package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streetpaws/tnvr-booking/internal/accounts"
	"github.com/streetpaws/tnvr-booking/internal/session"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// Handler serves the trapper-facing booking surface.
type Handler struct {
	svc    *BookingService
	logger *logging.Logger
}

func NewHandler(svc *BookingService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// GET /availability?date=YYYY-MM-DD[&exclude=id] or ?from=...&to=...
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		out, err := h.svc.AvailabilityRange(r.Context(), from, to)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"days": out})
		return
	}
	date := q.Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required", http.StatusBadRequest)
		return
	}
	av, err := h.svc.Availability(r.Context(), date, q.Get("exclude"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, av)
}

// POST /bookings
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	booked, err := h.svc.Book(r.Context(), user.ID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"appointments": booked})
}

// GET /appointments
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	out, err := h.svc.ListMine(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

// DELETE /appointments/{id}
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if err := h.svc.CancelOwn(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err)
}

func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrBookingRestricted):
		http.Error(w, "booking access is restricted for this account", http.StatusForbidden)
	case errors.Is(err, accounts.ErrPermissionDenied):
		http.Error(w, "permission denied", http.StatusForbidden)
	case errors.Is(err, ErrCapacityExceeded):
		http.Error(w, "not enough remaining capacity for the requested slots", http.StatusConflict)
	case errors.Is(err, ErrNotFound), errors.Is(err, accounts.ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	default:
		logger.Error("appointment request failed", "error", err)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
