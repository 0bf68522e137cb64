package capacity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streetpaws/tnvr-booking/internal/session"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// Handler serves the admin capacity surface.
type Handler struct {
	repo          *Repository
	clinicAddress string
	logger        *logging.Logger
}

func NewHandler(repo *Repository, clinicAddress string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, clinicAddress: clinicAddress, logger: logger}
}

// GET /admin/capacity?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		http.Error(w, "from and to query parameters are required", http.StatusBadRequest)
		return
	}
	out, err := h.repo.Range(r.Context(), h.clinicAddress, from, to)
	if err != nil {
		h.logger.Error("capacity range failed", "error", err)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"capacities": out})
}

// PUT /admin/capacity/{day}
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	rec.ClinicAddress = h.clinicAddress
	rec.Day = chi.URLParam(r, "day")
	if user, ok := session.FromContext(r.Context()); ok {
		rec.UpdatedByUserID = user.ID
	}

	if err := h.repo.Upsert(r.Context(), &rec); err != nil {
		if errors.Is(err, ErrInvalidDay) || errors.Is(err, ErrInvalidCapacity) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("capacity upsert failed", "error", err, "day", rec.Day)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// DELETE /admin/capacity/{day}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")
	if err := h.repo.Delete(r.Context(), h.clinicAddress, day); err != nil {
		h.logger.Error("capacity delete failed", "error", err, "day", day)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}
