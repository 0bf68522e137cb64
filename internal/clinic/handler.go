package clinic

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streetpaws/tnvr-booking/internal/session"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// Handler serves the admin clinic-settings surface.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// GET /admin/clinic
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("load clinic settings failed", "error", err)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PUT /admin/clinic
//
// Address and timezone are read once at process startup by cmd/api, so a
// change here takes effect for booking day-boundary math only after the
// service restarts.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var settings Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	settings.UpdatedByUserID = user.ID
	if err := h.store.Set(r.Context(), &settings); err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("save clinic settings failed", "error", err)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
