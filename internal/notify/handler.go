package notify

import (
	"encoding/json"
	"net/http"

	"github.com/streetpaws/tnvr-booking/internal/session"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// DeviceHandler registers and clears the caller's push tokens.
type DeviceHandler struct {
	tokens *TokenStore
	logger *logging.Logger
}

func NewDeviceHandler(tokens *TokenStore, logger *logging.Logger) *DeviceHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DeviceHandler{tokens: tokens, logger: logger}
}

// POST /devices
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	if err := h.tokens.Register(r.Context(), user.ID, body.Token); err != nil {
		h.logger.Error("register push token failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"status": "registered"})
}

// DELETE /devices
func (h *DeviceHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var body struct {
		Token string `json:"token"`
	}
	// Empty body clears every token for the caller.
	_ = json.NewDecoder(r.Body).Decode(&body)
	if err := h.tokens.Clear(r.Context(), user.ID, body.Token); err != nil {
		h.logger.Error("clear push token failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal error, try again later", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}
