package middleware

import (
	"context"
	"net/http"

	"github.com/streetpaws/tnvr-booking/internal/accounts"
	"github.com/streetpaws/tnvr-booking/internal/session"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// AccountReader loads the caller's current profile. Satisfied by
// accounts.Repository.
type AccountReader interface {
	Get(ctx context.Context, id string) (*accounts.Account, error)
}

// RequireAdmin gates admin routes on a fresh profile read per request, so a
// role change or deactivation takes effect immediately rather than at token
// expiry.
func RequireAdmin(reader AccountReader, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := session.FromContext(r.Context())
			if !ok {
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			account, err := reader.Get(r.Context(), user.ID)
			if err != nil {
				logger.Error("admin gate profile read failed", "error", err, "user_id", user.ID)
				http.Error(w, "internal error, try again later", http.StatusInternalServerError)
				return
			}
			if account == nil || !account.IsActive || !account.IsAdmin() {
				http.Error(w, "permission denied", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
