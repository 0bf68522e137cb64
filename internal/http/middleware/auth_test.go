package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/streetpaws/tnvr-booking/internal/accounts"
	"github.com/streetpaws/tnvr-booking/internal/identity"
	"github.com/streetpaws/tnvr-booking/internal/session"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

func signedToken(t *testing.T, secret, userID, role string) string {
	t.Helper()
	token, err := identity.NewToken(secret, userID, role, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthMissingSecret(t *testing.T) {
	mw := Auth("")
	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthMissingHeader(t *testing.T) {
	mw := Auth("secret")
	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthWrongSecretRejected(t *testing.T) {
	mw := Auth("secret")
	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "wrong", "u1", accounts.RoleTrapper))
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthValidTokenSetsSessionUser(t *testing.T) {
	mw := Auth("secret")
	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "secret", "u1", accounts.RoleTrapper))
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := session.FromContext(r.Context())
		if !ok {
			t.Fatal("expected session user in context")
		}
		if user.ID != "u1" || user.Role != accounts.RoleTrapper {
			t.Fatalf("unexpected session user: %+v", user)
		}
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected next handler to run")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

type stubAccountReader struct {
	accounts map[string]*accounts.Account
}

func (s stubAccountReader) Get(ctx context.Context, id string) (*accounts.Account, error) {
	return s.accounts[id], nil
}

func adminGateRequest(t *testing.T, reader AccountReader, user *session.User) *httptest.ResponseRecorder {
	t.Helper()
	mw := RequireAdmin(reader, logging.NewWithWriter("error", io.Discard))
	req := httptest.NewRequest(http.MethodGet, "/admin/accounts", nil)
	if user != nil {
		req = req.WithContext(session.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)
	return rec
}

func TestRequireAdminAllowsActiveAdmin(t *testing.T) {
	reader := stubAccountReader{accounts: map[string]*accounts.Account{
		"admin-1": {ID: "admin-1", Role: accounts.RoleAdmin, IsActive: true},
	}}

	rec := adminGateRequest(t, reader, &session.User{ID: "admin-1", Role: accounts.RoleAdmin})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireAdminChecksCurrentRoleNotTokenRole(t *testing.T) {
	// The token still claims admin but the stored profile was demoted.
	reader := stubAccountReader{accounts: map[string]*accounts.Account{
		"u1": {ID: "u1", Role: accounts.RoleTrapper, IsActive: true},
	}}

	rec := adminGateRequest(t, reader, &session.User{ID: "u1", Role: accounts.RoleAdmin})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestRequireAdminRejectsDeactivatedAndUnknown(t *testing.T) {
	reader := stubAccountReader{accounts: map[string]*accounts.Account{
		"admin-1": {ID: "admin-1", Role: accounts.RoleAdmin, IsActive: false},
	}}

	if rec := adminGateRequest(t, reader, &session.User{ID: "admin-1"}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d for deactivated admin, got %d", http.StatusForbidden, rec.Code)
	}
	if rec := adminGateRequest(t, reader, &session.User{ID: "ghost"}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d for unknown caller, got %d", http.StatusForbidden, rec.Code)
	}
	if rec := adminGateRequest(t, reader, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d without session, got %d", http.StatusUnauthorized, rec.Code)
	}
}
