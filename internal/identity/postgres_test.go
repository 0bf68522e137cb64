package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func newProviderForTest(t *testing.T) (*PostgresProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresProvider(db), mock
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	provider, mock := newProviderForTest(t)

	mock.ExpectExec("INSERT INTO auth_credentials").
		WithArgs("u1", "dana@streetpaws.org", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	err := provider.CreateUser(context.Background(), "u1", "dana@streetpaws.org", "tc1234")
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestVerifyMatchesBcryptHash(t *testing.T) {
	provider, mock := newProviderForTest(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("tc1234"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	mock.ExpectQuery("SELECT user_id, password_hash FROM auth_credentials").
		WithArgs("dana@streetpaws.org").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "password_hash"}).AddRow("u1", string(hash)))

	userID, err := provider.Verify(context.Background(), "dana@streetpaws.org", "tc1234")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("unexpected user id %q", userID)
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	provider, mock := newProviderForTest(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("tc1234"), bcrypt.MinCost)
	mock.ExpectQuery("SELECT user_id, password_hash FROM auth_credentials").
		WithArgs("dana@streetpaws.org").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "password_hash"}).AddRow("u1", string(hash)))

	if _, err := provider.Verify(context.Background(), "dana@streetpaws.org", "tc9999"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyUnknownEmail(t *testing.T) {
	provider, mock := newProviderForTest(t)

	mock.ExpectQuery("SELECT user_id, password_hash FROM auth_credentials").
		WithArgs("ghost@streetpaws.org").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "password_hash"}))

	if _, err := provider.Verify(context.Background(), "ghost@streetpaws.org", "tc1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdatePasswordUnknownUser(t *testing.T) {
	provider, mock := newProviderForTest(t)

	mock.ExpectExec("UPDATE auth_credentials").
		WithArgs("ghost", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := provider.UpdatePassword(context.Background(), "ghost", "tc5678"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUserIsIdempotent(t *testing.T) {
	provider, mock := newProviderForTest(t)

	mock.ExpectExec("DELETE FROM auth_credentials").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := provider.DeleteUser(context.Background(), "u1"); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken("secret", "u1", "trapper", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
}
