package identity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// PostgresProvider stores credentials in the auth_credentials table with
// bcrypt password hashes.
type PostgresProvider struct {
	db *sql.DB
}

func NewPostgresProvider(db *sql.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

func (p *PostgresProvider) CreateUser(ctx context.Context, userID, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("identity: hash password: %w", err)
	}
	now := time.Now().UTC()
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO auth_credentials (user_id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)`,
		userID, email, string(hash), now)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("identity: create user: %w", err)
	}
	return nil
}

// DeleteUser removes the credential. Deleting an absent credential succeeds so
// a partially failed deprovision can be retried.
func (p *PostgresProvider) DeleteUser(ctx context.Context, userID string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM auth_credentials WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("identity: delete user: %w", err)
	}
	return nil
}

func (p *PostgresProvider) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("identity: hash password: %w", err)
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE auth_credentials SET password_hash = $2, updated_at = $3 WHERE user_id = $1`,
		userID, string(hash), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("identity: update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresProvider) Verify(ctx context.Context, email, password string) (string, error) {
	var userID, hash string
	err := p.db.QueryRowContext(ctx, `
		SELECT user_id, password_hash FROM auth_credentials WHERE email = $1`, email).
		Scan(&userID, &hash)
	if err == sql.ErrNoRows {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("identity: load credential: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return userID, nil
}
