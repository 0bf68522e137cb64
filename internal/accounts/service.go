package accounts

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/streetpaws/tnvr-booking/internal/identity"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

var codePattern = regexp.MustCompile(`^\d{4}$`)

// Service provisions accounts: every privileged operation spans the credential
// store and the profile store, so each method sequences the two writes and
// compensates when the second leg fails.
type Service struct {
	repo     *Repository
	provider identity.Provider
	prefix   string
	logger   *logging.Logger
}

func NewService(repo *Repository, provider identity.Provider, credentialPrefix string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		provider: provider,
		prefix:   credentialPrefix,
		logger:   logger,
	}
}

// CreateParams are the fields accepted when an admin provisions an account.
type CreateParams struct {
	Email          string   `json:"email"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	Role           string   `json:"role"`
	TrapperNumber  string   `json:"trapper_number"`
	TrapperRegions []string `json:"trapper_regions"`
	Equipment      int      `json:"equipment"`
	Code           string   `json:"code"`
}

func (p *CreateParams) validate() error {
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return fmt.Errorf("%w: valid email required", ErrInvalidArgument)
	}
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("%w: first and last name required", ErrInvalidArgument)
	}
	if p.Role != RoleTrapper && p.Role != RoleAdmin {
		return fmt.Errorf("%w: role must be %q or %q", ErrInvalidArgument, RoleTrapper, RoleAdmin)
	}
	if p.Role == RoleTrapper {
		if strings.TrimSpace(p.TrapperNumber) == "" {
			return fmt.Errorf("%w: trapper number required", ErrInvalidArgument)
		}
	}
	if !codePattern.MatchString(p.Code) {
		return fmt.Errorf("%w: code must be exactly 4 digits", ErrInvalidArgument)
	}
	return nil
}

// Password derives the login credential: fixed two-letter prefix + 4-digit code.
func (s *Service) Password(code string) string {
	return s.prefix + code
}

// requireAdmin loads the caller's own profile and checks the role field. The
// read happens on every privileged call; nothing is cached across calls.
func (s *Service) requireAdmin(ctx context.Context, callerID string) (*Account, error) {
	caller, err := s.repo.Get(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("accounts: load caller profile: %w", err)
	}
	if !caller.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return caller, nil
}

// Create provisions a new account: credential first, then profile. If the
// profile write fails the orphaned credential is deleted so the two stores
// cannot diverge.
func (s *Service) Create(ctx context.Context, callerID string, params CreateParams) (*Account, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	a := &Account{
		ID:             uuid.NewString(),
		Email:          params.Email,
		FirstName:      strings.TrimSpace(params.FirstName),
		LastName:       strings.TrimSpace(params.LastName),
		Phone:          strings.TrimSpace(params.Phone),
		Address:        strings.TrimSpace(params.Address),
		Role:           params.Role,
		TrapperNumber:  strings.TrimSpace(params.TrapperNumber),
		TrapperRegions: params.TrapperRegions,
		Equipment:      params.Equipment,
		Code:           params.Code,
		IsActive:       true,
	}

	if err := s.provider.CreateUser(ctx, a.ID, a.Email, s.Password(a.Code)); err != nil {
		if err == identity.ErrEmailExists {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("accounts: create credential: %w", err)
	}

	if err := s.repo.Insert(ctx, a); err != nil {
		// Roll back the credential so the identity store does not carry an
		// orphan the profile store knows nothing about.
		if delErr := s.provider.DeleteUser(ctx, a.ID); delErr != nil {
			s.logger.Error("orphaned credential after profile insert failure",
				"user_id", a.ID, "insert_error", err, "delete_error", delErr)
		}
		if err == ErrEmailExists {
			return nil, err
		}
		return nil, fmt.Errorf("accounts: create profile: %w", err)
	}

	return a, nil
}

// Signup is the self-service path: a minimal trapper profile with empty name
// fields and a caller-chosen password. The same compensation applies.
func (s *Service) Signup(ctx context.Context, email, password string) (*Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", ErrInvalidArgument)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidArgument)
	}

	a := &Account{
		ID:       uuid.NewString(),
		Email:    email,
		Role:     RoleTrapper,
		IsActive: true,
	}

	if err := s.provider.CreateUser(ctx, a.ID, a.Email, password); err != nil {
		if err == identity.ErrEmailExists {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("accounts: signup credential: %w", err)
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		if delErr := s.provider.DeleteUser(ctx, a.ID); delErr != nil {
			s.logger.Error("orphaned credential after signup profile failure",
				"user_id", a.ID, "insert_error", err, "delete_error", delErr)
		}
		if err == ErrEmailExists {
			return nil, err
		}
		return nil, fmt.Errorf("accounts: signup profile: %w", err)
	}
	return a, nil
}

// Delete removes the credential and then the profile. Each leg tolerates an
// already-deleted row, so a run that failed between the two can be retried.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("accounts: load profile: %w", err)
	}
	if existing == nil {
		return ErrNotFound
	}
	if err := s.provider.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("accounts: delete credential: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("accounts: delete profile: %w", err)
	}
	return nil
}

// ChangeCode rotates a trapper's 4-digit code: the derived password in the
// credential store and the stored code must change together.
func (s *Service) ChangeCode(ctx context.Context, callerID, id, newCode string) error {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if !codePattern.MatchString(newCode) {
		return fmt.Errorf("%w: code must be exactly 4 digits", ErrInvalidArgument)
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("accounts: load profile: %w", err)
	}
	if existing == nil {
		return ErrNotFound
	}
	if err := s.provider.UpdatePassword(ctx, id, s.Password(newCode)); err != nil {
		if err == identity.ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("accounts: update credential: %w", err)
	}
	if err := s.repo.UpdateCode(ctx, id, newCode); err != nil {
		// Credential already rotated; retrying the whole operation converges.
		return fmt.Errorf("accounts: update profile code: %w", err)
	}
	return nil
}

// Update applies an admin profile edit. Last write wins; there is no version
// check on account rows.
func (s *Service) Update(ctx context.Context, callerID string, a *Account) error {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if a.ID == "" {
		return fmt.Errorf("%w: account id required", ErrInvalidArgument)
	}
	if a.Code != "" && !codePattern.MatchString(a.Code) {
		return fmt.Errorf("%w: code must be exactly 4 digits", ErrInvalidArgument)
	}
	return s.repo.Update(ctx, a)
}
