// Package accounts holds trapper/admin account profiles and provisioning.
package accounts

import (
	"errors"
	"time"
)

// Roles an account can hold.
const (
	RoleTrapper = "trapper"
	RoleAdmin   = "admin"
)

// Sentinel errors surfaced by the accounts package. Handlers map these to
// HTTP statuses with errors.Is.
var (
	ErrNotFound         = errors.New("accounts: account not found")
	ErrEmailExists      = errors.New("accounts: email already registered")
	ErrPermissionDenied = errors.New("accounts: caller is not an admin")
	ErrInvalidArgument  = errors.New("accounts: invalid argument")
)

// PerformanceMetrics are informational counters kept on each trapper profile.
// The booking flow increments TotalAppointmentsBooked; everything else is
// admin-edited.
type PerformanceMetrics struct {
	TotalAppointmentsBooked      int `json:"total_appointments_booked"`
	TotalAppointmentsCompleted   int `json:"total_appointments_completed"`
	TotalAppointmentsOverbooked  int `json:"total_appointments_overbooked"`
	TotalAppointmentsUnderbooked int `json:"total_appointments_underbooked"`
	CommitmentScore              int `json:"commitment_score"`
	Strikes                      int `json:"strikes"`
}

// Account is the profile document mirrored against an auth credential.
type Account struct {
	ID                      string             `json:"id"`
	Email                   string             `json:"email"`
	FirstName               string             `json:"first_name"`
	LastName                string             `json:"last_name"`
	Phone                   string             `json:"phone"`
	Address                 string             `json:"address"`
	Role                    string             `json:"role"`
	TrapperNumber           string             `json:"trapper_number"`
	TrapperRegions          []string           `json:"trapper_regions"`
	Equipment               int                `json:"equipment"`
	Code                    string             `json:"code"`
	IsActive                bool               `json:"is_active"`
	BookingAccessRestricted bool               `json:"booking_access_restricted"`
	RestrictionReason       string             `json:"restriction_reason,omitempty"`
	Metrics                 PerformanceMetrics `json:"performance_metrics"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`
}

// IsAdmin reports whether the account carries the admin role.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// HasBookingIdentity reports whether the profile fields required for the
// trapper snapshot on an appointment are populated.
func (a *Account) HasBookingIdentity() bool {
	return a != nil && a.FirstName != "" && a.LastName != "" && a.Phone != ""
}
