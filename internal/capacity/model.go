// Package capacity stores the per-clinic, per-day bookable slot maxima.
package capacity

import (
	"errors"
	"time"
)

// Validation errors for caller-supplied capacity records.
var (
	ErrInvalidDay      = errors.New("capacity: day must be formatted YYYY-MM-DD")
	ErrInvalidCapacity = errors.New("capacity: capacities must be non-negative")
)

// DayFormat is the ISO calendar-date key format for capacity records.
const DayFormat = "2006-01-02"

// Record is the admin-configured slot maximum for one clinic day. Absence of
// a record for a date means zero capacity. Writes are last-write-wins.
type Record struct {
	ClinicAddress   string    `json:"clinic_address"`
	Day             string    `json:"day"`
	TNVRCapacity    int       `json:"tnvr_capacity"`
	FosterCapacity  int       `json:"foster_capacity"`
	UpdatedAt       time.Time `json:"updated_at"`
	UpdatedByUserID string    `json:"updated_by_user_id,omitempty"`
}

func (r *Record) validate() error {
	if _, err := time.Parse(DayFormat, r.Day); err != nil {
		return ErrInvalidDay
	}
	if r.TNVRCapacity < 0 || r.FosterCapacity < 0 {
		return ErrInvalidCapacity
	}
	return nil
}
