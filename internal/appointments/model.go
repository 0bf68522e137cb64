// Package appointments holds the slot-level appointment records, the
// availability calculator, and the transactional booking flow.
package appointments

import (
	"errors"
	"fmt"
	"time"
)

// Service types a slot can be booked for.
const (
	ServiceTNVR   = "TNVR"
	ServiceFoster = "Foster"
)

// Appointment statuses. Canceled is never persisted: releasing an appointment
// hard-deletes the record, so the value only exists transiently in clients.
const (
	StatusUpcoming  = "Upcoming"
	StatusCompleted = "Completed"
	StatusCanceled  = "Canceled"
)

var (
	ErrNotFound          = errors.New("appointments: appointment not found")
	ErrInvalidRequest    = errors.New("appointments: invalid request")
	ErrCapacityExceeded  = errors.New("appointments: requested slots exceed remaining capacity")
	ErrBookingRestricted = errors.New("appointments: booking access is restricted for this account")
)

// Appointment is one booked slot. A trapper booking three TNVR slots produces
// three independent records. Trapper identity fields are a snapshot taken at
// booking/edit time, not a live join, so historical records stay stable when
// the profile later changes.
type Appointment struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	TrapperFirstName string    `json:"trapper_first_name"`
	TrapperLastName  string    `json:"trapper_last_name"`
	TrapperPhone     string    `json:"trapper_phone"`
	TrapperNumber    string    `json:"trapper_number"`
	ServiceType      string    `json:"service_type"`
	ClinicAddress    string    `json:"clinic_address"`
	AppointmentTime  time.Time `json:"appointment_time"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes,omitempty"`

	CreatedAt            time.Time `json:"created_at"`
	CreatedByUserID      string    `json:"created_by_user_id,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
	LastModifiedByUserID string    `json:"last_modified_by_user_id,omitempty"`
}

// DayFormat is the ISO date layout used for clinic day keys.
const DayFormat = "2006-01-02"

// ValidServiceType reports whether s is a bookable service type.
func ValidServiceType(s string) bool {
	return s == ServiceTNVR || s == ServiceFoster
}

// DayWindow returns the clinic-local [midnight, next midnight) instants for an
// ISO date. Day boundaries always use the clinic's fixed timezone so a booking
// lands on the same calendar day on every device. The end is the next calendar
// midnight, not start+24h: DST-transition days are 23 or 25 hours long.
func DayWindow(date string, loc *time.Location) (start, end time.Time, err error) {
	day, err := time.ParseInLocation(DayFormat, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date must be formatted YYYY-MM-DD", ErrInvalidRequest)
	}
	return day, day.AddDate(0, 0, 1), nil
}
