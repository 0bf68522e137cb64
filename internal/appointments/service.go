package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/streetpaws/tnvr-booking/internal/accounts"
	"github.com/streetpaws/tnvr-booking/internal/observability/metrics"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// profileSource reads trapper profiles for snapshots and restriction checks.
// Satisfied by accounts.Repository.
type profileSource interface {
	Get(ctx context.Context, id string) (*accounts.Account, error)
}

// Notifier delivers best-effort booking confirmations. Failures never affect
// the booking outcome.
type Notifier interface {
	BookingConfirmed(ctx context.Context, account *accounts.Account, booked []Appointment)
}

// BookingService owns the booking, edit, and release flows.
type BookingService struct {
	repo     *Repository
	calc     *Calculator
	profiles profileSource
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	clinic   string
	location *time.Location
}

type BookingServiceParams struct {
	Repo          *Repository
	Calc          *Calculator
	Profiles      profileSource
	Notifier      Notifier // optional
	Metrics       *metrics.BookingMetrics
	Logger        *logging.Logger
	ClinicAddress string
	Location      *time.Location
}

func NewBookingService(p BookingServiceParams) *BookingService {
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.Logger == nil {
		p.Logger = logging.Default()
	}
	return &BookingService{
		repo:     p.Repo,
		calc:     p.Calc,
		profiles: p.Profiles,
		notifier: p.Notifier,
		metrics:  p.Metrics,
		logger:   p.Logger,
		clinic:   p.ClinicAddress,
		location: p.Location,
	}
}

// BookRequest is a trapper's self-service booking for one clinic day.
type BookRequest struct {
	Date        string `json:"date"`
	TNVRSlots   int    `json:"tnvr_slots"`
	FosterSlots int    `json:"foster_slots"`
	Notes       string `json:"notes"`
}

func (r BookRequest) validate() error {
	if r.TNVRSlots < 0 || r.FosterSlots < 0 {
		return fmt.Errorf("%w: slot counts must be non-negative", ErrInvalidRequest)
	}
	if r.TNVRSlots == 0 && r.FosterSlots == 0 {
		return fmt.Errorf("%w: at least one slot is required", ErrInvalidRequest)
	}
	return nil
}

// Book creates req.TNVRSlots + req.FosterSlots appointments for the caller in
// one transaction, enforcing remaining capacity under the day's row lock.
func (s *BookingService) Book(ctx context.Context, callerID string, req BookRequest) ([]Appointment, error) {
	if err := req.validate(); err != nil {
		s.metrics.ObserveRejected()
		return nil, err
	}
	start, end, err := DayWindow(req.Date, s.location)
	if err != nil {
		s.metrics.ObserveRejected()
		return nil, err
	}

	caller, err := s.profiles.Get(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("appointments: load caller profile: %w", err)
	}
	if caller == nil || !caller.IsActive {
		s.metrics.ObserveRejected()
		return nil, accounts.ErrPermissionDenied
	}
	if caller.BookingAccessRestricted {
		s.metrics.ObserveRejected()
		return nil, ErrBookingRestricted
	}
	if !caller.HasBookingIdentity() {
		s.metrics.ObserveRejected()
		return nil, fmt.Errorf("%w: complete your profile (name and phone) before booking", ErrInvalidRequest)
	}

	rows := s.buildRows(caller, callerID, start, req)
	began := time.Now()
	err = s.repo.Book(ctx, BookParams{
		ClinicAddress:   s.clinic,
		Day:             req.Date,
		DayStart:        start,
		DayEnd:          end,
		Appointments:    rows,
		EnforceCapacity: true,
		MetricUserID:    callerID,
	})
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			s.metrics.ObserveConflict()
			s.logger.Info("booking rejected, capacity exhausted",
				"user_id", callerID, "date", req.Date,
				"tnvr_slots", req.TNVRSlots, "foster_slots", req.FosterSlots)
		}
		return nil, err
	}
	s.metrics.ObserveBooked(len(rows), time.Since(began).Seconds())
	s.logger.Info("booking confirmed",
		"user_id", callerID, "date", req.Date, "slots", len(rows))

	if s.notifier != nil {
		// Confirmation must not block or fail the booking.
		go s.notifier.BookingConfirmed(context.WithoutCancel(ctx), caller, rows)
	}
	return rows, nil
}

func (s *BookingService) buildRows(acct *accounts.Account, createdBy string, dayStart time.Time, req BookRequest) []Appointment {
	now := time.Now().UTC()
	rows := make([]Appointment, 0, req.TNVRSlots+req.FosterSlots)
	add := func(serviceType string, n int) {
		for i := 0; i < n; i++ {
			rows = append(rows, Appointment{
				ID:               uuid.NewString(),
				UserID:           acct.ID,
				TrapperFirstName: acct.FirstName,
				TrapperLastName:  acct.LastName,
				TrapperPhone:     acct.Phone,
				TrapperNumber:    acct.TrapperNumber,
				ServiceType:      serviceType,
				ClinicAddress:    s.clinic,
				AppointmentTime:  dayStart,
				Status:           StatusUpcoming,
				Notes:            req.Notes,
				CreatedAt:        now,
				CreatedByUserID:  createdBy,
				UpdatedAt:        now,
			})
		}
	}
	add(ServiceTNVR, req.TNVRSlots)
	add(ServiceFoster, req.FosterSlots)
	return rows
}

// AdminCreateRequest books slots on behalf of a trapper with no capacity
// validation.
type AdminCreateRequest struct {
	UserID      string `json:"user_id"`
	Date        string `json:"date"`
	TNVRSlots   int    `json:"tnvr_slots"`
	FosterSlots int    `json:"foster_slots"`
	Notes       string `json:"notes"`
}

func (s *BookingService) AdminCreate(ctx context.Context, adminID string, req AdminCreateRequest) ([]Appointment, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if err := (BookRequest{Date: req.Date, TNVRSlots: req.TNVRSlots, FosterSlots: req.FosterSlots}).validate(); err != nil {
		return nil, err
	}
	start, end, err := DayWindow(req.Date, s.location)
	if err != nil {
		return nil, err
	}

	target, err := s.profiles.Get(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("appointments: load target profile: %w", err)
	}
	if target == nil {
		return nil, accounts.ErrNotFound
	}

	rows := s.buildRows(target, adminID, start, BookRequest{
		Date: req.Date, TNVRSlots: req.TNVRSlots, FosterSlots: req.FosterSlots, Notes: req.Notes,
	})
	err = s.repo.Book(ctx, BookParams{
		ClinicAddress: s.clinic,
		Day:           req.Date,
		DayStart:      start,
		DayEnd:        end,
		Appointments:  rows,
		MetricUserID:  req.UserID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin booking created",
		"admin_id", adminID, "user_id", req.UserID, "date", req.Date, "slots", len(rows))
	return rows, nil
}

// EditRequest mutates one appointment. Exactly one slot per edit. Notes is a
// pointer so an omitted field keeps the stored notes while an explicit empty
// string clears them.
type EditRequest struct {
	ServiceType string  `json:"service_type"`
	Status      string  `json:"status"`
	Notes       *string `json:"notes"`
}

func (s *BookingService) Edit(ctx context.Context, adminID, id string, req EditRequest) (*Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, ErrNotFound
	}

	if req.ServiceType != "" {
		if !ValidServiceType(req.ServiceType) {
			return nil, fmt.Errorf("%w: unknown service type %q", ErrInvalidRequest, req.ServiceType)
		}
		appt.ServiceType = req.ServiceType
	}
	if req.Status != "" {
		if req.Status != StatusUpcoming && req.Status != StatusCompleted {
			return nil, fmt.Errorf("%w: status must be %s or %s", ErrInvalidRequest, StatusUpcoming, StatusCompleted)
		}
		appt.Status = req.Status
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}
	appt.LastModifiedByUserID = adminID

	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Release hard-deletes one appointment.
func (s *BookingService) Release(ctx context.Context, adminID, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.ObserveReleased(1)
	s.logger.Info("appointment released", "admin_id", adminID, "appointment_id", id)
	return nil
}

// CancelOwn lets a trapper release one of their own appointments.
func (s *BookingService) CancelOwn(ctx context.Context, callerID, id string) error {
	if err := s.repo.DeleteOwn(ctx, id, callerID); err != nil {
		return err
	}
	s.metrics.ObserveReleased(1)
	s.logger.Info("appointment canceled", "user_id", callerID, "appointment_id", id)
	return nil
}

// ReleaseGroupRequest describes an admin bulk release for one clinic day.
type ReleaseGroupRequest struct {
	Date        string `json:"date"`
	ServiceType string `json:"service_type"`
	UserID      string `json:"user_id"`
}

func (s *BookingService) ReleaseGroup(ctx context.Context, adminID string, req ReleaseGroupRequest) (int64, error) {
	start, end, err := DayWindow(req.Date, s.location)
	if err != nil {
		return 0, err
	}
	if req.ServiceType != "" && !ValidServiceType(req.ServiceType) {
		return 0, fmt.Errorf("%w: unknown service type %q", ErrInvalidRequest, req.ServiceType)
	}
	n, err := s.repo.ReleaseGroup(ctx, GroupKey{
		ClinicAddress: s.clinic,
		DayStart:      start,
		DayEnd:        end,
		ServiceType:   req.ServiceType,
		UserID:        req.UserID,
	})
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveReleased(n)
	s.logger.Info("release group applied",
		"admin_id", adminID, "date", req.Date,
		"service_type", req.ServiceType, "user_id", req.UserID, "released", n)
	return n, nil
}

// Availability exposes the calculator for handlers.
func (s *BookingService) Availability(ctx context.Context, day, excludeID string) (*Availability, error) {
	return s.calc.ForDay(ctx, day, excludeID)
}

func (s *BookingService) AvailabilityRange(ctx context.Context, from, to string) ([]Availability, error) {
	return s.calc.ForRange(ctx, from, to)
}

// ListDay returns every appointment for one clinic day.
func (s *BookingService) ListDay(ctx context.Context, day string) ([]Appointment, error) {
	start, end, err := DayWindow(day, s.location)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDay(ctx, s.clinic, start, end)
}

// ListMine returns the caller's appointments from the start of today forward.
func (s *BookingService) ListMine(ctx context.Context, callerID string) ([]Appointment, error) {
	now := time.Now().In(s.location)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	return s.repo.ListForUser(ctx, callerID, todayStart)
}

func (s *BookingService) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.Get(ctx, id)
}
