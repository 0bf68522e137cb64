package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it
// in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists appointment records in Postgres via pgx.
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	if db == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: db}
}

const appointmentColumns = `id, user_id, trapper_first_name, trapper_last_name,
		       trapper_phone, trapper_number, service_type, clinic_address,
		       appointment_time, status, notes, created_at, created_by_user_id,
		       updated_at, last_modified_by_user_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var createdBy, modifiedBy *string
	err := row.Scan(&a.ID, &a.UserID, &a.TrapperFirstName, &a.TrapperLastName,
		&a.TrapperPhone, &a.TrapperNumber, &a.ServiceType, &a.ClinicAddress,
		&a.AppointmentTime, &a.Status, &a.Notes, &a.CreatedAt, &createdBy,
		&a.UpdatedAt, &modifiedBy)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		a.CreatedByUserID = *createdBy
	}
	if modifiedBy != nil {
		a.LastModifiedByUserID = *modifiedBy
	}
	return &a, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: load: %w", err)
	}
	return a, nil
}

// ListDay returns every appointment for the clinic inside [start, end).
func (r *Repository) ListDay(ctx context.Context, clinicAddress string, start, end time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_address = $1 AND appointment_time >= $2 AND appointment_time < $3
		ORDER BY trapper_last_name, trapper_first_name`, clinicAddress, start, end)
	if err != nil {
		return nil, fmt.Errorf("appointments: list day: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListForUser returns a trapper's appointments from a given instant forward.
func (r *Repository) ListForUser(ctx context.Context, userID string, from time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE user_id = $1 AND appointment_time >= $2
		ORDER BY appointment_time`, userID, from)
	if err != nil {
		return nil, fmt.Errorf("appointments: list for user: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *a)
	}
	if out == nil {
		out = []Appointment{}
	}
	return out, rows.Err()
}

// CountBooked returns booked-slot counts per service type for the clinic day,
// optionally excluding one appointment (edit-mode recompute).
func (r *Repository) CountBooked(ctx context.Context, clinicAddress string, start, end time.Time, excludeID string) (tnvr int, foster int, err error) {
	query := `
		SELECT service_type, COUNT(*)
		FROM appointments
		WHERE clinic_address = $1 AND appointment_time >= $2 AND appointment_time < $3`
	args := []any{clinicAddress, start, end}
	if excludeID != "" {
		query += ` AND id <> $4`
		args = append(args, excludeID)
	}
	query += ` GROUP BY service_type`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return 0, 0, fmt.Errorf("appointments: count booked: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var serviceType string
		var count int
		if err := rows.Scan(&serviceType, &count); err != nil {
			return 0, 0, fmt.Errorf("appointments: scan counts: %w", err)
		}
		switch serviceType {
		case ServiceTNVR:
			tnvr = count
		case ServiceFoster:
			foster = count
		}
	}
	return tnvr, foster, rows.Err()
}

// BookParams describes one atomic multi-slot booking.
type BookParams struct {
	ClinicAddress string
	Day           string // ISO date, the capacity key
	DayStart      time.Time
	DayEnd        time.Time
	Appointments  []Appointment

	// EnforceCapacity re-validates remaining slots inside the transaction.
	// Trapper bookings always enforce; admin creates never do.
	EnforceCapacity bool

	// MetricUserID, when set, has total_appointments_booked incremented by the
	// slot count inside the same transaction.
	MetricUserID string
}

// Book creates one record per requested slot atomically. The capacity row is
// locked for the duration of the transaction, so when one slot remains and two
// trappers race, exactly one commit succeeds; the loser observes
// ErrCapacityExceeded after the winner's rows are counted.
func (r *Repository) Book(ctx context.Context, p BookParams) error {
	if len(p.Appointments) == 0 {
		return fmt.Errorf("%w: no slots requested", ErrInvalidRequest)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if p.EnforceCapacity {
		var tnvrCap, fosterCap int
		err := tx.QueryRow(ctx, `
			SELECT tnvr_capacity, foster_capacity FROM capacities
			WHERE clinic_address = $1 AND day = $2
			FOR UPDATE`, p.ClinicAddress, p.Day).Scan(&tnvrCap, &fosterCap)
		if errors.Is(err, pgx.ErrNoRows) {
			// No capacity record means zero capacity for trapper bookings.
			return ErrCapacityExceeded
		}
		if err != nil {
			return fmt.Errorf("appointments: lock capacity: %w", err)
		}

		var bookedTNVR, bookedFoster int
		rows, err := tx.Query(ctx, `
			SELECT service_type, COUNT(*)
			FROM appointments
			WHERE clinic_address = $1 AND appointment_time >= $2 AND appointment_time < $3
			GROUP BY service_type`, p.ClinicAddress, p.DayStart, p.DayEnd)
		if err != nil {
			return fmt.Errorf("appointments: recount booked: %w", err)
		}
		for rows.Next() {
			var serviceType string
			var count int
			if err := rows.Scan(&serviceType, &count); err != nil {
				rows.Close()
				return fmt.Errorf("appointments: scan recount: %w", err)
			}
			switch serviceType {
			case ServiceTNVR:
				bookedTNVR = count
			case ServiceFoster:
				bookedFoster = count
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("appointments: recount booked: %w", err)
		}

		reqTNVR, reqFoster := 0, 0
		for _, a := range p.Appointments {
			switch a.ServiceType {
			case ServiceTNVR:
				reqTNVR++
			case ServiceFoster:
				reqFoster++
			}
		}
		if reqTNVR > tnvrCap-bookedTNVR || reqFoster > fosterCap-bookedFoster {
			return ErrCapacityExceeded
		}
	}

	for _, a := range p.Appointments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, user_id, trapper_first_name, trapper_last_name,
			    trapper_phone, trapper_number, service_type, clinic_address,
			    appointment_time, status, notes, created_at, created_by_user_id,
			    updated_at, last_modified_by_user_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$12,$13)`,
			a.ID, a.UserID, a.TrapperFirstName, a.TrapperLastName,
			a.TrapperPhone, a.TrapperNumber, a.ServiceType, a.ClinicAddress,
			a.AppointmentTime, a.Status, a.Notes, a.CreatedAt, a.CreatedByUserID); err != nil {
			return fmt.Errorf("appointments: insert slot: %w", err)
		}
	}

	if p.MetricUserID != "" {
		if _, err := tx.Exec(ctx, `
			UPDATE accounts
			SET total_appointments_booked = total_appointments_booked + $2, updated_at = $3
			WHERE id = $1`, p.MetricUserID, len(p.Appointments), time.Now().UTC()); err != nil {
			return fmt.Errorf("appointments: increment booked metric: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit booking: %w", err)
	}
	return nil
}

// Update applies an admin edit to a single appointment: service type, notes,
// status, and the refreshed trapper snapshot. One slot per edit.
func (r *Repository) Update(ctx context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET service_type = $2, notes = $3, status = $4,
		    trapper_first_name = $5, trapper_last_name = $6,
		    trapper_phone = $7, trapper_number = $8,
		    updated_at = $9, last_modified_by_user_id = $10
		WHERE id = $1`,
		a.ID, a.ServiceType, a.Notes, a.Status,
		a.TrapperFirstName, a.TrapperLastName, a.TrapperPhone, a.TrapperNumber,
		a.UpdatedAt, a.LastModifiedByUserID)
	if err != nil {
		return fmt.Errorf("appointments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one appointment (release).
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOwn removes one appointment only when it belongs to the caller.
func (r *Repository) DeleteOwn(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM appointments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("appointments: delete own: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GroupKey identifies a release group: every appointment for a clinic day,
// optionally narrowed to one service type and one trapper.
type GroupKey struct {
	ClinicAddress string
	DayStart      time.Time
	DayEnd        time.Time
	ServiceType   string // optional
	UserID        string // optional
}

// ReleaseGroup deletes every appointment in the group as a single statement,
// so a failure removes nothing.
func (r *Repository) ReleaseGroup(ctx context.Context, key GroupKey) (int64, error) {
	query := `
		DELETE FROM appointments
		WHERE clinic_address = $1 AND appointment_time >= $2 AND appointment_time < $3`
	args := []any{key.ClinicAddress, key.DayStart, key.DayEnd}
	if key.ServiceType != "" {
		args = append(args, key.ServiceType)
		query += fmt.Sprintf(` AND service_type = $%d`, len(args))
	}
	if key.UserID != "" {
		args = append(args, key.UserID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("appointments: release group: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SweepCompleted flips past Upcoming appointments to Completed. Matches are
// updated in chunks so a day with more matches than a single batch allows
// still succeeds; each chunk commits independently and re-running only
// touches records still Upcoming.
func (r *Repository) SweepCompleted(ctx context.Context, now time.Time, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = 400
	}

	rows, err := r.db.Query(ctx, `
		SELECT id FROM appointments
		WHERE status = $1 AND appointment_time < $2
		ORDER BY appointment_time`, StatusUpcoming, now)
	if err != nil {
		return 0, fmt.Errorf("appointments: sweep query: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("appointments: sweep scan: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("appointments: sweep query: %w", err)
	}

	var total int64
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		tag, err := r.db.Exec(ctx, `
			UPDATE appointments
			SET status = $1, updated_at = $2
			WHERE id = ANY($3) AND status = $4`,
			StatusCompleted, time.Now().UTC(), ids[start:end], StatusUpcoming)
		if err != nil {
			return total, fmt.Errorf("appointments: sweep chunk: %w", err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}
