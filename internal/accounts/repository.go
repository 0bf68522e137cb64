package accounts

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const accountColumns = `id, email, first_name, last_name, phone, address, role,
	       trapper_number, trapper_regions, equipment, code, is_active,
	       booking_access_restricted, restriction_reason,
	       total_appointments_booked, total_appointments_completed,
	       total_appointments_overbooked, total_appointments_underbooked,
	       commitment_score, strikes, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanAccount(scan func(dest ...any) error) (*Account, error) {
	var a Account
	err := scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Phone, &a.Address,
		&a.Role, &a.TrapperNumber, pq.Array(&a.TrapperRegions), &a.Equipment,
		&a.Code, &a.IsActive, &a.BookingAccessRestricted, &a.RestrictionReason,
		&a.Metrics.TotalAppointmentsBooked, &a.Metrics.TotalAppointmentsCompleted,
		&a.Metrics.TotalAppointmentsOverbooked, &a.Metrics.TotalAppointmentsUnderbooked,
		&a.Metrics.CommitmentScore, &a.Metrics.Strikes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.TrapperRegions == nil {
		a.TrapperRegions = []string{}
	}
	return &a, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE id = $1`, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE email = $1`, email).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *Repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts ORDER BY last_name, first_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if out == nil {
		out = []Account{}
	}
	return out, rows.Err()
}

func (r *Repository) Insert(ctx context.Context, a *Account) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.TrapperRegions == nil {
		a.TrapperRegions = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, first_name, last_name, phone, address, role,
		    trapper_number, trapper_regions, equipment, code, is_active,
		    booking_access_restricted, restriction_reason,
		    total_appointments_booked, total_appointments_completed,
		    total_appointments_overbooked, total_appointments_underbooked,
		    commitment_score, strikes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$21)`,
		a.ID, a.Email, a.FirstName, a.LastName, a.Phone, a.Address, a.Role,
		a.TrapperNumber, pq.Array(a.TrapperRegions), a.Equipment, a.Code, a.IsActive,
		a.BookingAccessRestricted, a.RestrictionReason,
		a.Metrics.TotalAppointmentsBooked, a.Metrics.TotalAppointmentsCompleted,
		a.Metrics.TotalAppointmentsOverbooked, a.Metrics.TotalAppointmentsUnderbooked,
		a.Metrics.CommitmentScore, a.Metrics.Strikes, now)
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

func (r *Repository) Update(ctx context.Context, a *Account) error {
	a.UpdatedAt = time.Now().UTC()
	if a.TrapperRegions == nil {
		a.TrapperRegions = []string{}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET email=$2, first_name=$3, last_name=$4, phone=$5, address=$6,
		    role=$7, trapper_number=$8, trapper_regions=$9, equipment=$10, code=$11,
		    is_active=$12, booking_access_restricted=$13, restriction_reason=$14,
		    total_appointments_booked=$15, total_appointments_completed=$16,
		    total_appointments_overbooked=$17, total_appointments_underbooked=$18,
		    commitment_score=$19, strikes=$20, updated_at=$21
		WHERE id = $1`,
		a.ID, a.Email, a.FirstName, a.LastName, a.Phone, a.Address,
		a.Role, a.TrapperNumber, pq.Array(a.TrapperRegions), a.Equipment, a.Code,
		a.IsActive, a.BookingAccessRestricted, a.RestrictionReason,
		a.Metrics.TotalAppointmentsBooked, a.Metrics.TotalAppointmentsCompleted,
		a.Metrics.TotalAppointmentsOverbooked, a.Metrics.TotalAppointmentsUnderbooked,
		a.Metrics.CommitmentScore, a.Metrics.Strikes, a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCode rewrites only the stored 4-digit code. Used by the credential
// change flow so it cannot clobber concurrent profile edits.
func (r *Repository) UpdateCode(ctx context.Context, id, code string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET code = $2, updated_at = $3 WHERE id = $1`,
		id, code, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the profile row. Deleting an already-absent profile is not an
// error so a partially failed deprovision can be retried.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
