package capacity

import (
	"context"
	"database/sql"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, clinicAddress, day string) (*Record, error) {
	var rec Record
	var updatedBy sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT clinic_address, to_char(day, 'YYYY-MM-DD'), tnvr_capacity, foster_capacity,
		       updated_at, updated_by_user_id
		FROM capacities WHERE clinic_address = $1 AND day = $2`,
		clinicAddress, day).Scan(&rec.ClinicAddress, &rec.Day, &rec.TNVRCapacity,
		&rec.FosterCapacity, &rec.UpdatedAt, &updatedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.UpdatedByUserID = updatedBy.String
	return &rec, nil
}

// DayCapacity satisfies the availability calculator's capacity source.
func (r *Repository) DayCapacity(ctx context.Context, clinicAddress, day string) (tnvr int, foster int, exists bool, err error) {
	rec, err := r.Get(ctx, clinicAddress, day)
	if err != nil || rec == nil {
		return 0, 0, false, err
	}
	return rec.TNVRCapacity, rec.FosterCapacity, true, nil
}

func (r *Repository) Range(ctx context.Context, clinicAddress, from, to string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT clinic_address, to_char(day, 'YYYY-MM-DD'), tnvr_capacity, foster_capacity,
		       updated_at, updated_by_user_id
		FROM capacities
		WHERE clinic_address = $1 AND day >= $2 AND day <= $3
		ORDER BY day`, clinicAddress, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var updatedBy sql.NullString
		if err := rows.Scan(&rec.ClinicAddress, &rec.Day, &rec.TNVRCapacity,
			&rec.FosterCapacity, &rec.UpdatedAt, &updatedBy); err != nil {
			return nil, err
		}
		rec.UpdatedByUserID = updatedBy.String
		out = append(out, rec)
	}
	if out == nil {
		out = []Record{}
	}
	return out, rows.Err()
}

// Upsert writes the day's capacities. Last write wins; concurrent admin edits
// of the same day silently overwrite each other.
func (r *Repository) Upsert(ctx context.Context, rec *Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO capacities (clinic_address, day, tnvr_capacity, foster_capacity, updated_at, updated_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (clinic_address, day) DO UPDATE SET
		    tnvr_capacity = EXCLUDED.tnvr_capacity,
		    foster_capacity = EXCLUDED.foster_capacity,
		    updated_at = EXCLUDED.updated_at,
		    updated_by_user_id = EXCLUDED.updated_by_user_id`,
		rec.ClinicAddress, rec.Day, rec.TNVRCapacity, rec.FosterCapacity,
		rec.UpdatedAt, nullIfEmpty(rec.UpdatedByUserID))
	return err
}

func (r *Repository) Delete(ctx context.Context, clinicAddress, day string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM capacities WHERE clinic_address = $1 AND day = $2`, clinicAddress, day)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
