package patients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier covers the pgx surface used by this package. Both pgxpool.Pool and
// pgx.Tx satisfy it, as does pgxmock in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides patient persistence.
type Repository struct {
	pool Querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool Querier) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{pool: pool}
}

// IDByEmail resolves a patient id from the email natural key.
// Returns ErrNotFound when no row matches.
func IDByEmail(ctx context.Context, q Querier, email string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `SELECT patient_id FROM patients WHERE email = $1`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("patients: lookup id by email: %w", err)
	}
	return id, nil
}

// IDByEmail resolves a patient id from the email natural key.
func (r *Repository) IDByEmail(ctx context.Context, email string) (int64, error) {
	return IDByEmail(ctx, r.pool, email)
}

// GetByEmail loads the full demographic record for an email.
// Returns ErrNotFound when no row matches.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	query := `
		SELECT patient_id, full_name, COALESCE(age, 0), COALESCE(gender, ''),
			email, COALESCE(phone, ''), COALESCE(address, ''),
			COALESCE(to_char(dob, 'YYYY-MM-DD'), '')
		FROM patients
		WHERE email = $1
	`
	var p Patient
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&p.ID, &p.FullName, &p.Age, &p.Gender, &p.Email, &p.Phone, &p.Address, &p.DOB,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: select by email: %w", err)
	}
	return &p, nil
}

// Create inserts a patient row and returns the generated id.
func Create(ctx context.Context, q Querier, p *Patient) (int64, error) {
	query := `
		INSERT INTO patients (full_name, age, gender, email, phone, address, dob)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::date)
		RETURNING patient_id
	`
	var id int64
	err := q.QueryRow(ctx, query,
		p.FullName, p.Age, p.Gender, p.Email, p.Phone, p.Address, p.DOB,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("patients: insert failed: %w", err)
	}
	return id, nil
}

// Create inserts a patient row and returns the generated id.
func (r *Repository) Create(ctx context.Context, p *Patient) (int64, error) {
	return Create(ctx, r.pool, p)
}

// Update rewrites the mutable demographic fields for a patient id.
func (r *Repository) Update(ctx context.Context, p *Patient) error {
	query := `
		UPDATE patients
		SET full_name = $2, age = $3, gender = $4, phone = $5, address = $6,
			dob = NULLIF($7, '')::date
		WHERE patient_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, p.ID, p.FullName, p.Age, p.Gender, p.Phone, p.Address, p.DOB)
	if err != nil {
		return fmt.Errorf("patients: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// History aggregates prior symptoms, medications, allergies and surgeries
// into comma-joined display strings. Empty categories come back as "".
func (r *Repository) History(ctx context.Context, patientID int64) (*History, error) {
	var h History

	queries := []struct {
		dest *string
		sql  string
	}{
		{&h.PreviousSymptoms, `
			SELECT COALESCE(string_agg(symptom_description || ' (' || COALESCE(severity, '') || ', ' || COALESCE(duration, '') || ')', ', '), '')
			FROM symptoms WHERE patient_id = $1`},
		{&h.PreviousMedications, `
			SELECT COALESCE(string_agg(medication_name || ' (' || COALESCE(dosage, '') || ')', ', '), '')
			FROM medications WHERE patient_id = $1`},
		{&h.PreviousAllergies, `
			SELECT COALESCE(string_agg(substance || ' (' || COALESCE(severity, '') || ')', ', '), '')
			FROM allergies WHERE patient_id = $1`},
		{&h.PreviousSurgeries, `
			SELECT COALESCE(string_agg(procedure_name || ' at ' || COALESCE(hospital_name, '') || ' on ' || COALESCE(to_char(surgery_date, 'YYYY-MM-DD'), ''), ', '), '')
			FROM surgeries WHERE patient_id = $1`},
	}
	for _, qd := range queries {
		if err := r.pool.QueryRow(ctx, qd.sql, patientID).Scan(qd.dest); err != nil {
			if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("patients: aggregate history: %w", err)
		}
	}
	return &h, nil
}
