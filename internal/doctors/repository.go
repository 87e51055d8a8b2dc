package doctors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medibot/intake-platform/pkg/logging"
)

// Querier covers the pgx surface used by this package.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrNotFound indicates no doctor row matched the lookup.
var ErrNotFound = errors.New("doctors: not found")

// Repository provides doctor persistence and slot availability.
type Repository struct {
	pool   Querier
	logger *logging.Logger
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool Querier, logger *logging.Logger) *Repository {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{pool: pool, logger: logger}
}

// Create provisions a doctor row and returns the generated id.
func (r *Repository) Create(ctx context.Context, d *Doctor) (int64, error) {
	slots, err := json.Marshal(d.AvailableSlots)
	if err != nil {
		return 0, fmt.Errorf("doctors: encode slots: %w", err)
	}
	query := `
		INSERT INTO doctors (full_name, specialization, experience_years, available_days, available_slots)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING doctor_id
	`
	var id int64
	err = r.pool.QueryRow(ctx, query,
		d.FullName, d.Specialization, d.ExperienceYears, d.AvailableDays, string(slots),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("doctors: insert failed: %w", err)
	}
	return id, nil
}

// GetByID loads a doctor row.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	query := `
		SELECT doctor_id, full_name, specialization, experience_years, available_days, available_slots
		FROM doctors
		WHERE doctor_id = $1
	`
	return r.scanDoctor(r.pool.QueryRow(ctx, query, id))
}

// ListBySpecialization returns doctors matching the tag exactly, name order.
// An empty specialization lists everyone.
func (r *Repository) ListBySpecialization(ctx context.Context, specialization string) ([]Doctor, error) {
	query := `
		SELECT doctor_id, full_name, specialization, experience_years, available_days, available_slots
		FROM doctors
	`
	var args []any
	if strings.TrimSpace(specialization) != "" {
		query += ` WHERE specialization = $1`
		args = append(args, specialization)
	}
	query += ` ORDER BY full_name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("doctors: list failed: %w", err)
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		var d Doctor
		var slotsJSON string
		if err := rows.Scan(&d.ID, &d.FullName, &d.Specialization, &d.ExperienceYears, &d.AvailableDays, &slotsJSON); err != nil {
			return nil, fmt.Errorf("doctors: scan failed: %w", err)
		}
		d.AvailableSlots = parseSlotList(slotsJSON, r.logger)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: list rows: %w", err)
	}
	return out, nil
}

// AvailableSlots computes the open "HH:MM" slots for a doctor on a date by
// subtracting the times already booked (status = 1) from the weekly offering.
// A missing doctor, an empty or malformed slot list, all degrade to an empty
// result — "no availability" is not an error.
func (r *Repository) AvailableSlots(ctx context.Context, doctorID int64, date string) ([]string, error) {
	query := `
		SELECT d.available_slots,
			COALESCE(string_agg(DISTINCT to_char(a.appointment_time, 'HH24:MI:SS'), ','), '') AS booked_slots
		FROM doctors d
		LEFT JOIN appointments a ON a.doctor_id = d.doctor_id
			AND a.status = 1
			AND a.appointment_date = $1
		WHERE d.doctor_id = $2
		GROUP BY d.doctor_id, d.available_slots
	`
	var slotsJSON, booked string
	err := r.pool.QueryRow(ctx, query, date, doctorID).Scan(&slotsJSON, &booked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("doctors: slot query failed: %w", err)
	}

	weekly := parseSlotList(slotsJSON, r.logger)
	if len(weekly) == 0 {
		return nil, nil
	}

	taken := make(map[string]struct{})
	for _, t := range strings.Split(booked, ",") {
		// Truncate HH:MM:SS to HH:MM; shorter entries are skipped.
		parts := strings.Split(t, ":")
		if len(parts) < 2 {
			continue
		}
		taken[parts[0]+":"+parts[1]] = struct{}{}
	}

	open := make([]string, 0, len(weekly))
	for _, slot := range weekly {
		if _, seen := taken[slot]; !seen {
			open = append(open, slot)
			// Duplicate entries in the weekly list appear once.
			taken[slot] = struct{}{}
		}
	}
	// Lexicographic order is chronological for zero-padded 24-hour times.
	sort.Strings(open)
	return open, nil
}

func (r *Repository) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var slotsJSON string
	err := row.Scan(&d.ID, &d.FullName, &d.Specialization, &d.ExperienceYears, &d.AvailableDays, &slotsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("doctors: select failed: %w", err)
	}
	d.AvailableSlots = parseSlotList(slotsJSON, r.logger)
	return &d, nil
}

func parseSlotList(slotsJSON string, logger *logging.Logger) []string {
	if strings.TrimSpace(slotsJSON) == "" {
		return nil
	}
	var slots []string
	if err := json.Unmarshal([]byte(slotsJSON), &slots); err != nil {
		logger.Warn("malformed available_slots JSON, treating as no availability", "error", err)
		return nil
	}
	return slots
}
