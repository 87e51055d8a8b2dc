// Package importer applies mapped operations to Postgres in one transaction.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"github.com/medibot/intake-platform/internal/appointments"
	"github.com/medibot/intake-platform/internal/mapping"
	"github.com/medibot/intake-platform/internal/patients"
	"github.com/medibot/intake-platform/pkg/logging"
)

// ErrNoPatient means the operation list needs a patient id but carried no
// patients operation and the email matched no existing row.
var ErrNoPatient = errors.New("importer: no patient to attach records to")

// Pool is the transactional pgx surface the importer needs.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Result reports what an import run wrote.
type Result struct {
	PatientID    int64
	RowsInserted int
	Skipped      []string
}

// Importer writes operation lists transactionally. Patient rows resolve
// first so dependent tables can reference the id; any failure rolls the
// whole batch back.
type Importer struct {
	pool             Pool
	symptomMaxLength int
	logger           *logging.Logger
}

// New creates an Importer. symptomMaxLength caps symptom_description.
func New(pool Pool, symptomMaxLength int, logger *logging.Logger) *Importer {
	if pool == nil {
		panic("importer: pgx pool required")
	}
	if symptomMaxLength <= 0 {
		symptomMaxLength = 65535
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Importer{pool: pool, symptomMaxLength: symptomMaxLength, logger: logger}
}

// Apply writes all operations in one transaction. Tables it does not know
// are skipped (and reported), not failed: the mapper may grow ahead of the
// importer during rollouts.
func (im *Importer) Apply(ctx context.Context, ops []mapping.Operation) (*Result, error) {
	tx, err := im.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("importer: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	res := &Result{}

	// Pass 1: the patient row. Everything else hangs off its id.
	for _, op := range ops {
		if op.Table != "patients" {
			continue
		}
		id, err := im.upsertPatient(ctx, tx, op.Columns)
		if err != nil {
			return nil, err
		}
		res.PatientID = id
		res.RowsInserted++
	}

	for _, op := range ops {
		switch op.Table {
		case "patients":
			// handled above
		case "appointments":
			if err := im.insertAppointment(ctx, tx, res.PatientID, op.Columns); err != nil {
				return nil, err
			}
			res.RowsInserted++
		case "symptoms":
			n, err := im.insertSymptoms(ctx, tx, res.PatientID, op.Records)
			if err != nil {
				return nil, err
			}
			res.RowsInserted += n
		default:
			im.logger.Warn("skipping operation for unknown table", "table", op.Table)
			res.Skipped = append(res.Skipped, op.Table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("importer: commit: %w", err)
	}
	return res, nil
}

func (im *Importer) upsertPatient(ctx context.Context, tx pgx.Tx, cols map[string]any) (int64, error) {
	if email, ok := cols["email"].(string); ok && email != "" {
		id, err := patients.IDByEmail(ctx, tx, email)
		if err == nil {
			return id, im.updatePatient(ctx, tx, id, cols)
		}
		if !errors.Is(err, patients.ErrNotFound) {
			return 0, err
		}
	}

	keys := sortedKeys(cols)
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = cols[k]
	}
	query := fmt.Sprintf(
		"INSERT INTO patients (%s) VALUES (%s) RETURNING patient_id",
		strings.Join(keys, ", "), strings.Join(placeholders, ", "),
	)
	var id int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("importer: insert patient: %w", err)
	}
	return id, nil
}

func (im *Importer) updatePatient(ctx context.Context, tx pgx.Tx, id int64, cols map[string]any) error {
	sets := make([]string, 0, len(cols))
	args := []any{id}
	for _, k := range sortedKeys(cols) {
		if k == "email" {
			continue
		}
		args = append(args, cols[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", k, len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE patients SET %s WHERE patient_id = $1", strings.Join(sets, ", "))
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("importer: update patient: %w", err)
	}
	return nil
}

func (im *Importer) insertAppointment(ctx context.Context, tx pgx.Tx, patientID int64, cols map[string]any) error {
	if patientID == 0 {
		return ErrNoPatient
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, appointment_time, status)
		VALUES ($1, $2, $3, $4, $5)`,
		patientID, cols["doctor_id"], cols["appointment_date"], cols["appointment_time"],
		appointments.StatusActive)
	if err != nil {
		return fmt.Errorf("importer: insert appointment: %w", err)
	}
	return nil
}

func (im *Importer) insertSymptoms(ctx context.Context, tx pgx.Tx, patientID int64, records []map[string]any) (int, error) {
	if patientID == 0 {
		return 0, ErrNoPatient
	}
	n := 0
	for _, rec := range records {
		desc, _ := rec["symptom_description"].(string)
		if desc == "" {
			continue
		}
		if len(desc) > im.symptomMaxLength {
			cut := im.symptomMaxLength
			// Back off to a rune boundary so multi-byte text is not split.
			for cut > 0 && !utf8.RuneStart(desc[cut]) {
				cut--
			}
			desc = desc[:cut]
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO symptoms (patient_id, symptom_description, severity, duration, recorded_at)
			VALUES ($1, $2, $3, $4, $5)`,
			patientID, desc, rec["severity"], rec["duration"], rec["recorded_at"])
		if err != nil {
			return 0, fmt.Errorf("importer: insert symptom: %w", err)
		}
		n++
	}
	return n, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
