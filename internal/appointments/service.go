package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/medibot/intake-platform/internal/observability/metrics"
	"github.com/medibot/intake-platform/internal/patients"
	"github.com/medibot/intake-platform/pkg/logging"
)

var tracer = otel.Tracer("internal/appointments")

// MissingPatientPolicy decides what Reserve does when the email matches no
// patient row.
type MissingPatientPolicy string

const (
	// MissingPatientAbort fails the reservation with ErrPatientNotFound.
	MissingPatientAbort MissingPatientPolicy = "abort"
	// MissingPatientAutoCreate inserts a minimal patient row inside the
	// reservation transaction and books against it.
	MissingPatientAutoCreate MissingPatientPolicy = "auto_create"
)

// ParseMissingPatientPolicy maps a config string onto a policy, defaulting
// to abort for anything unrecognized.
func ParseMissingPatientPolicy(s string) MissingPatientPolicy {
	if strings.ToLower(strings.TrimSpace(s)) == string(MissingPatientAutoCreate) {
		return MissingPatientAutoCreate
	}
	return MissingPatientAbort
}

// PgxPool is the transactional pgx surface the service needs. pgxpool.Pool
// satisfies it in production, pgxmock in tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Notifier delivers the post-commit confirmation message. Failures are
// logged, never surfaced to the caller.
type Notifier interface {
	SendAppointmentConfirmation(ctx context.Context, email string, c Confirmation) error
}

// Service books appointments with both-sides double-booking protection.
type Service struct {
	pool     PgxPool
	policy   MissingPatientPolicy
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewService wires the reservation service. notifier and m may be nil.
func NewService(pool PgxPool, policy MissingPatientPolicy, notifier Notifier, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{pool: pool, policy: policy, notifier: notifier, metrics: m, logger: logger}
}

// Reserve books the slot described by req inside a single transaction. The
// checks run in a fixed order so callers get stable failure modes: slot
// conflict first, then patient resolution, then the patient's own calendar.
// Partial unique indexes on the appointments table back these checks up
// against concurrent writers.
func (s *Service) Reserve(ctx context.Context, req Reservation) (*Confirmation, error) {
	ctx, span := tracer.Start(ctx, "appointments.Reserve", trace.WithAttributes(
		attribute.Int64("doctor.id", req.DoctorID),
		attribute.String("appointment.date", req.Date),
	))
	defer span.End()

	if err := ValidateDate(req.Date); err != nil {
		s.metrics.RecordReservation("invalid")
		return nil, err
	}
	slotTime, err := NormalizeTime(req.Time)
	if err != nil {
		s.metrics.RecordReservation("invalid")
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.metrics.RecordReservation("error")
		return nil, fmt.Errorf("appointments: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	conf, err := s.reserveInTx(ctx, tx, req, slotTime)
	if err != nil {
		s.metrics.RecordReservation(outcomeLabel(err))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.metrics.RecordReservation("error")
		return nil, fmt.Errorf("appointments: commit: %w", err)
	}
	s.metrics.RecordReservation("booked")

	if s.notifier != nil {
		if err := s.notifier.SendAppointmentConfirmation(ctx, req.PatientEmail, *conf); err != nil {
			s.logger.Warn("confirmation email failed",
				"appointment_id", conf.AppointmentID, "error", err)
		}
	}
	return conf, nil
}

func (s *Service) reserveInTx(ctx context.Context, tx pgx.Tx, req Reservation, slotTime string) (*Confirmation, error) {
	var occupied bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3 AND status = $4
		)`, req.DoctorID, req.Date, slotTime, StatusActive).Scan(&occupied)
	if err != nil {
		return nil, fmt.Errorf("appointments: slot check: %w", err)
	}
	if occupied {
		return nil, ErrSlotTaken
	}

	patientID, err := patients.IDByEmail(ctx, tx, req.PatientEmail)
	if errors.Is(err, patients.ErrNotFound) {
		if s.policy != MissingPatientAutoCreate {
			return nil, ErrPatientNotFound
		}
		patientID, err = patients.Create(ctx, tx, &patients.Patient{
			FullName: "Guest User",
			Email:    req.PatientEmail,
		})
	}
	if err != nil {
		return nil, err
	}

	var clash bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1 AND appointment_date = $2 AND appointment_time = $3 AND status = $4
		)`, patientID, req.Date, slotTime, StatusActive).Scan(&clash)
	if err != nil {
		return nil, fmt.Errorf("appointments: patient calendar check: %w", err)
	}
	if clash {
		return nil, ErrPatientDoubleBooked
	}

	var appointmentID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, appointment_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING appointment_id`,
		patientID, req.DoctorID, req.Date, slotTime, StatusActive).Scan(&appointmentID)
	if err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	return &Confirmation{
		AppointmentID: appointmentID,
		PatientID:     patientID,
		DoctorID:      req.DoctorID,
		Date:          req.Date,
		Time:          slotTime,
	}, nil
}

// ListUpcoming returns active appointments from the given date onward,
// joined with names for the admin view.
func (s *Service) ListUpcoming(ctx context.Context, fromDate string) ([]Appointment, error) {
	if err := ValidateDate(fromDate); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT a.appointment_id, a.patient_id, a.doctor_id,
			to_char(a.appointment_date, 'YYYY-MM-DD'),
			to_char(a.appointment_time, 'HH24:MI:SS'),
			a.status, p.full_name, d.full_name
		FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		JOIN doctors d ON d.doctor_id = a.doctor_id
		WHERE a.status = $1 AND a.appointment_date >= $2
		ORDER BY a.appointment_date, a.appointment_time`,
		StatusActive, fromDate)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Status, &a.PatientName, &a.DoctorName); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrPatientNotFound):
		return "patient_not_found"
	case errors.Is(err, ErrPatientDoubleBooked):
		return "double_booked"
	default:
		return "error"
	}
}
