package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/medibot/intake-platform/internal/mapping"
	"github.com/medibot/intake-platform/pkg/logging"
)

func newMockImporter(t *testing.T, maxLen int) (*Importer, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return New(mock, maxLen, logging.Default()), mock
}

func TestApplyFullBatch(t *testing.T) {
	im, mock := newMockImporter(t, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT patient_id FROM patients").
		WithArgs("john@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"patient_id"}))
	mock.ExpectQuery("INSERT INTO patients").
		WithArgs("john@example.com", "John Smith").
		WillReturnRows(pgxmock.NewRows([]string{"patient_id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(int64(7), int64(3), "2026-09-01", "10:00:00", 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO symptoms").
		WithArgs(int64(7), "persistent cough", "moderate", "2 weeks", "2026-08-29 10:30:00").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	res, err := im.Apply(context.Background(), []mapping.Operation{
		{Table: "patients", Columns: map[string]any{
			"full_name": "John Smith", "email": "john@example.com",
		}},
		{Table: "appointments", Columns: map[string]any{
			"doctor_id": int64(3), "appointment_date": "2026-09-01", "appointment_time": "10:00:00",
		}},
		{Table: "symptoms", Records: []map[string]any{{
			"symptom_description": "persistent cough",
			"severity":            "moderate",
			"duration":            "2 weeks",
			"recorded_at":         "2026-08-29 10:30:00",
		}}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.PatientID != 7 || res.RowsInserted != 3 {
		t.Fatalf("result = %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyUpdatesExistingPatient(t *testing.T) {
	im, mock := newMockImporter(t, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT patient_id FROM patients").
		WithArgs("john@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"patient_id"}).AddRow(int64(12)))
	mock.ExpectExec("UPDATE patients SET").
		WithArgs(int64(12), "John Smith").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	res, err := im.Apply(context.Background(), []mapping.Operation{
		{Table: "patients", Columns: map[string]any{
			"full_name": "John Smith", "email": "john@example.com",
		}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.PatientID != 12 {
		t.Fatalf("patient id = %d, want 12", res.PatientID)
	}
}

func TestApplySkipsUnknownTables(t *testing.T) {
	im, mock := newMockImporter(t, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT patient_id FROM patients").
		WithArgs("x@y.com").
		WillReturnRows(pgxmock.NewRows([]string{"patient_id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	res, err := im.Apply(context.Background(), []mapping.Operation{
		{Table: "patients", Columns: map[string]any{"email": "x@y.com"}},
		{Table: "billing_codes", Columns: map[string]any{"code": "A1"}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "billing_codes" {
		t.Fatalf("skipped = %v", res.Skipped)
	}
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	im, mock := newMockImporter(t, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT patient_id FROM patients").
		WithArgs("x@y.com").
		WillReturnRows(pgxmock.NewRows([]string{"patient_id"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO symptoms").
		WithArgs(int64(1), "headache", "unknown", "unknown", "2026-08-29 10:30:00").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := im.Apply(context.Background(), []mapping.Operation{
		{Table: "patients", Columns: map[string]any{"email": "x@y.com"}},
		{Table: "symptoms", Records: []map[string]any{{
			"symptom_description": "headache",
			"severity":            "unknown",
			"duration":            "unknown",
			"recorded_at":         "2026-08-29 10:30:00",
		}}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApplySymptomsWithoutPatient(t *testing.T) {
	im, mock := newMockImporter(t, 0)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := im.Apply(context.Background(), []mapping.Operation{
		{Table: "symptoms", Records: []map[string]any{{
			"symptom_description": "headache",
		}}},
	})
	if !errors.Is(err, ErrNoPatient) {
		t.Fatalf("err = %v, want ErrNoPatient", err)
	}
}

func TestApplyTruncatesLongDescriptions(t *testing.T) {
	im, mock := newMockImporter(t, 10)

	long := strings.Repeat("a", 50)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT patient_id FROM patients").
		WithArgs("x@y.com").
		WillReturnRows(pgxmock.NewRows([]string{"patient_id"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO symptoms").
		WithArgs(int64(1), strings.Repeat("a", 10), nil, nil, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	_, err := im.Apply(context.Background(), []mapping.Operation{
		{Table: "patients", Columns: map[string]any{"email": "x@y.com"}},
		{Table: "symptoms", Records: []map[string]any{{"symptom_description": long}}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func TestApplyTruncatesOnRuneBoundary(t *testing.T) {
	im, mock := newMockImporter(t, 9)

	// "é" is two bytes, so a 9-byte cap lands mid-rune and backs off to 8.
	long := strings.Repeat("é", 8)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT patient_id FROM patients").
		WithArgs("x@y.com").
		WillReturnRows(pgxmock.NewRows([]string{"patient_id"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO symptoms").
		WithArgs(int64(1), strings.Repeat("é", 4), nil, nil, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	_, err := im.Apply(context.Background(), []mapping.Operation{
		{Table: "patients", Columns: map[string]any{"email": "x@y.com"}},
		{Table: "symptoms", Records: []map[string]any{{"symptom_description": long}}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
}
