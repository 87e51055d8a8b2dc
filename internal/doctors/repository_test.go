package doctors

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/medibot/intake-platform/pkg/logging"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewRepository(mock, logging.Default()), mock
}

func TestCreateReturnsGeneratedID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO doctors").
		WithArgs("Dr. Amina Khalid", "cardiologist", 12, "mon-fri", `["09:00","10:00"]`).
		WillReturnRows(pgxmock.NewRows([]string{"doctor_id"}).AddRow(int64(7)))

	id, err := repo.Create(context.Background(), &Doctor{
		FullName:        "Dr. Amina Khalid",
		Specialization:  "cardiologist",
		ExperienceYears: 12,
		AvailableDays:   "mon-fri",
		AvailableSlots:  []string{"09:00", "10:00"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT doctor_id, full_name").
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows([]string{"doctor_id", "full_name", "specialization", "experience_years", "available_days", "available_slots"}))

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListBySpecialization(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"doctor_id", "full_name", "specialization", "experience_years", "available_days", "available_slots"}).
		AddRow(int64(1), "Dr. Adams", "dermatologist", 5, "mon-wed", `["09:00"]`).
		AddRow(int64(2), "Dr. Brown", "dermatologist", 9, "thu-fri", `["14:00","15:00"]`)
	mock.ExpectQuery("SELECT doctor_id, full_name").
		WithArgs("dermatologist").
		WillReturnRows(rows)

	got, err := repo.ListBySpecialization(context.Background(), "dermatologist")
	if err != nil {
		t.Fatalf("ListBySpecialization: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].FullName != "Dr. Adams" || got[1].FullName != "Dr. Brown" {
		t.Fatalf("unexpected order: %v", got)
	}
	if !reflect.DeepEqual(got[1].AvailableSlots, []string{"14:00", "15:00"}) {
		t.Fatalf("slots = %v", got[1].AvailableSlots)
	}
}

func TestAvailableSlotsSubtractsBooked(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"available_slots", "booked_slots"}).
		AddRow(`["10:00","09:00","11:00"]`, "09:00:00,11:00:00")
	mock.ExpectQuery("SELECT d.available_slots").
		WithArgs("2026-09-01", int64(3)).
		WillReturnRows(rows)

	got, err := repo.AvailableSlots(context.Background(), 3, "2026-09-01")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	want := []string{"10:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestAvailableSlotsDeduplicatesWeeklyList(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"available_slots", "booked_slots"}).
		AddRow(`["10:00","09:00","10:00","11:00","09:00"]`, "11:00:00")
	mock.ExpectQuery("SELECT d.available_slots").
		WithArgs("2026-09-01", int64(3)).
		WillReturnRows(rows)

	got, err := repo.AvailableSlots(context.Background(), 3, "2026-09-01")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	want := []string{"09:00", "10:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestAvailableSlotsNothingBookedIsSorted(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"available_slots", "booked_slots"}).
		AddRow(`["14:00","09:00","11:30"]`, "")
	mock.ExpectQuery("SELECT d.available_slots").
		WithArgs("2026-09-01", int64(3)).
		WillReturnRows(rows)

	got, err := repo.AvailableSlots(context.Background(), 3, "2026-09-01")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	want := []string{"09:00", "11:30", "14:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestAvailableSlotsMalformedJSON(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"available_slots", "booked_slots"}).
		AddRow(`not-json`, "")
	mock.ExpectQuery("SELECT d.available_slots").
		WithArgs("2026-09-01", int64(3)).
		WillReturnRows(rows)

	got, err := repo.AvailableSlots(context.Background(), 3, "2026-09-01")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("slots = %v, want empty", got)
	}
}

func TestAvailableSlotsMissingDoctor(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT d.available_slots").
		WithArgs("2026-09-01", int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"available_slots", "booked_slots"}))

	got, err := repo.AvailableSlots(context.Background(), 42, "2026-09-01")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("slots = %v, want empty", got)
	}
}
