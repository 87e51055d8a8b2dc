package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/medibot/intake-platform/internal/appointments"
	"github.com/medibot/intake-platform/internal/doctors"
	"github.com/medibot/intake-platform/pkg/logging"
)

type stubDirectory struct {
	doctors map[string][]doctors.Doctor
	slots   map[string][]string // "doctorID|date" -> slots
}

func (s *stubDirectory) ListBySpecialization(_ context.Context, specialization string) ([]doctors.Doctor, error) {
	return s.doctors[specialization], nil
}

func (s *stubDirectory) AvailableSlots(_ context.Context, doctorID int64, date string) ([]string, error) {
	return s.slots[slotKey(doctorID, date)], nil
}

func slotKey(doctorID int64, date string) string {
	return fmt.Sprintf("%d|%s", doctorID, date)
}

type stubReserver struct {
	failures map[string]error // "date time" -> error
	booked   []appointments.Reservation
}

func (s *stubReserver) Reserve(_ context.Context, req appointments.Reservation) (*appointments.Confirmation, error) {
	if err := s.failures[req.Date+" "+req.Time]; err != nil {
		return nil, err
	}
	s.booked = append(s.booked, req)
	return &appointments.Confirmation{
		AppointmentID: int64(len(s.booked)),
		DoctorID:      req.DoctorID,
		Date:          req.Date,
		Time:          req.Time,
	}, nil
}

// Monday 2026-08-31.
var monday = time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

func newTestBooker(dir *stubDirectory, res *stubReserver) *Booker {
	b := New(dir, res, 7, logging.Default())
	b.now = func() time.Time { return monday }
	return b
}

func TestBookFirstAvailable(t *testing.T) {
	dir := &stubDirectory{
		doctors: map[string][]doctors.Doctor{
			"cardiologist": {{ID: 3, FullName: "Dr. Adams", AvailableDays: "mon-fri"}},
		},
		slots: map[string][]string{
			slotKey(3, "2026-08-31"): {"09:00", "10:00"},
		},
	}
	res := &stubReserver{}

	conf, err := newTestBooker(dir, res).BookFirstAvailable(context.Background(), "john@example.com", []string{"cardiologist"})
	if err != nil {
		t.Fatalf("BookFirstAvailable: %v", err)
	}
	if conf.DoctorID != 3 || conf.Date != "2026-08-31" || conf.Time != "09:00" {
		t.Fatalf("confirmation = %+v", conf)
	}
}

func TestBookSkipsNonWorkingDays(t *testing.T) {
	dir := &stubDirectory{
		doctors: map[string][]doctors.Doctor{
			"dermatologist": {{ID: 4, FullName: "Dr. Brown", AvailableDays: "wed"}},
		},
		slots: map[string][]string{
			slotKey(4, "2026-09-02"): {"11:00"}, // Wednesday
		},
	}
	res := &stubReserver{}

	conf, err := newTestBooker(dir, res).BookFirstAvailable(context.Background(), "x@y.com", []string{"dermatologist"})
	if err != nil {
		t.Fatalf("BookFirstAvailable: %v", err)
	}
	if conf.Date != "2026-09-02" {
		t.Fatalf("date = %s, want 2026-09-02", conf.Date)
	}
}

func TestBookRetriesAfterSlotRace(t *testing.T) {
	dir := &stubDirectory{
		doctors: map[string][]doctors.Doctor{
			"cardiologist": {{ID: 3, AvailableDays: "mon-fri"}},
		},
		slots: map[string][]string{
			slotKey(3, "2026-08-31"): {"09:00", "10:00"},
		},
	}
	res := &stubReserver{
		failures: map[string]error{"2026-08-31 09:00": appointments.ErrSlotTaken},
	}

	conf, err := newTestBooker(dir, res).BookFirstAvailable(context.Background(), "x@y.com", []string{"cardiologist"})
	if err != nil {
		t.Fatalf("BookFirstAvailable: %v", err)
	}
	if conf.Time != "10:00" {
		t.Fatalf("time = %s, want 10:00", conf.Time)
	}
}

func TestBookFallsBackAcrossSpecialties(t *testing.T) {
	dir := &stubDirectory{
		doctors: map[string][]doctors.Doctor{
			"neurologist":  {},
			"cardiologist": {{ID: 3, AvailableDays: "mon"}},
		},
		slots: map[string][]string{
			slotKey(3, "2026-08-31"): {"14:00"},
		},
	}
	res := &stubReserver{}

	conf, err := newTestBooker(dir, res).BookFirstAvailable(context.Background(), "x@y.com", []string{"neurologist", "cardiologist"})
	if err != nil {
		t.Fatalf("BookFirstAvailable: %v", err)
	}
	if conf.DoctorID != 3 {
		t.Fatalf("doctor = %d, want 3", conf.DoctorID)
	}
}

func TestBookNoSlotAnywhere(t *testing.T) {
	dir := &stubDirectory{
		doctors: map[string][]doctors.Doctor{
			"cardiologist": {{ID: 3, AvailableDays: "mon-fri"}},
		},
		slots: map[string][]string{},
	}
	res := &stubReserver{}

	_, err := newTestBooker(dir, res).BookFirstAvailable(context.Background(), "x@y.com", []string{"cardiologist"})
	if !errors.Is(err, ErrNoSlot) {
		t.Fatalf("err = %v, want ErrNoSlot", err)
	}
}
