// Package booking turns a specialist recommendation into a concrete
// reservation by walking doctors, days and open slots in order.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/medibot/intake-platform/internal/appointments"
	"github.com/medibot/intake-platform/internal/doctors"
	"github.com/medibot/intake-platform/pkg/logging"
)

// ErrNoSlot means no doctor in any recommended specialty had an open slot
// inside the search horizon.
var ErrNoSlot = errors.New("booking: no available slot found")

// SpecialistDirectory finds candidate doctors and their open slots.
type SpecialistDirectory interface {
	ListBySpecialization(ctx context.Context, specialization string) ([]doctors.Doctor, error)
	AvailableSlots(ctx context.Context, doctorID int64, date string) ([]string, error)
}

// SlotReserver books a concrete slot.
type SlotReserver interface {
	Reserve(ctx context.Context, req appointments.Reservation) (*appointments.Confirmation, error)
}

// Booker searches the next horizonDays calendar days for the earliest open
// slot with any doctor matching the recommended specialties.
type Booker struct {
	directory   SpecialistDirectory
	reserver    SlotReserver
	horizonDays int
	now         func() time.Time
	logger      *logging.Logger
}

// New wires a Booker. horizonDays defaults to 7 when non-positive.
func New(directory SpecialistDirectory, reserver SlotReserver, horizonDays int, logger *logging.Logger) *Booker {
	if horizonDays <= 0 {
		horizonDays = 7
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Booker{
		directory:   directory,
		reserver:    reserver,
		horizonDays: horizonDays,
		now:         time.Now,
		logger:      logger,
	}
}

// BookFirstAvailable tries each recommended specialty in order, each doctor
// in directory order, each day the doctor works inside the horizon, and each
// open slot, reserving the first one that sticks. Losing a slot race is not
// fatal; the search moves to the next candidate.
func (b *Booker) BookFirstAvailable(ctx context.Context, patientEmail string, specialists []string) (*appointments.Confirmation, error) {
	today := b.now()
	for _, specialty := range specialists {
		specialty = strings.TrimSpace(specialty)
		if specialty == "" {
			continue
		}
		candidates, err := b.directory.ListBySpecialization(ctx, specialty)
		if err != nil {
			return nil, err
		}
		for i := range candidates {
			conf, err := b.tryDoctor(ctx, patientEmail, &candidates[i], today)
			if err != nil {
				return nil, err
			}
			if conf != nil {
				return conf, nil
			}
		}
	}
	return nil, ErrNoSlot
}

func (b *Booker) tryDoctor(ctx context.Context, patientEmail string, d *doctors.Doctor, today time.Time) (*appointments.Confirmation, error) {
	workdays := make(map[string]struct{})
	for _, day := range doctors.ParseAvailableDays(d.AvailableDays) {
		workdays[day] = struct{}{}
	}
	if len(workdays) == 0 {
		return nil, nil
	}

	for offset := 0; offset < b.horizonDays; offset++ {
		day := today.AddDate(0, 0, offset)
		if _, works := workdays[day.Weekday().String()]; !works {
			continue
		}
		date := day.Format("2006-01-02")
		slots, err := b.directory.AvailableSlots(ctx, d.ID, date)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			conf, err := b.reserver.Reserve(ctx, appointments.Reservation{
				PatientEmail: patientEmail,
				DoctorID:     d.ID,
				Date:         date,
				Time:         slot,
			})
			if err == nil {
				return conf, nil
			}
			if errors.Is(err, appointments.ErrSlotTaken) || errors.Is(err, appointments.ErrPatientDoubleBooked) {
				b.logger.Info("slot contended, trying next",
					"doctor_id", d.ID, "date", date, "slot", slot)
				continue
			}
			return nil, err
		}
	}
	return nil, nil
}
