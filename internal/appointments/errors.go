package appointments

import "errors"

var (
	// ErrSlotTaken means another active appointment already holds the slot.
	ErrSlotTaken = errors.New("appointments: slot already booked")
	// ErrPatientNotFound means the reservation email matched no patient.
	ErrPatientNotFound = errors.New("appointments: patient not found")
	// ErrPatientDoubleBooked means the patient already has an active
	// appointment at the same date and time.
	ErrPatientDoubleBooked = errors.New("appointments: patient already booked at this time")
	// ErrInvalidTime means the requested slot time could not be parsed.
	ErrInvalidTime = errors.New("appointments: invalid slot time")
	// ErrInvalidDate means the requested date is not an ISO calendar date.
	ErrInvalidDate = errors.New("appointments: invalid date")
)
