package patients

import "errors"

// Patient is the persisted demographic record. Email is the only stable
// lookup key exposed to callers.
type Patient struct {
	ID       int64  `json:"patient_id"`
	FullName string `json:"full_name"`
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	DOB      string `json:"DOB,omitempty"`
}

// History aggregates a patient's prior records into display strings for the
// returning-patient confirmation screen.
type History struct {
	PreviousSymptoms    string `json:"previous_symptoms"`
	PreviousMedications string `json:"previous_medications"`
	PreviousAllergies   string `json:"previous_allergies"`
	PreviousSurgeries   string `json:"previous_surgeries"`
}

// ErrNotFound indicates no patient row matched the lookup.
var ErrNotFound = errors.New("patients: not found")
