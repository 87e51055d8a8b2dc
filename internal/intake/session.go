// Package intake drives the multi-turn patient intake conversation: a flat
// phase machine that collects identity, confirms it, hands the symptom
// interview to the oracle, and produces a summary for the importer.
package intake

import (
	"time"

	"github.com/medibot/intake-platform/internal/mapping"
)

// Phase tags the current position in the intake conversation.
type Phase string

const (
	PhaseCollectingName       Phase = "collecting_name"
	PhaseCollectingEmail      Phase = "collecting_email"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseEditing              Phase = "editing"
	PhaseHealthAssessment     Phase = "health_assessment"
	PhaseComplete             Phase = "complete"
)

// Speakers recorded on transcript turns.
const (
	SpeakerUser      = "user"
	SpeakerAssistant = "assistant"
)

// Turn is one utterance in the conversation transcript.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// PatientRecord accumulates everything the conversation learns about the
// patient. Fields stay empty until a phase fills them.
type PatientRecord struct {
	FullName        string                  `json:"full_name,omitempty"`
	Age             int                     `json:"age,omitempty"`
	Gender          string                  `json:"gender,omitempty"`
	Email           string                  `json:"email,omitempty"`
	Phone           string                  `json:"phone,omitempty"`
	Address         string                  `json:"address,omitempty"`
	DOB             string                  `json:"DOB,omitempty"`
	CurrentSymptoms []mapping.SymptomReport `json:"current_symptoms,omitempty"`
	OtherConcerns   string                  `json:"other_concerns,omitempty"`
	AdditionalNotes string                  `json:"additional_notes,omitempty"`
}

// AppointmentSelection is the slot the conversation settled on.
type AppointmentSelection struct {
	DoctorID int64  `json:"doctor_id"`
	Date     string `json:"appointment_date"`
	Time     string `json:"appointment_time"`
}

// HistoryDisplay carries the aggregated prior records shown to a returning
// patient during confirmation.
type HistoryDisplay struct {
	PreviousSymptoms    string `json:"previous_symptoms,omitempty"`
	PreviousMedications string `json:"previous_medications,omitempty"`
	PreviousAllergies   string `json:"previous_allergies,omitempty"`
	PreviousSurgeries   string `json:"previous_surgeries,omitempty"`
}

// Session is the full serializable conversation state, keyed by token in the
// session store. One logical flow of control mutates it at a time.
type Session struct {
	Token      string         `json:"token"`
	Phase      Phase          `json:"phase"`
	Record     PatientRecord  `json:"record"`
	Transcript []Turn         `json:"transcript"`
	History    HistoryDisplay `json:"history"`

	DataConfirmed      bool `json:"data_confirmed"`
	InHealthAssessment bool `json:"in_health_assessment"`
	SymptomsCollected  bool `json:"symptoms_collected"`
	IsNewPatient       bool `json:"is_new_patient"`

	RecommendedSpecialists []string              `json:"recommended_specialists,omitempty"`
	Rationale              string                `json:"rationale,omitempty"`
	Appointment            *AppointmentSelection `json:"appointment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const greeting = "Welcome to MediBot! I'll help you check in. What is your full name?"

// NewSession opens a conversation in the name-collection phase.
func NewSession(token string) *Session {
	now := time.Now().UTC()
	return &Session{
		Token:      token,
		Phase:      PhaseCollectingName,
		Transcript: []Turn{{Speaker: SpeakerAssistant, Text: greeting}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *Session) append(speaker, text string) {
	s.Transcript = append(s.Transcript, Turn{Speaker: speaker, Text: text})
	s.UpdatedAt = time.Now().UTC()
}

// Summary flattens the session into the mapper's input. Only meaningful
// after the conversation reaches the complete phase.
func (s *Session) Summary() mapping.Summary {
	out := mapping.Summary{
		Patient: mapping.PatientInfo{
			FullName: s.Record.FullName,
			Age:      s.Record.Age,
			Gender:   s.Record.Gender,
			Email:    s.Record.Email,
			Phone:    s.Record.Phone,
			Address:  s.Record.Address,
			DOB:      s.Record.DOB,
		},
		Symptoms: s.Record.CurrentSymptoms,
	}
	if len(s.RecommendedSpecialists) > 0 {
		out.RecommendedSpecialist = s.RecommendedSpecialists[0]
	}
	if s.Appointment != nil {
		out.Appointment = &mapping.AppointmentInfo{
			DoctorID: s.Appointment.DoctorID,
			Date:     s.Appointment.Date,
			Time:     s.Appointment.Time,
		}
	}
	return out
}
