// Package mapping translates a completed intake summary into ordered,
// table-addressed write operations for the importer.
package mapping

// Operation is one table write. Exactly one of Columns or Records is set:
// Columns for a single-row insert, Records for a batch.
type Operation struct {
	Table   string           `json:"table"`
	Columns map[string]any   `json:"columns,omitempty"`
	Records []map[string]any `json:"records,omitempty"`
}

// SymptomReport is one complaint captured during the health assessment.
type SymptomReport struct {
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// PatientInfo is the demographic block of a completed intake.
type PatientInfo struct {
	FullName string `json:"full_name,omitempty"`
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	DOB      string `json:"DOB,omitempty"`
}

// AppointmentInfo describes the slot the patient settled on, if any.
type AppointmentInfo struct {
	DoctorID int64  `json:"doctor_id,omitempty"`
	Date     string `json:"appointment_date,omitempty"`
	Time     string `json:"appointment_time,omitempty"`
}

// Summary is everything a finished conversation produced.
type Summary struct {
	Patient               PatientInfo      `json:"patient_data"`
	Symptoms              []SymptomReport  `json:"symptoms,omitempty"`
	RecommendedSpecialist string           `json:"recommended_specialist,omitempty"`
	Appointment           *AppointmentInfo `json:"appointment,omitempty"`
}
