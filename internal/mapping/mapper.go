package mapping

import (
	"fmt"
	"time"
)

// Mapper builds the importer's operation list from a Summary. The clock is
// injectable so recorded_at timestamps are deterministic in tests.
type Mapper struct {
	now func() time.Time
}

// NewMapper returns a Mapper using the wall clock.
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// NewMapperWithClock returns a Mapper with a fixed clock for tests.
func NewMapperWithClock(now func() time.Time) *Mapper {
	return &Mapper{now: now}
}

// MapSummary flattens a summary into ordered operations: the patient row
// first (the importer needs its id for everything downstream), then the
// appointment if one was chosen, then the symptom batch. Empty demographic
// fields are left out of the column map entirely rather than written as
// zero values.
func (m *Mapper) MapSummary(s Summary) []Operation {
	var ops []Operation

	cols := map[string]any{}
	putString(cols, "full_name", s.Patient.FullName)
	if s.Patient.Age > 0 {
		cols["age"] = s.Patient.Age
	}
	putString(cols, "gender", s.Patient.Gender)
	putString(cols, "email", s.Patient.Email)
	putString(cols, "phone", s.Patient.Phone)
	putString(cols, "address", s.Patient.Address)
	if s.Patient.DOB != "" {
		cols["dob"] = NormalizeDate(s.Patient.DOB)
	}
	if len(cols) > 0 {
		ops = append(ops, Operation{Table: "patients", Columns: cols})
	}

	if s.Appointment != nil {
		ops = append(ops, Operation{Table: "appointments", Columns: map[string]any{
			"doctor_id":        s.Appointment.DoctorID,
			"appointment_date": NormalizeDate(s.Appointment.Date),
			"appointment_time": s.Appointment.Time,
		}})
	}

	recordedAt := m.now().UTC().Format("2006-01-02 15:04:05")
	var records []map[string]any
	for _, sym := range s.Symptoms {
		if sym.Description == "" {
			continue
		}
		records = append(records, map[string]any{
			"symptom_description": sym.Description,
			"severity":            orUnknown(sym.Severity),
			"duration":            orUnknown(sym.Duration),
			"recorded_at":         recordedAt,
		})
	}
	if s.Appointment != nil {
		// The booked slot is journaled into the symptom history so the
		// next intake can surface it as context.
		records = append(records, map[string]any{
			"symptom_description": fmt.Sprintf("Appointment booked with doctor %d on %s at %s",
				s.Appointment.DoctorID, NormalizeDate(s.Appointment.Date), s.Appointment.Time),
			"severity":    "info",
			"duration":    "N/A",
			"recorded_at": recordedAt,
		})
	}
	if len(records) > 0 {
		ops = append(ops, Operation{Table: "symptoms", Records: records})
	}

	return ops
}

func putString(cols map[string]any, key, val string) {
	if val != "" {
		cols[key] = val
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
