package doctors

// Doctor is the provisioned practitioner record. AvailableSlots is the
// recurring weekly offering of "HH:MM" times, independent of calendar date.
type Doctor struct {
	ID              int64    `json:"doctor_id"`
	FullName        string   `json:"full_name"`
	Specialization  string   `json:"specialization"`
	ExperienceYears int      `json:"experience_years"`
	AvailableDays   string   `json:"available_days"`
	AvailableSlots  []string `json:"available_slots"`
}
