package appointments

// Statuses stored on the appointments.status column. Only active rows count
// toward double-booking checks.
const (
	StatusActive    = 1
	StatusCancelled = 0
)

// Appointment is one booked (or historical) appointment row.
type Appointment struct {
	ID          int64  `json:"appointment_id"`
	PatientID   int64  `json:"patient_id"`
	DoctorID    int64  `json:"doctor_id"`
	Date        string `json:"appointment_date"`
	Time        string `json:"appointment_time"`
	Status      int    `json:"status"`
	PatientName string `json:"patient_name,omitempty"`
	DoctorName  string `json:"doctor_name,omitempty"`
}

// Reservation is a request to book a concrete slot.
type Reservation struct {
	PatientEmail string `json:"patient_email"`
	DoctorID     int64  `json:"doctor_id"`
	Date         string `json:"appointment_date"`
	Time         string `json:"appointment_time"`
}

// Confirmation is returned after a successful reservation.
type Confirmation struct {
	AppointmentID int64  `json:"appointment_id"`
	PatientID     int64  `json:"patient_id"`
	DoctorID      int64  `json:"doctor_id"`
	Date          string `json:"appointment_date"`
	Time          string `json:"appointment_time"`
}
