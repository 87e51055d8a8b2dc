package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medibot/intake-platform/pkg/logging"
)

// Handler exposes slot reservation over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler wires the reservation endpoints.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the public reservation endpoint on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/appointments/reserve", h.reserve)
}

// RegisterAdminRoutes mounts the schedule view on r.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/appointments", h.listUpcoming)
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	var req Reservation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientEmail == "" || req.DoctorID == 0 {
		writeError(w, http.StatusUnprocessableEntity, "patient_email and doctor_id are required")
		return
	}

	conf, err := h.service.Reserve(r.Context(), req)
	if err != nil {
		h.writeReserveError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

func (h *Handler) listUpcoming(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if from == "" {
		from = time.Now().Format("2006-01-02")
	}
	out, err := h.service.ListUpcoming(r.Context(), from)
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		h.serverError(w, err)
		return
	}
	if out == nil {
		out = []Appointment{}
	}
	writeJSON(w, http.StatusOK, out)
}

// writeReserveError maps the reservation failure modes onto stable HTTP
// statuses so UI clients can branch on them.
func (h *Handler) writeReserveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot already booked")
	case errors.Is(err, ErrPatientDoubleBooked):
		writeError(w, http.StatusConflict, "patient already booked at this time")
	case errors.Is(err, ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrInvalidTime), errors.Is(err, ErrInvalidDate):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.serverError(w, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error("appointment request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
