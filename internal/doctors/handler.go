package doctors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/medibot/intake-platform/internal/http/middleware"
	"github.com/medibot/intake-platform/internal/observability/metrics"
	"github.com/medibot/intake-platform/pkg/logging"
)

// Handler exposes the doctor directory over HTTP.
type Handler struct {
	repo    *Repository
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewHandler wires the doctor endpoints. m may be nil.
func NewHandler(repo *Repository, m *metrics.BookingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, metrics: m, logger: logger}
}

// RegisterRoutes mounts the public directory endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/doctors", h.list)
	r.Get("/doctors/{id}", h.get)
	r.Get("/doctors/{id}/slots", h.slots)
}

// RegisterAdminRoutes mounts the provisioning endpoints on r.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/doctors", h.create)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListBySpecialization(r.Context(), r.URL.Query().Get("specialization"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if out == nil {
		out = []Doctor{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return
	}
	d, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "doctor not found")
			return
		}
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) slots(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return
	}
	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	h.metrics.RecordSlotQuery()
	slots, err := h.repo.AvailableSlots(r.Context(), id, date)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doctor_id": id,
		"date":      date,
		"slots":     slots,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var d Doctor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if d.FullName == "" || d.Specialization == "" {
		writeError(w, http.StatusUnprocessableEntity, "full_name and specialization are required")
		return
	}
	if d.AvailableDays != "" && len(ParseAvailableDays(d.AvailableDays)) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "available_days not recognized")
		return
	}

	id, err := h.repo.Create(r.Context(), &d)
	if err != nil {
		h.serverError(w, err)
		return
	}
	d.ID = id
	actor := "unknown"
	if claims, ok := httpmiddleware.StaffClaimsFromContext(r.Context()); ok {
		actor = claims.Subject
	}
	h.logger.Info("doctor provisioned", "doctor_id", id, "specialization", d.Specialization, "actor", actor)
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error("doctor request failed", "error", err)
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
