package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medibot/intake-platform/internal/appointments"
	"github.com/medibot/intake-platform/internal/booking"
	"github.com/medibot/intake-platform/internal/importer"
	"github.com/medibot/intake-platform/internal/mapping"
	"github.com/medibot/intake-platform/pkg/logging"
)

// Booker finds and reserves a slot for a completed intake.
type Booker interface {
	BookFirstAvailable(ctx context.Context, patientEmail string, specialists []string) (*appointments.Confirmation, error)
}

// Persister applies mapped operations for a completed intake.
type Persister interface {
	Apply(ctx context.Context, ops []mapping.Operation) (*importer.Result, error)
}

// JournalWriter records operation batches before they are applied.
type JournalWriter interface {
	Append(ctx context.Context, id string, ops []mapping.Operation) error
	Clear(ctx context.Context, id string) error
}

// Archiver copies conversation turns to the audit store. Implementations
// must be best-effort; AppendTurn cannot fail the request.
type Archiver interface {
	EnsureConversation(ctx context.Context, token string) (string, error)
	AppendTurn(ctx context.Context, conversationID, speaker, text string)
}

// Handler exposes the intake conversation over HTTP.
type Handler struct {
	engine    *Engine
	store     SessionStore
	mapper    *mapping.Mapper
	booker    Booker
	persister Persister
	journal   JournalWriter
	archive   Archiver
	logger    *logging.Logger
}

// NewHandler wires the intake endpoints. booker, journal and archive may be
// nil; booking then returns 503 and journaling/archiving are skipped.
func NewHandler(engine *Engine, store SessionStore, mapper *mapping.Mapper, booker Booker, persister Persister, journal JournalWriter, archive Archiver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:    engine,
		store:     store,
		mapper:    mapper,
		booker:    booker,
		persister: persister,
		journal:   journal,
		archive:   archive,
		logger:    logger,
	}
}

// RegisterRoutes mounts the conversation endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/intake/start", h.start)
	r.Get("/intake/{token}", h.get)
	r.Post("/intake/{token}/message", h.message)
	r.Post("/intake/{token}/confirm", h.confirm)
	r.Post("/intake/{token}/edit", h.edit)
	r.Post("/intake/{token}/book", h.book)
}

type turnResponse struct {
	Token string `json:"token"`
	Phase Phase  `json:"phase"`
	Reply string `json:"reply"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	s := h.engine.Start(uuid.NewString())
	if err := h.store.Save(r.Context(), s); err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, turnResponse{Token: s.Token, Phase: s.Phase, Reply: greeting})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) message(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reply, err := h.engine.Advance(r.Context(), s, body.Message)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.archiveTurns(r.Context(), s.Token, body.Message, reply)
	if err := h.store.Save(r.Context(), s); err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{Token: s.Token, Phase: s.Phase, Reply: reply})
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	reply, err := h.engine.Confirm(s)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := h.store.Save(r.Context(), s); err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{Token: s.Token, Phase: s.Phase, Reply: reply})
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reply, err := h.engine.Edit(s, body.Fields)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.store.Save(r.Context(), s); err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{Token: s.Token, Phase: s.Phase, Reply: reply})
}

// book reserves the earliest matching slot for a completed intake, then
// persists the whole conversation outcome in one import.
func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if s.Phase != PhaseComplete {
		writeError(w, http.StatusConflict, "intake not complete")
		return
	}
	if h.booker == nil {
		writeError(w, http.StatusServiceUnavailable, "booking unavailable")
		return
	}

	ctx := r.Context()
	conf, err := h.booker.BookFirstAvailable(ctx, s.Record.Email, s.RecommendedSpecialists)
	if err != nil {
		if errors.Is(err, booking.ErrNoSlot) {
			writeError(w, http.StatusConflict, "no available slot found")
			return
		}
		h.serverError(w, err)
		return
	}
	s.Appointment = &AppointmentSelection{
		DoctorID: conf.DoctorID,
		Date:     conf.Date,
		Time:     conf.Time,
	}

	ops := h.mapper.MapSummary(s.Summary())
	if h.journal != nil {
		if err := h.journal.Append(ctx, s.Token, ops); err != nil {
			h.logger.Warn("journal append failed", "token", s.Token, "error", err)
		}
	}
	if _, err := h.persister.Apply(ctx, ops); err != nil {
		h.serverError(w, err)
		return
	}
	if h.journal != nil {
		if err := h.journal.Clear(ctx, s.Token); err != nil {
			h.logger.Warn("journal clear failed", "token", s.Token, "error", err)
		}
	}
	if err := h.store.Save(ctx, s); err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

// archiveTurns copies one exchange to the audit store, best-effort.
func (h *Handler) archiveTurns(ctx context.Context, token, userText, reply string) {
	if h.archive == nil {
		return
	}
	conversationID, err := h.archive.EnsureConversation(ctx, token)
	if err != nil {
		h.logger.Warn("transcript archive unavailable", "token", token, "error", err)
		return
	}
	h.archive.AppendTurn(ctx, conversationID, SpeakerUser, userText)
	h.archive.AppendTurn(ctx, conversationID, SpeakerAssistant, reply)
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	token := chi.URLParam(r, "token")
	s, err := h.store.Load(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return nil, false
		}
		h.serverError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error("intake request failed", "error", err)
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
