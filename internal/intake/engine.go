package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medibot/intake-platform/internal/mapping"
	"github.com/medibot/intake-platform/internal/observability/metrics"
	"github.com/medibot/intake-platform/internal/oracle"
	"github.com/medibot/intake-platform/internal/patients"
	"github.com/medibot/intake-platform/pkg/logging"
)

// PatientDirectory resolves returning patients and their history.
type PatientDirectory interface {
	GetByEmail(ctx context.Context, email string) (*patients.Patient, error)
	History(ctx context.Context, patientID int64) (*patients.History, error)
}

// ProfileSource synthesizes a placeholder profile for a new patient.
type ProfileSource interface {
	GenerateProfile(ctx context.Context, email string) oracle.Profile
}

// SpecialistSource maps collected symptoms to specialist types.
type SpecialistSource interface {
	RecommendSpecialists(ctx context.Context, symptoms []oracle.SymptomEntry) ([]string, string)
}

const (
	askEmailReply   = "Thanks! What is your email address?"
	renameReply     = "Please enter your full first and last name (letters only, at least two characters each)."
	reEmailReply    = "That doesn't look like an email address. Please try again."
	assessmentOpen  = "What symptoms or health concerns are you experiencing today? If none, please say 'no'."
	confirmHint     = `Please reply "confirm" to continue, or "edit" to correct your details.`
	editHint        = `Which field would you like to change? Reply like "phone: 555-0100" or "name: Jane Wexler".`
	completeReply   = "Your intake is complete. Thank you!"
	assessmentRetry = "Sorry, I didn't catch that. " + assessmentOpen
)

// Engine advances intake sessions turn by turn. It owns no storage; callers
// load the session, call one method, and save it back.
type Engine struct {
	oracle      oracle.Client
	directory   PatientDirectory
	profiles    ProfileSource
	recommender SpecialistSource
	summarizer  *oracle.Summarizer
	timeout     time.Duration
	metrics     *metrics.IntakeMetrics
	logger      *logging.Logger
}

// Symptom descriptions longer than this get condensed before storage.
const maxSymptomDescription = 500

// NewEngine wires the intake engine. metrics may be nil.
func NewEngine(client oracle.Client, directory PatientDirectory, profiles ProfileSource, recommender SpecialistSource, timeout time.Duration, m *metrics.IntakeMetrics, logger *logging.Logger) *Engine {
	if client == nil {
		client = oracle.Disabled{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		oracle:      client,
		directory:   directory,
		profiles:    profiles,
		recommender: recommender,
		summarizer:  oracle.NewSummarizer(client, timeout, logger),
		timeout:     timeout,
		metrics:     m,
		logger:      logger,
	}
}

// Start opens a new session and records the greeting.
func (e *Engine) Start(token string) *Session {
	e.metrics.RecordSessionStarted()
	return NewSession(token)
}

// Advance feeds one user utterance into the session and returns the
// assistant's reply. Validation failures re-prompt in place and never
// surface as errors.
func (e *Engine) Advance(ctx context.Context, s *Session, input string) (string, error) {
	input = strings.TrimSpace(input)
	s.append(SpeakerUser, input)

	var reply string
	var err error
	switch s.Phase {
	case PhaseCollectingName:
		reply = e.collectName(s, input)
	case PhaseCollectingEmail:
		reply, err = e.collectEmail(ctx, s, input)
	case PhaseAwaitingConfirmation:
		reply = e.handleConfirmationInput(s, input)
	case PhaseEditing:
		reply = e.applyEditInput(s, input)
	case PhaseHealthAssessment:
		reply, err = e.assessmentTurn(ctx, s)
	case PhaseComplete:
		reply = completeReply
	default:
		return "", fmt.Errorf("intake: unknown phase %q", s.Phase)
	}
	if err != nil {
		return "", err
	}

	s.append(SpeakerAssistant, reply)
	return reply, nil
}

// Confirm accepts the displayed details and moves the session into the
// health assessment. Only valid from awaiting_confirmation.
func (e *Engine) Confirm(s *Session) (string, error) {
	if s.Phase != PhaseAwaitingConfirmation {
		return "", fmt.Errorf("intake: confirm not allowed in phase %q", s.Phase)
	}
	e.enterAssessment(s)
	s.append(SpeakerAssistant, assessmentOpen)
	return assessmentOpen, nil
}

// Edit applies field updates and returns the session to confirmation.
// Valid from awaiting_confirmation or editing. Name, email and phone run
// through their validators; unknown fields are rejected.
func (e *Engine) Edit(s *Session, fields map[string]string) (string, error) {
	if s.Phase != PhaseAwaitingConfirmation && s.Phase != PhaseEditing {
		return "", fmt.Errorf("intake: edit not allowed in phase %q", s.Phase)
	}
	for field, value := range fields {
		if err := e.setField(s, field, value); err != nil {
			return "", err
		}
	}
	s.Phase = PhaseAwaitingConfirmation
	e.metrics.RecordTransition(string(PhaseEditing), "accepted")
	reply := e.confirmationPrompt(s)
	s.append(SpeakerAssistant, reply)
	return reply, nil
}

func (e *Engine) collectName(s *Session, input string) string {
	name, err := ValidateName(input)
	if err != nil {
		e.metrics.RecordTransition(string(PhaseCollectingName), "rejected")
		return renameReply
	}
	s.Record.FullName = name
	s.Phase = PhaseCollectingEmail
	e.metrics.RecordTransition(string(PhaseCollectingName), "accepted")
	return askEmailReply
}

func (e *Engine) collectEmail(ctx context.Context, s *Session, input string) (string, error) {
	email, err := ValidateEmail(input)
	if err != nil {
		e.metrics.RecordTransition(string(PhaseCollectingEmail), "rejected")
		return reEmailReply, nil
	}
	s.Record.Email = email

	existing, err := e.directory.GetByEmail(ctx, email)
	switch {
	case err == nil:
		e.adoptExisting(ctx, s, existing)
	case errors.Is(err, patients.ErrNotFound):
		e.adoptProfile(ctx, s, email)
	default:
		return "", fmt.Errorf("intake: patient lookup: %w", err)
	}

	s.Phase = PhaseAwaitingConfirmation
	e.metrics.RecordTransition(string(PhaseCollectingEmail), "accepted")
	return e.confirmationPrompt(s), nil
}

func (e *Engine) adoptExisting(ctx context.Context, s *Session, p *patients.Patient) {
	s.IsNewPatient = false
	// The name the patient just typed wins over the stored one; everything
	// else fills from the record.
	s.Record.Age = p.Age
	s.Record.Gender = p.Gender
	s.Record.Phone = p.Phone
	s.Record.Address = p.Address
	s.Record.DOB = p.DOB

	if h, err := e.directory.History(ctx, p.ID); err == nil {
		s.History = HistoryDisplay{
			PreviousSymptoms:    h.PreviousSymptoms,
			PreviousMedications: h.PreviousMedications,
			PreviousAllergies:   h.PreviousAllergies,
			PreviousSurgeries:   h.PreviousSurgeries,
		}
	} else {
		e.logger.Warn("history aggregation failed", "patient_id", p.ID, "error", err)
	}
}

func (e *Engine) adoptProfile(ctx context.Context, s *Session, email string) {
	s.IsNewPatient = true
	if e.profiles == nil {
		return
	}
	profile := e.profiles.GenerateProfile(ctx, email)
	// Only fill gaps: the validated name and email always win.
	if s.Record.Age == 0 {
		s.Record.Age = profile.Age
	}
	if s.Record.Gender == "" {
		s.Record.Gender = profile.Gender
	}
	if s.Record.Phone == "" {
		s.Record.Phone = profile.Phone
	}
	if s.Record.Address == "" {
		s.Record.Address = profile.Address
	}
	if s.Record.DOB == "" {
		s.Record.DOB = profile.DOB
	}
}

func (e *Engine) handleConfirmationInput(s *Session, input string) string {
	switch strings.ToLower(input) {
	case "confirm", "yes", "y":
		e.enterAssessment(s)
		return assessmentOpen
	case "edit", "no", "n":
		s.Phase = PhaseEditing
		e.metrics.RecordTransition(string(PhaseAwaitingConfirmation), "edit")
		return editHint
	default:
		e.metrics.RecordTransition(string(PhaseAwaitingConfirmation), "rejected")
		return confirmHint
	}
}

func (e *Engine) applyEditInput(s *Session, input string) string {
	field, value, ok := strings.Cut(input, ":")
	if !ok {
		return editHint
	}
	if err := e.setField(s, strings.TrimSpace(field), strings.TrimSpace(value)); err != nil {
		return editHint
	}
	s.Phase = PhaseAwaitingConfirmation
	e.metrics.RecordTransition(string(PhaseEditing), "accepted")
	return e.confirmationPrompt(s)
}

func (e *Engine) setField(s *Session, field, value string) error {
	switch strings.ToLower(field) {
	case "name", "full_name":
		name, err := ValidateName(value)
		if err != nil {
			return err
		}
		s.Record.FullName = name
	case "email":
		email, err := ValidateEmail(value)
		if err != nil {
			return err
		}
		s.Record.Email = email
	case "phone":
		phone, err := ValidatePhone(value)
		if err != nil {
			return err
		}
		s.Record.Phone = phone
	case "gender":
		s.Record.Gender = value
	case "address":
		s.Record.Address = value
	case "dob", "date_of_birth":
		s.Record.DOB = mapping.NormalizeDate(value)
	default:
		return fmt.Errorf("intake: unknown field %q", field)
	}
	return nil
}

func (e *Engine) enterAssessment(s *Session) {
	s.DataConfirmed = true
	s.InHealthAssessment = true
	s.Phase = PhaseHealthAssessment
	e.metrics.RecordTransition(string(PhaseAwaitingConfirmation), "accepted")
}

// assessmentTurn relays the conversation to the oracle. Oracle failures
// re-ask the current question instead of crashing the session, and any
// response without a completion payload is treated as "not yet complete".
func (e *Engine) assessmentTurn(ctx context.Context, s *Session) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	resp, err := e.oracle.Complete(ctx, oracle.Request{
		System:   oracle.HealthAssessmentPrompt,
		Messages: e.assessmentMessages(s),
	})
	if err != nil {
		e.metrics.RecordOracleRequest("assessment", "error", time.Since(started).Seconds())
		e.logger.Warn("assessment turn failed", "token", s.Token, "error", err)
		return assessmentRetry, nil
	}
	e.metrics.RecordOracleRequest("assessment", "ok", time.Since(started).Seconds())

	completion := oracle.ParseIntakeCompletion(resp.Text)
	if !completion.Done {
		return resp.Text, nil
	}

	e.mergePatientData(s, completion.PatientData)
	for i := range s.Record.CurrentSymptoms {
		if len(s.Record.CurrentSymptoms[i].Description) > maxSymptomDescription {
			s.Record.CurrentSymptoms[i].Description = e.summarizer.Summarize(ctx, s.Record.CurrentSymptoms[i].Description, maxSymptomDescription)
		}
	}
	if len(s.Record.AdditionalNotes) > maxSymptomDescription {
		s.Record.AdditionalNotes = e.summarizer.Summarize(ctx, s.Record.AdditionalNotes, maxSymptomDescription)
	}
	s.SymptomsCollected = true
	s.InHealthAssessment = false
	s.Phase = PhaseComplete
	e.metrics.RecordTransition(string(PhaseHealthAssessment), "accepted")

	if e.recommender != nil && len(s.Record.CurrentSymptoms) > 0 {
		entries := make([]oracle.SymptomEntry, len(s.Record.CurrentSymptoms))
		for i, sym := range s.Record.CurrentSymptoms {
			entries[i] = oracle.SymptomEntry{
				Description: sym.Description,
				Severity:    sym.Severity,
				Duration:    sym.Duration,
			}
		}
		s.RecommendedSpecialists, s.Rationale = e.recommender.RecommendSpecialists(ctx, entries)
	}

	if len(s.RecommendedSpecialists) > 0 {
		return fmt.Sprintf("%s Based on your symptoms, I recommend seeing a %s.",
			completeReply, strings.Join(s.RecommendedSpecialists, " or ")), nil
	}
	return completeReply, nil
}

// assessmentMessages projects the transcript since the assessment began into
// oracle roles. Earlier phases stay out of the prompt; the greeting and
// form-filling turns only confuse the interview.
func (e *Engine) assessmentMessages(s *Session) []oracle.Message {
	start := 0
	for i, t := range s.Transcript {
		if t.Speaker == SpeakerAssistant && t.Text == assessmentOpen {
			start = i
			break
		}
	}
	msgs := make([]oracle.Message, 0, len(s.Transcript)-start)
	for _, t := range s.Transcript[start:] {
		role := oracle.RoleUser
		if t.Speaker == SpeakerAssistant {
			role = oracle.RoleAssistant
		}
		msgs = append(msgs, oracle.Message{Role: role, Content: t.Text})
	}
	return msgs
}

// mergePatientData folds the oracle's completion payload into the record.
// Identity fields collected earlier in the conversation are never
// overwritten by oracle output.
func (e *Engine) mergePatientData(s *Session, data map[string]any) {
	raw, err := json.Marshal(data)
	if err != nil {
		e.logger.Warn("completion payload not re-encodable", "error", err)
		return
	}
	var parsed struct {
		FullName        string                  `json:"full_name"`
		Age             int                     `json:"age"`
		Gender          string                  `json:"gender"`
		Phone           string                  `json:"phone"`
		Address         string                  `json:"address"`
		DOB             string                  `json:"DOB"`
		CurrentSymptoms []mapping.SymptomReport `json:"current_symptoms"`
		OtherConcerns   string                  `json:"other_concerns"`
		AdditionalNotes string                  `json:"additional_notes"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		e.logger.Warn("completion payload malformed", "error", err)
		return
	}

	if s.Record.Age == 0 {
		s.Record.Age = parsed.Age
	}
	if s.Record.Gender == "" {
		s.Record.Gender = parsed.Gender
	}
	if s.Record.Phone == "" {
		s.Record.Phone = parsed.Phone
	}
	if s.Record.Address == "" {
		s.Record.Address = parsed.Address
	}
	if s.Record.DOB == "" {
		s.Record.DOB = mapping.NormalizeDate(parsed.DOB)
	}
	s.Record.CurrentSymptoms = append(s.Record.CurrentSymptoms, parsed.CurrentSymptoms...)
	s.Record.OtherConcerns = parsed.OtherConcerns
	s.Record.AdditionalNotes = parsed.AdditionalNotes
}

func (e *Engine) confirmationPrompt(s *Session) string {
	var b strings.Builder
	if s.IsNewPatient {
		b.WriteString("Welcome! Here's the profile we've prepared for you:\n")
	} else {
		b.WriteString("Welcome back! Here's what we have on file:\n")
	}
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\n", s.Record.FullName, s.Record.Email)
	if s.Record.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", s.Record.Phone)
	}
	if s.Record.DOB != "" {
		fmt.Fprintf(&b, "Date of birth: %s\n", s.Record.DOB)
	}
	if !s.IsNewPatient && s.History.PreviousSymptoms != "" {
		fmt.Fprintf(&b, "Previous symptoms: %s\n", s.History.PreviousSymptoms)
	}
	b.WriteString(confirmHint)
	return b.String()
}
