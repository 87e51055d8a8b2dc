package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medibot/intake-platform/pkg/logging"
)

// SymptomEntry is one collected symptom, as produced by the health assessment.
type SymptomEntry struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Duration    string `json:"duration"`
}

// Recommender maps collected symptoms to specialist types via the oracle.
// Every failure mode — transport error, timeout, malformed output — degrades
// to an empty recommendation; a nil error with no specialists means "no
// recommendation available".
type Recommender struct {
	client  Client
	timeout time.Duration
	logger  *logging.Logger
}

// NewRecommender creates a recommender with the given oracle client.
func NewRecommender(client Client, timeout time.Duration, logger *logging.Logger) *Recommender {
	if client == nil {
		client = Disabled{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Recommender{client: client, timeout: timeout, logger: logger}
}

// RecommendSpecialists analyzes structured symptom entries.
func (r *Recommender) RecommendSpecialists(ctx context.Context, symptoms []SymptomEntry) ([]string, string) {
	var b strings.Builder
	for _, s := range symptoms {
		severity := s.Severity
		if severity == "" {
			severity = "unknown"
		}
		duration := s.Duration
		if duration == "" {
			duration = "unknown"
		}
		fmt.Fprintf(&b, "- %s (Severity: %s, Duration: %s)\n", s.Description, severity, duration)
	}
	return r.recommend(ctx, b.String())
}

// RecommendFromText analyzes a raw symptom description.
func (r *Recommender) RecommendFromText(ctx context.Context, text string) ([]string, string) {
	return r.recommend(ctx, text)
}

func (r *Recommender) recommend(ctx context.Context, symptomText string) ([]string, string) {
	if strings.TrimSpace(symptomText) == "" {
		return nil, ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.Complete(ctx, Request{
		Messages: []Message{{Role: RoleUser, Content: triagePromptHeader + symptomText + triagePromptFooter}},
	})
	if err != nil {
		r.logger.Warn("specialist recommendation failed", "error", err)
		return nil, ""
	}

	result := ParseRecommendation(resp.Text)
	if !result.OK {
		r.logger.Warn("specialist recommendation returned no usable JSON")
		return nil, ""
	}
	return result.Specialists, result.Rationale
}
