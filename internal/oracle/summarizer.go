package oracle

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/medibot/intake-platform/pkg/logging"
)

// Summarizer condenses long medical free text before storage. On any oracle
// failure it degrades to plain truncation.
type Summarizer struct {
	client  Client
	timeout time.Duration
	logger  *logging.Logger
}

// NewSummarizer creates a summarizer.
func NewSummarizer(client Client, timeout time.Duration, logger *logging.Logger) *Summarizer {
	if client == nil {
		client = Disabled{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Summarizer{client: client, timeout: timeout, logger: logger}
}

// Summarize returns text at most maxLen characters long, using the oracle to
// keep key symptoms, severity and duration when the input is over the limit.
func (s *Summarizer) Summarize(ctx context.Context, text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`Summarize the following medical information concisely (maximum %d characters) while preserving all important medical details:

%s

Keep it professional and medically accurate. Include key symptoms, severity, and duration if mentioned.`, maxLen, text)

	resp, err := s.client.Complete(ctx, Request{
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	})
	if err != nil || resp.Text == "" {
		s.logger.Warn("symptom summarization failed, truncating", "error", err)
		return truncate(text, maxLen)
	}
	return truncate(resp.Text, maxLen)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	// Back off to a rune boundary so multi-byte text is not split.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
