package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/medibot/intake-platform/pkg/logging"
)

// Profile is a synthesized placeholder patient profile for an email with no
// existing record.
type Profile struct {
	FullName string `json:"full_name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	DOB      string `json:"DOB"`
	Email    string `json:"email"`
}

// ProfileGenerator synthesizes placeholder profiles via the oracle, falling
// back to a static guest profile when the oracle cannot produce one.
type ProfileGenerator struct {
	client  Client
	timeout time.Duration
	logger  *logging.Logger
}

// NewProfileGenerator creates a profile generator.
func NewProfileGenerator(client Client, timeout time.Duration, logger *logging.Logger) *ProfileGenerator {
	if client == nil {
		client = Disabled{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ProfileGenerator{client: client, timeout: timeout, logger: logger}
}

// GenerateProfile returns a plausible fake profile for the email. The email
// field is always forced to the requested address regardless of oracle output.
func (g *ProfileGenerator) GenerateProfile(ctx context.Context, email string) Profile {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`Generate a realistic but fake patient profile as a JSON object for the following email: %s.
Include: full_name, age, gender, address, phone, DOB (YYYY-MM-DD), and use the email provided.
Return only the JSON object.`, email)

	resp, err := g.client.Complete(ctx, Request{
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	})
	if err == nil {
		if obj, ok := ExtractJSON(resp.Text); ok {
			if p, ok := profileFromMap(obj); ok {
				p.Email = email
				return p
			}
		}
		g.logger.Warn("profile generation returned no usable JSON")
	} else {
		g.logger.Warn("profile generation failed", "error", err)
	}

	return guestProfile(email)
}

func profileFromMap(obj map[string]any) (Profile, bool) {
	// Round-trip through JSON to tolerate numbers arriving as float64.
	raw, err := json.Marshal(obj)
	if err != nil {
		return Profile{}, false
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, false
	}
	if strings.TrimSpace(p.FullName) == "" {
		return Profile{}, false
	}
	return p, true
}

func guestProfile(email string) Profile {
	return Profile{
		FullName: "Guest User",
		Age:      30,
		Gender:   "Other",
		Address:  "123 Main St, City",
		Phone:    "0000000000",
		DOB:      time.Now().AddDate(-30, 0, 0).Format("2006-01-02"),
		Email:    email,
	}
}
