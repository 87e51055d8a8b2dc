package appointments

import (
	"fmt"
	"time"
)

// NormalizeTime canonicalizes a slot time to "HH:MM:00". Inputs may be
// "HH:MM" or "HH:MM:SS"; seconds are dropped because slots are minute
// granular. Anything unparseable returns ErrInvalidTime.
func NormalizeTime(s string) (string, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04") + ":00", nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// ValidateDate checks the ISO calendar date form used across the API.
func ValidateDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}
