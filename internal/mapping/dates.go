package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Ordered: the first layout that parses wins, so day-first forms shadow
// month-first ones for ambiguous inputs like 03/04/2001.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"01-02-2006",
}

var pyDateRepr = regexp.MustCompile(`^datetime\.date\((\d+),\s*(\d+),\s*(\d+)\)$`)

// NormalizeDate canonicalizes a free-form date string to "YYYY-MM-DD".
// Serialized date reprs of the form datetime.date(Y, M, D) show up when an
// upstream tool stringifies its values, so those are unwrapped too. Inputs
// that match nothing pass through unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if m := pyDateRepr.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
