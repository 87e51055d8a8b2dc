package doctors

import "strings"

var dayOrder = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var dayNames = map[string]string{
	"mon": "Monday",
	"tue": "Tuesday",
	"wed": "Wednesday",
	"thu": "Thursday",
	"fri": "Friday",
	"sat": "Saturday",
	"sun": "Sunday",
}

// ParseAvailableDays expands the compact notation stored on a doctor row into
// full weekday names. Two forms are accepted: a range ("mon-fri", including
// wrap-around like "fri-mon") and a list ("mon,wed,fri"). Unrecognized tokens
// are dropped.
func ParseAvailableDays(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	if strings.Contains(s, "-") {
		return parseDayRange(s)
	}
	return parseDayList(s)
}

func parseDayRange(s string) []string {
	parts := strings.SplitN(s, "-", 2)
	start := dayIndex(strings.TrimSpace(parts[0]))
	end := dayIndex(strings.TrimSpace(parts[1]))
	if start < 0 || end < 0 {
		return nil
	}
	if end < start {
		end += 7
	}
	days := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		days = append(days, dayNames[dayOrder[i%7]])
	}
	return days
}

func parseDayList(s string) []string {
	var days []string
	for _, part := range strings.Split(s, ",") {
		if i := dayIndex(strings.TrimSpace(part)); i >= 0 {
			days = append(days, dayNames[dayOrder[i]])
		}
	}
	return days
}

func dayIndex(key string) int {
	for i, d := range dayOrder {
		if d == key || strings.ToLower(dayNames[d]) == key {
			return i
		}
	}
	return -1
}
