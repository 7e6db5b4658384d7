package hrapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthLayouts = []string{
	time.DateOnly,
	"2006-01",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// MonthOf returns the month number ("1" to "12") of a backend date, or ""
// when the value is not a recognised date.
func MonthOf(date string) string {
	date = strings.TrimSpace(date)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return strconv.Itoa(int(t.Month()))
		}
	}
	return ""
}

// ParseMonth turns user input such as "3", "03", "mar" or "March" into a
// FacetMonth value. An empty input selects every month.
func ParseMonth(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return "", fmt.Errorf("month %d out of range 1-12", n)
		}
		return strconv.Itoa(n), nil
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return strconv.Itoa(int(m)), nil
		}
	}
	return "", fmt.Errorf("unknown month %q", s)
}
