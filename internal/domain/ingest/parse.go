package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 02, 2006",
}

// ParseDate parses a game date. It never fails: unparseable values return
// the zero time and false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseMinutes converts a minutes value to fractional minutes.
// "MM:SS" becomes MM + SS/60 and any malformed clock string becomes 0.
// Other values are parsed as plain numbers; NaN marks a missing value.
func ParseMinutes(s string) float64 {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 2 {
			return 0
		}
		m, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0
		}
		sec, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0
		}
		return float64(m) + float64(sec)/60
	}
	return parseNumber(s)
}

// parseNumber parses a numeric cell. Empty or non-numeric cells are NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// orZero replaces NaN with 0.
func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// normalizeID renders numeric ids without a fractional part so "1610612747"
// and "1610612747.0" name the same team.
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return strconv.FormatInt(int64(v), 10)
	}
	return s
}
