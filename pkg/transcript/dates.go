package transcript

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

var (
	atRe       = regexp.MustCompile(`(?i)\s+at\s+`)
	meridiemRe = regexp.MustCompile(`(?i)(\d)\s*([ap])\.?\s*m\.?(\s|$)`)
	zoneRe     = regexp.MustCompile(`^[A-Za-z]{1,5}(?:[+-]\d{1,2})?$`)
	clockRe    = regexp.MustCompile(`\d:\d\d(?::\d\d)?$`)
)

var timestampLayouts = []string{
	"Jan 2, 2006 3:04 PM",
	"January 2, 2006 3:04 PM",
	"Jan. 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"January 2, 2006 15:04",
	"2006-01-02 3:04 PM",
	"2006-01-02 3:04:05 PM",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan. 2, 2006",
	"2006-01-02",
}

// normalizeTimestamp rewrites the free-form date/time text used on transcript pages
// ("Jan 27, 2020 at 11:00PM", "5:00 p.m. ET") into a shape the layouts above accept.
// Trailing time zone abbreviations are dropped; times are kept as wall-clock values.
func normalizeTimestamp(s string) string {
	s = normalizeSpace(s)
	s = atRe.ReplaceAllString(s, " ")
	s = meridiemRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := meridiemRe.FindStringSubmatch(m)
		return sub[1] + " " + strings.ToUpper(sub[2]) + "M" + sub[3]
	})
	s = strings.TrimSpace(s)
	return strings.TrimRight(stripZone(s), " ,.")
}

// stripZone drops a trailing zone token ("ET", "(PST)", "PST-08") that follows a clock
// time or meridiem.
func stripZone(s string) string {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return s
	}

	last := strings.Trim(fields[len(fields)-1], "()")
	prev := fields[len(fields)-2]
	if last == "AM" || last == "PM" || !zoneRe.MatchString(last) {
		return s
	}
	if prev != "AM" && prev != "PM" && !clockRe.MatchString(prev) {
		return s
	}
	return strings.Join(fields[:len(fields)-1], " ")
}

// parseTimestamp parses s with the known layouts, then falls back to dateparse.
func parseTimestamp(s string) (time.Time, error) {
	norm := normalizeTimestamp(s)
	if norm == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return t, nil
		}
	}

	t, err := dateparse.ParseIn(norm, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// formatTimestamp returns s in canonical "YYYY-MM-DD HH:MM:SS" form, or "" if it
// cannot be parsed.
func formatTimestamp(s string) string {
	t, err := parseTimestamp(s)
	if err != nil {
		return ""
	}
	return t.Format(timestampLayout)
}

// formatDate returns s in canonical "YYYY-MM-DD" form, or "" if it cannot be parsed.
func formatDate(s string) string {
	t, err := parseTimestamp(s)
	if err != nil {
		return ""
	}
	return t.Format(dateLayout)
}
