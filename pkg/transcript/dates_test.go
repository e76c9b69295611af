package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimestamp(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Jan 27, 2020 at 11:00PM":           "Jan 27, 2020 11:00 PM",
		"Jan 27, 2020  at  11:00 pm":        "Jan 27, 2020 11:00 PM",
		"2020-01-28 5:00 p.m. ET":           "2020-01-28 5:00 PM",
		"2020-01-28 8:30 a.m. (EST)":        "2020-01-28 8:30 AM",
		"2020-01-28 17:00 ET":               "2020-01-28 17:00",
		"May 17, 2012 at 10:09am PST-08":    "May 17, 2012 10:09 AM",
		"Jan 28, 2020, ":                    "Jan 28, 2020",
		"Jan\u00a028,\u00a02020":            "Jan 28, 2020",
		"Q1 2020 Earnings Call":             "Q1 2020 Earnings Call",
		"Updated: Feb 5, 2020 at 2:30PM ET": "Updated: Feb 5, 2020 2:30 PM",
	}

	for in, want := range tests {
		assert.Equal(t, want, normalizeTimestamp(in), in)
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Jan 27, 2020 at 11:00PM", "2020-01-27 23:00:00"},
		{"Feb 5, 2020 at 2:30PM", "2020-02-05 14:30:00"},
		{"January 5, 2021 at 9:05 a.m. ET", "2021-01-05 09:05:00"},
		{"2020-01-28 5:00 p.m. ET", "2020-01-28 17:00:00"},
		{"2020-01-28 12:00 p.m.", "2020-01-28 12:00:00"},
		{"Jan 28, 2020", "2020-01-28 00:00:00"},
		{"", ""},
		{"not a date", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTimestamp(tt.in), tt.in)
	}
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2019-12-28", formatDate("December 28, 2019"))
	assert.Equal(t, "2020-03-31", formatDate("Mar 31, 2020"))
	assert.Equal(t, "2020-01-28", formatDate("Jan. 28, 2020"))
	assert.Equal(t, "", formatDate("the quarter"))
}
