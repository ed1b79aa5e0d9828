// Package clock orders the free-text time strings that activity rows
// carry. Input formats are not validated upstream, so the parser
// accepts both 12-hour ("9:30am", "9 PM") and 24-hour ("14:00", "9")
// forms and degrades to midnight on anything unparseable.
package clock

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	twelveHour     = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
	twentyFourHour = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?$`)
)

// Minutes parses s into a minute-of-day integer. Unparseable input
// yields 0 (midnight) rather than an error; callers sort on the result
// and an error path here would only turn bad data into failed writes.
func Minutes(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))

	if m := twelveHour.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		switch m[3] {
		case "pm":
			if h < 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
		return h*60 + min
	}

	if m := twentyFourHour.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		return h*60 + min
	}

	return 0
}

// Compare returns a negative, zero, or positive value as a occurs
// before, at, or after b within the same day.
func Compare(a, b string) int {
	return Minutes(a) - Minutes(b)
}
