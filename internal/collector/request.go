package collector

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"CycleSentinel/internal/model"
)

// DefaultRange is used when a range string is empty or malformed.
const DefaultRange = "5y"

var rangePattern = regexp.MustCompile(`^(\d+)([dwmy])$`)

// Request describes one history or analysis request.
type Request struct {
	Symbol   string
	Range    string
	Interval model.Interval
}

// ParseRange converts a range such as "90d", "6m" or "5y" into a window
// ending at now. Malformed input falls back to five years.
func ParseRange(rng string, now time.Time) (start, end time.Time) {
	end = now
	m := rangePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(rng)))
	if m == nil {
		return end.AddDate(-5, 0, 0), end
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return end.AddDate(-5, 0, 0), end
	}
	switch m[2] {
	case "d":
		start = end.AddDate(0, 0, -value)
	case "w":
		start = end.AddDate(0, 0, -7*value)
	case "m":
		start = end.AddDate(0, -value, 0)
	default:
		start = end.AddDate(-value, 0, 0)
	}
	return start, end
}

// ParseInterval maps "1wk" and "1mo" to their intervals; anything else is daily.
func ParseInterval(s string) model.Interval {
	switch model.Interval(s) {
	case model.IntervalWeekly, model.IntervalMonthly:
		return model.Interval(s)
	default:
		return model.IntervalDaily
	}
}

// NormalizeRange returns rng in canonical lower case, or DefaultRange when it
// is empty or malformed.
func NormalizeRange(rng string) string {
	r := strings.ToLower(strings.TrimSpace(rng))
	if !rangePattern.MatchString(r) {
		return DefaultRange
	}
	return r
}
