package descriptor

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormattedDuration renders a time.Duration using the canonical topic-name
// rule: whole seconds render as "secs/N", anything with a sub-second
// component renders as "millis/N" (total milliseconds).
type FormattedDuration time.Duration

// String implements the canonical display rule from spec.md §4.6 / §8.
func (d FormattedDuration) String() string {
	dur := time.Duration(d)
	if dur%time.Second == 0 {
		return fmt.Sprintf("secs/%d", int64(dur/time.Second))
	}
	return fmt.Sprintf("millis/%d", int64(dur/time.Millisecond))
}

// ParseFormattedDuration parses "secs/N" or "millis/N" back into a Duration.
func ParseFormattedDuration(s string) (time.Duration, error) {
	unit, value, ok := strings.Cut(s, "/")
	if !ok {
		return 0, fmt.Errorf("timer input must specify unit and value (e.g. `secs/5` or `millis/100`)")
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got `%s`)", unit, value)
	}
	switch unit {
	case "secs":
		return time.Duration(n) * time.Second, nil
	case "millis":
		return time.Duration(n) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("timer unit must be either secs or millis (got `%s`)", unit)
	}
}
