// Package duration provides parsing for human-readable duration strings.
//
// Config values such as hibernation.idle accept Go durations ("30m",
// "1h30m") as well as whole days and weeks ("1d", "2w"), which
// time.ParseDuration does not understand.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var dayWeek = regexp.MustCompile(`^(\d+)([dw])$`)

// Parse parses a Go duration or Nd (days) / Nw (weeks).
// Examples: "90s", "30m", "7d" = 7 days, "2w" = 2 weeks.
func Parse(s string) (time.Duration, error) {
	if m := dayWeek.FindStringSubmatch(s); m != nil {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("invalid number: %w", err)
		}
		day := 24 * time.Hour
		if m[2] == "w" {
			return time.Duration(num) * 7 * day, nil
		}
		return time.Duration(num) * day, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %s (use 90s, 30m, 2h, 7d or 2w)", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration: %s is negative", s)
	}
	return d, nil
}
