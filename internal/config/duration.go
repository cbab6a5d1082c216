package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a relative time such as "90s", "12h" or "3d".
// Any Go duration is accepted, plus a whole-day "d" suffix. Empty is zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}

// mustDuration is used on validated configs.
func mustDuration(s string) time.Duration {
	d, _ := ParseDuration(s)
	return d
}
