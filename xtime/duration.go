package xtime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	durationRx = regexp.MustCompile(`(\d*\.\d+|\d+)[^\d]*`)
	// Day-based units, in hours.
	durationUnits = []struct {
		unit  string
		hours time.Duration
	}{
		{"d", 24}, {"D", 24},
		{"w", 7 * 24}, {"W", 7 * 24},
		{"M", 30 * 24},
		{"y", 365 * 24}, {"Y", 365 * 24},
	}
)

// ParseDuration parses a duration string. In addition to the units supported
// by time.ParseDuration, it accepts "d"="D", "w"="W", "M", "y"="Y".
// Examples: "10d", "-1.5w", "3Y4M5d" or "1m30s".
// Source: https://gist.github.com/xhit/79c9e137e1cfe332076cdda9f5e24699?permalink_comment_id=5170854#gistcomment-5170854
func ParseDuration(s string) (time.Duration, error) {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	strs := durationRx.FindAllString(s, -1)
	if len(strs) == 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var sumDur time.Duration
	for _, str := range strs {
		var mult time.Duration = 1
		for _, u := range durationUnits {
			if strings.Contains(str, u.unit) {
				str = strings.ReplaceAll(str, u.unit, "h")
				mult = u.hours
				break
			}
		}

		dur, err := time.ParseDuration(str)
		if err != nil {
			return 0, err //nolint:wrapcheck // The stdlib error is descriptive enough.
		}

		sumDur += dur * mult
	}

	if neg {
		sumDur = -sumDur
	}

	return sumDur, nil
}

// FormatDuration formats a duration into a string with friendly units.
// Returns strings like "10d", "-1w2d", "3Y4M5d", etc.
// Uses the same units as ParseDuration: "d", "w", "M", "Y".
// The round parameter specifies the smallest unit to include.
func FormatDuration(d time.Duration, round time.Duration) string {
	if d == 0 {
		return "0d"
	}

	// Round the duration to the specified precision
	if round > 0 {
		d = d.Round(round)
		if d == 0 {
			return "0d"
		}
	}

	neg := d < 0
	if neg {
		d = -d
	}

	hours := int64(d / time.Hour)

	// Convert to largest units first
	years := hours / (365 * 24)
	hours %= (365 * 24)

	months := hours / (30 * 24)
	hours %= (30 * 24)

	weeks := hours / (7 * 24)
	hours %= (7 * 24)

	days := hours / 24
	hours %= 24

	// Handle remaining time units
	remainder := d % time.Hour
	minutes := remainder / time.Minute
	remainder %= time.Minute
	seconds := remainder / time.Second
	remainder %= time.Second

	var parts []string

	if years > 0 {
		parts = append(parts, fmt.Sprintf("%dY", years))
	}
	if months > 0 {
		parts = append(parts, fmt.Sprintf("%dM", months))
	}
	if weeks > 0 {
		parts = append(parts, fmt.Sprintf("%dw", weeks))
	}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 && round <= time.Hour {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 && round <= time.Minute {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 && round <= time.Second {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	if remainder > 0 && round < time.Second {
		if remainder%time.Millisecond == 0 && round <= time.Millisecond {
			parts = append(parts, fmt.Sprintf("%dms", remainder/time.Millisecond))
		} else if remainder%time.Microsecond == 0 && round <= time.Microsecond {
			parts = append(parts, fmt.Sprintf("%dµs", remainder/time.Microsecond))
		} else if round <= time.Nanosecond {
			parts = append(parts, fmt.Sprintf("%dns", remainder/time.Nanosecond))
		}
	}

	// If no parts were added (shouldn't happen with the zero check above)
	if len(parts) == 0 {
		parts = append(parts, "0d")
	}

	result := strings.Join(parts, "")
	if neg {
		result = "-" + result
	}

	return result
}

// ParseTimeout parses a timeout value, which is either a bare integer number
// of milliseconds, or a duration string accepted by ParseDuration. Zero is
// allowed, and usually means "use the default".
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty timeout")
	}

	var (
		d   time.Duration
		err error
	)
	if ms, perr := strconv.ParseInt(s, 10, 64); perr == nil {
		d = time.Duration(ms) * time.Millisecond
	} else if d, err = ParseDuration(s); err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", s)
	}

	return d, nil
}

// FormatTimeout formats a timeout with millisecond precision, in a form
// accepted by ParseTimeout.
func FormatTimeout(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	return FormatDuration(d, time.Millisecond)
}
