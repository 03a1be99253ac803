package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Frequency bounds, in hours.
const (
	MinFrequency     = 1
	MaxFrequency     = 24
	DefaultFrequency = 2
)

var (
	ErrNotNumber      = errors.New("frequency is not a number")
	ErrFrequencyRange = errors.New("frequency out of range")
)

// ValidateFrequency checks that h is within [MinFrequency, MaxFrequency].
func ValidateFrequency(h int) error {
	if h < MinFrequency || h > MaxFrequency {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrFrequencyRange, h, MinFrequency, MaxFrequency)
	}
	return nil
}

// ParseFrequency parses free-form user input such as "3" or " 12 ".
func ParseFrequency(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNotNumber
	}
	h, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, s)
	}
	if err := ValidateFrequency(h); err != nil {
		return 0, err
	}
	return h, nil
}

// PresetFrequency recognises keyboard labels like "🐾 Every 4 hours" or
// "Every 1 hour". The leading emoji is optional. matched reports whether the
// text has the label shape at all; err is set when it does but the number is
// missing or outside [MinFrequency, MaxFrequency].
func PresetFrequency(label string) (hours int, matched bool, err error) {
	s := strings.TrimSpace(label)
	s = strings.TrimSpace(strings.TrimPrefix(s, "🐾"))
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "every ") {
		return 0, false, nil
	}
	rest := strings.TrimSpace(lower[len("every "):])
	rest = strings.TrimSuffix(rest, "hours")
	rest = strings.TrimSuffix(rest, "hour")
	h, err := ParseFrequency(rest)
	if err != nil {
		return 0, true, err
	}
	return h, true, nil
}

// FormatHours renders a frequency for humans: "1 hour", "4 hours".
func FormatHours(h int) string {
	if h == 1 {
		return "1 hour"
	}
	return strconv.Itoa(h) + " hours"
}
