package domain

import "time"

// Interval converts a frequency into the wait between two ticks. unit is the
// length of one frequency hour (time.Hour in production).
func Interval(hours int, unit time.Duration) time.Duration {
	if hours < MinFrequency {
		hours = MinFrequency
	}
	if unit <= 0 {
		unit = time.Hour
	}
	return time.Duration(hours) * unit
}

// Until formats the time left before next, rounded to minutes, e.g. "1h25m".
// A past or zero next yields "now".
func Until(now, next time.Time) string {
	if next.IsZero() || !next.After(now) {
		return "now"
	}
	d := next.Sub(now).Round(time.Minute)
	if d < time.Minute {
		return "<1m"
	}
	s := d.String() // e.g. "1h25m0s"
	if len(s) > 2 && s[len(s)-2:] == "0s" {
		s = s[:len(s)-2]
	}
	return s
}
