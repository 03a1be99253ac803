package domain

import "time"

// User represents per-chat reminder preferences.
type User struct {
	ChatID         int64
	Active         bool
	FrequencyHours int       // 1..24, meaningful only when HasFrequency
	HasFrequency   bool      // false until the user picks a frequency
	CreatedAt      time.Time // UTC
	UpdatedAt      time.Time // UTC
}

// Schedulable reports whether the user should have a running reminder task.
func (u User) Schedulable() bool {
	return u.Active && u.HasFrequency && ValidateFrequency(u.FrequencyHours) == nil
}
