package usecase

import "time"

// SystemClock implements Clock with the wall clock.
type SystemClock struct{}

// NewSystemClock creates a new SystemClock.
func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
