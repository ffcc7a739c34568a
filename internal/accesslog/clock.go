package accesslog

import "time"

// Clock supplies the current instant for new records and retention cutoffs.
//
// Production code uses SystemClock; tests inject a fixed clock so that
// timestamps, cutoffs and export bodies are reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
