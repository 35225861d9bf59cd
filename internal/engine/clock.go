package engine

import "time"

// Clock abstracts wall-clock time so expiry and activation logic is
// deterministic under test.
type Clock interface {
    Now() time.Time
}

// SystemClock reads the real wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
