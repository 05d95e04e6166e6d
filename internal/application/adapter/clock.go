package adapter

import "time"

// Clock supplies the current time to use cases.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall-clock time in UTC.
type SystemClock struct{}

// Now returns the current UTC time at microsecond precision, the finest
// precision the supported databases store.
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
