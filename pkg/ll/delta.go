package ll

import (
	"fmt"
	"time"
)

// DeltaTime is a signed duration with microsecond resolution. It is always
// interpreted relative to the scheduler's current anchor T0 and is never an
// absolute point in time.
type DeltaTime int64

// Microseconds creates a DeltaTime from microseconds.
func Microseconds(us int64) DeltaTime {
	return DeltaTime(us)
}

// Milliseconds creates a DeltaTime from milliseconds.
func Milliseconds(ms int64) DeltaTime {
	return DeltaTime(ms * 1000)
}

// Seconds creates a DeltaTime from seconds.
func Seconds(s int64) DeltaTime {
	return DeltaTime(s * 1000000)
}

// FromDuration converts a time.Duration, truncating to microseconds.
func FromDuration(d time.Duration) DeltaTime {
	return DeltaTime(d / time.Microsecond)
}

// Microseconds returns the duration in microseconds.
func (d DeltaTime) Microseconds() int64 {
	return int64(d)
}

// Duration converts to time.Duration.
func (d DeltaTime) Duration() time.Duration {
	return time.Duration(d) * time.Microsecond
}

// String implements fmt.Stringer.
func (d DeltaTime) String() string {
	return fmt.Sprintf("%dµs", int64(d))
}
