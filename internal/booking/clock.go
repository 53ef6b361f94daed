package booking

import "time"

// Clock supplies the current instant. It is injected into the engine and
// the validators so temporal rules can be tested against fixed times.
type Clock interface {
	Now() time.Time
}

// UTCClock is the production clock. All business rules operate in UTC.
type UTCClock struct{}

func (UTCClock) Now() time.Time { return time.Now().UTC() }
