package clock

import "time"

// FakeClock is a manually advanced Clock for tests. Times are normalized
// to UTC so stored and asserted timestamps compare equal.
type FakeClock struct {
	current time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{current: start.UTC()}
}

func (f *FakeClock) Now() time.Time {
	return f.current
}

// Advance moves the clock forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.current = f.current.Add(d)
}
