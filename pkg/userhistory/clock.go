package userhistory

import "time"

// Clock supplies the current wall-clock time in epoch seconds. Production
// code uses RealClock; tests inject a fixed or stepped clock so decay
// scoring is deterministic.
type Clock interface {
	Now() uint32
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns the current epoch second.
func (RealClock) Now() uint32 {
	return uint32(time.Now().Unix())
}

// FixedClock always returns the same instant. Useful in tests that need
// two calls at "the same second" to compare equal.
type FixedClock uint32

// Now returns the fixed instant.
func (c FixedClock) Now() uint32 { return uint32(c) }
