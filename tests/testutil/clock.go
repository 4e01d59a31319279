package testutil

import (
	"time"

	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

// NewFixedClock creates a mock clock fixed at the given time.
func NewFixedClock(t time.Time) *clock.MockClock {
	return clock.NewMockClock(t)
}

// NewTickingClock creates a clock that moves one second per reading, so
// consecutive writes get distinct timestamps.
func NewTickingClock() *clock.MockClock {
	return clock.NewSteppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
}
