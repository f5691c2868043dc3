package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time for components that must be testable against
// expiry and cache-freshness rules.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)
