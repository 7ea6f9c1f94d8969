// Package clock provides microsecond timestamps for tick records and
// per-cycle latency measurement.
package clock

import "time"

// TimeSource yields wall-clock unix microseconds and a monotonic reading
// suitable for measuring elapsed time within the process.
type TimeSource interface {
	WallMicros() uint64
	MonotonicMicros() uint64
}

type systemClock struct {
	start time.Time
}

// NewSystem returns a TimeSource backed by the system clock. The monotonic
// reading counts microseconds since construction.
func NewSystem() TimeSource {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) WallMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

func (c *systemClock) MonotonicMicros() uint64 {
	return uint64(time.Since(c.start).Microseconds())
}
