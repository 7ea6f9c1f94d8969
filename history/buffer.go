// Package history keeps a fixed-capacity ring of recent ticks and computes
// windowed VWAP over it.
package history

import "sierra_bridge/models"

// TickBuffer is a fixed-capacity ring buffer of ticks. Push overwrites the
// oldest entry once the buffer is full and assigns strictly increasing
// sequence numbers. Single writer; no internal locking.
type TickBuffer struct {
	buf      []models.Tick
	written  []bool
	writeIdx int
	seq      uint64
	count    int
}

const DefaultCapacity = 20000

func NewTickBuffer(capacity int) *TickBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &TickBuffer{
		buf:     make([]models.Tick, capacity),
		written: make([]bool, capacity),
	}
}

// Push stores the tick, assigns it the next sequence number and returns it.
func (b *TickBuffer) Push(tick models.Tick) models.Tick {
	b.seq++
	tick.Sequence = b.seq
	b.buf[b.writeIdx] = tick
	b.written[b.writeIdx] = true
	b.writeIdx = (b.writeIdx + 1) % len(b.buf)
	if b.count < len(b.buf) {
		b.count++
	}
	return tick
}

// Recent returns the last min(n, capacity) ticks that have been written, in
// chronological order (oldest of the window first).
func (b *TickBuffer) Recent(n int) []models.Tick {
	if n > len(b.buf) {
		n = len(b.buf)
	}
	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]models.Tick, 0, n)
	for i := 0; i < n; i++ {
		idx := (b.writeIdx - n + i + len(b.buf)) % len(b.buf)
		if b.written[idx] {
			out = append(out, b.buf[idx])
		}
	}
	return out
}

// WindowedVWAP computes the volume-weighted mean price over the last n
// ticks. fallback is returned when the window is empty or carries zero
// volume, so callers never divide by zero.
func (b *TickBuffer) WindowedVWAP(n int, fallback float64) float64 {
	window := b.Recent(n)
	if len(window) == 0 {
		return fallback
	}
	var weighted float64
	var total uint64
	for _, t := range window {
		weighted += t.Price * float64(t.Size)
		total += uint64(t.Size)
	}
	if total == 0 {
		return fallback
	}
	return weighted / float64(total)
}

// Len reports how many live entries the buffer holds.
func (b *TickBuffer) Len() int { return b.count }

// Capacity reports the fixed buffer capacity.
func (b *TickBuffer) Capacity() int { return len(b.buf) }

// Sequence reports the most recently assigned sequence number.
func (b *TickBuffer) Sequence() uint64 { return b.seq }
