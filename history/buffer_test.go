package history

import (
	"testing"

	"sierra_bridge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func push(b *TickBuffer, price float64, size uint32) models.Tick {
	return b.Push(models.Tick{Price: price, Size: size})
}

func TestPushAssignsIncreasingSequence(t *testing.T) {
	b := NewTickBuffer(4)

	first := push(b, 100, 1)
	second := push(b, 101, 1)
	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, uint64(2), b.Sequence())
}

func TestRecentReturnsChronologicalWindow(t *testing.T) {
	b := NewTickBuffer(8)
	for i := 1; i <= 5; i++ {
		push(b, float64(100+i), 1)
	}

	window := b.Recent(3)
	require.Len(t, window, 3)
	assert.Equal(t, 103.0, window[0].Price)
	assert.Equal(t, 104.0, window[1].Price)
	assert.Equal(t, 105.0, window[2].Price)

	for i := 1; i < len(window); i++ {
		assert.Greater(t, window[i].Sequence, window[i-1].Sequence)
	}
}

func TestRecentNeverExceedsWritten(t *testing.T) {
	b := NewTickBuffer(8)
	push(b, 100, 1)
	push(b, 101, 1)

	assert.Len(t, b.Recent(100), 2)
	assert.Nil(t, b.Recent(0))
}

func TestRingOverwritesOldest(t *testing.T) {
	b := NewTickBuffer(3)
	for i := 1; i <= 5; i++ {
		push(b, float64(i), 1)
	}

	assert.Equal(t, 3, b.Len())
	window := b.Recent(3)
	require.Len(t, window, 3)
	assert.Equal(t, 3.0, window[0].Price)
	assert.Equal(t, 5.0, window[2].Price)
	assert.Equal(t, uint64(5), b.Sequence())
}

func TestWindowedVWAP(t *testing.T) {
	b := NewTickBuffer(8)
	push(b, 100, 1)
	push(b, 102, 3)

	// (100*1 + 102*3) / 4 = 101.5
	assert.InDelta(t, 101.5, b.WindowedVWAP(10, 99), 1e-9)
}

func TestWindowedVWAPEmptyWindowFallsBack(t *testing.T) {
	b := NewTickBuffer(8)
	assert.Equal(t, 123.45, b.WindowedVWAP(10, 123.45))
}

func TestWindowedVWAPZeroVolumeFallsBack(t *testing.T) {
	b := NewTickBuffer(8)
	push(b, 100, 0)
	push(b, 101, 0)
	assert.Equal(t, 123.45, b.WindowedVWAP(10, 123.45))
}

func TestZeroCapacityGetsDefault(t *testing.T) {
	b := NewTickBuffer(0)
	assert.Equal(t, DefaultCapacity, b.Capacity())
}
