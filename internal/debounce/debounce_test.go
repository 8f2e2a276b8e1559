package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriggerCoalescesToLastCall(t *testing.T) {
	d := New(30 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	var runs int
	var last int

	for i := 1; i <= 3; i++ {
		i := i
		d.Trigger("quote-1", func() {
			mu.Lock()
			runs++
			last = i
			mu.Unlock()
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, runs, "burst of triggers should run once")
	assert.Equal(t, 3, last, "last trigger wins")
}

func TestKeysAreIndependent(t *testing.T) {
	d := New(20 * time.Millisecond)
	defer d.Stop()

	var a, b atomic.Int32
	d.Trigger("a", func() { a.Add(1) })
	d.Trigger("b", func() { b.Add(1) })

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
}

func TestFlushRunsImmediately(t *testing.T) {
	d := New(time.Hour)
	defer d.Stop()

	var ran atomic.Bool
	d.Trigger("quote-1", func() { ran.Store(true) })

	d.Flush("quote-1")
	assert.True(t, ran.Load(), "flush should run the pending function now")

	// Flushing again is a no-op.
	d.Flush("quote-1")

	// The cancelled timer must not fire a second run.
	time.Sleep(30 * time.Millisecond)
	assert.True(t, ran.Load())
}

func TestFlushWithNothingPending(t *testing.T) {
	d := New(time.Millisecond)
	defer d.Stop()
	d.Flush("missing")
}

func TestStopCancelsPending(t *testing.T) {
	d := New(20 * time.Millisecond)

	var ran atomic.Bool
	d.Trigger("quote-1", func() { ran.Store(true) })
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.False(t, ran.Load(), "stopped debouncer must not run pending functions")
}
