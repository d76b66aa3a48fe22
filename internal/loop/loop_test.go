package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func manual() (*Loop, *ManualClock) {
	c := NewManualClock(epoch)
	return New(c), c
}

func TestPostRunsInOrder(t *testing.T) {
	l, _ := manual()
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, l.Post(func() { got = append(got, i) }))
	}
	assert.True(t, l.Busy())
	assert.True(t, l.RunPending())
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.False(t, l.Busy())
	assert.False(t, l.RunPending())
}

func TestAfterFiresWhenDue(t *testing.T) {
	l, c := manual()
	var fired []string
	l.After(20*time.Millisecond, func() { fired = append(fired, "late") })
	l.After(10*time.Millisecond, func() { fired = append(fired, "early") })
	l.After(0, func() { fired = append(fired, "now") })

	l.RunPending()
	assert.Equal(t, []string{"now"}, fired)

	c.Advance(25 * time.Millisecond)
	l.RunPending()
	assert.Equal(t, []string{"now", "early", "late"}, fired)
	assert.False(t, l.Busy())
}

func TestTimerScheduledDuringIterationWaits(t *testing.T) {
	l, _ := manual()
	var n int
	l.After(0, func() {
		n++
		l.After(0, func() { n++ })
	})
	l.RunPending()
	assert.Equal(t, 1, n)
	l.RunPending()
	assert.Equal(t, 2, n)
}

func TestHandleStop(t *testing.T) {
	l, c := manual()
	ran := false
	h := l.After(time.Millisecond, func() { ran = true })
	h.Stop()
	h.Stop()
	c.Advance(time.Second)
	l.RunPending()
	assert.False(t, ran)
	assert.False(t, l.Busy())
}

func TestFrameUntilFalse(t *testing.T) {
	l, c := manual()
	var stamps []time.Time
	l.Frame(func(now time.Time) bool {
		stamps = append(stamps, now)
		return len(stamps) < 3
	})
	n := RunUntilIdle(l, c, 16*time.Millisecond, 100)
	assert.Equal(t, 3, n)
	require.Len(t, stamps, 3)
	assert.Equal(t, epoch.Add(48*time.Millisecond), stamps[2])
}

func TestRunUntilIdleRespectsLimit(t *testing.T) {
	l, c := manual()
	l.Frame(func(time.Time) bool { return true })
	assert.Equal(t, 10, RunUntilIdle(l, c, time.Millisecond, 10))
	assert.True(t, l.Busy())
}

func TestScopeCloseCancelsContinuations(t *testing.T) {
	l, c := manual()
	s := l.NewScope()
	var timerRan, frames int
	s.After(10*time.Millisecond, func() { timerRan++ })
	s.Frame(func(time.Time) bool { frames++; return true })

	l.RunPending()
	assert.Equal(t, 1, frames)

	s.Close()
	assert.False(t, s.Active())
	c.Advance(time.Second)
	l.RunPending()
	assert.Zero(t, timerRan)
	assert.Equal(t, 1, frames)
	assert.False(t, l.Busy())

	// registrations after close never run
	s.After(0, func() { timerRan++ })
	l.RunPending()
	assert.Zero(t, timerRan)
}

func TestScopeClosedFromInsideTimer(t *testing.T) {
	l, c := manual()
	s := l.NewScope()
	var order []string
	s.After(5*time.Millisecond, func() {
		order = append(order, "first")
		s.Close()
	})
	s.After(5*time.Millisecond, func() { order = append(order, "second") })
	c.Advance(5 * time.Millisecond)
	l.RunPending()
	assert.Equal(t, []string{"first"}, order)
}

func TestObserveAfterWork(t *testing.T) {
	l, _ := manual()
	var seen int
	l.Observe(func() { seen++ })
	l.RunPending()
	assert.Zero(t, seen)
	require.NoError(t, l.Post(func() {}))
	l.RunPending()
	assert.Equal(t, 1, seen)
}

func TestClosedLoopRejectsPosts(t *testing.T) {
	l, _ := manual()
	l.Close()
	assert.ErrorIs(t, l.Post(func() {}), ErrClosed)
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrClosed)
}

func TestRunServesDo(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = l.Run(ctx, 5*time.Millisecond)
	}()

	var v int
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Do(ctx, func() { v++ }))
	}
	assert.Equal(t, 5, v)

	cancel()
	wg.Wait()
	assert.ErrorIs(t, l.Post(func() {}), ErrClosed)
}

func TestCloseReleasesQueuedDo(t *testing.T) {
	l, _ := manual()
	ran := false
	errc := make(chan error, 1)
	go func() { errc <- l.Do(context.Background(), func() { ran = true }) }()

	require.Eventually(t, l.Busy, time.Second, time.Millisecond, "Do never queued")
	l.Close()
	l.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Do still blocked after Close")
	}
	assert.False(t, ran)
}
