// Package loop is the single-threaded scheduler every graph view runs on.
//
// All view state is owned by whichever goroutine calls RunPending (or Run).
// Other goroutines hand work to it with Post or Do. Timers and per-frame
// callbacks registered through a Scope die with the scope, which is how a
// re-render invalidates continuations left over from the previous one.
package loop

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned when work is posted to a closed loop.
var ErrClosed = errors.New("loop closed")

// Handle cancels a timer or frame callback.
type Handle struct {
	stopped atomic.Bool
}

// Stop cancels the callback. Stopping twice is harmless.
func (h *Handle) Stop() {
	if h != nil {
		h.stopped.Store(true)
	}
}

// Stopped reports whether Stop was called.
func (h *Handle) Stopped() bool { return h != nil && h.stopped.Load() }

type timer struct {
	at  time.Time
	seq uint64
	fn  func()
	h   *Handle
}

type frame struct {
	fn func(now time.Time) bool
	h  *Handle
}

// Loop runs posted tasks, due timers and frame callbacks in that order, one
// iteration at a time.
type Loop struct {
	clock Clock

	mu      sync.Mutex
	inbox   []func()
	timers  []*timer
	frames  []*frame
	seq     uint64
	closed  bool
	observe []func()

	wake chan struct{}
	quit chan struct{}
}

// New builds a loop reading time from clock.
func New(clock Clock) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Loop{clock: clock, wake: make(chan struct{}, 1), quit: make(chan struct{})}
}

// Now is the loop clock's time.
func (l *Loop) Now() time.Time { return l.clock.Now() }

// Post queues fn to run on the loop. Safe from any goroutine.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.inbox = append(l.inbox, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Do posts fn and waits for it to have run. It must not be called from the
// loop goroutine. If the loop closes before fn runs, Do returns ErrClosed.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.quit:
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// After runs fn once, d after now. A non-positive d runs it on the next
// iteration.
func (l *Loop) After(d time.Duration, fn func()) *Handle {
	h := &Handle{}
	l.mu.Lock()
	l.seq++
	l.timers = append(l.timers, &timer{at: l.clock.Now().Add(d), seq: l.seq, fn: fn, h: h})
	l.mu.Unlock()
	return h
}

// Frame calls fn once per iteration until it returns false or the handle is
// stopped.
func (l *Loop) Frame(fn func(now time.Time) bool) *Handle {
	h := &Handle{}
	l.mu.Lock()
	l.frames = append(l.frames, &frame{fn: fn, h: h})
	l.mu.Unlock()
	return h
}

// Observe registers fn to run after every iteration that did any work.
func (l *Loop) Observe(fn func()) {
	l.mu.Lock()
	l.observe = append(l.observe, fn)
	l.mu.Unlock()
}

// Busy reports whether anything is queued, scheduled or subscribed.
func (l *Loop) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.inbox) > 0 {
		return true
	}
	for _, t := range l.timers {
		if !t.h.Stopped() {
			return true
		}
	}
	for _, f := range l.frames {
		if !f.h.Stopped() {
			return true
		}
	}
	return false
}

// RunPending performs one iteration and reports whether anything ran.
// Timers scheduled during the iteration wait for the next one.
func (l *Loop) RunPending() bool {
	ran := l.runTasks()
	if l.runFrames() {
		ran = true
	}
	if ran {
		l.notify()
	}
	return ran
}

func (l *Loop) runTasks() bool {
	l.mu.Lock()
	inbox := l.inbox
	l.inbox = nil
	now := l.clock.Now()
	var due, rest []*timer
	for _, t := range l.timers {
		switch {
		case t.h.Stopped():
		case !t.at.After(now):
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	l.timers = rest
	l.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})

	for _, fn := range inbox {
		fn()
	}
	n := 0
	for _, t := range due {
		if t.h.Stopped() {
			continue
		}
		t.h.Stop()
		t.fn()
		n++
	}
	return len(inbox) > 0 || n > 0
}

func (l *Loop) runFrames() bool {
	l.mu.Lock()
	frames := append([]*frame(nil), l.frames...)
	l.mu.Unlock()

	ran := false
	for _, f := range frames {
		if f.h.Stopped() {
			continue
		}
		ran = true
		if !f.fn(l.clock.Now()) {
			f.h.Stop()
		}
	}

	l.mu.Lock()
	live := l.frames[:0]
	for _, f := range l.frames {
		if !f.h.Stopped() {
			live = append(live, f)
		}
	}
	l.frames = live
	l.mu.Unlock()
	return ran
}

// Run drives the loop in real time: posted work runs as soon as it
// arrives, frames and timers every interval. It returns when ctx is done.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.wake:
			if l.runTasks() {
				l.notify()
			}
		case <-ticker.C:
			l.RunPending()
		}
	}
}

func (l *Loop) notify() {
	l.mu.Lock()
	obs := append([]func(){}, l.observe...)
	l.mu.Unlock()
	for _, fn := range obs {
		fn()
	}
}

// Close rejects further posts. Queued work is dropped and anyone waiting
// in Do on it gets ErrClosed.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.inbox = nil
	close(l.quit)
}
