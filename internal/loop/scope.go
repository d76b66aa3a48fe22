package loop

import (
	"sync"
	"time"
)

// Scope groups the continuations of one render. Closing it stops every
// timer and frame callback registered through it, and any registered
// afterwards never runs.
type Scope struct {
	l *Loop

	mu      sync.Mutex
	closed  bool
	handles []*Handle
}

// NewScope opens a scope on l.
func (l *Loop) NewScope() *Scope {
	return &Scope{l: l}
}

// Active reports whether the scope is still open.
func (s *Scope) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Scope) track(h *Handle) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		h.Stop()
		return h
	}
	// forget handles that already fired
	live := s.handles[:0]
	for _, o := range s.handles {
		if !o.Stopped() {
			live = append(live, o)
		}
	}
	s.handles = append(live, h)
	return h
}

// After is Loop.After bound to the scope.
func (s *Scope) After(d time.Duration, fn func()) *Handle {
	if !s.Active() {
		h := &Handle{}
		h.Stop()
		return h
	}
	return s.track(s.l.After(d, func() {
		if s.Active() {
			fn()
		}
	}))
}

// Frame is Loop.Frame bound to the scope.
func (s *Scope) Frame(fn func(now time.Time) bool) *Handle {
	if !s.Active() {
		h := &Handle{}
		h.Stop()
		return h
	}
	return s.track(s.l.Frame(func(now time.Time) bool {
		if !s.Active() {
			return false
		}
		return fn(now)
	}))
}

// Close stops everything registered through the scope.
func (s *Scope) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.closed = true
	hs := s.handles
	s.handles = nil
	s.mu.Unlock()
	for _, h := range hs {
		h.Stop()
	}
}
