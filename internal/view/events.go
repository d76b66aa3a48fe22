package view

import (
	"context"
	"log/slog"
	"time"

	"github.com/msalah0e/mentorgraph/internal/activity"
)

// EventKind names an outbound notification.
type EventKind string

const (
	FreezeToggled       EventKind = "freeze"
	SimulationStarted   EventKind = "start"
	SimulationRestarted EventKind = "restart"
	ViewFitted          EventKind = "fit"
	LayoutArranged      EventKind = "arrange"
	SnapshotExported    EventKind = "export"
)

// Event is a fire-and-forget report of something the view did.
type Event struct {
	Kind       EventKind `json:"kind"`
	Time       time.Time `json:"time"`
	Message    string    `json:"message"`
	Generation uint64    `json:"generation"`
	Changed    bool      `json:"changed,omitempty"`
	Frozen     bool      `json:"frozen,omitempty"`
	Location   string    `json:"location,omitempty"`
	Cancelled  bool      `json:"cancelled,omitempty"`
	Err        string    `json:"error,omitempty"`
}

// Attrs returns the event as slog key/value pairs.
func (e Event) Attrs() []any {
	attrs := []any{"event", string(e.Kind), "generation", e.Generation}
	switch e.Kind {
	case FreezeToggled:
		attrs = append(attrs, "frozen", e.Frozen)
	case ViewFitted, LayoutArranged:
		attrs = append(attrs, "changed", e.Changed)
	case SnapshotExported:
		if e.Location != "" {
			attrs = append(attrs, "location", e.Location)
		}
		attrs = append(attrs, "cancelled", e.Cancelled)
	}
	if e.Err != "" {
		attrs = append(attrs, "error", e.Err)
	}
	return attrs
}

func (e Event) fields() map[string]any {
	m := map[string]any{"generation": e.Generation}
	attrs := e.Attrs()
	for i := 0; i+1 < len(attrs); i += 2 {
		m[attrs[i].(string)] = attrs[i+1]
	}
	delete(m, "event")
	return m
}

// Notifier receives events. Notify is called on the run loop and must not
// block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function.
type NotifierFunc func(Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(e Event) { f(e) }

// Notifiers fans an event out in order.
type Notifiers []Notifier

// Notify implements Notifier.
func (ns Notifiers) Notify(e Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(e)
		}
	}
}

// LogNotifier writes events to a structured logger.
type LogNotifier struct {
	Log *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(e Event) {
	level := slog.LevelInfo
	if e.Err != "" {
		level = slog.LevelWarn
	}
	n.Log.Log(context.Background(), level, e.Message, e.Attrs()...)
}

// JournalNotifier appends events to the activity journal.
type JournalNotifier struct {
	Journal *activity.Journal
	Log     *slog.Logger
}

// Notify implements Notifier.
func (n JournalNotifier) Notify(e Event) {
	err := n.Journal.Append(activity.Entry{
		Timestamp: e.Time,
		Event:     string(e.Kind),
		Message:   e.Message,
		Attrs:     e.fields(),
	})
	if err != nil && n.Log != nil {
		n.Log.Debug("activity journal", "error", err)
	}
}

func freezeMessage(frozen bool) string {
	if frozen {
		return "Freeze: frozen"
	}
	return "Freeze: unfrozen"
}

func fitMessage(changed bool) string {
	if changed {
		return "Zoom: auto-zoom triggered"
	}
	return "Zoom: already correctly zoomed"
}

func arrangeMessage(changed bool) string {
	if changed {
		return "Promo arrange: arranged by promo"
	}
	return "Promo arrange: already arranged"
}
