package terminate

import "github.com/forcequit/fq/internal/classify"

// EventKind identifies what happened during a run.
type EventKind string

const (
	EventRunStarted        EventKind = "run_started"
	EventEnumerationFailed EventKind = "enumeration_failed"
	EventPreserved         EventKind = "preserved"
	EventQuitFailed        EventKind = "quit_failed"
	EventKillFailed        EventKind = "kill_failed"
	EventKillSkipped       EventKind = "kill_skipped"
	EventQuit              EventKind = "quit"
	EventWouldQuit         EventKind = "would_quit"
	EventRunFinished       EventKind = "run_finished"
)

// Event is one step of a run, delivered to the Observer as it happens.
type Event struct {
	RunID string
	Kind  EventKind
	// Name is the application concerned; empty for run-level events.
	Name    string
	Verdict classify.Verdict
	Err     error
	// Tally is set on EventRunFinished only.
	Tally *Tally
}

// Observer receives events synchronously on the run's goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out to several observers in order.
type Observers []Observer

// Observe delivers e to every non-nil observer.
func (obs Observers) Observe(e Event) {
	for _, o := range obs {
		if o != nil {
			o.Observe(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
