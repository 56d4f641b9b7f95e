// Package terminate runs one force-quit pass: it enumerates running
// applications, classifies each one, asks the non-essential ones to quit,
// kills them, and tallies the outcome.
//
// A run is strictly sequential and best-effort. Enumeration failure yields an
// empty run, and a failure for one application never stops the next. Nothing
// verifies that a targeted application actually exited, so Tally.Quit counts
// attempts.
package terminate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/forcequit/fq/internal/classify"
)

// DefaultQuitTimeout bounds a single graceful quit request.
const DefaultQuitTimeout = 5 * time.Second

// Classifier decides whether an application must survive.
type Classifier interface {
	Explain(name string) classify.Verdict
}

// Enumerator lists running user-facing applications.
type Enumerator interface {
	Applications(ctx context.Context) ([]string, error)
}

// Quitter asks an application to quit through its normal shutdown path.
type Quitter interface {
	Quit(ctx context.Context, name string) error
}

// Killer terminates processes matching a name, bypassing shutdown.
type Killer interface {
	Kill(ctx context.Context, name string) error
}

// Listing is an Enumerator that replays an earlier enumeration, so a run acts
// on exactly the applications a user was shown.
type Listing struct {
	Names []string
	Err   error
}

// Applications returns the recorded names and error.
func (l Listing) Applications(context.Context) ([]string, error) {
	return l.Names, l.Err
}

// ListingOf records the names from a Plan result.
func ListingOf(verdicts []classify.Verdict, err error) Listing {
	l := Listing{Err: err}
	for _, v := range verdicts {
		l.Names = append(l.Names, v.Name)
	}
	return l
}

// KillPolicy decides when the forceful kill follows the graceful quit.
type KillPolicy string

const (
	// KillAlways kills after every graceful quit, whatever its outcome.
	KillAlways KillPolicy = "always"
	// KillOnFailure kills only when the graceful quit reported an error.
	KillOnFailure KillPolicy = "on-failure"
)

// ParseKillPolicy converts a flag or config value into a KillPolicy.
// An empty value selects KillAlways.
func ParseKillPolicy(s string) (KillPolicy, error) {
	switch KillPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", KillAlways:
		return KillAlways, nil
	case KillOnFailure, "on_failure":
		return KillOnFailure, nil
	}
	return "", fmt.Errorf("unknown kill policy %q (want always or on-failure)", s)
}

// Options tune a Terminator. The zero value is usable.
type Options struct {
	// QuitTimeout bounds each graceful quit. Zero means DefaultQuitTimeout.
	QuitTimeout time.Duration
	KillPolicy  KillPolicy
	// DryRun classifies and reports without quitting or killing anything.
	DryRun   bool
	Clock    clockwork.Clock
	Observer Observer
}

// Step names the stage at which a per-application failure happened.
type Step string

const (
	StepEnumerate Step = "enumerate"
	StepQuit      Step = "quit"
	StepKill      Step = "kill"
)

// Failure records one best-effort step that reported an error.
type Failure struct {
	Name string
	Step Step
	Err  error
}

func (f Failure) String() string {
	if f.Name == "" {
		return fmt.Sprintf("%s: %v", f.Step, f.Err)
	}
	return fmt.Sprintf("%s %s: %v", f.Step, f.Name, f.Err)
}

// Tally is the result of one run. Quit+Preserved always equals the number of
// enumerated applications.
type Tally struct {
	RunID     string
	Quit      int
	Preserved int
	DryRun    bool
	Started   time.Time
	Finished  time.Time

	QuitNames      []string
	PreservedNames []string
	Failures       []Failure
}

// Total is the number of applications the run looked at.
func (t Tally) Total() int {
	return t.Quit + t.Preserved
}

// Duration is how long the run took.
func (t Tally) Duration() time.Duration {
	return t.Finished.Sub(t.Started)
}

// Terminator performs force-quit runs. Its configuration is fixed at
// construction; a single Terminator may run many times.
type Terminator struct {
	classifier Classifier
	enum       Enumerator
	quitter    Quitter
	killer     Killer

	quitTimeout time.Duration
	killPolicy  KillPolicy
	dryRun      bool
	clock       clockwork.Clock
	observer    Observer
}

// New returns a Terminator wired to the given collaborators.
func New(c Classifier, e Enumerator, q Quitter, k Killer, opts Options) *Terminator {
	t := &Terminator{
		classifier:  c,
		enum:        e,
		quitter:     q,
		killer:      k,
		quitTimeout: opts.QuitTimeout,
		killPolicy:  opts.KillPolicy,
		dryRun:      opts.DryRun,
		clock:       opts.Clock,
		observer:    opts.Observer,
	}
	if t.quitTimeout <= 0 {
		t.quitTimeout = DefaultQuitTimeout
	}
	if t.killPolicy == "" {
		t.killPolicy = KillAlways
	}
	if t.clock == nil {
		t.clock = clockwork.NewRealClock()
	}
	if t.observer == nil {
		t.observer = nopObserver{}
	}
	return t
}

// Plan enumerates and classifies without side effects. Enumeration errors are
// returned, unlike ForceQuitAll.
func (t *Terminator) Plan(ctx context.Context) ([]classify.Verdict, error) {
	names, err := t.enum.Applications(ctx)
	if err != nil {
		return nil, err
	}
	verdicts := make([]classify.Verdict, 0, len(names))
	for _, name := range names {
		verdicts = append(verdicts, t.classifier.Explain(name))
	}
	return verdicts, nil
}

// ForceQuitAll runs one pass and returns its tally. It never fails: problems
// are recorded in Tally.Failures and reported to the Observer. Cancelling ctx
// after the run has started has no effect; the run always completes.
func (t *Terminator) ForceQuitAll(ctx context.Context) Tally {
	ctx = context.WithoutCancel(ctx)

	tally := Tally{
		RunID:   uuid.NewString(),
		DryRun:  t.dryRun,
		Started: t.clock.Now(),
	}
	t.emit(Event{RunID: tally.RunID, Kind: EventRunStarted})

	names, err := t.enumerate(ctx)
	if err != nil {
		tally.Failures = append(tally.Failures, Failure{Step: StepEnumerate, Err: err})
		t.emit(Event{RunID: tally.RunID, Kind: EventEnumerationFailed, Err: err})
		names = nil
	}

	for _, name := range names {
		v := t.classifier.Explain(name)
		if v.Essential {
			tally.Preserved++
			tally.PreservedNames = append(tally.PreservedNames, name)
			t.emit(Event{RunID: tally.RunID, Kind: EventPreserved, Name: name, Verdict: v})
			continue
		}

		if t.dryRun {
			tally.Quit++
			tally.QuitNames = append(tally.QuitNames, name)
			t.emit(Event{RunID: tally.RunID, Kind: EventWouldQuit, Name: name, Verdict: v})
			continue
		}

		t.stop(ctx, &tally, name, v)
		tally.Quit++
		tally.QuitNames = append(tally.QuitNames, name)
		t.emit(Event{RunID: tally.RunID, Kind: EventQuit, Name: name, Verdict: v})
	}

	tally.Finished = t.clock.Now()
	t.emit(Event{RunID: tally.RunID, Kind: EventRunFinished, Tally: &tally})
	return tally
}

// stop makes the graceful then forceful attempt for one application.
func (t *Terminator) stop(ctx context.Context, tally *Tally, name string, v classify.Verdict) {
	quitErr := t.quit(ctx, name)
	if quitErr != nil {
		tally.Failures = append(tally.Failures, Failure{Name: name, Step: StepQuit, Err: quitErr})
		t.emit(Event{RunID: tally.RunID, Kind: EventQuitFailed, Name: name, Verdict: v, Err: quitErr})
	}

	if quitErr == nil && t.killPolicy == KillOnFailure {
		t.emit(Event{RunID: tally.RunID, Kind: EventKillSkipped, Name: name, Verdict: v})
		return
	}

	if killErr := t.kill(ctx, name); killErr != nil {
		tally.Failures = append(tally.Failures, Failure{Name: name, Step: StepKill, Err: killErr})
		t.emit(Event{RunID: tally.RunID, Kind: EventKillFailed, Name: name, Verdict: v, Err: killErr})
	}
}

func (t *Terminator) enumerate(ctx context.Context) (names []string, err error) {
	defer recoverInto(&err)
	return t.enum.Applications(ctx)
}

func (t *Terminator) quit(ctx context.Context, name string) (err error) {
	defer recoverInto(&err)
	ctx, cancel := context.WithTimeout(ctx, t.quitTimeout)
	defer cancel()
	return t.quitter.Quit(ctx, name)
}

func (t *Terminator) kill(ctx context.Context, name string) (err error) {
	defer recoverInto(&err)
	return t.killer.Kill(ctx, name)
}

func (t *Terminator) emit(e Event) {
	t.observer.Observe(e)
}

// recoverInto turns a panic from a collaborator into an error.
func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}
