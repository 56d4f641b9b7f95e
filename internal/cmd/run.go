package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/forcequit/fq/internal/apps"
	"github.com/forcequit/fq/internal/config"
	"github.com/forcequit/fq/internal/lock"
	"github.com/forcequit/fq/internal/runlog"
	"github.com/forcequit/fq/internal/terminate"
)

// newBackend returns the OS backend. Tests replace it with a fake.
var newBackend = func(name string) (apps.Backend, error) {
	return apps.New(name)
}

// lockPath locates the single-run lock. Tests point it into a temp dir.
var lockPath = config.LockPath

// clock drives run timestamps. Tests replace it with a fake.
var clock = clockwork.NewRealClock()

// runSettings are the per-invocation overrides of the [quit] config table.
type runSettings struct {
	killPolicy string
	timeout    time.Duration
	dryRun     bool
	// listing, when set, replaces live enumeration with a confirmed plan.
	listing *terminate.Listing
}

// options resolves run settings against the loaded config.
func (s runSettings) options() (terminate.Options, error) {
	policy := cfg.Quit.KillPolicy
	if s.killPolicy != "" {
		policy = s.killPolicy
	}
	kp, err := terminate.ParseKillPolicy(policy)
	if err != nil {
		return terminate.Options{}, err
	}

	timeout := cfg.Quit.Timeout.Duration
	if s.timeout > 0 {
		timeout = s.timeout
	}

	return terminate.Options{
		QuitTimeout: timeout,
		KillPolicy:  kp,
		DryRun:      s.dryRun,
		Clock:       clock,
	}, nil
}

// newTerminator wires the configured allow-list and backend into a Terminator.
// A nil enum enumerates through the backend.
func newTerminator(opts terminate.Options, enum terminate.Enumerator) (*terminate.Terminator, error) {
	set, err := cfg.EssentialSet()
	if err != nil {
		return nil, err
	}
	backend, err := newBackend(cfg.Quit.Backend)
	if err != nil {
		return nil, fmt.Errorf("selecting backend: %w", err)
	}
	if enum == nil {
		enum = backend
	}
	return terminate.New(set, enum, backend, backend, opts), nil
}

// forceQuit performs one run under the single-run lock. Events go to obs and,
// when enabled, to the run log. Run log write failures are passed to logErr.
// The returned error means the run did not start.
func forceQuit(ctx context.Context, origin string, s runSettings, obs terminate.Observer, logErr func(error)) (terminate.Tally, error) {
	opts, err := s.options()
	if err != nil {
		return terminate.Tally{}, err
	}

	observers := terminate.Observers{obs}
	if cfg.Log.Enabled && !s.dryRun {
		logger := runlog.NewLogger(config.RunLogPath(cfg))
		if logErr != nil {
			logger.OnError(logErr)
		}
		observers = append(observers, logger)
	}
	opts.Observer = observers

	var enum terminate.Enumerator
	if s.listing != nil {
		enum = *s.listing
	}
	t, err := newTerminator(opts, enum)
	if err != nil {
		return terminate.Tally{}, err
	}

	if !s.dryRun {
		rl := lock.New(lockPath())
		if err := rl.TryAcquire(origin); err != nil {
			return terminate.Tally{}, err
		}
		defer func() { _ = rl.Release() }()
	}

	return t.ForceQuitAll(ctx), nil
}
