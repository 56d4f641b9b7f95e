package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/forcequit/fq/internal/apps"
	"github.com/forcequit/fq/internal/config"
)

// fakeBackend stands in for the OS.
type fakeBackend struct {
	mu     sync.Mutex
	apps   []string
	listFn func() ([]string, error)
	quits  []string
	kills  []string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Applications(ctx context.Context) ([]string, error) {
	if f.listFn != nil {
		return f.listFn()
	}
	return append([]string(nil), f.apps...), nil
}

func (f *fakeBackend) Quit(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quits = append(f.quits, name)
	return nil
}

func (f *fakeBackend) Kill(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kills = append(f.kills, name)
	return nil
}

// testEnv isolates package state for one test.
type testEnv struct {
	backend *fakeBackend
	dir     string
	logPath string
	lock    string
}

func setupTest(t *testing.T, running ...string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		backend: &fakeBackend{apps: running},
		dir:     dir,
		logPath: filepath.Join(dir, "state", "runs.log"),
		lock:    filepath.Join(dir, "run", "fq.lock"),
	}

	savedCfg, savedBackend, savedLock, savedInteractive, savedClock :=
		cfg, newBackend, lockPath, isInteractive, clock
	t.Cleanup(func() {
		cfg, newBackend, lockPath, isInteractive, clock =
			savedCfg, savedBackend, savedLock, savedInteractive, savedClock
		resetFlags()
	})

	cfg = config.Default()
	cfg.Log.Path = env.logPath
	newBackend = func(string) (apps.Backend, error) { return env.backend, nil }
	lockPath = func() string { return env.lock }
	isInteractive = func() bool { return false }
	clock = clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local))
	resetFlags()
	configFlag = filepath.Join(dir, "config", "config.toml")

	return env
}

func resetFlags() {
	configFlag = ""
	quitYes, quitDryRun, quitKillPolicy, quitTimeout = false, false, "", 0
	listJSON, listQuittable = false, false
	checkQuiet = false
	configShowDefaults, configInitForce = false, false
	logTail, logType, logRun, logApp, logSince, logFollow, logNoPager = 20, "", "", "", "", false, true
}

// newTestCmd returns a command with captured output and the given stdin.
func newTestCmd(stdin string) (*cobra.Command, *bytes.Buffer) {
	c := &cobra.Command{}
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetErr(&buf)
	c.SetIn(strings.NewReader(stdin))
	c.SetContext(context.Background())
	return c, &buf
}
