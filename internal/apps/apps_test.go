package apps

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeRunner records invocations and replays canned results.
type fakeRunner struct {
	output string
	err    error
	calls  [][]string
}

func (f *fakeRunner) Output(_ context.Context, cmd string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{cmd}, args...))
	return f.output, f.err
}

func (f *fakeRunner) Run(_ context.Context, cmd string, args ...string) error {
	f.calls = append(f.calls, append([]string{cmd}, args...))
	return f.err
}

func TestParseAppleScriptList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"osascript default", "Finder, TextEdit, kernel_task\n", []string{"Finder", "TextEdit", "kernel_task"}},
		{"braced and quoted", `{"Finder", "Google Chrome", "iTerm2"}`, []string{"Finder", "Google Chrome", "iTerm2"}},
		{"single", "Finder", []string{"Finder"}},
		{"empty", "", nil},
		{"empty braces", "{}", nil},
		{"blank elements", "Finder, , Safari,", []string{"Finder", "Safari"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAppleScriptList(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAppleScriptList(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestQuitScript_EscapesQuotes(t *testing.T) {
	got := quitScript(`Evil" to do shell script "rm`)
	want := `tell application "Evil\" to do shell script \"rm" to quit`
	if got != want {
		t.Errorf("quitScript = %q, want %q", got, want)
	}
}

func TestMacOS_Applications(t *testing.T) {
	r := &fakeRunner{output: "Finder, TextEdit"}
	m := &MacOS{pkill: pkill{run: r}, run: r}

	got, err := m.Applications(context.Background())
	if err != nil {
		t.Fatalf("Applications: %v", err)
	}
	if diff := cmp.Diff([]string{"Finder", "TextEdit"}, got); diff != "" {
		t.Errorf("Applications mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"osascript", "-e", listScript}}, r.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMacOS_ApplicationsError(t *testing.T) {
	r := &fakeRunner{err: errors.New("not authorized")}
	m := &MacOS{pkill: pkill{run: r}, run: r}

	if _, err := m.Applications(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestMacOS_QuitAndKill(t *testing.T) {
	r := &fakeRunner{}
	m := &MacOS{pkill: pkill{run: r}, run: r}

	if err := m.Quit(context.Background(), "TextEdit"); err != nil {
		t.Fatalf("Quit: %v", err)
	}
	if err := m.Kill(context.Background(), "C++ Builder"); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	want := [][]string{
		{"osascript", "-e", `tell application "TextEdit" to quit`},
		{"pkill", "-KILL", "-f", `C\+\+ Builder`},
	}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPkill_NoMatchWithStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	// pkill can warn on stderr and still exit 1 for "nothing matched"
	exitErr := exec.Command("sh", "-c", "exit 1").Run()
	r := &fakeRunner{err: fmt.Errorf("pkill: pkill: warning: %w", exitErr)}

	err := pkill{run: r}.Kill(context.Background(), "Slack")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Kill = %v, want ErrNoMatch", err)
	}
}

// fakeTable is a fixed process list.
type fakeTable struct {
	procs      []procInfo
	listErr    error
	terminated []int32
	killed     []int32
	termErr    map[int32]error
}

func (f *fakeTable) List(context.Context) ([]procInfo, error) {
	return f.procs, f.listErr
}

func (f *fakeTable) Terminate(_ context.Context, pid int32) error {
	f.terminated = append(f.terminated, pid)
	return f.termErr[pid]
}

func (f *fakeTable) Kill(_ context.Context, pid int32) error {
	f.killed = append(f.killed, pid)
	return f.termErr[pid]
}

func newTestUnix(table *fakeTable) *Unix {
	return &Unix{procs: table, uid: 501, self: 400}
}

func testProcs() []procInfo {
	return []procInfo{
		{PID: 1, PPID: 0, UID: 0, Name: "launchd"},
		{PID: 100, PPID: 1, UID: 501, Name: "Terminal"},
		{PID: 300, PPID: 100, UID: 501, Name: "zsh"},
		{PID: 400, PPID: 300, UID: 501, Name: "fq"},
		{PID: 500, PPID: 1, UID: 501, Name: "Slack"},
		{PID: 501, PPID: 500, UID: 501, Name: "Slack"},
		{PID: 600, PPID: 1, UID: 501, Name: "firefox"},
		{PID: 700, PPID: 1, UID: 0, Name: "sshd"},
		{PID: 800, PPID: 1, UID: 501, Name: ""},
	}
}

func TestUnix_Applications(t *testing.T) {
	u := newTestUnix(&fakeTable{procs: testProcs()})

	got, err := u.Applications(context.Background())
	if err != nil {
		t.Fatalf("Applications: %v", err)
	}

	// own ancestry, other users, and nameless processes are excluded
	want := []string{"Slack", "firefox"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Applications mismatch (-want +got):\n%s", diff)
	}
}

func TestUnix_ApplicationsError(t *testing.T) {
	u := newTestUnix(&fakeTable{listErr: errors.New("permission denied")})
	if _, err := u.Applications(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnix_Quit(t *testing.T) {
	table := &fakeTable{procs: testProcs()}
	u := newTestUnix(table)

	if err := u.Quit(context.Background(), "Slack"); err != nil {
		t.Fatalf("Quit: %v", err)
	}
	if diff := cmp.Diff([]int32{500, 501}, table.terminated); diff != "" {
		t.Errorf("terminated mismatch (-want +got):\n%s", diff)
	}
}

func TestUnix_QuitNoMatch(t *testing.T) {
	u := newTestUnix(&fakeTable{procs: testProcs()})

	err := u.Quit(context.Background(), "sshd")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Quit(sshd) = %v, want ErrNoMatch", err)
	}
}

func TestUnix_QuitNeverTargetsAncestors(t *testing.T) {
	table := &fakeTable{procs: testProcs()}
	u := newTestUnix(table)

	if err := u.Quit(context.Background(), "zsh"); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Quit(zsh) = %v, want ErrNoMatch", err)
	}
	if len(table.terminated) != 0 {
		t.Errorf("terminated %v, want none", table.terminated)
	}
}

func TestUnix_Kill(t *testing.T) {
	table := &fakeTable{procs: testProcs()}
	u := newTestUnix(table)

	if err := u.Kill(context.Background(), "Slack"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if diff := cmp.Diff([]int32{500, 501}, table.killed); diff != "" {
		t.Errorf("killed mismatch (-want +got):\n%s", diff)
	}
	if len(table.terminated) != 0 {
		t.Errorf("terminated %v, want none", table.terminated)
	}
}

func TestUnix_KillNeverTargetsAncestors(t *testing.T) {
	// A second zsh that did not launch fq is fair game; the parent shell
	// (300) and its prefix-sharing neighbours are not.
	procs := append(testProcs(),
		procInfo{PID: 900, PPID: 100, UID: 501, Name: "zsh"},
		procInfo{PID: 910, PPID: 100, UID: 501, Name: "zsh-helper"},
		procInfo{PID: 920, PPID: 1, UID: 0, Name: "zsh"},
	)
	table := &fakeTable{procs: procs}
	u := newTestUnix(table)

	names, err := u.Applications(context.Background())
	if err != nil {
		t.Fatalf("Applications: %v", err)
	}
	if !slices.Contains(names, "zsh") {
		t.Fatalf("Applications = %v, want the second zsh listed", names)
	}

	if err := u.Kill(context.Background(), "zsh"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if diff := cmp.Diff([]int32{900}, table.killed); diff != "" {
		t.Errorf("killed mismatch (-want +got):\n%s", diff)
	}
}

func TestUnix_KillNoMatch(t *testing.T) {
	u := newTestUnix(&fakeTable{procs: testProcs()})

	err := u.Kill(context.Background(), "sshd")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Kill(sshd) = %v, want ErrNoMatch", err)
	}
}

func TestUnix_QuitPartialFailure(t *testing.T) {
	table := &fakeTable{
		procs:   testProcs(),
		termErr: map[int32]error{501: errors.New("operation not permitted")},
	}
	u := newTestUnix(table)

	err := u.Quit(context.Background(), "Slack")
	if err == nil || !strings.Contains(err.Error(), "pid 501") {
		t.Errorf("Quit error = %v, want mention of pid 501", err)
	}
	if len(table.terminated) != 2 {
		t.Errorf("terminated %v, want both Slack pids attempted", table.terminated)
	}
}

func TestNew(t *testing.T) {
	if _, err := New("bogus"); err == nil {
		t.Error("New(bogus) should fail")
	}

	b, err := New(BackendAuto)
	switch runtime.GOOS {
	case "darwin":
		if err != nil || b.Name() != BackendMacOS {
			t.Errorf("New(auto) on darwin = %v, %v", b, err)
		}
	case "windows":
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("New(auto) on windows err = %v, want ErrUnsupported", err)
		}
	default:
		if err != nil || b.Name() != BackendUnix {
			t.Errorf("New(auto) = %v, %v", b, err)
		}
	}
}
