package apps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/shirou/gopsutil/v3/process"
)

// procInfo is the slice of a process the Unix backend cares about.
type procInfo struct {
	PID  int32
	PPID int32
	UID  int32
	Name string
}

// procTable abstracts gopsutil so tests can supply a fixed process list.
type procTable interface {
	List(ctx context.Context) ([]procInfo, error)
	Terminate(ctx context.Context, pid int32) error
	Kill(ctx context.Context, pid int32) error
}

// Unix enumerates the current user's processes with gopsutil, asks them to
// quit with SIGTERM, and kills with SIGKILL. Both signals go to the same
// PID set, so fq's own ancestors are never touched.
type Unix struct {
	procs procTable
	uid   int32
	self  int32
}

// NewUnix returns a Unix backend for the calling user.
func NewUnix() *Unix {
	return &Unix{
		procs: gopsutilTable{},
		uid:   int32(os.Getuid()),
		self:  int32(os.Getpid()),
	}
}

// Name returns BackendUnix.
func (u *Unix) Name() string { return BackendUnix }

// Applications returns the distinct names of processes owned by the current
// user, sorted. fq itself and its ancestors (the shell and terminal that
// launched it) are left out.
func (u *Unix) Applications(ctx context.Context) ([]string, error) {
	procs, err := u.procs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	skip := ancestors(procs, u.self)

	seen := make(map[string]bool)
	var names []string
	for _, p := range procs {
		if p.UID != u.uid || skip[p.PID] || p.Name == "" {
			continue
		}
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Quit sends SIGTERM to every process of the current user called name.
func (u *Unix) Quit(ctx context.Context, name string) error {
	if err := u.signal(ctx, name, u.procs.Terminate); err != nil {
		return fmt.Errorf("quit %q: %w", name, err)
	}
	return nil
}

// Kill sends SIGKILL to the processes Quit would target.
func (u *Unix) Kill(ctx context.Context, name string) error {
	if err := u.signal(ctx, name, u.procs.Kill); err != nil {
		return fmt.Errorf("kill %q: %w", name, err)
	}
	return nil
}

// signal applies send to every process owned by the current user whose name
// is exactly name, skipping fq and its ancestors.
func (u *Unix) signal(ctx context.Context, name string, send func(context.Context, int32) error) error {
	procs, err := u.procs.List(ctx)
	if err != nil {
		return err
	}

	skip := ancestors(procs, u.self)

	var matched int
	var errs []error
	for _, p := range procs {
		if p.UID != u.uid || p.Name != name || skip[p.PID] {
			continue
		}
		matched++
		if err := send(ctx, p.PID); err != nil {
			errs = append(errs, fmt.Errorf("pid %d: %w", p.PID, err))
		}
	}

	if matched == 0 {
		return ErrNoMatch
	}
	return errors.Join(errs...)
}

// ancestors returns pid and every parent above it found in procs.
func ancestors(procs []procInfo, pid int32) map[int32]bool {
	parent := make(map[int32]int32, len(procs))
	for _, p := range procs {
		parent[p.PID] = p.PPID
	}

	out := map[int32]bool{pid: true}
	for cur := pid; ; {
		ppid, ok := parent[cur]
		if !ok || ppid <= 1 || out[ppid] {
			break
		}
		out[ppid] = true
		cur = ppid
	}
	return out
}

type gopsutilTable struct{}

func (gopsutilTable) List(ctx context.Context) ([]procInfo, error) {
	ps, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]procInfo, 0, len(ps))
	for _, p := range ps {
		// Processes can exit between listing and inspection; skip them.
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		uids, err := p.UidsWithContext(ctx)
		if err != nil || len(uids) == 0 {
			continue
		}
		ppid, _ := p.PpidWithContext(ctx)
		out = append(out, procInfo{PID: p.Pid, PPID: ppid, UID: uids[0], Name: name})
	}
	return out, nil
}

func (gopsutilTable) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	return p.TerminateWithContext(ctx)
}

func (gopsutilTable) Kill(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	return p.KillWithContext(ctx)
}
