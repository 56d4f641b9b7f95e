// Package runlog keeps a human-readable, append-only record of force-quit runs.
//
// Each line looks like:
//
//	2026-10-17 15:30:45 [quit] 1a2b3c4d "TextEdit" quit requested
//	2026-10-17 15:30:45 [run_finished] 1a2b3c4d - 1 quit, 2 preserved, 0 failures
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/forcequit/fq/internal/terminate"
)

const timeLayout = "2006-01-02 15:04:05"

// Event is one parsed or to-be-written log line.
type Event struct {
	Timestamp time.Time
	Type      terminate.EventKind
	RunID     string // short form, first 8 characters of the run UUID
	App       string // empty for run-level events
	Detail    string
}

// Logger appends events to a log file. It is safe for concurrent use and
// implements terminate.Observer.
type Logger struct {
	path  string
	mu    sync.Mutex
	now   func() time.Time
	onErr func(error)
}

// NewLogger creates a Logger writing to path. The file and its directory are
// created on first write.
func NewLogger(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *Logger) Path() string {
	return l.path
}

// OnError registers a callback for write failures seen by Observe, which
// cannot return them.
func (l *Logger) OnError(fn func(error)) {
	l.onErr = fn
}

// LogEvent writes a single event.
func (l *Logger) LogEvent(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLogLine(event) + "\n"); err != nil {
		return fmt.Errorf("writing log line: %w", err)
	}

	return nil
}

// Observe records a terminator event.
func (l *Logger) Observe(e terminate.Event) {
	err := l.LogEvent(Event{
		Timestamp: l.now(),
		Type:      e.Kind,
		RunID:     shortID(e.RunID),
		App:       e.Name,
		Detail:    describe(e),
	})
	if err != nil && l.onErr != nil {
		l.onErr(err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// describe renders the free-text tail of a log line.
func describe(e terminate.Event) string {
	switch e.Kind {
	case terminate.EventRunStarted:
		return "run started"
	case terminate.EventEnumerationFailed:
		return fmt.Sprintf("could not list applications: %v", e.Err)
	case terminate.EventPreserved:
		if e.Verdict.Match != "" {
			return fmt.Sprintf("preserved (%s %q)", e.Verdict.Reason, e.Verdict.Match)
		}
		return "preserved"
	case terminate.EventQuitFailed:
		return fmt.Sprintf("graceful quit failed: %v", e.Err)
	case terminate.EventKillFailed:
		return fmt.Sprintf("kill failed: %v", e.Err)
	case terminate.EventKillSkipped:
		return "quit cleanly, kill skipped"
	case terminate.EventQuit:
		return "quit requested"
	case terminate.EventWouldQuit:
		return "would quit (dry run)"
	case terminate.EventRunFinished:
		if e.Tally == nil {
			return "run finished"
		}
		return fmt.Sprintf("%d quit, %d preserved, %d failures",
			e.Tally.Quit, e.Tally.Preserved, len(e.Tally.Failures))
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// formatLogLine formats an event as a log line.
func formatLogLine(e Event) string {
	app := "-"
	if e.App != "" {
		app = strconv.Quote(e.App)
	}
	runID := e.RunID
	if runID == "" {
		runID = "-"
	}
	line := fmt.Sprintf("%s [%s] %s %s", e.Timestamp.Format(timeLayout), e.Type, runID, app)
	if e.Detail != "" {
		line += " " + oneLine(e.Detail)
	}
	return line
}

// oneLine keeps multi-line error text from breaking the line format.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ReadEvents reads every event in the log at path. A missing file yields no
// events.
func ReadEvents(path string) ([]Event, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading log file: %w", err)
	}

	return ParseLogLines(string(content)), nil
}

// ParseLogLines parses log lines back into Events, skipping malformed lines.
func ParseLogLines(content string) []Event {
	var events []Event
	for _, line := range strings.Split(content, "\n") {
		if line == "" {
			continue
		}
		event, err := parseLogLine(line)
		if err != nil {
			continue
		}
		events = append(events, event)
	}
	return events
}

// parseLogLine is the inverse of formatLogLine.
func parseLogLine(line string) (Event, error) {
	var event Event

	if len(line) < len(timeLayout)+1 {
		return event, fmt.Errorf("line too short")
	}
	ts, err := time.ParseInLocation(timeLayout, line[:len(timeLayout)], time.Local)
	if err != nil {
		return event, fmt.Errorf("parsing timestamp: %w", err)
	}
	event.Timestamp = ts

	rest := line[len(timeLayout)+1:]
	if !strings.HasPrefix(rest, "[") {
		return event, fmt.Errorf("missing event type")
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return event, fmt.Errorf("unclosed bracket")
	}
	event.Type = terminate.EventKind(rest[1:end])
	rest = strings.TrimPrefix(rest[end+1:], " ")

	runID, rest, ok := strings.Cut(rest, " ")
	if !ok || runID == "" {
		return event, fmt.Errorf("missing run id")
	}
	if runID != "-" {
		event.RunID = runID
	}

	switch {
	case strings.HasPrefix(rest, `"`):
		quoted, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return event, fmt.Errorf("parsing app name: %w", err)
		}
		event.App, _ = strconv.Unquote(quoted)
		rest = rest[len(quoted):]
	case strings.HasPrefix(rest, "-"):
		rest = rest[1:]
	default:
		return event, fmt.Errorf("missing app")
	}
	event.Detail = strings.TrimPrefix(rest, " ")

	return event, nil
}

// TailEvents returns the last n events from the log at path. n <= 0 returns
// everything.
func TailEvents(path string, n int) ([]Event, error) {
	events, err := ReadEvents(path)
	if err != nil {
		return nil, err
	}
	if n <= 0 || len(events) <= n {
		return events, nil
	}
	return events[len(events)-n:], nil
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Type  terminate.EventKind
	RunID string // prefix match
	App   string // case-insensitive substring
	Since time.Time
}

// FilterEvents applies a filter to events.
func FilterEvents(events []Event, f Filter) []Event {
	var result []Event
	for _, e := range events {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.RunID != "" && !strings.HasPrefix(e.RunID, f.RunID) {
			continue
		}
		if f.App != "" && !strings.Contains(strings.ToLower(e.App), strings.ToLower(f.App)) {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		result = append(result, e)
	}
	return result
}
