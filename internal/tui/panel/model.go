// Package panel provides the interactive force-quit panel: a small bubbletea
// program with a trigger, a confirmation step and a result report. It can
// collapse to a one-line tray bar and be shown again.
package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/forcequit/fq/internal/terminate"
)

// RunFunc performs one force-quit run, reporting progress to obs. An error
// means the run could not start at all, for example because another run holds
// the lock.
type RunFunc func(ctx context.Context, obs terminate.Observer) (terminate.Tally, error)

// State is the panel's position in its trigger cycle.
type State int

const (
	StateIdle State = iota
	StateConfirming
	StateRunning
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirming:
		return "confirming"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Model is the bubbletea model for the panel.
type Model struct {
	run   RunFunc
	state State

	events []terminate.Event
	tally  terminate.Tally
	err    error

	// msgs carries progress from the run goroutine; nil when idle.
	msgs      chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once

	// UI state
	keys     KeyMap
	help     help.Model
	showHelp bool
	hidden   bool
	log      viewport.Model
	width    int
	height   int
}

// New creates a panel that calls run each time the user confirms a force quit.
func New(run RunFunc) *Model {
	return &Model{
		run:  run,
		keys: DefaultKeyMap(),
		help: help.New(),
		log:  viewport.New(60, 10),
		done: make(chan struct{}),
	}
}

// SetHidden starts the panel collapsed to its tray bar.
func (m *Model) SetHidden(hidden bool) {
	m.hidden = hidden
}

// State returns the current state.
func (m *Model) State() State {
	return m.state
}

// Tally returns the result of the last completed run.
func (m *Model) Tally() terminate.Tally {
	return m.tally
}

// Err returns the error of the last failed run, if any.
func (m *Model) Err() error {
	return m.err
}

// Hidden reports whether the panel is collapsed to its tray bar.
func (m *Model) Hidden() bool {
	return m.hidden
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle("fq")
}

// eventMsg is one progress event from a running run.
type eventMsg terminate.Event

// finishedMsg ends a run.
type finishedMsg struct {
	tally terminate.Tally
	err   error
}

// startRun returns a command that launches the run on its own goroutine and
// delivers its first message. Every later message is fetched by listen.
func (m *Model) startRun() tea.Cmd {
	ch := make(chan tea.Msg, 16)
	m.msgs = ch
	done := m.done
	run := m.run

	return func() tea.Msg {
		go runInto(run, ch, done)
		return receive(ch, done)
	}
}

// listen returns a command that waits for the next message of the run.
func (m *Model) listen() tea.Cmd {
	if m.msgs == nil {
		return nil
	}
	// Capture channels to avoid race with Model mutations
	ch := m.msgs
	done := m.done
	return func() tea.Msg {
		return receive(ch, done)
	}
}

func receive(ch <-chan tea.Msg, done <-chan struct{}) tea.Msg {
	select {
	case msg, ok := <-ch:
		if !ok {
			return nil
		}
		return msg
	case <-done:
		return nil
	}
}

// runInto executes run and streams its events and final result to ch.
// A panic inside run is reported as an error result.
func runInto(run RunFunc, ch chan<- tea.Msg, done <-chan struct{}) {
	defer close(ch)

	send := func(msg tea.Msg) {
		select {
		case ch <- msg:
		case <-done:
		}
	}

	var res finishedMsg
	func() {
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("panic: %v", r)
			}
		}()
		if run == nil {
			res.err = fmt.Errorf("no force-quit runner configured")
			return
		}
		obs := terminate.ObserverFunc(func(e terminate.Event) {
			send(eventMsg(e))
		})
		res.tally, res.err = run(context.Background(), obs)
	}()
	send(res)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateLogSize()
		return m, nil

	case eventMsg:
		m.addEvent(terminate.Event(msg))
		return m, m.listen()

	case finishedMsg:
		m.msgs = nil
		m.tally = msg.tally
		m.err = msg.err
		if msg.err != nil {
			m.state = StateError
		} else {
			m.state = StateDone
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey processes key presses.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		// a run cannot be aborted; q waits for it, ctrl+c does not
		if m.state == StateRunning && msg.String() != "ctrl+c" {
			return m, nil
		}
		m.closeOnce.Do(func() { close(m.done) })
		return m, tea.Quit

	case key.Matches(msg, m.keys.Hide):
		m.hidden = !m.hidden
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.updateLogSize()
		return m, nil
	}

	switch m.state {
	case StateIdle, StateDone, StateError:
		switch {
		case key.Matches(msg, m.keys.ForceQuit):
			// the tray trigger shows the panel before asking
			m.hidden = false
			m.state = StateConfirming
			return m, nil
		case key.Matches(msg, m.keys.Cancel):
			m.state = StateIdle
			return m, nil
		}

	case StateConfirming:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.state = StateRunning
			m.events = nil
			m.err = nil
			m.tally = terminate.Tally{}
			m.updateLogContent()
			return m, m.startRun()
		case key.Matches(msg, m.keys.Cancel):
			m.state = StateIdle
			return m, nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return m, cmd
}

// addEvent records a per-application event for the log view.
func (m *Model) addEvent(e terminate.Event) {
	if e.Kind == terminate.EventRunStarted || e.Kind == terminate.EventRunFinished {
		return
	}
	m.events = append(m.events, e)
	m.updateLogContent()
}

func (m *Model) updateLogContent() {
	m.log.SetContent(m.renderEvents())
	m.log.GotoBottom()
}

// updateLogSize recalculates the event log dimensions.
func (m *Model) updateLogSize() {
	// title, description, status, blank lines and help
	reserved := 8
	if m.showHelp {
		reserved += 3
	}
	h := m.height - reserved
	if h < 3 {
		h = 3
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.log.Width = w
	m.log.Height = h
	m.updateLogContent()
}

// View renders the model.
func (m *Model) View() string {
	if m.hidden {
		return m.renderTrayBar()
	}
	return m.renderView()
}
