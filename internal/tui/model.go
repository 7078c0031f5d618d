// Package tui renders the synchronized dashboard state in a terminal.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shinox-lab/dashboard/internal/state"
	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

// Actions are the user actions of the dashboard, implemented by
// *service.Service.
type Actions interface {
	SelectSquad(ctx context.Context, squadID string) error
	SendMessage(ctx context.Context, content string) (v1.Message, error)
	ApproveTask(ctx context.Context, taskID string, approved bool, reason string) error
	HaltSquad(ctx context.Context, squadID string) (*v1.HaltResponse, error)
}

// Snapshotter reads the store.
type Snapshotter interface {
	Snapshot() state.Snapshot
}

type focus int

const (
	focusSquads focus = iota
	focusInput
)

// Model is the bubbletea model of the terminal dashboard.
type Model struct {
	ctx     context.Context
	actions Actions
	store   Snapshotter
	bridge  *Bridge

	snap   state.Snapshot
	cursor int
	focus  focus

	status    string
	statusErr bool
	busy      bool

	width  int
	height int

	input      textinput.Model
	transcript viewport.Model
	spinner    spinner.Model
	theme      theme
}

// NewModel creates the model. bridge may be nil.
func NewModel(ctx context.Context, actions Actions, store Snapshotter, bridge *Bridge) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Placeholder = "Message the squad, or /help"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	transcript := viewport.New(0, 0)
	transcript.MouseWheelEnabled = true

	m := &Model{
		ctx:        ctx,
		actions:    actions,
		store:      store,
		bridge:     bridge,
		focus:      focusSquads,
		status:     helpText,
		input:      input,
		transcript: transcript,
		spinner:    sp,
		theme:      newTheme(),
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.bridge != nil {
		cmds = append(cmds, m.bridge.wait())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderTranscript()

	case stateChangedMsg:
		m.refresh()
		if m.bridge != nil {
			cmds = append(cmds, m.bridge.wait())
		}

	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
			m.statusErr = true
		} else {
			m.status = msg.status
			m.statusErr = false
		}
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if cmd, quit := m.handleKey(msg); quit {
			return m, tea.Quit
		} else if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return nil, true
	case "tab":
		m.toggleFocus()
		return nil, false
	}

	if m.focus == focusSquads {
		switch msg.String() {
		case "q":
			return nil, true
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.snap.Squads)-1 {
				m.cursor++
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return cmd, false
		case "enter":
			if m.cursor < len(m.snap.Squads) {
				m.busy = true
				return m.selectCmd(m.snap.Squads[m.cursor].SquadID), false
			}
		case "i", "/":
			m.toggleFocus()
			if msg.String() == "/" {
				m.input.SetValue("/")
				m.input.CursorEnd()
			}
		}
		return nil, false
	}

	switch msg.String() {
	case "esc":
		m.toggleFocus()
		return nil, false
	case "enter":
		line := m.input.Value()
		m.input.SetValue("")
		cmd := m.runCommand(parseCommand(line))
		if cmd != nil {
			m.busy = true
		}
		return cmd, false
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd, false
}

func (m *Model) toggleFocus() {
	if m.focus == focusSquads {
		m.focus = focusInput
		m.input.Focus()
		return
	}
	m.focus = focusSquads
	m.input.Blur()
}

// refresh re-reads the store and keeps the cursor on the selected squad.
func (m *Model) refresh() {
	m.snap = m.store.Snapshot()
	for i, sq := range m.snap.Squads {
		if sq.SquadID == m.snap.SelectedSquadID {
			m.cursor = i
			break
		}
	}
	if m.cursor >= len(m.snap.Squads) {
		m.cursor = max(0, len(m.snap.Squads)-1)
	}
	m.renderTranscript()
}

// Run starts the terminal UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, actions Actions, store Snapshotter, bridge *Bridge) error {
	model := NewModel(ctx, actions, store, bridge)
	_, err := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
