package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const actionTimeout = 15 * time.Second

type commandKind int

const (
	cmdSend commandKind = iota
	cmdApprove
	cmdReject
	cmdHalt
	cmdHelp
	cmdUnknown
)

type command struct {
	kind   commandKind
	arg    string
	reason string
}

const helpText = "/approve <task-id> · /reject <task-id> [reason] · /halt · text sends to the squad"

// parseCommand reads one input line. Lines not starting with '/' are sends.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdSend, arg: line}
	}
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	switch name {
	case "/approve":
		if len(args) == 0 {
			return command{kind: cmdUnknown, arg: "usage: /approve <task-id>"}
		}
		return command{kind: cmdApprove, arg: args[0]}
	case "/reject":
		if len(args) == 0 {
			return command{kind: cmdUnknown, arg: "usage: /reject <task-id> [reason]"}
		}
		return command{kind: cmdReject, arg: args[0], reason: strings.Join(args[1:], " ")}
	case "/halt":
		return command{kind: cmdHalt}
	case "/help":
		return command{kind: cmdHelp}
	default:
		return command{kind: cmdUnknown, arg: "unknown command " + name}
	}
}

// actionDoneMsg reports the outcome of a background action.
type actionDoneMsg struct {
	status string
	err    error
}

func (m *Model) runCommand(c command) tea.Cmd {
	switch c.kind {
	case cmdSend:
		if c.arg == "" {
			return nil
		}
		return m.action("message sent", func(ctx context.Context) error {
			_, err := m.actions.SendMessage(ctx, c.arg)
			return err
		})
	case cmdApprove:
		return m.action("approved "+c.arg, func(ctx context.Context) error {
			return m.actions.ApproveTask(ctx, c.arg, true, "")
		})
	case cmdReject:
		return m.action("rejected "+c.arg, func(ctx context.Context) error {
			return m.actions.ApproveTask(ctx, c.arg, false, c.reason)
		})
	case cmdHalt:
		return m.action("halt requested", func(ctx context.Context) error {
			resp, err := m.actions.HaltSquad(ctx, "")
			if err == nil && resp != nil && resp.Implemented != nil && !*resp.Implemented {
				return fmt.Errorf("halt is not implemented by the backend")
			}
			return err
		})
	case cmdHelp:
		m.status = helpText
		m.statusErr = false
		return nil
	default:
		m.status = c.arg
		m.statusErr = true
		return nil
	}
}

func (m *Model) selectCmd(squadID string) tea.Cmd {
	return m.action("selected "+squadID, func(ctx context.Context) error {
		return m.actions.SelectSquad(ctx, squadID)
	})
}

func (m *Model) action(done string, fn func(ctx context.Context) error) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, actionTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: done}
	}
}
