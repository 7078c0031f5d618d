package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

const (
	squadPaneWidth = 30
	taskPaneWidth  = 34
	chromeHeight   = 9 // header, input and status rows plus borders
)

func (m *Model) resize() {
	w := m.width - squadPaneWidth - taskPaneWidth - 6
	if w < 20 {
		w = 20
	}
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	m.transcript.Width = w
	m.transcript.Height = h
	m.input.Width = m.width - 8
}

func (m *Model) paneHeight() int {
	return m.transcript.Height
}

func (m *Model) View() string {
	header := m.renderHeader()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSquads(),
		m.renderTranscriptPane(),
		m.renderTasks(),
	)
	input := m.theme.inputPanel.Render(m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, m.renderStatus())
}

func (m *Model) renderHeader() string {
	indicator := func(label string, ok bool) string {
		if ok {
			return m.theme.online.Render("● " + label)
		}
		return m.theme.offline.Render("○ " + label)
	}
	parts := []string{
		"squadwatch",
		indicator("websocket", m.snap.Connectivity.WebSocket),
		indicator("api", m.snap.Connectivity.API),
	}
	if m.snap.LoadError != "" {
		parts = append(parts, m.theme.errorStatus.Render(m.snap.LoadError))
	}
	return m.theme.header.Render(strings.Join(parts, "   "))
}

func (m *Model) renderSquads() string {
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render(fmt.Sprintf("Squads (%d)", len(m.snap.Squads))))
	b.WriteString("\n")
	if len(m.snap.Squads) == 0 {
		b.WriteString(m.theme.muted.Render("no squads"))
	}
	for i, sq := range m.snap.Squads {
		marker := "  "
		if sq.SquadID == m.snap.SelectedSquadID {
			marker = "▸ "
		}
		line := truncate(marker+sq.Name+" "+statusTag(sq.Status), squadPaneWidth-2)
		if i == m.cursor && m.focus == focusSquads {
			line = m.theme.selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	style := m.theme.panel
	if m.focus == focusSquads {
		style = m.theme.panelFocus
	}
	return style.Width(squadPaneWidth).Height(m.paneHeight()).Render(strings.TrimRight(b.String(), "\n"))
}

func statusTag(s v1.SquadStatus) string {
	if s == "" {
		return ""
	}
	return "[" + strings.ToLower(string(s)) + "]"
}

func (m *Model) renderTranscriptPane() string {
	title := "Transcript"
	if m.snap.SelectedSquadID != "" {
		title += " · " + m.snap.SelectedSquadID
	}
	if m.busy {
		title += " " + m.spinner.View()
	}
	content := m.theme.panelTitle.Render(title) + "\n" + m.transcript.View()
	return m.theme.panel.Render(content)
}

// renderTranscript rebuilds the transcript viewport and keeps it pinned to
// the newest message.
func (m *Model) renderTranscript() {
	if m.snap.SelectedSquadID == "" {
		m.transcript.SetContent(m.theme.muted.Render("select a squad with ↑/↓ and enter"))
		return
	}
	if len(m.snap.Messages) == 0 {
		m.transcript.SetContent(m.theme.muted.Render("no messages yet"))
		return
	}
	lines := make([]string, 0, len(m.snap.Messages))
	for _, msg := range m.snap.Messages {
		lines = append(lines, m.formatMessage(msg))
	}
	m.transcript.SetContent(strings.Join(lines, "\n"))
	m.transcript.GotoBottom()
}

func (m *Model) formatMessage(msg v1.Message) string {
	author := m.theme.author
	if msg.SourceAgentID == v1.HumanAgentID {
		author = m.theme.human
	}
	label := msg.SourceAgentID
	if msg.SourceAgent != nil && msg.SourceAgent.AgentType != "" {
		label += " (" + string(msg.SourceAgent.AgentType) + ")"
	}

	content := msg.Content
	if msg.MessageType == v1.MessageTypeToolUse && msg.ToolName != "" {
		content = "⚙ " + msg.ToolName + " " + content
	}
	switch {
	case msg.GovernanceStatus == v1.GovernanceStatusBlocked:
		content = m.theme.blocked.Render(content)
		if msg.GovernanceReason != "" {
			content += m.theme.errorStatus.Render(" blocked: " + msg.GovernanceReason)
		}
	case msg.CorrelationID != "":
		content += m.theme.muted.Render(" (sending)")
	}

	prefix := author.Render(label)
	if clock := clockOf(msg.CreatedAt); clock != "" {
		prefix = m.theme.muted.Render(clock) + " " + prefix
	}
	return prefix + ": " + content
}

func (m *Model) renderTasks() string {
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render(fmt.Sprintf("Tasks (%d)", len(m.snap.Tasks))))
	b.WriteString("\n")
	if len(m.snap.Tasks) == 0 {
		b.WriteString(m.theme.muted.Render("no tasks"))
	}
	for _, task := range m.snap.Tasks {
		line := truncate(fmt.Sprintf("%s %s %d%%", task.Title, strings.ToLower(string(task.Status)), task.Progress), taskPaneWidth-2)
		if task.AwaitingApproval() {
			line = m.theme.hitl.Render("HITL ") + truncate(task.Title, taskPaneWidth-8) + "\n  " + m.theme.muted.Render(task.ID)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return m.theme.panel.Width(taskPaneWidth).Height(m.paneHeight()).Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderStatus() string {
	if m.statusErr {
		return m.theme.errorStatus.Render(m.status)
	}
	return m.theme.status.Render(m.status + "  ·  tab switch focus · q quit")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// clockOf renders an ISO timestamp as HH:MM in local time. Zone-less values
// are read as UTC.
func clockOf(ts string) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Local().Format("15:04")
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
