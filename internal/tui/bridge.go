package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shinox-lab/dashboard/internal/events"
	"github.com/Shinox-lab/dashboard/internal/events/bus"
)

// stateChangedMsg tells the model to re-read the store.
type stateChangedMsg struct {
	subject string
}

// Bridge turns bus events into tea messages. Bursts are coalesced: the model
// re-reads the whole snapshot, so one pending notification is enough.
type Bridge struct {
	ch  chan tea.Msg
	sub bus.Subscription
}

// NewBridge subscribes to every squadwatch subject. eventBus may be nil, in
// which case the model only refreshes after its own actions.
func NewBridge(eventBus bus.EventBus) (*Bridge, error) {
	b := &Bridge{ch: make(chan tea.Msg, 1)}
	if eventBus == nil {
		return b, nil
	}
	sub, err := eventBus.Subscribe(events.All, func(_ context.Context, event *bus.Event) error {
		b.notify(event.Type)
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.sub = sub
	return b, nil
}

func (b *Bridge) notify(subject string) {
	select {
	case b.ch <- stateChangedMsg{subject: subject}:
	default:
	}
}

// Close stops the subscription.
func (b *Bridge) Close() {
	if b.sub != nil && b.sub.IsValid() {
		_ = b.sub.Unsubscribe()
	}
}

func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.ch
	}
}
