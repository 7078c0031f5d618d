package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      "error",
		Format:     "json",
		OutputPath: "stderr",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return log
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	received := make(chan *Event, 1)
	sub, err := bus.Subscribe("squadwatch.task.updated", func(ctx context.Context, event *Event) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	event := NewEvent("squadwatch.task.updated", "test", map[string]interface{}{"id": "t1"})
	if err := bus.Publish(context.Background(), "squadwatch.task.updated", event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case e := <-received:
		if e.ID != event.ID {
			t.Errorf("Expected event ID %s, got %s", event.ID, e.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
}

func TestMemoryEventBus_PreservesOrderPerSubscription(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	got := make(chan int, 50)
	_, err := bus.Subscribe("squadwatch.>", func(ctx context.Context, event *Event) error {
		var n int
		if err := event.DecodeData(&n); err != nil {
			return err
		}
		got <- n
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := 0; i < 50; i++ {
		if err := bus.Publish(context.Background(), "squadwatch.message.appended", NewEvent("x", "test", i)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}
	for i := 0; i < 50; i++ {
		select {
		case n := <-got:
			if n != i {
				t.Fatalf("expected %d, got %d", i, n)
			}
		case <-time.After(time.Second):
			t.Fatal("Timeout waiting for event")
		}
	}
}

func TestMemoryEventBus_Wildcards(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"squadwatch.*.updated", "squadwatch.task.updated", true},
		{"squadwatch.*.updated", "squadwatch.task.state.updated", false},
		{"squadwatch.>", "squadwatch.task.updated", true},
		{"squadwatch.task.updated", "squadwatch.task.updated", true},
		{"squadwatch.task.updated", "squadwatch.squad.updated", false},
	}
	for _, tt := range tests {
		if got := matches(tt.subject, tt.pattern, compilePattern(tt.pattern)); got != tt.want {
			t.Errorf("matches(%q, %q) = %v, want %v", tt.subject, tt.pattern, got, tt.want)
		}
	}
}

func TestMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	defer bus.Close()

	var count int32
	sub, _ := bus.Subscribe("a.b", func(ctx context.Context, event *Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if sub.IsValid() {
		t.Error("subscription should be invalid after Unsubscribe")
	}
	_ = bus.Publish(context.Background(), "a.b", NewEvent("x", "test", nil))
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&count) != 0 {
		t.Error("handler should not run after Unsubscribe")
	}
}

func TestMemoryEventBus_Close(t *testing.T) {
	bus := NewMemoryEventBus(newTestLogger(t))
	bus.Close()
	if bus.IsConnected() {
		t.Error("closed bus should report disconnected")
	}
	if err := bus.Publish(context.Background(), "a", NewEvent("x", "test", nil)); err == nil {
		t.Error("publish on closed bus should fail")
	}
	if _, err := bus.Subscribe("a", func(context.Context, *Event) error { return nil }); err == nil {
		t.Error("subscribe on closed bus should fail")
	}
}
