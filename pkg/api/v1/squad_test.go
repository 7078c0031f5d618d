package v1

import (
	"encoding/json"
	"testing"
)

func TestSquadDecode(t *testing.T) {
	raw := `{"id":"1","squadId":"sq-1","name":"Ops","goal":"fix latency","priority":"HIGH","status":"ACTIVE",
		"members":[{"agent":{"id":"a","agentId":"planner-1","name":"P","agentType":"PLANNER","skills":[],"status":"ONLINE"},"role":"LEAD","contextTokens":10}],
		"createdAt":"2024-05-01T10:00:00"}`
	var s Squad
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.SquadID != "sq-1" || s.Priority != SquadPriorityHigh {
		t.Errorf("unexpected squad %+v", s)
	}
	lead, ok := s.Lead()
	if !ok || lead.Agent.AgentID != "planner-1" {
		t.Errorf("expected planner-1 lead, got %+v", lead)
	}
}

func TestTaskAwaitingApproval(t *testing.T) {
	tests := []struct {
		task Task
		want bool
	}{
		{Task{Status: TaskStatusHITLReview}, true},
		{Task{Status: TaskStatusPending, RequiresApproval: true}, true},
		{Task{Status: TaskStatusPending}, false},
		{Task{Status: TaskStatusCompleted, RequiresApproval: true}, false},
	}
	for _, tt := range tests {
		if got := tt.task.AwaitingApproval(); got != tt.want {
			t.Errorf("%+v: got %v want %v", tt.task, got, tt.want)
		}
	}
}

func TestNotImplementedSentinel(t *testing.T) {
	var n NotImplemented
	_ = json.Unmarshal([]byte(`{"implemented":false,"message":"soon"}`), &n)
	if !n.IsSentinel() {
		t.Error("implemented:false should be a sentinel")
	}
	n = NotImplemented{}
	_ = json.Unmarshal([]byte(`{"status":"ok"}`), &n)
	if n.IsSentinel() {
		t.Error("missing flag is not a sentinel")
	}
}
