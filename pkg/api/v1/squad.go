// Package v1 holds the wire types of the squad orchestration backend.
//
// Timestamps stay as strings: the backend emits ISO-8601 values that are not
// always RFC 3339 (the zone suffix is sometimes missing).
package v1

// SquadPriority represents the scheduling priority of a squad
type SquadPriority string

const (
	SquadPriorityLow      SquadPriority = "LOW"
	SquadPriorityNormal   SquadPriority = "NORMAL"
	SquadPriorityHigh     SquadPriority = "HIGH"
	SquadPriorityCritical SquadPriority = "CRITICAL"
)

// SquadStatus represents the lifecycle status of a squad
type SquadStatus string

const (
	SquadStatusActive    SquadStatus = "ACTIVE"
	SquadStatusPaused    SquadStatus = "PAUSED"
	SquadStatusCompleted SquadStatus = "COMPLETED"
	SquadStatusFailed    SquadStatus = "FAILED"
)

// MemberRole is the role an agent holds inside a squad
type MemberRole string

const (
	MemberRoleLead   MemberRole = "LEAD"
	MemberRoleMember MemberRole = "MEMBER"
)

// Squad is a group of cooperating agents pursuing one goal. SquadID is the
// identity used everywhere else, including as the conversation id.
type Squad struct {
	ID            string        `json:"id"`
	SquadID       string        `json:"squadId"`
	Name          string        `json:"name"`
	Goal          string        `json:"goal"`
	Priority      SquadPriority `json:"priority"`
	Status        SquadStatus   `json:"status"`
	KafkaTopic    string        `json:"kafkaTopic,omitempty"`
	TriggerSource string        `json:"triggerSource,omitempty"`
	Members       []SquadMember `json:"members"`
	CreatedAt     string        `json:"createdAt"`
}

// SquadMember binds an agent to a squad
type SquadMember struct {
	Agent         Agent      `json:"agent"`
	Role          MemberRole `json:"role"`
	JoinedAt      string     `json:"joinedAt,omitempty"`
	ContextTokens int        `json:"contextTokens"`
}

// Lead returns the squad lead, if any.
func (s *Squad) Lead() (SquadMember, bool) {
	for _, m := range s.Members {
		if m.Role == MemberRoleLead {
			return m, true
		}
	}
	return SquadMember{}, false
}

// HaltResponse is returned by the governance halt endpoint
type HaltResponse struct {
	Status      string  `json:"status"`
	SignalID    *string `json:"signalId"`
	Implemented *bool   `json:"implemented,omitempty"`
}
