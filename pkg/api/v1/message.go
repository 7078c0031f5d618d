package v1

import "encoding/json"

// MessageType classifies a transcript entry
type MessageType string

const (
	MessageTypeThought            MessageType = "THOUGHT"
	MessageTypeToolUse            MessageType = "TOOL_USE"
	MessageTypeFinalAnswer        MessageType = "FINAL_ANSWER"
	MessageTypeSystemNotification MessageType = "SYSTEM_NOTIFICATION"
)

// GovernanceStatus is the moderation verdict on a message
type GovernanceStatus string

const (
	GovernanceStatusPending  GovernanceStatus = "PENDING"
	GovernanceStatusVerified GovernanceStatus = "VERIFIED"
	GovernanceStatusBlocked  GovernanceStatus = "BLOCKED"
)

// Interaction types used for locally composed messages.
const (
	InteractionDirectCommand = "DIRECT_COMMAND"
	HumanAgentID             = "human-admin"
)

// Message is one entry of a squad conversation. ConversationID equals the
// owning squad's SquadID.
type Message struct {
	ID               string           `json:"id"`
	SquadID          string           `json:"squadId,omitempty"`
	SourceAgentID    string           `json:"sourceAgentId"`
	SourceAgent      *Agent           `json:"sourceAgent,omitempty"`
	TargetAgentID    string           `json:"targetAgentId,omitempty"`
	ConversationID   string           `json:"conversationId"`
	InteractionType  string           `json:"interactionType"`
	MessageType      MessageType      `json:"messageType"`
	Content          string           `json:"content"`
	ToolName         string           `json:"toolName,omitempty"`
	ToolInput        json.RawMessage  `json:"toolInput,omitempty"`
	ToolOutput       json.RawMessage  `json:"toolOutput,omitempty"`
	GovernanceStatus GovernanceStatus `json:"governanceStatus"`
	GovernanceReason string           `json:"governanceReason,omitempty"`
	CreatedAt        string           `json:"createdAt"`

	// CorrelationID is set only on locally composed, not yet confirmed messages.
	CorrelationID string `json:"correlationId,omitempty"`
}

// SendMessageRequest is the body of POST /api/squads/{id}/messages
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse is the backend acknowledgment of a human message
type SendMessageResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
