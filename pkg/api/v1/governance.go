package v1

// GovernanceAlert is raised by the safety process when it acts on a message
type GovernanceAlert struct {
	ID                string `json:"id"`
	AlertID           string `json:"alertId"`
	AgentID           string `json:"agentId"`
	ConversationID    string `json:"conversationId,omitempty"`
	Action            string `json:"action"`
	Reason            string `json:"reason"`
	OriginalMessageID string `json:"originalMessageId,omitempty"`
	OriginalContent   string `json:"originalContent,omitempty"`
	CreatedAt         string `json:"createdAt"`
}

// GovernanceAlertsResponse wraps the alert listing
type GovernanceAlertsResponse struct {
	Implemented bool              `json:"implemented"`
	Message     string            `json:"message,omitempty"`
	Alerts      []GovernanceAlert `json:"alerts"`
}

// HealthStatus is returned by GET /health
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Healthy reports whether the backend declared itself healthy.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// NotImplemented is the sentinel body of endpoints the backend has not built.
type NotImplemented struct {
	Implemented *bool  `json:"implemented"`
	Message     string `json:"message,omitempty"`
}

// IsSentinel reports whether the body declared implemented:false.
func (n NotImplemented) IsSentinel() bool {
	return n.Implemented != nil && !*n.Implemented
}
