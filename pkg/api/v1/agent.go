package v1

// AgentType classifies an agent
type AgentType string

const (
	AgentTypePlanner  AgentType = "PLANNER"
	AgentTypeWorker   AgentType = "WORKER"
	AgentTypeSafety   AgentType = "SAFETY"
	AgentTypeDirector AgentType = "DIRECTOR"
	AgentTypeSystem   AgentType = "SYSTEM"
)

// AgentStatus represents the availability of an agent
type AgentStatus string

const (
	AgentStatusOnline      AgentStatus = "ONLINE"
	AgentStatusOffline     AgentStatus = "OFFLINE"
	AgentStatusBusy        AgentStatus = "BUSY"
	AgentStatusHibernating AgentStatus = "HIBERNATING"
)

// Agent is a registered agent of the mesh
type Agent struct {
	ID            string      `json:"id"`
	AgentID       string      `json:"agentId"`
	Name          string      `json:"name"`
	AgentType     AgentType   `json:"agentType"`
	Description   string      `json:"description,omitempty"`
	Skills        []string    `json:"skills"`
	Status        AgentStatus `json:"status"`
	ContextTokens *int        `json:"contextTokens,omitempty"`
}

// AgentFilter narrows the agent listing
type AgentFilter struct {
	Status    string
	AgentType string
}
