package v1

// TaskStatus represents the status of a squad task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusHITLReview TaskStatus = "HITL_REVIEW"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// TaskType classifies the deliverable of a task
type TaskType string

const (
	TaskTypePR         TaskType = "PR"
	TaskTypeDocUpdate  TaskType = "DOC_UPDATE"
	TaskTypeDeployment TaskType = "DEPLOYMENT"
	TaskTypeAnalysis   TaskType = "ANALYSIS"
)

// Task is a unit of work owned by one agent
type Task struct {
	ID               string     `json:"id"`
	SquadID          string     `json:"squadId,omitempty"`
	AgentID          string     `json:"agentId"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	TaskType         TaskType   `json:"taskType,omitempty"`
	Status           TaskStatus `json:"status"`
	Progress         int        `json:"progress"`
	RequiresApproval bool       `json:"requiresApproval"`
	CreatedAt        string     `json:"createdAt"`
}

// AwaitingApproval reports whether the task blocks on a human decision.
func (t *Task) AwaitingApproval() bool {
	return t.Status == TaskStatusHITLReview || (t.RequiresApproval && t.Status == TaskStatusPending)
}

// ApproveTaskRequest is the body of POST /api/tasks/{id}/approve
type ApproveTaskRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// ApproveTaskResponse is the backend acknowledgment of an approval decision
type ApproveTaskResponse struct {
	Status    string `json:"status"`
	TaskID    string `json:"taskId"`
	NewStatus string `json:"newStatus"`
}
