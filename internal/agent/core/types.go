package core

import (
	"context"
	"time"

	"github.com/collectivemind/assistant/internal/search"
)

// TaskType is the closed set of sub-task kinds the decomposer emits.
type TaskType string

const (
	TaskSearch        TaskType = "search"
	TaskAnalysis      TaskType = "analysis"
	TaskCollaboration TaskType = "collaboration"
	TaskInsight       TaskType = "insight"
	TaskAction        TaskType = "action"
)

// TaskPriority orders tasks for reporting; it does not affect scheduling.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// TaskStatus is the task state machine: pending -> running -> completed |
// failed. Tasks whose dependency failed become skipped without running.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusSkipped   TaskStatus = "skipped"
)

// Terminal reports whether a status is final.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// Task is one node of a request's task graph. The graph is owned by a
// single request and mutated only by the orchestrator.
type Task struct {
	ID            string                 `json:"id"`
	Type          TaskType               `json:"type"`
	Priority      TaskPriority           `json:"priority"`
	Context       map[string]interface{} `json:"context,omitempty"`
	DependsOn     []string               `json:"depends_on,omitempty"`
	Status        TaskStatus             `json:"status"`
	AssignedAgent string                 `json:"assigned_agent,omitempty"`
	Result        interface{}            `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	StartedAt     time.Time              `json:"started_at,omitempty"`
	CompletedAt   time.Time              `json:"completed_at,omitempty"`
}

// Intent carries optional hints about the request extracted upstream.
type Intent struct {
	Complexity string `json:"complexity,omitempty"` // low, medium, high
	CrossTeam  bool   `json:"cross_team,omitempty"`
}

// Request is one incoming assistant request.
type Request struct {
	ID        string                   `json:"id"`
	Query     string                   `json:"query"`
	Requester search.RequesterContext  `json:"requester"`
	Intent    *Intent                  `json:"intent,omitempty"`
	Filters   search.Filters           `json:"filters"`
	Page      int                      `json:"page"`
	PageSize  int                      `json:"page_size"`
	Timestamp time.Time                `json:"timestamp"`
}

// TaskOutcome is the per-task entry in a synthesis.
type TaskOutcome struct {
	TaskID string      `json:"task_id"`
	Type   TaskType    `json:"type"`
	Agent  string      `json:"agent,omitempty"`
	Status TaskStatus  `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Synthesis is the aggregated, optionally narrative-augmented response
// assembled from completed task outcomes. It is ephemeral: built once per
// request and never persisted.
type Synthesis struct {
	ID             string                   `json:"id"`
	Outcomes       map[string]TaskOutcome   `json:"outcomes"`
	Results        []search.RankedResult    `json:"results"`
	TotalResults   int                      `json:"total_results"`
	Suggestions    []map[string]interface{} `json:"suggestions,omitempty"`
	AgentsUsed     []string                 `json:"agents_used"`
	Narrative      string                   `json:"narrative,omitempty"`
	ProcessingTime time.Duration            `json:"processing_time"`
	CreatedAt      time.Time                `json:"created_at"`
}

// OrchestrationMetrics is the read-only introspection surface.
type OrchestrationMetrics struct {
	ActiveAgents          int `json:"active_agents"`
	TotalAgents           int `json:"total_agents"`
	ConnectedCapabilities int `json:"connected_capabilities"`
}

// Searcher runs a personalized hybrid search; implemented by the search
// service, treated as a collaborator here.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.RankedResult, int, error)
}

// Generator produces the narrative text during synthesis.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CapabilityGateway dispatches named tools for non-search tasks.
type CapabilityGateway interface {
	Invoke(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error)
	Connected() int
}
