package registry

import (
	"fmt"
)

// Agent is a capability-tagged worker the orchestrator can assign a task to.
// Agents are immutable after registration except for the active flag.
type Agent struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Role              string   `json:"role"`
	Capabilities      []string `json:"capabilities"`
	BoundCapabilities []string `json:"bound_capabilities"`
	Priority          int      `json:"priority"` // lower is preferred
	Active            bool     `json:"active"`
}

// ErrNoAgent indicates no active agent covers the task's required capabilities.
var ErrNoAgent = fmt.Errorf("no agent available")

// requiredCapabilities maps a task type to the capability tags that qualify
// an agent to handle it. An agent matches on non-empty intersection.
var requiredCapabilities = map[string][]string{
	"search":        {"semantic_search", "knowledge_retrieval"},
	"analysis":      {"analytics", "summarization"},
	"collaboration": {"collaboration", "team_matching"},
	"insight":       {"discovery", "trend_analysis"},
	"action":        {"workflow", "integration"},
}

// RequiredCapabilities returns the capability tags for a task type.
func RequiredCapabilities(taskType string) []string {
	return requiredCapabilities[taskType]
}

// Registry is the static agent catalog. It preserves registration order so
// selection tie-breaks are deterministic. Reads are safe to share across
// concurrent requests; the catalog itself never changes after construction.
type Registry struct {
	agents []Agent
	byID   map[string]int
}

// NewRegistry builds a registry from a fixed catalog.
func NewRegistry(agents []Agent) *Registry {
	r := &Registry{agents: make([]Agent, len(agents)), byID: make(map[string]int, len(agents))}
	copy(r.agents, agents)
	for i, a := range r.agents {
		r.byID[a.ID] = i
	}
	return r
}

// DefaultAgents is the built-in worker catalog.
func DefaultAgents() []Agent {
	return []Agent{
		{ID: "knowledge-navigator", Name: "Knowledge Navigator", Role: "retrieval", Capabilities: []string{"semantic_search", "knowledge_retrieval"}, BoundCapabilities: []string{"hybrid_search"}, Priority: 1, Active: true},
		{ID: "insight-analyst", Name: "Insight Analyst", Role: "analysis", Capabilities: []string{"analytics", "summarization"}, BoundCapabilities: []string{"summarize_activity"}, Priority: 2, Active: true},
		{ID: "collab-matchmaker", Name: "Collaboration Matchmaker", Role: "collaboration", Capabilities: []string{"collaboration", "team_matching"}, BoundCapabilities: []string{"find_collaboration_opportunities", "detect_topic_overlap"}, Priority: 2, Active: true},
		{ID: "serendipity-scout", Name: "Serendipity Scout", Role: "discovery", Capabilities: []string{"discovery", "trend_analysis"}, BoundCapabilities: []string{"detect_topic_overlap"}, Priority: 3, Active: true},
		{ID: "workflow-runner", Name: "Workflow Runner", Role: "automation", Capabilities: []string{"workflow", "integration"}, BoundCapabilities: []string{"draft_action"}, Priority: 4, Active: true},
	}
}

// Select picks the best agent for a task type: the active agent whose
// capability set intersects the required tags, with the lowest priority
// value. Ties go to the earliest-registered agent. Selection is a pure
// function of the catalog, so repeated calls return the same agent.
func (r *Registry) Select(taskType string) (Agent, error) {
	required, ok := requiredCapabilities[taskType]
	if !ok {
		return Agent{}, fmt.Errorf("%w: unknown task type %q", ErrNoAgent, taskType)
	}
	best := -1
	for i, a := range r.agents {
		if !a.Active || !intersects(a.Capabilities, required) {
			continue
		}
		if best == -1 || a.Priority < r.agents[best].Priority {
			best = i
		}
	}
	if best == -1 {
		return Agent{}, fmt.Errorf("%w for task type %q", ErrNoAgent, taskType)
	}
	return r.agents[best], nil
}

// SetActive toggles an agent's availability.
func (r *Registry) SetActive(id string, active bool) error {
	i, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("unknown agent: %s", id)
	}
	r.agents[i].Active = active
	return nil
}

// Agents returns a copy of the catalog in registration order.
func (r *Registry) Agents() []Agent {
	out := make([]Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// ActiveCount returns the number of active agents.
func (r *Registry) ActiveCount() int {
	n := 0
	for _, a := range r.agents {
		if a.Active {
			n++
		}
	}
	return n
}

// Len returns the catalog size.
func (r *Registry) Len() int { return len(r.agents) }

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
