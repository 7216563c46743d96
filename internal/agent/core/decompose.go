package core

import (
	"github.com/google/uuid"
)

// longQueryThreshold marks a query as complex enough to warrant a
// dedicated analysis pass.
const longQueryThreshold = 120

// Decompose turns one request into its task graph: an unconditional search
// anchor plus conditional analysis/collaboration tasks and an unconditional
// insight task, each depending only on the anchor.
func Decompose(req Request) []Task {
	anchor := Task{
		ID:       uuid.NewString(),
		Type:     TaskSearch,
		Priority: PriorityCritical,
		Status:   StatusPending,
		Context:  map[string]interface{}{"query": req.Query},
	}
	tasks := []Task{anchor}

	complexity := ""
	crossTeam := false
	if req.Intent != nil {
		complexity = req.Intent.Complexity
		crossTeam = req.Intent.CrossTeam
	}

	if len(req.Query) > longQueryThreshold || complexity == "high" {
		tasks = append(tasks, Task{
			ID:        uuid.NewString(),
			Type:      TaskAnalysis,
			Priority:  PriorityHigh,
			Status:    StatusPending,
			DependsOn: []string{anchor.ID},
			Context:   map[string]interface{}{"query": req.Query},
		})
	}

	if crossTeam || req.Requester.IsManagerial() {
		tasks = append(tasks, Task{
			ID:        uuid.NewString(),
			Type:      TaskCollaboration,
			Priority:  PriorityMedium,
			Status:    StatusPending,
			DependsOn: []string{anchor.ID},
			Context:   map[string]interface{}{"query": req.Query},
		})
	}

	// discovery pass always runs; serendipity is cheap
	tasks = append(tasks, Task{
		ID:        uuid.NewString(),
		Type:      TaskInsight,
		Priority:  PriorityLow,
		Status:    StatusPending,
		DependsOn: []string{anchor.ID},
		Context:   map[string]interface{}{"query": req.Query},
	})

	return tasks
}
