package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/collectivemind/assistant/config"
	"github.com/collectivemind/assistant/internal/agent/registry"
	"github.com/collectivemind/assistant/internal/agent/telemetry"
	"github.com/collectivemind/assistant/internal/search"
)

var orchestratorTracer trace.Tracer = otel.Tracer("assistant/internal/agent/orchestrator")

// ErrAnchorFailed indicates the request's search task failed, so there is
// no primary result set to report.
var ErrAnchorFailed = errors.New("search task failed")

// Orchestrator resolves a request's task graph and executes ready tasks
// concurrently in rounds. One orchestrator serves all requests; each
// request gets its own graph instance, so no cross-request locking is
// needed. The agent registry is read-only during scheduling.
type Orchestrator struct {
	cfg       *config.Config
	logger    *log.Logger
	telemetry *telemetry.Telemetry
	registry  *registry.Registry
	gateway   CapabilityGateway
	searcher  Searcher
	generator Generator

	semaphore chan struct{}
}

// NewOrchestrator wires the orchestrator's collaborators. All dependencies
// are injected; the orchestrator holds no global state.
func NewOrchestrator(cfg *config.Config, logger *log.Logger, tele *telemetry.Telemetry, reg *registry.Registry, gw CapabilityGateway, searcher Searcher, gen Generator) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	maxConcurrent := cfg.Agents.MaxConcurrentTasks
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		telemetry: tele,
		registry:  reg,
		gateway:   gw,
		searcher:  searcher,
		generator: gen,
		semaphore: make(chan struct{}, maxConcurrent),
	}
}

// Process decomposes the request, executes the task graph and synthesizes
// the outcomes. Task-level failures are isolated; the caller only gets an
// error when the anchor search task itself fails.
func (o *Orchestrator) Process(ctx context.Context, req Request) (Synthesis, error) {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = start
	}
	ctx, span := orchestratorTracer.Start(ctx, "assistant.process",
		trace.WithAttributes(
			attribute.String("request.id", req.ID),
			attribute.String("requester.team", req.Requester.Team),
		))
	defer span.End()

	tasks := Decompose(req)
	graph := make(map[string]*Task, len(tasks))
	order := make([]string, 0, len(tasks))
	for i := range tasks {
		graph[tasks[i].ID] = &tasks[i]
		order = append(order, tasks[i].ID)
	}
	span.AddEvent("decomposed", trace.WithAttributes(attribute.Int("task_count", len(tasks))))
	o.logger.Printf("request %s: %d tasks", req.ID, len(tasks))

	o.executeGraph(ctx, req, graph, order)

	synthesis, err := o.synthesize(ctx, req, graph, order)
	synthesis.ProcessingTime = time.Since(start)
	if o.telemetry != nil {
		o.telemetry.RecordRequest(telemetry.RequestEvent{
			ID:         req.ID,
			Duration:   synthesis.ProcessingTime,
			Success:    err == nil,
			AgentsUsed: synthesis.AgentsUsed,
		})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Synthesis{}, err
	}
	span.SetStatus(codes.Ok, "completed")
	return synthesis, nil
}

// executeGraph runs the ready frontier concurrently until no task is ready.
// A task is ready when it is pending and every dependency completed. After
// each round, pending tasks with a failed or skipped dependency are marked
// skipped so they carry an explicit terminal status.
func (o *Orchestrator) executeGraph(ctx context.Context, req Request, graph map[string]*Task, order []string) {
	for round := 0; ; round++ {
		var frontier []*Task
		for _, id := range order {
			t := graph[id]
			if t.Status != StatusPending {
				continue
			}
			ready := true
			for _, dep := range t.DependsOn {
				if d, ok := graph[dep]; !ok || d.Status != StatusCompleted {
					ready = false
					break
				}
			}
			if ready {
				frontier = append(frontier, t)
			}
		}
		if len(frontier) == 0 {
			return
		}

		var wg sync.WaitGroup
		for _, t := range frontier {
			wg.Add(1)
			go func(t *Task) {
				defer wg.Done()
				o.semaphore <- struct{}{}
				defer func() { <-o.semaphore }()
				o.executeTask(ctx, req, t)
			}(t)
		}
		wg.Wait()

		for _, id := range order {
			t := graph[id]
			if t.Status != StatusPending {
				continue
			}
			for _, dep := range t.DependsOn {
				if d, ok := graph[dep]; ok && (d.Status == StatusFailed || d.Status == StatusSkipped) {
					t.Status = StatusSkipped
					t.Error = fmt.Sprintf("dependency %s %s", dep, d.Status)
					if o.telemetry != nil {
						o.telemetry.RecordTask(string(t.Type), string(StatusSkipped))
					}
					break
				}
			}
		}
	}
}

// executeTask selects an agent, dispatches to the type-specific handler and
// records the outcome on the task. Failures never propagate to siblings.
func (o *Orchestrator) executeTask(ctx context.Context, req Request, t *Task) {
	ctx, span := orchestratorTracer.Start(ctx, "assistant.task",
		trace.WithAttributes(
			attribute.String("task.id", t.ID),
			attribute.String("task.type", string(t.Type)),
		))
	defer span.End()

	agent, err := o.registry.Select(string(t.Type))
	if err != nil {
		o.fail(t, span, err)
		return
	}
	t.AssignedAgent = agent.ID
	t.Status = StatusRunning
	t.StartedAt = time.Now()

	if timeout := o.cfg.Agents.TaskTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var result interface{}
	switch t.Type {
	case TaskSearch:
		result, err = o.runSearch(ctx, req)
	default:
		result, err = o.runCapability(ctx, req, t, agent.BoundCapabilities)
	}
	t.CompletedAt = time.Now()
	if err != nil {
		o.fail(t, span, err)
		return
	}
	t.Result = result
	t.Status = StatusCompleted
	if o.telemetry != nil {
		o.telemetry.RecordTask(string(t.Type), string(StatusCompleted))
	}
	span.SetAttributes(attribute.String("task.agent", agent.ID))
	span.SetStatus(codes.Ok, "completed")
	o.logger.Printf("task %s (%s) completed by %s in %v", t.ID, t.Type, agent.ID, t.CompletedAt.Sub(t.StartedAt))
}

func (o *Orchestrator) fail(t *Task, span trace.Span, err error) {
	t.Status = StatusFailed
	t.Error = err.Error()
	if t.CompletedAt.IsZero() {
		t.CompletedAt = time.Now()
	}
	if o.telemetry != nil {
		o.telemetry.RecordTask(string(t.Type), string(StatusFailed))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.logger.Printf("task %s (%s) failed: %v", t.ID, t.Type, err)
}

// runSearch dispatches the anchor task to the hybrid search service.
func (o *Orchestrator) runSearch(ctx context.Context, req Request) (interface{}, error) {
	q := search.Query{
		Text:      req.Query,
		Filters:   req.Filters,
		Requester: req.Requester,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	results, total, err := o.searcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if o.telemetry != nil {
		o.telemetry.RecordSearchResults(total)
	}
	return map[string]interface{}{"results": results, "total": total}, nil
}

// capabilityForType maps non-search task types to their gateway tool.
var capabilityForType = map[TaskType]string{
	TaskAnalysis:      "summarize_activity",
	TaskCollaboration: "find_collaboration_opportunities",
	TaskInsight:       "detect_topic_overlap",
	TaskAction:        "draft_action",
}

// runCapability dispatches a non-search task through the gateway, falling
// back to the agent's first bound capability when the type has no mapping.
func (o *Orchestrator) runCapability(ctx context.Context, req Request, t *Task, bound []string) (interface{}, error) {
	name := capabilityForType[t.Type]
	if name == "" && len(bound) > 0 {
		name = bound[0]
	}
	if name == "" {
		return nil, fmt.Errorf("no capability mapped for task type %s", t.Type)
	}
	args := map[string]interface{}{
		"query": req.Query,
		"requester": map[string]interface{}{
			"user_id": req.Requester.UserID,
			"team":    req.Requester.Team,
			"role":    req.Requester.Role,
		},
	}
	for k, v := range t.Context {
		if _, exists := args[k]; !exists {
			args[k] = v
		}
	}
	return o.gateway.Invoke(ctx, name, args)
}

// synthesize aggregates terminal task outcomes into one response. Only
// completed tasks contribute content; failed and skipped tasks appear in
// the outcome map with their status but are not user-facing errors.
func (o *Orchestrator) synthesize(ctx context.Context, req Request, graph map[string]*Task, order []string) (Synthesis, error) {
	ctx, span := orchestratorTracer.Start(ctx, "assistant.synthesize")
	defer span.End()

	syn := Synthesis{
		ID:        uuid.NewString(),
		Outcomes:  make(map[string]TaskOutcome, len(order)),
		CreatedAt: time.Now(),
	}
	agentSeen := make(map[string]bool)
	var anchor *Task

	for _, id := range order {
		t := graph[id]
		if t.Type == TaskSearch && len(t.DependsOn) == 0 && anchor == nil {
			anchor = t
		}
		outcome := TaskOutcome{TaskID: t.ID, Type: t.Type, Agent: t.AssignedAgent, Status: t.Status, Error: t.Error}
		if t.Status == StatusCompleted {
			outcome.Result = t.Result
			if t.AssignedAgent != "" && !agentSeen[t.AssignedAgent] {
				agentSeen[t.AssignedAgent] = true
				syn.AgentsUsed = append(syn.AgentsUsed, t.AssignedAgent)
			}
		}
		syn.Outcomes[t.ID] = outcome
	}

	if anchor == nil || anchor.Status != StatusCompleted {
		reason := "never ran"
		if anchor != nil && anchor.Error != "" {
			reason = anchor.Error
		}
		return Synthesis{}, fmt.Errorf("%w: %s", ErrAnchorFailed, reason)
	}

	if payload, ok := anchor.Result.(map[string]interface{}); ok {
		if results, ok := payload["results"].([]search.RankedResult); ok {
			syn.Results = results
		}
		if total, ok := payload["total"].(int); ok {
			syn.TotalResults = total
		}
	}

	// collaboration and insight outputs concatenate in emission order
	for _, id := range order {
		t := graph[id]
		if t.Status != StatusCompleted {
			continue
		}
		if t.Type != TaskCollaboration && t.Type != TaskInsight {
			continue
		}
		if payload, ok := t.Result.(map[string]interface{}); ok {
			for _, v := range payload {
				if list, ok := v.([]map[string]interface{}); ok {
					syn.Suggestions = append(syn.Suggestions, list...)
				}
			}
		}
	}

	syn.Narrative = o.narrate(ctx, req, syn)
	span.SetStatus(codes.Ok, "completed")
	return syn, nil
}

// narrate asks the generation capability for a short natural-language
// summary. Generation failure degrades to an empty narrative.
func (o *Orchestrator) narrate(ctx context.Context, req Request, syn Synthesis) string {
	if o.generator == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the following knowledge-base findings for %q in two or three sentences.\n", req.Query)
	fmt.Fprintf(&b, "Results: %d total.\n", syn.TotalResults)
	for i, r := range syn.Results {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", r.Kind, r.Title)
	}
	if len(syn.Suggestions) > 0 {
		fmt.Fprintf(&b, "Suggestions: %d collaboration/discovery leads.\n", len(syn.Suggestions))
	}
	text, err := o.generator.Generate(ctx, b.String())
	if err != nil {
		o.logger.Printf("narrative generation failed, returning raw aggregate: %v", err)
		return ""
	}
	return strings.TrimSpace(text)
}

// Metrics returns the read-only orchestration introspection data.
func (o *Orchestrator) Metrics() OrchestrationMetrics {
	m := OrchestrationMetrics{}
	if o.registry != nil {
		m.ActiveAgents = o.registry.ActiveCount()
		m.TotalAgents = o.registry.Len()
	}
	if o.gateway != nil {
		m.ConnectedCapabilities = o.gateway.Connected()
	}
	return m
}
