package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/collectivemind/assistant/config"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_requests_total",
		Help: "Processed assistant requests by outcome.",
	}, []string{"outcome"})
	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_request_duration_seconds",
		Help:    "End-to-end request processing time.",
		Buckets: prometheus.DefBuckets,
	})
	taskExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_task_executions_total",
		Help: "Task executions by type and terminal status.",
	}, []string{"type", "status"})
	searchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_search_results",
		Help:    "Fused result count per search task.",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})
)

// Telemetry tracks orchestration metrics: prometheus series for scraping
// plus an in-memory snapshot for the metrics endpoint.
type Telemetry struct {
	cfg    config.TelemetryConfig
	logger *log.Logger

	mu              sync.RWMutex
	totalRequests   int64
	failedRequests  int64
	taskCounts      map[string]int64
	agentUsage      map[string]int64
	totalDuration   time.Duration
	completedTotals int64
}

// RequestEvent summarizes one processed request.
type RequestEvent struct {
	ID         string
	Duration   time.Duration
	Success    bool
	AgentsUsed []string
}

// New creates a telemetry instance.
func New(cfg config.TelemetryConfig, logger *log.Logger) *Telemetry {
	if logger == nil {
		logger = log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags)
	}
	return &Telemetry{
		cfg:        cfg,
		logger:     logger,
		taskCounts: make(map[string]int64),
		agentUsage: make(map[string]int64),
	}
}

// RecordRequest records a completed (or failed) request.
func (t *Telemetry) RecordRequest(event RequestEvent) {
	if !t.cfg.Enabled {
		return
	}
	outcome := "success"
	if !event.Success {
		outcome = "failure"
	}
	requestsTotal.WithLabelValues(outcome).Inc()
	requestDuration.Observe(event.Duration.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalRequests++
	if !event.Success {
		t.failedRequests++
	} else {
		t.completedTotals++
		t.totalDuration += event.Duration
	}
	for _, agent := range event.AgentsUsed {
		t.agentUsage[agent]++
	}
	if t.cfg.PeriodicLogs {
		t.logger.Printf("request %s: success=%v duration=%v agents=%d", event.ID, event.Success, event.Duration, len(event.AgentsUsed))
	}
}

// RecordTask records a task reaching a terminal status.
func (t *Telemetry) RecordTask(taskType, status string) {
	if !t.cfg.Enabled {
		return
	}
	taskExecutions.WithLabelValues(taskType, status).Inc()
	t.mu.Lock()
	t.taskCounts[taskType+":"+status]++
	t.mu.Unlock()
}

// RecordSearchResults records the fused result count of a search task.
func (t *Telemetry) RecordSearchResults(n int) {
	if !t.cfg.Enabled {
		return
	}
	searchResults.Observe(float64(n))
}

// Snapshot returns a copy of the in-memory counters.
func (t *Telemetry) Snapshot() map[string]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tasks := make(map[string]int64, len(t.taskCounts))
	for k, v := range t.taskCounts {
		tasks[k] = v
	}
	agents := make(map[string]int64, len(t.agentUsage))
	for k, v := range t.agentUsage {
		agents[k] = v
	}
	var avg time.Duration
	if t.completedTotals > 0 {
		avg = t.totalDuration / time.Duration(t.completedTotals)
	}
	return map[string]interface{}{
		"total_requests":      t.totalRequests,
		"failed_requests":     t.failedRequests,
		"avg_processing_time": avg.String(),
		"task_executions":     tasks,
		"agent_usage":         agents,
	}
}
