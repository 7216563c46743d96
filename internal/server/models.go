package server

import (
	"github.com/collectivemind/assistant/internal/agent/core"
	"github.com/collectivemind/assistant/internal/search"
)

// HTTPError is the JSON error envelope.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest is the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest is the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a JWT for Bearer flows.
type TokenResponse struct {
	Token string `json:"token"`
}

// ProcessRequest is the orchestration entry payload.
type ProcessRequest struct {
	Query    string         `json:"query"`
	Team     string         `json:"team"`
	Role     string         `json:"role"`
	Intent   *core.Intent   `json:"intent,omitempty"`
	Filters  search.Filters `json:"filters"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// SearchRequest is the direct hybrid-search payload.
type SearchRequest struct {
	Query    string         `json:"query"`
	Team     string         `json:"team"`
	Role     string         `json:"role"`
	Filters  search.Filters `json:"filters"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// SearchResponse returns one page of ranked results.
type SearchResponse struct {
	Results []search.RankedResult `json:"results"`
	Total   int                   `json:"total"`
	Page    int                   `json:"page"`
}

// MetricsResponse combines orchestration introspection and counters.
type MetricsResponse struct {
	Orchestration core.OrchestrationMetrics `json:"orchestration"`
	Telemetry     map[string]interface{}    `json:"telemetry"`
}
