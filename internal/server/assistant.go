package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/collectivemind/assistant/internal/agent/core"
	"github.com/collectivemind/assistant/internal/agent/telemetry"
	"github.com/collectivemind/assistant/internal/search"
)

// AssistantHandler exposes the orchestration entry point and introspection.
type AssistantHandler struct {
	Orch      *core.Orchestrator
	Search    core.Searcher
	Telemetry *telemetry.Telemetry
}

func (h *AssistantHandler) Register(g *echo.Group, mw echo.MiddlewareFunc) {
	g.Use(mw)
	g.POST("/process", h.process)
	g.POST("/search", h.search)
	g.GET("/metrics", h.metrics)
}

func (h *AssistantHandler) process(c echo.Context) error {
	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	userID, _ := c.Get("user_id").(string)
	synthesis, err := h.Orch.Process(c.Request().Context(), core.Request{
		Query: req.Query,
		Requester: search.RequesterContext{
			UserID: userID,
			Team:   req.Team,
			Role:   req.Role,
		},
		Intent:   req.Intent,
		Filters:  req.Filters,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		if errors.Is(err, core.ErrAnchorFailed) {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, synthesis)
}

func (h *AssistantHandler) search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	userID, _ := c.Get("user_id").(string)
	results, total, err := h.Search.Search(c.Request().Context(), search.Query{
		Text:    req.Query,
		Filters: req.Filters,
		Requester: search.RequesterContext{
			UserID: userID,
			Team:   req.Team,
			Role:   req.Role,
		},
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	return c.JSON(http.StatusOK, SearchResponse{Results: results, Total: total, Page: page})
}

func (h *AssistantHandler) metrics(c echo.Context) error {
	resp := MetricsResponse{Orchestration: h.Orch.Metrics()}
	if h.Telemetry != nil {
		resp.Telemetry = h.Telemetry.Snapshot()
	}
	return c.JSON(http.StatusOK, resp)
}
