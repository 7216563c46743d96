package gateway

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Tool is a named capability invoked with an argument map. Arguments always
// include the requester context under "requester" (user_id, team, role).
type Tool func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)

// ErrUnknownCapability indicates the named tool is not registered.
var ErrUnknownCapability = fmt.Errorf("unknown capability")

// Gateway is the uniform call interface to named external tools. The
// orchestrator treats every tool as a black box that either returns
// structured data or fails.
type Gateway struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *log.Logger
}

// New creates an empty gateway.
func New(logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.New(log.Writer(), "[GATEWAY] ", log.LstdFlags)
	}
	return &Gateway{tools: make(map[string]Tool), logger: logger}
}

// Register binds a tool name. Re-registering replaces the previous binding.
func (g *Gateway) Register(name string, tool Tool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tools[name] = tool
}

// Invoke calls a named tool with the supplied arguments.
func (g *Gateway) Invoke(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	g.mu.RLock()
	tool, ok := g.tools[name]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, name)
	}
	out, err := tool(ctx, args)
	if err != nil {
		g.logger.Printf("capability %s failed: %v", name, err)
		return nil, fmt.Errorf("capability %s: %w", name, err)
	}
	return out, nil
}

// Connected returns the number of registered capabilities.
func (g *Gateway) Connected() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.tools)
}

// Names lists registered capabilities, sorted.
func (g *Gateway) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.tools))
	for name := range g.tools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
