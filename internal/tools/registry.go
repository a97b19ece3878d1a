package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/scoutdig/scout/models"
)

// ErrUnknownTool is returned when an invoked tool name is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// ToolExecutionError wraps a failure raised by the underlying external call
// (network failure, auth failure, rate limit). Single best-effort attempt;
// the registry never retries.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// Tool is one callable search integration.
type Tool interface {
	Name() string
	Description() string
	// Schema returns the JSON Schema (type=object) describing the argument mapping.
	Schema() map[string]any
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Registry maps tool names to callables. Built once at startup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

// Register associates a tool with its unique name. Registering a duplicate
// name is a programming error.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[t.Name()]; ok {
		return fmt.Errorf("tool %s already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Invoke routes a call to the named tool. Unknown names fail with
// ErrUnknownTool; tool failures are wrapped as *ToolExecutionError.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	out, err := t.Invoke(ctx, args)
	if err != nil {
		return "", &ToolExecutionError{Tool: name, Err: err}
	}
	return out, nil
}

// Descriptors returns the registered tools in the wire shape the model
// expects, ordered by name for stable prompts.
func (r *Registry) Descriptors() []models.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]models.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, models.ToolSpec{Name: t.Name(), Description: t.Description(), Parameters: t.Schema()})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
