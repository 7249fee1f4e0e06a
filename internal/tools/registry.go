// Package tools defines the tools a generation provider may call during
// a query turn and the registry that routes calls to them.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bull/coursechat/internal/generate"
	"github.com/bull/coursechat/internal/search"
)

var (
	// ErrUnknownTool marks calls to names nothing registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrBadArguments marks calls whose argument JSON is malformed or
	// missing required fields.
	ErrBadArguments = errors.New("invalid tool arguments")
)

// Tool is one callable capability. Execute returns the text result for
// the provider plus the source attributions the caller should surface.
type Tool interface {
	Definition() generate.ToolDef
	Execute(ctx context.Context, args json.RawMessage) (string, []search.Attribution, error)
}

// Registry routes tool calls by name. Register everything before
// serving; after that the registry is read-only and safe for concurrent
// Execute calls.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates a registry holding the given tools, in order.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	for _, tool := range tools {
		r.Register(tool)
	}
	return r
}

// Register adds a tool. Re-registering a name replaces the tool and
// keeps its original position.
func (r *Registry) Register(tool Tool) {
	name := tool.Definition().Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Definitions lists every tool definition in registration order.
func (r *Registry) Definitions() []generate.ToolDef {
	defs := make([]generate.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute runs the named tool. Unknown names return ErrUnknownTool.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, []search.Attribution, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool.Execute(ctx, args)
}
