package tools

import (
	"context"
	"fmt"

	"github.com/parsa-hm/lectern/provider"
)

// Registry maps tool names to tool instances. Definitions, dispatch and
// source aggregation all follow registration order. Registering a tool under
// an existing name overwrites it (last write wins).
//
// A registry serves one query at a time: concurrent queries would race on
// the tools' recorded sources. Give each in-flight query its own tool set or
// serialize around the registry.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register stores a tool under its definition name.
func (r *Registry) Register(tool Tool) {
	name := tool.Definition().Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Definitions returns all registered tool definitions in registration order,
// ready to advertise to the model.
func (r *Registry) Definitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches to the named tool. An unknown name yields a descriptive
// string, not an error: the generation loop treats every tool outcome as
// plain text for the model to read.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name), nil
	}
	return tool.Execute(ctx, args)
}

// Sources concatenates the recorded sources of all registered tools in
// registration order.
func (r *Registry) Sources() []Source {
	var out []Source
	for _, name := range r.order {
		out = append(out, r.tools[name].LastSources()...)
	}
	return out
}

// ResetSources clears recorded sources on every registered tool. Idempotent.
func (r *Registry) ResetSources() {
	for _, name := range r.order {
		r.tools[name].ResetSources()
	}
}
