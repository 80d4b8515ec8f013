// Package tools defines the tool abstraction and the registry the
// dispatcher resolves tool calls against.
package tools

import (
	"context"
	"fmt"

	"github.com/revenuepulse/pulse-mcp/internal/filters"
	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
)

// Tool is a named, schema-described operation. Its input surface is a
// filter field set; the input schema served by tools/list is derived
// from the same set the dispatcher validates against.
type Tool interface {
	Name() string
	Description() string
	Fields() filters.FieldSet
	OutputSchema() protocol.JSONSchema
	Execute(ctx context.Context, f filters.Filters) (Result, error)
}

// Registry holds the fixed tool catalog. Registration happens once at
// startup; afterwards the registry is read-only, so lookups need no
// locking.
type Registry struct {
	order []Tool
	index map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]Tool)}
}

func (r *Registry) Register(tool Tool) error {
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.index[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.index[name] = tool
	r.order = append(r.order, tool)
	return nil
}

// Get resolves a tool by name. The second return distinguishes an
// unknown name from a nil tool.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.index[name]
	return tool, ok
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns the catalog entries served by tools/list, in
// registration order.
func (r *Registry) Descriptors() []protocol.Tool {
	out := make([]protocol.Tool, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, protocol.Tool{
			Name:         t.Name(),
			Description:  t.Description(),
			InputSchema:  filters.Schema(t.Fields()),
			OutputSchema: t.OutputSchema(),
		})
	}
	return out
}
