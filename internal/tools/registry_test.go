package tools

import (
	"context"
	"testing"

	"github.com/revenuepulse/pulse-mcp/internal/filters"
	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
)

type fakeTool struct {
	name string
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake" }

func (f *fakeTool) Fields() filters.FieldSet { return filters.FieldSet{filters.FieldDate} }

func (f *fakeTool) OutputSchema() protocol.JSONSchema {
	return protocol.JSONSchema{"type": "object"}
}
func (f *fakeTool) Execute(context.Context, filters.Filters) (Result, error) {
	return Text("ok"), nil
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeTool{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Get("a"); !ok {
		t.Fatal("registered tool not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("unknown tool should not resolve")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeTool{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&fakeTool{name: "a"}); err == nil {
		t.Fatal("duplicate registration must fail")
	}
	if err := r.Register(&fakeTool{name: ""}); err == nil {
		t.Fatal("empty name must fail")
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"zeta", "alpha", "mid"}
	for _, n := range names {
		if err := r.Register(&fakeTool{name: n}); err != nil {
			t.Fatal(err)
		}
	}

	for i, tool := range r.List() {
		if tool.Name() != names[i] {
			t.Errorf("position %d: expected %q, got %q", i, names[i], tool.Name())
		}
	}

	descs := r.Descriptors()
	for i, d := range descs {
		if d.Name != names[i] {
			t.Errorf("descriptor %d: expected %q, got %q", i, names[i], d.Name)
		}
		if d.InputSchema == nil {
			t.Errorf("descriptor %d missing input schema", i)
		}
	}
}
