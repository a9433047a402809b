package tool

import (
	"context"
	"encoding/json"
	"testing"
)

type mockTool struct {
	name string
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Description() string { return "test tool" }
func (m *mockTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}
func (m *mockTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	return &Result{Output: "executed " + m.name}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.RegisterAll([]Tool{&mockTool{name: "execute_query"}, &mockTool{name: "all_table_names"}})

	got, err := r.Get("execute_query")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name() != "execute_query" {
		t.Fatalf("expected execute_query, got %s", got.Name())
	}

	if _, err := r.Get("nonexistent"); err == nil {
		t.Fatal("expected error for nonexistent tool")
	}
}

func TestRegistryDefinitionsOrdered(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockTool{name: "schema_definitions"})
	r.Register(&mockTool{name: "all_table_names"})
	r.Register(&mockTool{name: "execute_query"})

	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	want := []string{"all_table_names", "execute_query", "schema_definitions"}
	for i, name := range want {
		if defs[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, defs[i].Name)
		}
	}
}

func TestRegistryDescribe(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockTool{name: "execute_query"})

	descs := r.Describe()
	if len(descs) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(descs))
	}
	if descs[0].Description != "test tool" {
		t.Fatalf("unexpected description %q", descs[0].Description)
	}
	if len(descs[0].Parameters) == 0 {
		t.Fatal("descriptor parameters missing")
	}
}
