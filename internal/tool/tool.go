package tool

import (
	"context"
	"encoding/json"
)

// Tool is the interface for agent tools.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage // JSON Schema
	Execute(ctx context.Context, args json.RawMessage) (*Result, error)
}

// Result is the output of a tool execution. Execution failures the model
// should see (bad SQL, unknown table) go in Error with IsError set; an
// error return is reserved for failures of the tool channel itself.
type Result struct {
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
	IsError bool   `json:"is_error"`
}

// Descriptor is the displayable description of a tool, shown in the chat
// UI sidebar.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
