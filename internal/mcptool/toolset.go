// Package mcptool connects the agent to an MCP tool server over stdio.
// The server process (by default the bundled adesql-mcp) owns the database
// connection; this side only discovers its tools and forwards calls.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"medoryx/internal/tool"
)

// Config describes the MCP server subprocess.
type Config struct {
	Command string
	Args    []string
	Env     []string // full environment for the subprocess, including DB_URL
}

// Toolset is a live MCP session whose discovered tools plug into the
// agent's registry.
type Toolset struct {
	client *client.Client
	tools  []tool.Tool
}

// Connect spawns the MCP server, performs the initialize handshake and
// lists its tools. The returned toolset must be closed to stop the
// subprocess.
func Connect(ctx context.Context, cfg Config) (*Toolset, error) {
	c, err := client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("start MCP server %q: %w", cfg.Command, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "medoryx",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize MCP session: %w", err)
	}

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("list MCP tools: %w", err)
	}

	ts := &Toolset{client: c}
	for _, t := range list.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			log.Printf("[mcp] skipping tool %s: bad input schema: %v", t.Name, err)
			continue
		}
		ts.tools = append(ts.tools, &mcpTool{
			client:      c,
			name:        t.Name,
			description: t.Description,
			schema:      schema,
		})
	}
	log.Printf("[mcp] connected to %s, %d tools", cfg.Command, len(ts.tools))
	return ts, nil
}

// Tools returns the discovered tools.
func (ts *Toolset) Tools() []tool.Tool {
	return ts.tools
}

// Close shuts down the MCP session and its subprocess.
func (ts *Toolset) Close() error {
	return ts.client.Close()
}

// mcpTool adapts one remote MCP tool to the agent's Tool interface.
type mcpTool struct {
	client      *client.Client
	name        string
	description string
	schema      json.RawMessage
}

func (t *mcpTool) Name() string                { return t.name }
func (t *mcpTool) Description() string         { return t.description }
func (t *mcpTool) Parameters() json.RawMessage { return t.schema }

func (t *mcpTool) Execute(ctx context.Context, args json.RawMessage) (*tool.Result, error) {
	var arguments map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return &tool.Result{Error: "invalid arguments: " + err.Error(), IsError: true}, nil
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = arguments

	res, err := t.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("MCP call %s: %w", t.name, err)
	}

	text := flattenContent(res.Content)
	if res.IsError {
		return &tool.Result{Error: text, IsError: true}, nil
	}
	return &tool.Result{Output: text}, nil
}

// flattenContent concatenates the text blocks of a tool result. Non-text
// content is ignored; the SQL server only ever returns text.
func flattenContent(content []mcp.Content) string {
	var out string
	for _, c := range content {
		if tc, ok := c.(mcp.TextContent); ok {
			if out != "" {
				out += "\n"
			}
			out += tc.Text
		}
	}
	return out
}
