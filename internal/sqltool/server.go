// Package sqltool implements the MCP server behind the agent's SQL tools.
// It exposes the same tool surface as MCP-Alchemy (all_table_names,
// filter_table_names, schema_definitions, execute_query) so the chat app
// can run against either server interchangeably.
package sqltool

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"medoryx/internal/database"
	"medoryx/internal/sqlfmt"
)

// DefaultMaxChars caps execute_query output so a huge result set cannot
// blow up the model's context.
const DefaultMaxChars = 4000

// Server serves SQL tools over MCP stdio.
type Server struct {
	db       *database.DB
	maxChars int
	mcp      *server.MCPServer
}

// New creates a Server over an open database. maxChars <= 0 selects
// DefaultMaxChars.
func New(db *database.DB, maxChars int) *Server {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	s := &Server{
		db:       db,
		maxChars: maxChars,
		mcp: server.NewMCPServer("adesql-mcp", "1.0.0",
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks, serving MCP over stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("all_table_names",
		mcp.WithDescription("Return all table names in the database, comma separated."),
	), s.handleAllTableNames)

	s.mcp.AddTool(mcp.NewTool("filter_table_names",
		mcp.WithDescription("Return all table names containing the substring q, comma separated."),
		mcp.WithString("q", mcp.Required(), mcp.Description("Substring to match against table names")),
	), s.handleFilterTableNames)

	s.mcp.AddTool(mcp.NewTool("schema_definitions",
		mcp.WithDescription("Return column definitions (name, type, nullability, primary keys) for the given tables."),
		mcp.WithArray("table_names", mcp.Required(),
			mcp.Description("Tables to describe"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.handleSchemaDefinitions)

	s.mcp.AddTool(mcp.NewTool("execute_query",
		mcp.WithDescription("Execute a SQL query against the adverse drug event database. Results come back one row per block; output is capped, so prefer LIMIT clauses."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The SQL query to execute")),
		mcp.WithObject("params",
			mcp.Description("Optional named bind parameters, referenced as @name in the query"),
		),
	), s.handleExecuteQuery)
}

func (s *Server) handleAllTableNames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tables, err := s.db.Tables(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(tables, ", ")), nil
}

func (s *Server) handleFilterTableNames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("q")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tables, err := s.db.Tables(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var matches []string
	for _, t := range tables {
		if strings.Contains(t, q) {
			matches = append(matches, t)
		}
	}
	return mcp.NewToolResultText(strings.Join(matches, ", ")), nil
}

func (s *Server) handleSchemaDefinitions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := req.RequireStringSlice("table_names")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	for _, name := range names {
		cols, err := s.db.Columns(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fmt.Fprintf(&b, "%s:\n", name)
		for _, c := range cols {
			fmt.Fprintf(&b, "    %s: %s", c.Name, c.Type)
			if c.PrimaryKey {
				b.WriteString(", primary key")
			} else if !c.Nullable {
				b.WriteString(", not null")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) handleExecuteQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var params map[string]any
	if raw, ok := req.GetArguments()["params"]; ok {
		if m, ok := raw.(map[string]any); ok {
			params = m
		}
	}

	res, err := s.db.Query(ctx, query, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(sqlfmt.Format(res, s.maxChars)), nil
}
