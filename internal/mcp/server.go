// Package mcp exposes the agent's tools over the Model Context
// Protocol so external MCP clients can call them directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/steelhand/steelhand/internal/tools"
)

// Server wraps the MCP SDK server around a tool kit.
type Server struct {
	mcpServer *mcp.Server
	kit       *tools.Kit
}

// Config holds the MCP server configuration.
type Config struct {
	Name      string
	Version   string
	KitConfig tools.KitConfig
}

// NewServer creates the MCP server and registers the tools. The
// send_document tool is registered only when the kit carries a
// webhook dispatcher, mirroring the agent-side tool surface.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}

	kit, err := tools.NewKit(cfg.KitConfig)
	if err != nil {
		return nil, fmt.Errorf("create kit: %w", err)
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		kit: kit,
	}

	if err := s.registerTools(cfg.KitConfig.Dispatcher != nil); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	return s, nil
}

// Run serves MCP on the given transport. Blocks until ctx is
// cancelled or the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools(withSendDocument bool) error {
	if err := addTool(s, "web_search",
		"Search the web for information. Returns result titles, URLs, and snippets.",
		s.kit.WebSearch); err != nil {
		return err
	}
	if err := addTool(s, "web_fetch",
		"Fetch and extract readable content from one or more URLs (max 10).",
		s.kit.WebFetch); err != nil {
		return err
	}
	if err := addTool(s, "sql_query",
		"Run a read-only SQL query against the equipment listing database.",
		s.kit.SQLQuery); err != nil {
		return err
	}
	if withSendDocument {
		if err := addTool(s, "send_document",
			"Send a document link to the customer via the delivery webhook.",
			s.kit.SendDocument); err != nil {
			return err
		}
	}
	return nil
}

// addTool registers one kit method as an MCP tool. The kit's outputs
// carry their own error fields, so the handler marshals the output
// as-is and only flags a protocol-level failure as an MCP error.
func addTool[In, Out any](s *Server, name, description string, fn func(*ai.ToolContext, In) (Out, error)) error {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", name, err)
	}

	tool := &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		out, err := fn(&ai.ToolContext{Context: ctx}, in)
		if err != nil {
			return nil, nil, fmt.Errorf("%s failed: %w", name, err)
		}

		data, err := json.Marshal(out)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal %s output: %w", name, err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	})
	return nil
}
