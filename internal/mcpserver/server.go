// Copyright (c) Microsoft. All rights reserved.

// Package mcpserver exposes a tool registry as a Model Context Protocol
// server, so MCP clients can call the same tools the agents use.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
	"github.com/SchwartzKamel/chatbot-template/internal/tools"
)

const serverName = "chatbot-template tools"

// New creates an MCP server with one tool per registry entry.
func New(reg *tools.Registry, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(true))
	for _, e := range reg.Entries() {
		s.AddTool(Tool(e), Handler(e))
	}
	slog.Debug("mcp server initialized", "tools", reg.Names())
	return s
}

// HTTPHandler serves s over the streamable HTTP transport.
func HTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}

// Tool describes e with the same schema the agent hosts advertise.
func Tool(e tools.Entry) mcp.Tool {
	return mcp.NewToolWithRawSchema(e.Name(), e.Description(), af.SchemaOf(e.ArgsType()))
}

// Handler calls e with the request arguments. The JSON form of the tool
// result is the text content; failures set IsError.
func Handler(e tools.Entry) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var raw json.RawMessage
		if args := req.GetArguments(); len(args) > 0 {
			b, err := json.Marshal(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			raw = b
		}

		res := e.Call(ctx, raw)
		out, err := json.Marshal(res)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if res.Status() == tools.StatusError {
			return mcp.NewToolResultError(string(out)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
