package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterMCP exposes every tool on s. Calls act on behalf of userID in
// loc; a userId sent by the MCP client is overridden.
func (r *Registry) RegisterMCP(s *mcpserver.MCPServer, userID string, loc *time.Location) {
	for _, def := range r.defs {
		name := def.Name
		s.AddTool(def.MCPTool(), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := make(map[string]any)
			for k, v := range request.GetArguments() {
				args[k] = v
			}
			args["userId"] = userID

			result, err := r.Dispatch(WithLocation(ctx, loc), name, args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			text, err := encodeResult(result)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(text), nil
		})
	}
}

func encodeResult(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
