package cli

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// LocalCaller runs tool handlers in-process, without a server.
type LocalCaller struct {
	handlers map[string]server.ToolHandlerFunc
}

// NewLocalCaller indexes tools by name.
func NewLocalCaller(tools []server.ServerTool) *LocalCaller {
	handlers := make(map[string]server.ToolHandlerFunc, len(tools))
	for _, t := range tools {
		handlers[t.Tool.Name] = t.Handler
	}
	return &LocalCaller{handlers: handlers}
}

// CallTool implements Caller.
func (l *LocalCaller) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	handler, ok := l.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return handler(ctx, req)
}

// Close implements Caller.
func (l *LocalCaller) Close() error { return nil }
