package server

import (
	"context"
	"net/http"
	"time"

	"migrationmcp/internal/auth"
	"migrationmcp/pkg/logging"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// auditTool logs every tool call with the caller identity when one is known.
func auditTool(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller := "anonymous"
		if id, ok := auth.FromContext(ctx); ok {
			caller = id.Email
		}
		start := time.Now()
		result, err := next(ctx, req)

		failed := err != nil || (result != nil && result.IsError)
		logging.Info("Audit", "user=%s tool=%s failed=%t duration=%s", caller, req.Params.Name, failed, time.Since(start).Round(time.Millisecond))
		return result, err
	}
}

// requestLogger logs each HTTP request once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Debug("HTTP", "%s %s status=%d duration=%s request_id=%s",
				r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
		}()

		next.ServeHTTP(ww, r)
	})
}
