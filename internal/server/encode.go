package server

import (
	"errors"

	"migrationmcp/internal/analysis"
	"migrationmcp/internal/orchestrator"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonResult renders v as indented JSON text content.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error())
	}
	return mcp.NewToolResultText(string(data))
}

// errorResult renders err as a JSON error detail flagged as a tool error.
func errorResult(err error) *mcp.CallToolResult {
	detail := errorDetail(err)
	data, mErr := json.MarshalIndent(detail, "", "  ")
	if mErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(data))
}

func errorDetail(err error) *orchestrator.ErrorDetail {
	var oe *orchestrator.Error
	if errors.As(err, &oe) {
		return oe.Detail()
	}
	var nf *analysis.NotFoundError
	if errors.As(err, &nf) {
		return &orchestrator.ErrorDetail{
			Error:   "ResolvedConfigNotFound",
			Message: nf.Error(),
			Hint:    "Run get_serverless_config for the same project and stage first.",
		}
	}
	return &orchestrator.ErrorDetail{Error: "InternalError", Message: err.Error()}
}
