package server

import (
	"context"
	"fmt"

	"migrationmcp/internal/analysis"
	"migrationmcp/internal/auth"
	"migrationmcp/internal/awscreds"
	"migrationmcp/internal/confirm"
	"migrationmcp/internal/orchestrator"
	"migrationmcp/internal/project"
	"migrationmcp/internal/stage"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Operations are the project operations exposed as tools.
type Operations interface {
	CheckProjectDependencies(ctx context.Context, req orchestrator.CheckRequest) (*orchestrator.DependencyReport, error)
	GetServerlessConfig(ctx context.Context, req orchestrator.ConfigRequest) (*orchestrator.ConfigReport, error)
}

// Analyzer scans a persisted configuration.
type Analyzer interface {
	Analyze(root, stage string) (*analysis.Report, error)
}

// IdentityChecker reports the AWS principal in use.
type IdentityChecker interface {
	Identity(ctx context.Context) (*awscreds.Identity, error)
}

// Tool names.
const (
	ToolCheckProjectDependencies = "check_project_dependencies"
	ToolGetServerlessConfig      = "get_serverless_config"
	ToolFindDatabaseCredentials  = "find_database_credentials"
	ToolWhoami                   = "whoami"
)

// Tools holds the tool handlers. Analyzer and AWS are optional.
type Tools struct {
	ops      Operations
	analyzer Analyzer
	aws      IdentityChecker
	stages   stage.Resolver
}

// NewTools returns the tool set.
func NewTools(ops Operations, analyzer Analyzer, aws IdentityChecker, stages stage.Resolver) *Tools {
	return &Tools{ops: ops, analyzer: analyzer, aws: aws, stages: stages}
}

// Definitions returns every tool with its handler.
func (t *Tools) Definitions() []server.ServerTool {
	defs := []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolCheckProjectDependencies,
				mcp.WithDescription("Checks if project dependencies are installed and environment is ready. When they are missing, asks for confirmation before launching the install."),
				mcp.WithString("project_path",
					mcp.Required(),
					mcp.Description("Absolute path to the serverless project"),
				),
				mcp.WithString("stage",
					mcp.Description("Deployment stage (defaults to MCP_STAGE or TEST)"),
				),
				mcp.WithString("confirmation_id",
					mcp.Description("Ticket returned by an earlier call with status confirmation_required"),
				),
				mcp.WithString("answer",
					mcp.Description("Answer to the pending confirmation"),
					mcp.Enum("yes", "no"),
				),
			),
			Handler: t.HandleCheckProjectDependencies,
		},
		{
			Tool: mcp.NewTool(ToolGetServerlessConfig,
				mcp.WithDescription("Resolves the Serverless configuration for a stage, stores it under .rimac_migration and returns it."),
				mcp.WithString("project_path",
					mcp.Required(),
					mcp.Description("Absolute path to the serverless project"),
				),
				mcp.WithString("stage",
					mcp.Description("Deployment stage (defaults to MCP_STAGE or TEST)"),
				),
				mcp.WithBoolean("reuse_cached",
					mcp.Description("Return the previously resolved configuration when one exists"),
					mcp.DefaultBool(false),
				),
			),
			Handler: t.HandleGetServerlessConfig,
		},
		{
			Tool: mcp.NewTool(ToolWhoami,
				mcp.WithDescription("Shows the authenticated caller and the AWS identity in use"),
			),
			Handler: t.HandleWhoami,
		},
	}
	if t.analyzer != nil {
		defs = append(defs, server.ServerTool{
			Tool: mcp.NewTool(ToolFindDatabaseCredentials,
				mcp.WithDescription("Analyzes the resolved Serverless config to find database references based on prefixes (AX, AE, SAS, RSA)."),
				mcp.WithString("project_path",
					mcp.Required(),
					mcp.Description("Absolute path to the serverless project"),
				),
				mcp.WithString("stage",
					mcp.Description("Stage that was resolved (defaults to MCP_STAGE or TEST)"),
				),
			),
			Handler: t.HandleFindDatabaseCredentials,
		})
	}
	return defs
}

// HandleCheckProjectDependencies handles the check_project_dependencies tool call
func (t *Tools) HandleCheckProjectDependencies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError("project_path is required"), nil
	}

	checkReq := orchestrator.CheckRequest{
		ProjectPath: path,
		Stage:       req.GetString("stage", ""),
	}
	if ticket := req.GetString("confirmation_id", ""); ticket != "" {
		answer := req.GetString("answer", "")
		if answer == "" {
			return mcp.NewToolResultError("answer is required with confirmation_id"), nil
		}
		checkReq.Reply = &confirm.Reply{Ticket: ticket, Answer: answer}
	}

	report, err := t.ops.CheckProjectDependencies(ctx, checkReq)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(report), nil
}

// HandleGetServerlessConfig handles the get_serverless_config tool call
func (t *Tools) HandleGetServerlessConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError("project_path is required"), nil
	}

	report, err := t.ops.GetServerlessConfig(ctx, orchestrator.ConfigRequest{
		ProjectPath: path,
		Stage:       req.GetString("stage", ""),
		ReuseCached: req.GetBool("reuse_cached", false),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(report), nil
}

// HandleFindDatabaseCredentials handles the find_database_credentials tool call
func (t *Tools) HandleFindDatabaseCredentials(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError("project_path is required"), nil
	}
	p, err := project.Open(path)
	if err != nil {
		return errorResult(&orchestrator.Error{Kind: orchestrator.KindInvalidProject, Message: err.Error(), Err: err}), nil
	}

	report, err := t.analyzer.Analyze(p.Root, t.stages.Resolve(req.GetString("stage", "")))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(report), nil
}

type whoamiResult struct {
	Authenticated bool               `json:"authenticated"`
	User          *auth.Identity     `json:"user,omitempty"`
	AWS           *awscreds.Identity `json:"aws,omitempty"`
	AWSError      string             `json:"aws_error,omitempty"`
	DefaultStage  string             `json:"default_stage"`
}

// HandleWhoami handles the whoami tool call
func (t *Tools) HandleWhoami(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := whoamiResult{DefaultStage: t.stages.Resolve("")}
	if id, ok := auth.FromContext(ctx); ok {
		result.Authenticated = true
		result.User = id
	}
	if t.aws != nil {
		id, err := t.aws.Identity(ctx)
		if err != nil {
			result.AWSError = fmt.Sprintf("%v", err)
		} else {
			result.AWS = id
		}
	}
	return jsonResult(result), nil
}
