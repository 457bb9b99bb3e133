package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const analyzePromptName = "analyze-serverless-project"

const analyzePromptText = `Follow these steps strictly to analyze the Serverless project:

STEP 1: Check dependencies
Call check_project_dependencies with the project path.
- status "satisfied": continue with STEP 2.
- status "confirmation_required": ask the user the returned question, then call check_project_dependencies again with confirmation_id and answer.
- status "install_launched": wait for the install to finish, then call check_project_dependencies again.
- status "installation_authorized": run the returned command in a terminal, wait for it to finish, then check again.
- any other status: stop and report the error.

STEP 2: Get the configuration
Call get_serverless_config. Without a stage the configured default (TEST unless MCP_STAGE is set) is used.
If it fails with ResolutionError, report the message and hint verbatim.

STEP 3: Find database references
Call find_database_credentials for the same project and stage to list references to databases (AX, AE, SAS, RSA) in the resolved configuration.`

// analyzePrompt returns the prompt that walks an agent through a full analysis.
func analyzePrompt() server.ServerPrompt {
	return server.ServerPrompt{
		Prompt: mcp.NewPrompt(analyzePromptName,
			mcp.WithPromptDescription("Guides the agent through analyzing a Serverless project"),
			mcp.WithArgument("project_path",
				mcp.ArgumentDescription("Absolute path to the serverless project"),
			),
		),
		Handler: handleAnalyzePrompt,
	}
}

func handleAnalyzePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := analyzePromptText
	if path := req.Params.Arguments["project_path"]; path != "" {
		text += "\n\nProject path: " + path
	}
	return mcp.NewGetPromptResult(
		"Analyze a Serverless project",
		[]mcp.PromptMessage{mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text))},
	), nil
}
