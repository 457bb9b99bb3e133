package orchestrator

import (
	"time"

	"migrationmcp/internal/project"
	"migrationmcp/internal/remediation"
	"migrationmcp/internal/resolver"
)

// Status is the terminal state of a dependency check.
type Status string

const (
	StatusSatisfied              Status = "satisfied"
	StatusConfirmationRequired   Status = "confirmation_required"
	StatusInstallLaunched        Status = "install_launched"
	StatusInstallationAuthorized Status = "installation_authorized"
	StatusBlocked                Status = "blocked"
	StatusMissing                Status = "missing"
	StatusLaunchFailed           Status = "launch_failed"
)

// Methods reported by GetServerlessConfig.
const (
	MethodServerlessPrint = "serverless_print"
	MethodExistingFile    = "existing_resolved_file"
)

// Confirmation is the outstanding question of a confirmation_required report.
type Confirmation struct {
	ID        string    `json:"confirmation_id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DependencyReport is the result of CheckProjectDependencies.
type DependencyReport struct {
	ProjectPath  string                    `json:"project_path"`
	Stage        string                    `json:"stage"`
	Status       Status                    `json:"status"`
	Dependencies project.ProbeResult       `json:"dependencies"`
	Message      string                    `json:"message"`
	NextStep     string                    `json:"next_step"`
	Command      string                    `json:"command,omitempty"`
	Confirmation *Confirmation             `json:"confirmation,omitempty"`
	Launch       *remediation.LaunchResult `json:"launch,omitempty"`
	Error        *ErrorDetail              `json:"error,omitempty"`
}

// ConfigReport is the result of GetServerlessConfig.
type ConfigReport struct {
	ProjectPath        string           `json:"project_path"`
	Stage              string           `json:"stage"`
	Method             string           `json:"method"`
	ServerlessConfig   map[string]any   `json:"serverless_config"`
	ResolvedConfigPath string           `json:"resolved_config_path,omitempty"`
	Summary            resolver.Summary `json:"summary"`
	Warnings           []string         `json:"warnings"`
}
