// Package orchestrator composes the dependency check, confirmation,
// remediation, resolution and persistence steps into the two operations
// exposed to callers.
//
// Every call is independent. The only state shared between calls lives in the
// collaborators (confirmation tickets, launch cooldowns, in-flight resolutions).
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"migrationmcp/internal/confirm"
	"migrationmcp/internal/persist"
	"migrationmcp/internal/project"
	"migrationmcp/internal/remediation"
	"migrationmcp/internal/resolver"
	"migrationmcp/internal/stage"
	"migrationmcp/pkg/logging"
)

// Prober reports the dependency status of a project.
type Prober interface {
	Probe(p project.Project) project.ProbeResult
}

// Launcher starts the dependency installation without waiting for it.
type Launcher interface {
	LaunchInstall(ctx context.Context, p project.Project) (remediation.LaunchResult, error)
	CommandLine() string
}

// ConfigResolver produces the resolved configuration of a project.
type ConfigResolver interface {
	Resolve(ctx context.Context, projectRoot, stage string) (*resolver.ResolvedConfig, error)
}

// Persister stores and reloads resolved configurations.
type Persister interface {
	Persist(root, stage string, cfg *resolver.ResolvedConfig) (*persist.Artifact, error)
	Load(root, stage string) (map[string]any, string, error)
}

// CredentialHinter explains the state of the cloud credentials.
type CredentialHinter interface {
	Hint(ctx context.Context) string
}

// RemediationMode selects what happens after a confirmed install.
type RemediationMode string

const (
	// ModeLaunch starts the install command.
	ModeLaunch RemediationMode = "launch"
	// ModeInstruct only tells the caller which command to run.
	ModeInstruct RemediationMode = "instruct"
)

// Deps are the collaborators of an Orchestrator. Asker, Launcher, Persister
// and Credentials are optional.
type Deps struct {
	Stages      stage.Resolver
	Probe       Prober
	Asker       confirm.Asker
	Launcher    Launcher
	Resolver    ConfigResolver
	Persister   Persister
	Credentials CredentialHinter
	Mode        RemediationMode
}

// Orchestrator runs the project operations.
type Orchestrator struct {
	deps Deps
}

// New returns an Orchestrator. Without a Launcher the remediation mode falls
// back to ModeInstruct.
func New(deps Deps) *Orchestrator {
	if deps.Probe == nil {
		deps.Probe = project.NewProbe(nil, "")
	}
	if deps.Mode == "" {
		deps.Mode = ModeLaunch
	}
	if deps.Launcher == nil {
		deps.Mode = ModeInstruct
	}
	return &Orchestrator{deps: deps}
}

// CheckRequest are the inputs of CheckProjectDependencies.
type CheckRequest struct {
	ProjectPath string
	Stage       string
	// Reply answers a confirmation issued by an earlier call.
	Reply *confirm.Reply
}

// ConfigRequest are the inputs of GetServerlessConfig.
type ConfigRequest struct {
	ProjectPath string
	Stage       string
	// ReuseCached returns a previously persisted configuration when one exists.
	ReuseCached bool
}

func (o *Orchestrator) installCommand() string {
	if o.deps.Launcher != nil {
		return o.deps.Launcher.CommandLine()
	}
	return remediation.DefaultCommand
}

func (o *Orchestrator) open(path string) (project.Project, error) {
	p, err := project.Open(path)
	if err != nil {
		return project.Project{}, &Error{Kind: KindInvalidProject, Message: err.Error(), Err: err}
	}
	return p, nil
}

// CheckProjectDependencies probes the project and, when dependencies are
// missing, walks the confirmation and remediation flow. Installation is never
// launched without a confirmed decision.
func (o *Orchestrator) CheckProjectDependencies(ctx context.Context, req CheckRequest) (*DependencyReport, error) {
	stageName := o.deps.Stages.Resolve(req.Stage)
	p, err := o.open(req.ProjectPath)
	if err != nil {
		return nil, err
	}

	logging.Debug("Orchestrator", "check %s: PROBE", p.Root)
	probe := o.deps.Probe.Probe(p)
	report := &DependencyReport{
		ProjectPath:  p.Root,
		Stage:        stageName,
		Dependencies: probe,
	}

	if probe.Status == project.DependenciesSatisfied {
		logging.Debug("Orchestrator", "check %s: SATISFIED", p.Root)
		report.Status = StatusSatisfied
		report.Message = fmt.Sprintf("Dependencies are installed (%s found).", probe.Marker)
		report.NextStep = "Call get_serverless_config to resolve the configuration."
		return report, nil
	}

	command := o.installCommand()
	report.Command = command

	if o.deps.Asker == nil {
		logging.Debug("Orchestrator", "check %s: MISSING, no confirmation channel", p.Root)
		missing := &Error{
			Kind:    KindDependencyMissing,
			Message: fmt.Sprintf("dependencies are not installed in %s", p.Root),
			Hint:    fmt.Sprintf("Run %q in the project directory.", command),
		}
		report.Status = StatusMissing
		report.Message = "Dependencies are not installed."
		report.NextStep = fmt.Sprintf("Run %q in %s, then check again.", command, p.Root)
		report.Error = missing.Detail()
		return report, nil
	}

	logging.Debug("Orchestrator", "check %s: MISSING -> ASK", p.Root)
	question := confirm.Question{
		ProjectRoot: p.Root,
		Stage:       stageName,
		Message:     fmt.Sprintf("Dependencies are not installed in %s. Run %q now?", p.Root, command),
		Options:     confirm.DefaultOptions,
	}
	answer, err := o.deps.Asker.Ask(ctx, question, req.Reply)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logging.Debug("Orchestrator", "check %s: ASK abandoned: %v", p.Root, ctxErr)
			return nil, ctxErr
		}
		return nil, fmt.Errorf("confirmation failed: %w", err)
	}

	if answer.Decision.Proceed() {
		return o.remediate(ctx, p, report)
	}

	switch answer.Decision {
	case confirm.DecisionPending:
		logging.Debug("Orchestrator", "check %s: ASK pending (ticket %s)", p.Root, answer.Ticket)
		report.Status = StatusConfirmationRequired
		report.Message = question.Message
		report.NextStep = "Call check_project_dependencies again with confirmation_id and answer (yes or no)."
		report.Confirmation = &Confirmation{
			ID:        answer.Ticket,
			Question:  question.Message,
			Options:   question.Options,
			ExpiresAt: answer.ExpiresAt,
		}
		return report, nil

	case confirm.DecisionTimedOut:
		logging.Debug("Orchestrator", "check %s: TIMEOUT -> REPORT_BLOCKED", p.Root)
		msg := "the confirmation was not answered in time"
		if answer.Reason != "" {
			msg = answer.Reason
		}
		blocked(report, &Error{Kind: KindConfirmationTimeout, Message: msg, Hint: "Call check_project_dependencies again to get a new confirmation."}, command)
		return report, nil

	default:
		logging.Debug("Orchestrator", "check %s: DECLINED -> REPORT_BLOCKED", p.Root)
		msg := "installation was declined"
		if answer.Reason != "" {
			msg = answer.Reason
		}
		blocked(report, &Error{Kind: KindConfirmationDeclined, Message: msg, Hint: "Install dependencies manually or check again to confirm."}, command)
		return report, nil
	}
}

func blocked(report *DependencyReport, e *Error, command string) {
	report.Status = StatusBlocked
	report.Message = "Dependencies are not installed and installation was not authorized."
	report.NextStep = fmt.Sprintf("Run %q manually or call check_project_dependencies again.", command)
	report.Error = e.Detail()
}

func (o *Orchestrator) remediate(ctx context.Context, p project.Project, report *DependencyReport) (*DependencyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.deps.Mode == ModeInstruct {
		logging.Debug("Orchestrator", "check %s: CONFIRMED -> INSTRUCT", p.Root)
		report.Status = StatusInstallationAuthorized
		report.Message = "Installation authorized."
		report.NextStep = fmt.Sprintf("Run %q in %s, then check again.", report.Command, p.Root)
		return report, nil
	}

	logging.Debug("Orchestrator", "check %s: CONFIRMED -> LAUNCH", p.Root)
	result, err := o.deps.Launcher.LaunchInstall(ctx, p)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		logging.Error("Orchestrator", err, "Failed to launch install in %s", p.Root)
		launchErr := &Error{
			Kind:    KindRemediationLaunch,
			Message: err.Error(),
			Hint:    fmt.Sprintf("Run %q manually.", report.Command),
			Err:     err,
		}
		report.Status = StatusLaunchFailed
		report.Message = "The install command could not be started."
		report.NextStep = launchErr.Hint
		report.Error = launchErr.Detail()
		return report, nil
	}

	logging.Debug("Orchestrator", "check %s: LAUNCH -> REPORT (pid %d)", p.Root, result.PID)
	report.Status = StatusInstallLaunched
	report.Launch = &result
	report.Message = "Install launched."
	report.NextStep = "Re-check when the install completes."
	return report, nil
}

// GetServerlessConfig resolves and persists the configuration of a project
// whose dependencies are installed. A persistence failure is reported as a
// warning and does not fail the call.
func (o *Orchestrator) GetServerlessConfig(ctx context.Context, req ConfigRequest) (*ConfigReport, error) {
	stageName := o.deps.Stages.Resolve(req.Stage)
	p, err := o.open(req.ProjectPath)
	if err != nil {
		return nil, err
	}

	logging.Debug("Orchestrator", "config %s/%s: PROBE", p.Root, stageName)
	if probe := o.deps.Probe.Probe(p); probe.Status != project.DependenciesSatisfied {
		logging.Debug("Orchestrator", "config %s/%s: MISSING -> FAIL", p.Root, stageName)
		return nil, &Error{
			Kind:    KindDependencyMissing,
			Message: fmt.Sprintf("dependencies are not installed in %s", p.Root),
			Hint:    "Call check_project_dependencies to install them first.",
		}
	}

	report := &ConfigReport{
		ProjectPath: p.Root,
		Stage:       stageName,
		Warnings:    []string{},
	}

	if req.ReuseCached && o.deps.Persister != nil {
		doc, path, err := o.deps.Persister.Load(p.Root, stageName)
		if err == nil {
			logging.Debug("Orchestrator", "config %s/%s: reusing %s", p.Root, stageName, path)
			report.Method = MethodExistingFile
			report.ServerlessConfig = doc
			report.ResolvedConfigPath = path
			report.Summary = resolver.Summarize(doc)
			return report, nil
		}
		if !errors.Is(err, persist.ErrNotFound) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("could not reuse %s: %v", path, err))
		}
	}

	logging.Debug("Orchestrator", "config %s/%s: RESOLVE", p.Root, stageName)
	cfg, err := o.deps.Resolver.Resolve(ctx, p.Root, stageName)
	if err != nil {
		logging.Debug("Orchestrator", "config %s/%s: RESOLVE -> FAIL", p.Root, stageName)
		hint := credentialsHint
		if o.deps.Credentials != nil && ctx.Err() == nil {
			hint += " " + o.deps.Credentials.Hint(ctx)
		}
		return nil, &Error{Kind: KindResolution, Message: err.Error(), Hint: hint, Err: err}
	}

	report.Method = MethodServerlessPrint
	report.ServerlessConfig = cfg.Document
	if cfg.Stderr != "" {
		report.Warnings = append(report.Warnings, "resolver stderr: "+cfg.Stderr)
	}
	report.Summary = resolver.Summarize(cfg.Document)

	if o.deps.Persister != nil {
		logging.Debug("Orchestrator", "config %s/%s: PERSIST", p.Root, stageName)
		artifact, err := o.deps.Persister.Persist(p.Root, stageName, cfg)
		if artifact != nil {
			report.ResolvedConfigPath = artifact.Path
		}
		if err != nil {
			logging.Warn("Orchestrator", "Persisting configuration for %s failed: %v", p.Root, err)
			warning := &Error{Kind: KindPersistence, Message: err.Error(), Err: err}
			report.Warnings = append(report.Warnings, warning.Error())
		}
	}

	logging.Debug("Orchestrator", "config %s/%s: RETURN", p.Root, stageName)
	return report, nil
}
