package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"migrationmcp/internal/analysis"
	"migrationmcp/internal/auth"
	"migrationmcp/internal/awscreds"
	"migrationmcp/internal/config"
	"migrationmcp/internal/confirm"
	"migrationmcp/internal/orchestrator"
	"migrationmcp/internal/persist"
	"migrationmcp/internal/project"
	"migrationmcp/internal/remediation"
	"migrationmcp/internal/resolver"
	"migrationmcp/internal/server"
	"migrationmcp/internal/stage"
	"migrationmcp/pkg/logging"
)

// Services holds all the initialized components
type Services struct {
	Stages       stage.Resolver
	Probe        *project.Probe
	Asker        confirm.Asker
	Runner       *remediation.Runner
	Resolver     *resolver.Resolver
	Persister    *persist.Manager
	Analyzer     *analysis.Analyzer
	AWS          *awscreds.Checker
	Gate         *auth.Gate
	Orchestrator *orchestrator.Orchestrator
	Tools        *server.Tools
}

// NewAsker returns the confirmation channel for mode, or nil for "none".
func NewAsker(mode string, timeout time.Duration) (confirm.Asker, error) {
	switch mode {
	case "", "ticket":
		return confirm.NewBroker(timeout), nil
	case "terminal":
		return confirm.NewTerminal(timeout), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown confirmation mode %q", mode)
	}
}

// installOutput picks where an unwrapped install writes its output. Under
// the stdio transport stdout carries JSON-RPC frames.
func installOutput(transport string) io.Writer {
	if transport == server.TransportStdio {
		return os.Stderr
	}
	return os.Stdout
}

// InitializeServices builds every component from settings. asker replaces
// the configured confirmation channel when not nil.
func InitializeServices(ctx context.Context, settings *config.Config, asker confirm.Asker) (*Services, error) {
	s := &Services{
		Stages: stage.Resolver{Default: settings.Stage.Default, Override: settings.Stage.Override},
		Probe:  project.NewProbe(settings.Dependencies.Markers, settings.Dependencies.Manifest),
	}

	if asker == nil {
		var err error
		asker, err = NewAsker(settings.Confirmation.Mode, settings.Confirmation.Timeout)
		if err != nil {
			return nil, err
		}
	}
	s.Asker = asker

	runner, err := remediation.NewRunner(remediation.Options{
		Command:  settings.Remediation.Command,
		Terminal: settings.Remediation.Terminal,
		Cooldown: settings.Remediation.Cooldown,
		Env:      settings.Remediation.Env,
		Stdout:   installOutput(settings.Server.Transport),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create remediation runner: %w", err)
	}
	s.Runner = runner

	s.Resolver, err = resolver.New(resolver.Options{
		Command: settings.Resolver.Command,
		Timeout: settings.Resolver.Timeout,
		Env:     settings.Resolver.Env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config resolver: %w", err)
	}

	s.Persister = persist.NewManager()
	s.Analyzer = analysis.NewAnalyzer(s.Persister, settings.Analysis.Prefixes)

	if settings.AWS.Diagnostics {
		checker, err := awscreds.New(ctx, awscreds.Options{Profile: settings.AWS.Profile, Region: settings.AWS.Region})
		if err != nil {
			logging.Warn("Bootstrap", "AWS diagnostics disabled: %v", err)
		} else {
			s.AWS = checker
		}
	}

	if settings.Auth.Enabled {
		s.Gate = auth.NewGate(auth.Options{
			AllowedDomain: settings.Auth.AllowedDomain,
			CacheTTL:      settings.Auth.CacheTTL,
			Users:         auth.GitHubUsers(settings.Auth.GitHubBaseURL),
		})
	}

	deps := orchestrator.Deps{
		Stages:    s.Stages,
		Probe:     s.Probe,
		Asker:     s.Asker,
		Launcher:  s.Runner,
		Resolver:  s.Resolver,
		Persister: s.Persister,
		Mode:      orchestrator.RemediationMode(strings.ToLower(settings.Remediation.Mode)),
	}
	// A nil *Checker must not end up in the interface.
	if s.AWS != nil {
		deps.Credentials = s.AWS
	}
	s.Orchestrator = orchestrator.New(deps)

	var identity server.IdentityChecker
	if s.AWS != nil {
		identity = s.AWS
	}
	s.Tools = server.NewTools(s.Orchestrator, s.Analyzer, identity, s.Stages)

	return s, nil
}
