// Package resolver runs the external "print resolved configuration" command
// for a project and parses its output into a document.
package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"migrationmcp/pkg/logging"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCommand prints the fully resolved serverless configuration as YAML.
	DefaultCommand = "npx serverless print --format yaml"
	// DefaultTimeout bounds a single resolution.
	DefaultTimeout = 60 * time.Second
	// StagePlaceholder in the command is replaced by the stage. Without it,
	// "--stage <stage>" is appended.
	StagePlaceholder = "{stage}"
)

// waitDelay bounds how long Run waits for the output pipes once the process
// group has been killed.
var waitDelay = 2 * time.Second

// execCommandContext is swapped in tests.
var execCommandContext = exec.CommandContext

// ResolvedConfig is an immutable resolution result for one (project, stage).
type ResolvedConfig struct {
	Stage    string
	Document map[string]any
	// Raw is the extracted YAML exactly as the resolver printed it.
	Raw []byte
	// Stderr holds warnings printed by a successful run.
	Stderr   string
	Duration time.Duration
}

// Options configures a Resolver.
type Options struct {
	Command string
	Timeout time.Duration
	Env     map[string]string
}

// Resolver invokes the external resolution command.
type Resolver struct {
	command []string
	timeout time.Duration
	env     []string
	group   singleflight.Group
}

// New validates opts and returns a Resolver.
func New(opts Options) (*Resolver, error) {
	line := opts.Command
	if strings.TrimSpace(line) == "" {
		line = DefaultCommand
	}
	parts, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse resolver command %q: %w", line, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("resolver command is empty")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	env := os.Environ()
	for k, v := range opts.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	return &Resolver{command: parts, timeout: timeout, env: env}, nil
}

// argv returns the command for a stage.
func (r *Resolver) argv(stage string) []string {
	args := make([]string, 0, len(r.command)+2)
	substituted := false
	for _, a := range r.command {
		if strings.Contains(a, StagePlaceholder) {
			a = strings.ReplaceAll(a, StagePlaceholder, stage)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, "--stage", stage)
	}
	return args
}

// Resolve runs the resolver in projectRoot for stage. Concurrent calls for the
// same pair share one process; each caller stops waiting when its ctx ends.
func (r *Resolver) Resolve(ctx context.Context, projectRoot, stage string) (*ResolvedConfig, error) {
	key := projectRoot + "\x00" + stage
	ch := r.group.DoChan(key, func() (interface{}, error) {
		// Detached from any single caller so one cancellation does not fail the others.
		return r.run(context.WithoutCancel(ctx), projectRoot, stage)
	})

	select {
	case <-ctx.Done():
		return nil, &ResolutionError{Reason: ReasonCancelled, Command: shellquote.Join(r.argv(stage)...), Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ResolvedConfig), nil
	}
}

func (r *Resolver) run(ctx context.Context, projectRoot, stage string) (*ResolvedConfig, error) {
	args := r.argv(stage)
	display := shellquote.Join(args...)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := execCommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = projectRoot
	cmd.Env = r.env
	// npx starts node as a grandchild; kill the whole group on timeout.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Info("Resolver", "Running %q in %s", display, projectRoot)
	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		resErr := &ResolutionError{Command: display, Stderr: stderr.String(), Err: runErr}
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			resErr.Reason = ReasonTimeout
			resErr.Err = fmt.Errorf("timed out after %s: %w", r.timeout, runErr)
		case errors.As(runErr, &exitErr):
			resErr.Reason = ReasonExit
			resErr.ExitCode = exitErr.ExitCode()
		default:
			resErr.Reason = ReasonStart
		}
		logging.Warn("Resolver", "%q failed after %s: %v", display, elapsed, resErr)
		return nil, resErr
	}

	raw := ExtractYAML(stdout.String())
	doc, err := Parse([]byte(raw))
	if err != nil {
		return nil, &ResolutionError{Reason: ReasonParse, Command: display, Stderr: stderr.String(), Err: err}
	}

	diagnostics := strings.TrimSpace(stderr.String())
	if diagnostics != "" {
		logging.Warn("Resolver", "%q wrote to stderr: %s", display, diagnostics)
	}

	logging.Debug("Resolver", "Resolved %s for stage %s in %s", projectRoot, stage, elapsed)
	return &ResolvedConfig{
		Stage:    stage,
		Document: doc,
		Raw:      []byte(raw),
		Stderr:   diagnostics,
		Duration: elapsed,
	}, nil
}
