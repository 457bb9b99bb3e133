// Package remediation launches the dependency installation for a project.
//
// The launch is fire-and-forget: LaunchInstall returns as soon as the package
// manager has started. Callers confirm completion by probing the project again.
package remediation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"migrationmcp/internal/project"
	"migrationmcp/pkg/logging"

	"github.com/kballard/go-shellquote"
	"golang.org/x/time/rate"
)

// DefaultCommand is the package manager invocation used when none is configured.
const DefaultCommand = "npm i --dd"

// ProjectPlaceholder in a terminal wrapper is replaced by the project root.
const ProjectPlaceholder = "{project}"

// ErrLaunchThrottled is wrapped in a LaunchError when an install for the same
// project was launched within the cooldown window.
var ErrLaunchThrottled = errors.New("an install for this project was launched recently")

// execCommand is swapped in tests.
var execCommand = exec.Command

// LaunchResult describes a started installation. Completed is always false:
// the runner never waits for the install to finish.
type LaunchResult struct {
	Launched  bool      `json:"launched"`
	Completed bool      `json:"completed"`
	PID       int       `json:"pid"`
	Command   string    `json:"command"`
	Dir       string    `json:"dir"`
	StartedAt time.Time `json:"started_at"`
}

// LaunchError reports that the install process could not be started.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Options configures a Runner.
type Options struct {
	// Command is the install command line, shell-quoted.
	Command string
	// Terminal optionally wraps the command so it runs in a visible terminal,
	// e.g. ["tmux", "new-window", "-c", "{project}"].
	Terminal []string
	// Cooldown is the minimum interval between launches for one project.
	Cooldown time.Duration
	// Env is appended to the inherited environment.
	Env map[string]string
	// Stdout receives the install output when there is no terminal wrapper.
	// Defaults to os.Stdout; set it to os.Stderr when stdout carries a
	// protocol stream.
	Stdout io.Writer
}

// Runner starts install processes.
type Runner struct {
	command  []string
	terminal []string
	env      []string
	cooldown time.Duration
	stdout   io.Writer

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRunner validates opts and returns a Runner.
func NewRunner(opts Options) (*Runner, error) {
	line := opts.Command
	if strings.TrimSpace(line) == "" {
		line = DefaultCommand
	}
	parts, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse install command %q: %w", line, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("install command is empty")
	}

	env := os.Environ()
	for k, v := range opts.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	return &Runner{
		command:  parts,
		terminal: opts.Terminal,
		env:      env,
		cooldown: opts.Cooldown,
		stdout:   stdout,
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// CommandLine returns the install command as a shell-quoted string.
func (r *Runner) CommandLine() string {
	return shellquote.Join(r.command...)
}

// Stdout returns where an unwrapped install writes its output.
func (r *Runner) Stdout() io.Writer {
	return r.stdout
}

// argv builds the full argument vector for a project.
func (r *Runner) argv(p project.Project) []string {
	args := make([]string, 0, len(r.terminal)+len(r.command))
	for _, a := range r.terminal {
		args = append(args, strings.ReplaceAll(a, ProjectPlaceholder, p.Root))
	}
	return append(args, r.command...)
}

// allow applies the per-project cooldown.
func (r *Runner) allow(root string) bool {
	if r.cooldown <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, ok := r.limiters[root]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(r.cooldown), 1)
		r.limiters[root] = limiter
	}
	return limiter.Allow()
}

// LaunchInstall starts the install for p and returns once the process is running.
func (r *Runner) LaunchInstall(ctx context.Context, p project.Project) (LaunchResult, error) {
	args := r.argv(p)
	display := shellquote.Join(args...)

	if err := ctx.Err(); err != nil {
		return LaunchResult{}, err
	}
	if !r.allow(p.Root) {
		return LaunchResult{}, &LaunchError{Command: display, Err: ErrLaunchThrottled}
	}

	// The child must outlive the request, so it is not bound to ctx.
	cmd := execCommand(args[0], args[1:]...)
	cmd.Dir = p.Root
	cmd.Env = r.env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	// Stdin stays nil (/dev/null) so the install cannot read a protocol stream.
	if len(r.terminal) == 0 {
		cmd.Stdout = r.stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		logging.Error("Remediation", err, "Failed to launch install in %s", p.Root)
		return LaunchResult{}, &LaunchError{Command: display, Err: err}
	}

	pid := cmd.Process.Pid
	logging.Info("Remediation", "Launched %q in %s (PID: %d)", display, p.Root, pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			logging.Warn("Remediation", "Install %q in %s (PID: %d) exited with error: %v", display, p.Root, pid, err)
			return
		}
		logging.Info("Remediation", "Install %q in %s (PID: %d) finished", display, p.Root, pid)
	}()

	return LaunchResult{
		Launched:  true,
		PID:       pid,
		Command:   display,
		Dir:       p.Root,
		StartedAt: time.Now(),
	}, nil
}
