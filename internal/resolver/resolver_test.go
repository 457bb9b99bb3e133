package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test. It plays the serverless CLI.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "no mode")
		os.Exit(2)
	}
	mode, rest := args[1], args[2:]
	stage := ""
	for i := 0; i+1 < len(rest); i++ {
		if rest[i] == "--stage" {
			stage = rest[i+1]
		}
	}

	switch mode {
	case "print-ok":
		fmt.Println("Running \"serverless\" from node_modules")
		fmt.Printf("service: orders\nframeworkVersion: '3'\nprovider:\n  name: aws\n  runtime: nodejs18.x\n  stage: %s\nfunctions:\n  create:\n    handler: src/create.handler\n    events:\n      - http: POST /orders\n", stage)
		fmt.Println("Serverless: Deprecation notice follows")
		fmt.Fprintln(os.Stderr, "Warning: Invalid configuration encountered")
		os.Exit(0)
	case "fail-creds":
		fmt.Fprintln(os.Stderr, "Error: missing AWS credentials")
		os.Exit(1)
	case "garbage":
		fmt.Println("service: [unclosed")
		os.Exit(0)
	case "sleep":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	case "spawn-child":
		// The child inherits stdout, so the pipe stays open while it lives.
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--", "sleep")
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		if err := child.Start(); err != nil {
			os.Exit(4)
		}
		time.Sleep(10 * time.Second)
		os.Exit(0)
	case "count":
		f, err := os.OpenFile("calls.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintln(f, "call")
			f.Close()
		}
		time.Sleep(300 * time.Millisecond)
		fmt.Println("service: counted")
		os.Exit(0)
	}
	os.Exit(3)
}

func helperResolver(t *testing.T, mode string, timeout time.Duration) *Resolver {
	t.Helper()
	r, err := New(Options{
		Command: shellquote.Join(os.Args[0], "-test.run=TestHelperProcess", "--", mode),
		Timeout: timeout,
		Env:     map[string]string{"GO_WANT_HELPER_PROCESS": "1"},
	})
	require.NoError(t, err)
	return r
}

func TestNew_Defaults(t *testing.T) {
	r, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, r.timeout)
	assert.Equal(t, []string{"npx", "serverless", "print", "--format", "yaml", "--stage", "PROD"}, r.argv("PROD"))

	r, err = New(Options{Command: "sls print --stage={stage} --format yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sls", "print", "--stage=DESA", "--format", "yaml"}, r.argv("DESA"))

	_, err = New(Options{Command: "'"})
	assert.Error(t, err)
}

func TestResolve_Success(t *testing.T) {
	r := helperResolver(t, "print-ok", 0)

	got, err := r.Resolve(context.Background(), t.TempDir(), "TEST")
	require.NoError(t, err)

	want := map[string]any{
		"service":          "orders",
		"frameworkVersion": "3",
		"provider": map[string]any{
			"name":    "aws",
			"runtime": "nodejs18.x",
			"stage":   "TEST",
		},
		"functions": map[string]any{
			"create": map[string]any{
				"handler": "src/create.handler",
				"events":  []any{map[string]any{"http": "POST /orders"}},
			},
		},
	}
	if diff := cmp.Diff(want, got.Document); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "TEST", got.Stage)
	assert.True(t, strings.HasPrefix(string(got.Raw), "service: orders"))
	assert.NotContains(t, string(got.Raw), "Serverless:")
	assert.Equal(t, "Warning: Invalid configuration encountered", got.Stderr)
}

func TestResolve_NonZeroExitKeepsDiagnostic(t *testing.T) {
	r := helperResolver(t, "fail-creds", 0)

	_, err := r.Resolve(context.Background(), t.TempDir(), "TEST")
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr), "expected ResolutionError, got %v", err)
	assert.Equal(t, ReasonExit, resErr.Reason)
	assert.Equal(t, 1, resErr.ExitCode)
	assert.Equal(t, "Error: missing AWS credentials\n", resErr.Stderr)
	assert.Contains(t, resErr.Error(), "missing AWS credentials")
}

func TestResolve_UnparsableOutput(t *testing.T) {
	r := helperResolver(t, "garbage", 0)

	_, err := r.Resolve(context.Background(), t.TempDir(), "TEST")
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, ReasonParse, resErr.Reason)
}

func TestResolve_Timeout(t *testing.T) {
	r := helperResolver(t, "sleep", 200*time.Millisecond)

	_, err := r.Resolve(context.Background(), t.TempDir(), "TEST")
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, ReasonTimeout, resErr.Reason)
}

func TestResolve_TimeoutKillsProcessGroup(t *testing.T) {
	r := helperResolver(t, "spawn-child", 200*time.Millisecond)

	start := time.Now()
	_, err := r.Resolve(context.Background(), t.TempDir(), "TEST")
	elapsed := time.Since(start)

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, ReasonTimeout, resErr.Reason)
	assert.Less(t, elapsed, 3*time.Second, "resolver outlived its timeout")
}

func TestResolve_CommandNotFound(t *testing.T) {
	r, err := New(Options{Command: "/no/such/serverless print"})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), t.TempDir(), "TEST")
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, ReasonStart, resErr.Reason)
}

func TestResolve_CallerCancellation(t *testing.T) {
	r := helperResolver(t, "sleep", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, t.TempDir(), "TEST")
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, ReasonCancelled, resErr.Reason)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolve_ConcurrentCallsShareOneProcess(t *testing.T) {
	r := helperResolver(t, "count", 0)
	dir := t.TempDir()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), dir, "TEST")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "calls.log"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "call"))
}
