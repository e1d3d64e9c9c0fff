// Package local runs code as an interpreter subprocess on the host.
//
// Each run gets its own scratch directory, named by a generated run id
// and removed on every exit path. Nothing is shared between runs: two
// concurrent calls write to two different directories and launch two
// different processes. (The system this replaces funnelled every run
// through one fixed-name temp file, so concurrent runs clobbered each
// other's code before execution. Per-run scratch space is the fix, not
// an optimisation.)
//
// This backend provides isolation and the wall-clock kill but no memory
// or CPU caps; deployments that need those run the docker backend, which
// layers container limits on the same contract.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tahmid/projecthub/internal/sandbox"
)

// Config holds the subprocess executor's settings.
type Config struct {
	// PythonBin is the interpreter binary to invoke.
	PythonBin string
	// MaxTimeout caps per-request timeouts. Zero means no cap.
	MaxTimeout time.Duration
	// ScratchRoot is where per-run directories are created. Empty means
	// the system temp dir.
	ScratchRoot string
}

// DefaultConfig provides sensible defaults for a Python runner.
func DefaultConfig() Config {
	return Config{
		PythonBin:  "python3",
		MaxTimeout: 30 * time.Second,
	}
}

// Executor implements sandbox.Executor with a per-run subprocess.
type Executor struct {
	config Config
	logger *slog.Logger
}

var _ sandbox.Executor = (*Executor)(nil)

// New creates a subprocess executor. It verifies the interpreter exists
// up front so a missing binary surfaces at startup, not on first run.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	if _, err := exec.LookPath(cfg.PythonBin); err != nil {
		return nil, fmt.Errorf("local: interpreter %q not found in PATH: %w", cfg.PythonBin, err)
	}
	return &Executor{config: cfg, logger: logger}, nil
}

// Execute runs the code in its own scratch directory and child process.
func (e *Executor) Execute(ctx context.Context, req sandbox.Request) (*sandbox.Result, error) {
	start := time.Now()
	timeout := sandbox.EffectiveTimeout(req, e.config.MaxTimeout)

	// One directory per run, keyed by a fresh id. MkdirTemp adds its own
	// random suffix on top, so even a colliding id cannot share space.
	runID := uuid.NewString()
	dir, err := os.MkdirTemp(e.config.ScratchRoot, "run-"+runID+"-")
	if err != nil {
		return nil, fmt.Errorf("%w: could not allocate scratch space", sandbox.ErrExecutionFailed)
	}
	// Cleanup runs on success, failure, timeout and cancellation alike.
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			e.logger.Error("failed to remove scratch dir",
				slog.String("runID", runID),
				slog.String("error", rmErr.Error()),
			)
		}
	}()

	script := filepath.Join(dir, "main.py")
	if err := os.WriteFile(script, []byte(req.Code), 0o600); err != nil {
		return nil, fmt.Errorf("%w: could not write code to scratch file", sandbox.ErrExecutionFailed)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// -I: isolated mode. Ignores PYTHON* env vars and the user site
	// directory, and keeps the script's own directory off sys.path
	// tricks. Cheap, and it narrows what the untrusted code inherits.
	cmd := exec.CommandContext(runCtx, e.config.PythonBin, "-I", script)
	cmd.Dir = dir
	// Hand the child a minimal environment, not the server's.
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "HOME=" + dir}

	// The interpreter leads its own process group, and the timeout kill
	// targets the whole group. Signalling only the direct child would let
	// anything it forked keep running past the deadline.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// If the kill signal is ignored or the child leaks output pipes,
	// give up waiting after a grace period instead of hanging the caller.
	cmd.WaitDelay = 2 * time.Second

	runErr := cmd.Run()
	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded) ||
		errors.Is(runCtx.Err(), context.Canceled)

	if runErr != nil && !timedOut {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// The process never ran: launch failure, not user error.
			e.logger.Error("interpreter launch failed",
				slog.String("runID", runID),
				slog.String("error", runErr.Error()),
			)
			return nil, fmt.Errorf("%w: interpreter could not be started", sandbox.ErrExecutionFailed)
		}
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	res := &sandbox.Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		TimedOut: timedOut,
		Duration: time.Since(start),
	}
	res.Output = res.Stdout + res.Stderr
	return res, nil
}
