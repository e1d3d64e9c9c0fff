// Package docker runs code inside throwaway Docker containers.
//
// This is the hardened sandbox backend: every run executes in a container
// with no network, a memory and CPU cap, a read-only root filesystem and
// an unprivileged user. Containers are pre-warmed by a pool so a run does
// not pay image-start latency, and each container serves exactly one run
// before it is removed, so no state leaks between callers.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/tahmid/projecthub/internal/sandbox"
)

// Executor implements sandbox.Executor using Docker.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

var _ sandbox.Executor = (*Executor)(nil)

// New creates a Docker executor, pulls the interpreter image and starts
// the container pool.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("ensuring sandbox image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	// Read everything to block until the pull is complete
	io.Copy(io.Discard, reader)
	logger.Info("sandbox image is ready")

	exec := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
	}

	exec.pool = NewPool(cli, cfg, logger)
	exec.pool.Start()

	return exec, nil
}

// Close shuts down the container pool and the docker client.
func (e *Executor) Close() error {
	e.pool.Stop()
	return e.cli.Close()
}

// Execute runs the code in a pooled container. The container is removed
// when the run finishes, whatever the outcome, so a run can never observe
// a previous caller's filesystem or processes.
func (e *Executor) Execute(ctx context.Context, req sandbox.Request) (*sandbox.Result, error) {
	start := time.Now()
	timeout := sandbox.EffectiveTimeout(req, e.config.MaxTimeout)

	containerID, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: no sandbox container available", sandbox.ErrExecutionFailed)
	}

	// Always remove the acquired container, even on timeout or panic.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{
			Force: true,
		})
		if err != nil {
			e.logger.Error("failed to remove container", slog.String("id", containerID), slog.String("error", err.Error()))
		}
	}()

	executeCtx, executeCancel := context.WithTimeout(ctx, timeout)
	defer executeCancel()

	// The pooled container idles on `sleep infinity`; the run itself is a
	// docker exec of the interpreter with the code passed via -c, so the
	// source never touches a shared host path.
	execConfig := container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          []string{"python", "-I", "-c", req.Code},
	}

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, execConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: could not start run in container", sandbox.ErrExecutionFailed)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: could not attach to run", sandbox.ErrExecutionFailed)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	completed := demuxExecStream(executeCtx, attachResp.Reader, attachResp.Close, &stdout, &stderr)

	exitCode := 0
	timedOut := false
	if completed {
		inspectResp, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err == nil {
			exitCode = inspectResp.ExitCode
		}
	} else {
		// Wall-clock budget exhausted or caller cancelled. The deferred
		// ContainerRemove kills the run; whatever output arrived before
		// the stream was closed is returned, flagged.
		timedOut = true
		exitCode = -1
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

// demuxExecStream copies the multiplexed exec stream into stdout and
// stderr until the stream ends or ctx expires. On expiry it closes the
// stream to unblock the copy. Either way it returns only after copying
// has stopped, so the caller can read the buffers without racing the
// copier. The return value reports whether the stream ended on its own.
func demuxExecStream(ctx context.Context, r io.Reader, closeStream func(), stdout, stderr *bytes.Buffer) bool {
	done := make(chan struct{})
	go func() {
		// stdcopy demultiplexes the attached stream into stdout and stderr
		_, _ = stdcopy.StdCopy(stdout, stderr, r)
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		closeStream()
		<-done
		return false
	}
}
