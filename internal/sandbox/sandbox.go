// Package sandbox defines the contract for running user-submitted code.
//
// Everything handed to an Executor is attacker-controlled: any registered
// user can submit any code. Implementations therefore guarantee
//
//   - per-call isolation: concurrent runs never see each other's source
//     or scratch space,
//   - a hard wall-clock timeout, reported on the result rather than as a
//     truncated success,
//   - no persistent state: a run is a pure function of (code, timeout)
//     up to machine resources,
//   - failures surface as error values, never as a crash of the caller.
package sandbox

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout is the wall-clock budget a run gets when the request
// does not specify one.
const DefaultTimeout = 5 * time.Second

// ErrExecutionFailed marks a run that never produced a result: the
// interpreter could not be launched, the scratch space could not be set
// up, and so on. The wrapped message is safe to show to the user; it
// carries no host paths.
var ErrExecutionFailed = errors.New("execution failed")

// Request is one code run. A zero Timeout means DefaultTimeout.
type Request struct {
	Code    string        `json:"code"`
	Timeout time.Duration `json:"-"`
}

// Result is the outcome of a run. Output is stdout followed by stderr,
// the combined text the user sees. TimedOut is set when the wall-clock
// budget expired (or the caller cancelled) before the code finished; the
// captured output up to that point is still returned, flagged rather
// than silently truncated.
type Result struct {
	Output   string        `json:"output"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	TimedOut bool          `json:"timedOut"`
	Duration time.Duration `json:"duration"`
}

// Executor runs code in an isolated environment. Implementations are safe
// for concurrent use; cancelling ctx terminates the run and releases its
// resources exactly as a timeout would.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// EffectiveTimeout resolves the request's timeout against the default and
// an executor-configured ceiling (0 means no ceiling).
func EffectiveTimeout(req Request, max time.Duration) time.Duration {
	t := req.Timeout
	if t <= 0 {
		t = DefaultTimeout
	}
	if max > 0 && t > max {
		t = max
	}
	return t
}
