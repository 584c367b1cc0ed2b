// Package ociclient is the CLI invocation layer (spec §4.1): it runs the
// external OCI CLI binary and turns its stdout/stderr/exit-code contract
// into either a parsed JSON value or a structured Error.
package ociclient

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Runner executes an external command and reports stdout, stderr, and
// the *exec.ExitError (or nil) separately, which the OCI CLI error
// contract (§4.1) needs to distinguish a preamble from a trailing JSON
// error body. Adapted from pkg/utils/exec.DefaultCommandExecutor, which
// only exposes a single combined-or-stdout-only byte slice.
type Runner interface {
	Run(ctx context.Context, name string, args []string, timeout time.Duration) (stdout, stderr []byte, err error)
}

// ProcessRunner runs commands via os/exec.
type ProcessRunner struct{}

// Run implements Runner.
func (ProcessRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) ([]byte, []byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
