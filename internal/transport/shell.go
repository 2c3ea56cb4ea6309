// Package transport runs commands and moves files on the host being inventoried.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"fsdrift/internal/drift"
)

// result is the outcome of one executed command.
type result struct {
	stdout string
	stderr string
	status int
}

// execute runs argv with optional stdin. A non-zero exit is reported through
// result.status; only failures to start or wait for the process are errors.
func execute(ctx context.Context, argv []string, stdin io.Reader) (*result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", drift.ErrTransport)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}

	err := cmd.Run()
	res := &result{stdout: stdout.String(), stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.status = exitErr.ExitCode()
		return res, nil
	}
	return nil, fmt.Errorf("%w: running %s: %w", drift.ErrTransport, argv[0], err)
}

// splitCommand breaks an operator-supplied prefix such as "ssh -p 2222 user@host"
// into arguments. Quoting is not interpreted.
func splitCommand(command string) []string {
	return strings.Fields(command)
}
