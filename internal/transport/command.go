package transport

import (
	"context"
	"fmt"
	"os"

	"al.essio.dev/pkg/shellescape"

	"fsdrift/internal/drift"
)

// CommandTransport reaches another host through an operator-supplied command
// prefix, typically "ssh user@host". The remote command is passed as a single
// trailing argument and is interpreted by the remote shell.
type CommandTransport struct {
	prefix []string
	logger drift.Logger
}

var _ drift.Transport = (*CommandTransport)(nil)

func NewCommandTransport(command string, logger drift.Logger) (*CommandTransport, error) {
	prefix := splitCommand(command)
	if len(prefix) == 0 {
		return nil, fmt.Errorf("%w: transport command is empty", drift.ErrTransport)
	}
	return &CommandTransport{prefix: prefix, logger: logger}, nil
}

func (t *CommandTransport) argv(command string) []string {
	argv := make([]string, 0, len(t.prefix)+1)
	argv = append(argv, t.prefix...)
	return append(argv, command)
}

func (t *CommandTransport) FetchBytes(ctx context.Context, remotePath string) ([]byte, error) {
	command := "cat -- " + shellescape.Quote(remotePath)
	res, err := execute(ctx, t.argv(command), nil)
	if err != nil {
		return nil, err
	}
	if res.status != 0 {
		return nil, &drift.RemoteCommandError{Command: command, ExitStatus: res.status, Stderr: res.stderr}
	}
	return []byte(res.stdout), nil
}

func (t *CommandTransport) RunRemote(ctx context.Context, command string) (string, int, error) {
	t.logger.Debug("running remote command", "command", command)
	res, err := execute(ctx, t.argv(command), nil)
	if err != nil {
		return "", 0, err
	}
	if res.status != 0 {
		t.logger.Debug("remote command failed", "command", command, "status", res.status, "stderr", res.stderr)
	}
	return res.stdout, res.status, nil
}

// PutBytes streams localPath to remotePath through the remote shell.
func (t *CommandTransport) PutBytes(ctx context.Context, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: %w", drift.ErrIO, err)
	}
	defer src.Close()

	command := "cat > " + shellescape.Quote(remotePath)
	res, err := execute(ctx, t.argv(command), src)
	if err != nil {
		return err
	}
	if res.status != 0 {
		return &drift.RemoteCommandError{Command: command, ExitStatus: res.status, Stderr: res.stderr}
	}
	return nil
}
