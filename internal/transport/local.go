package transport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fsdrift/internal/drift"
)

// LocalTransport operates on the machine fsdrift runs on.
type LocalTransport struct {
	logger drift.Logger
}

var _ drift.Transport = (*LocalTransport)(nil)

func NewLocalTransport(logger drift.Logger) *LocalTransport {
	return &LocalTransport{logger: logger}
}

func (t *LocalTransport) FetchBytes(ctx context.Context, remotePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(remotePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", drift.ErrTransport, err)
	}
	return data, nil
}

func (t *LocalTransport) RunRemote(ctx context.Context, command string) (string, int, error) {
	t.logger.Debug("running local command", "command", command)
	res, err := execute(ctx, []string{"sh", "-c", command}, nil)
	if err != nil {
		return "", 0, err
	}
	if res.status != 0 {
		t.logger.Debug("local command failed", "command", command, "status", res.status, "stderr", res.stderr)
	}
	return res.stdout, res.status, nil
}

// PutBytes copies localPath to remotePath, replacing it atomically.
func (t *LocalTransport) PutBytes(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: %w", drift.ErrIO, err)
	}
	defer src.Close()

	dir := filepath.Dir(remotePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", drift.ErrTransport, err)
	}
	tmp, err := os.CreateTemp(dir, ".fsdrift-put-*")
	if err != nil {
		return fmt.Errorf("%w: %w", drift.ErrTransport, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: copying to %s: %w", drift.ErrTransport, remotePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", drift.ErrTransport, err)
	}
	if err := os.Rename(tmpPath, remotePath); err != nil {
		return fmt.Errorf("%w: %w", drift.ErrTransport, err)
	}
	return nil
}
