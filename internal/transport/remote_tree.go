package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"fsdrift/internal/drift"
)

// RemoteTreeSource captures a tree by running the fsdrift helper on the remote
// host and decoding the JSON it prints.
type RemoteTreeSource struct {
	transport drift.Transport
	binary    string
	ignore    []string
	logger    drift.Logger
}

var _ drift.TreeSource = (*RemoteTreeSource)(nil)

// NewRemoteTreeSource creates a source that runs binary on the remote host.
// ignorePatterns are forwarded to the helper as --ignore flags.
func NewRemoteTreeSource(transport drift.Transport, binary string, ignorePatterns []string, logger drift.Logger) *RemoteTreeSource {
	return &RemoteTreeSource{transport: transport, binary: binary, ignore: ignorePatterns, logger: logger}
}

// Command returns the shell command that captures root on the remote host.
func (s *RemoteTreeSource) Command(root string) string {
	var b strings.Builder
	b.WriteString(shellescape.Quote(s.binary))
	b.WriteString(" tree ")
	b.WriteString(shellescape.Quote(root))
	for _, p := range s.ignore {
		b.WriteString(" --ignore ")
		b.WriteString(shellescape.Quote(p))
	}
	return b.String()
}

func (s *RemoteTreeSource) Build(ctx context.Context, root string) (*drift.Entry, error) {
	command := s.Command(root)
	s.logger.Debug("capturing remote tree", "command", command)

	out, status, err := s.transport.RunRemote(ctx, command)
	if err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, &drift.RemoteCommandError{Command: command, ExitStatus: status}
	}

	var tree drift.Entry
	if err := json.Unmarshal([]byte(out), &tree); err != nil {
		return nil, fmt.Errorf("%w: decoding remote tree: %w", drift.ErrParse, err)
	}
	return &tree, nil
}

// Deploy installs the executable at localPath on the remote host as remotePath.
func Deploy(ctx context.Context, t drift.Transport, localPath, remotePath string) error {
	if err := t.PutBytes(ctx, localPath, remotePath); err != nil {
		return fmt.Errorf("uploading %s: %w", localPath, err)
	}
	command := "chmod +x -- " + shellescape.Quote(remotePath)
	_, status, err := t.RunRemote(ctx, command)
	if err != nil {
		return err
	}
	if status != 0 {
		return &drift.RemoteCommandError{Command: command, ExitStatus: status}
	}
	return nil
}
