package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fsdrift/internal/drift"
)

// MockTransport is an in-memory remote host. It understands "test -e PATH"
// and "mv -- SRC DST" commands against its file map; any other command returns
// the scripted output registered with SetOutput, or exit status 127.
type MockTransport struct {
	mu       sync.Mutex
	files    map[string][]byte
	outputs  map[string]string
	Commands []string

	// FetchErr, when set, is returned by FetchBytes.
	FetchErr error
	// FailCommand makes RunRemote exit with status 1 for the command with this prefix.
	FailCommand string
}

var _ drift.Transport = (*MockTransport)(nil)

func NewMockTransport() *MockTransport {
	return &MockTransport{
		files:   make(map[string][]byte),
		outputs: make(map[string]string),
	}
}

// AddFile stores content at path on the fake host.
func (m *MockTransport) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// HasFile reports whether path exists on the fake host.
func (m *MockTransport) HasFile(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

// SetOutput registers the stdout returned for command.
func (m *MockTransport) SetOutput(command, stdout string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[command] = stdout
}

func (m *MockTransport) FetchBytes(_ context.Context, remotePath string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	data, ok := m.files[remotePath]
	if !ok {
		return nil, fmt.Errorf("%w: %s: No such file or directory", drift.ErrTransport, remotePath)
	}
	return data, nil
}

func (m *MockTransport) RunRemote(_ context.Context, command string) (string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = append(m.Commands, command)

	if m.FailCommand != "" && strings.HasPrefix(command, m.FailCommand) {
		return "", 1, nil
	}
	if out, ok := m.outputs[command]; ok {
		return out, 0, nil
	}

	fields := strings.Fields(command)
	if len(fields) == 3 && fields[0] == "test" && fields[1] == "-e" {
		if _, ok := m.files[unquote(fields[2])]; ok {
			return "", 0, nil
		}
		return "", 1, nil
	}
	if len(fields) == 4 && fields[0] == "mv" && fields[1] == "--" {
		src, dst := unquote(fields[2]), unquote(fields[3])
		data, ok := m.files[src]
		if !ok {
			return "", 1, nil
		}
		delete(m.files, src)
		m.files[dst] = data
		return "", 0, nil
	}
	return "", 127, nil
}

func (m *MockTransport) PutBytes(_ context.Context, localPath, remotePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[remotePath] = []byte(localPath)
	return nil
}

func unquote(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, "'"), "'")
}

// StubExtractor returns fixed text and records the paths it was asked to read.
type StubExtractor struct {
	Text  string
	Err   error
	Paths []string
}

var _ drift.TextExtractor = (*StubExtractor)(nil)

func (e *StubExtractor) ExtractText(_ context.Context, path string) (string, error) {
	e.Paths = append(e.Paths, path)
	if e.Err != nil {
		return "", e.Err
	}
	return e.Text, nil
}

// RecordingSummarizer records every text it receives.
type RecordingSummarizer struct {
	Result string
	Err    error
	Calls  []string
}

var _ drift.Summarizer = (*RecordingSummarizer)(nil)

func (s *RecordingSummarizer) Summarize(_ context.Context, text string) (string, error) {
	s.Calls = append(s.Calls, text)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Result, nil
}

// StaticTreeSource returns the same tree for every root, or Err.
type StaticTreeSource struct {
	Tree  *drift.Entry
	Err   error
	Roots []string
}

var _ drift.TreeSource = (*StaticTreeSource)(nil)

func (s *StaticTreeSource) Build(ctx context.Context, root string) (*drift.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.Roots = append(s.Roots, root)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Tree, nil
}
