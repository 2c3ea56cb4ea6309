package transport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsdrift/internal/config"
	"fsdrift/internal/drift"
)

func configFor(typ, command string) config.TransportConfig {
	return config.TransportConfig{Type: typ, Command: command}
}

// scriptedTransport answers RunRemote from a fixed table.
type scriptedTransport struct {
	outputs  map[string]string
	statuses map[string]int
	puts     map[string]string
	commands []string
}

func (s *scriptedTransport) FetchBytes(context.Context, string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *scriptedTransport) RunRemote(ctx context.Context, command string) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	s.commands = append(s.commands, command)
	if status, ok := s.statuses[command]; ok {
		return "", status, nil
	}
	return s.outputs[command], 0, nil
}

func (s *scriptedTransport) PutBytes(_ context.Context, localPath, remotePath string) error {
	if s.puts == nil {
		s.puts = make(map[string]string)
	}
	s.puts[remotePath] = localPath
	return nil
}

func TestRemoteTreeSource_Build(t *testing.T) {
	t.Parallel()
	st := &scriptedTransport{outputs: map[string]string{
		"/opt/fsdrift tree /home/me": `{"path":"/home/me","name":"me","is_dir":true,"size":0,"modified":10,"children":[
			{"path":"/home/me/a.txt","name":"a.txt","is_dir":false,"size":5,"modified":100,"children":null}]}`,
	}}

	src := NewRemoteTreeSource(st, "/opt/fsdrift", nil, drift.NewNopLogger())
	tree, err := src.Build(context.Background(), "/home/me")
	require.NoError(t, err)
	assert.Equal(t, "me", tree.Name)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, uint64(100), tree.Children[0].Modified)
	assert.Nil(t, tree.Children[0].Children)
}

func TestRemoteTreeSource_ForwardsIgnorePatterns(t *testing.T) {
	t.Parallel()
	st := &scriptedTransport{outputs: map[string]string{}}
	src := NewRemoteTreeSource(st, "/opt/fsdrift", []string{"*.log", "node_modules/", "my cache"}, drift.NewNopLogger())

	want := `/opt/fsdrift tree /home/me --ignore '*.log' --ignore node_modules/ --ignore 'my cache'`
	assert.Equal(t, want, src.Command("/home/me"))

	st.outputs[want] = `{"path":"/home/me","name":"me","is_dir":true,"size":0,"modified":10,"children":[]}`
	_, err := src.Build(context.Background(), "/home/me")
	require.NoError(t, err)
	assert.Equal(t, []string{want}, st.commands)
}

func TestRemoteTreeSource_Cancelled(t *testing.T) {
	t.Parallel()
	st := &scriptedTransport{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRemoteTreeSource(st, "/opt/fsdrift", nil, drift.NewNopLogger()).Build(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, st.commands)
}

func TestRemoteTreeSource_MissingHelper(t *testing.T) {
	t.Parallel()
	st := &scriptedTransport{statuses: map[string]int{"/opt/fsdrift tree /": 127}}

	_, err := NewRemoteTreeSource(st, "/opt/fsdrift", nil, drift.NewNopLogger()).Build(context.Background(), "/")
	require.Error(t, err)
	assert.ErrorIs(t, err, drift.ErrTransport)
	assert.Contains(t, drift.Suggestion(err), "fsdrift deploy")
}

func TestRemoteTreeSource_BadJSON(t *testing.T) {
	t.Parallel()
	st := &scriptedTransport{outputs: map[string]string{"/opt/fsdrift tree /": "bash: warning\n"}}

	_, err := NewRemoteTreeSource(st, "/opt/fsdrift", nil, drift.NewNopLogger()).Build(context.Background(), "/")
	assert.ErrorIs(t, err, drift.ErrParse)
}

func TestDeploy(t *testing.T) {
	t.Parallel()
	st := &scriptedTransport{}

	require.NoError(t, Deploy(context.Background(), st, "/usr/local/bin/fsdrift", "/opt/fsdrift"))
	assert.Equal(t, "/usr/local/bin/fsdrift", st.puts["/opt/fsdrift"])
	assert.Equal(t, []string{"chmod +x -- /opt/fsdrift"}, st.commands)
}

func TestDeploy_Local(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "fsdrift")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\necho ok\n"), 0o644))
	dst := filepath.Join(dir, "remote", "fsdrift")

	tr := NewLocalTransport(drift.NewNopLogger())
	require.NoError(t, Deploy(context.Background(), tr, src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "deployed helper should be executable")

	out, status, err := tr.RunRemote(context.Background(), dst)
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "ok\n", out)
}
