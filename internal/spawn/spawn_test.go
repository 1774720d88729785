package spawn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pluswm/pkg/logger"
)

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(title, message string) error {
	n.messages = append(n.messages, title+": "+message)
	return nil
}

func waitExit(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("spawned command was not reaped")
		return nil
	}
}

func TestSpawnRunsThroughShell(t *testing.T) {
	exited := make(chan error, 1)
	s := New(logger.Nop(), nil)
	s.exited = exited

	require.NoError(t, s.Spawn("exit 0"))
	assert.NoError(t, waitExit(t, exited))

	require.NoError(t, s.Spawn("exit 3"))
	assert.Error(t, waitExit(t, exited))
}

func TestSpawnFailureNotifies(t *testing.T) {
	n := &recordingNotifier{}
	s := New(logger.Nop(), n)
	s.shell = "/nonexistent/shell"

	err := s.Spawn("xterm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `spawn "xterm"`)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "pluswm: ")
}

func TestSpawnRejectsEmptyCommand(t *testing.T) {
	n := &recordingNotifier{}
	s := New(logger.Nop(), n)
	assert.Error(t, s.Spawn("   "))
	assert.Empty(t, n.messages)
}
