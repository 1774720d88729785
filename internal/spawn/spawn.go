// Package spawn launches external programs on behalf of the window manager.
package spawn

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"

	"pluswm/pkg/core"
)

const DefaultShell = "/bin/sh"

// Spawner runs commands through a shell in their own session, so they
// survive the manager and do not receive its terminal signals.
type Spawner struct {
	shell    string
	log      core.Logger
	notifier core.Notifier

	// exited, when set, receives every reaped command; used by tests
	exited chan<- error
}

// New returns a Spawner using DefaultShell. notifier may be nil.
func New(log core.Logger, notifier core.Notifier) *Spawner {
	return &Spawner{shell: DefaultShell, log: log, notifier: notifier}
}

// Spawn starts command and returns once it is running. The child is reaped
// in the background; a non-zero exit is logged only.
func (s *Spawner) Spawn(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return errors.New("spawn: empty command")
	}

	cmd := exec.Command(s.shell, "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		err = fmt.Errorf("spawn %q: %w", command, err)
		s.notify(err)
		return err
	}
	s.log.Debug("Spawned command", "command", command, "pid", cmd.Process.Pid)

	go s.reap(cmd, command)
	return nil
}

func (s *Spawner) reap(cmd *exec.Cmd, command string) {
	err := cmd.Wait()
	if err != nil {
		s.log.Warn("Spawned command exited with error", "command", command, "error", err)
	}
	if s.exited != nil {
		s.exited <- err
	}
}

func (s *Spawner) notify(err error) {
	if s.notifier == nil {
		return
	}
	if nerr := s.notifier.Notify("pluswm", err.Error()); nerr != nil {
		s.log.Warn("Failed to show notification", "error", nerr)
	}
}
