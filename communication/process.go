package communication

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Subprocess is an external agent process the scheduler is responsible for
// tearing down. Spawning is done here; the wire protocol the process speaks
// is whatever Listener accepts.
type Subprocess struct {
	cmd *exec.Cmd
}

// Spawn starts the agent command with the master's address appended as the
// final argument. Its output goes to the parent's stderr so agent prints
// stay visible but never mix into the summary line on stdout.
func Spawn(command string, args ...string) (*Subprocess, error) {
	cmd := exec.Command(command, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", command, err)
	}
	log.Debug().Str("command", command).Int("pid", cmd.Process.Pid).Msg("spawned agent process")
	return &Subprocess{cmd: cmd}, nil
}

// Shutdown terminates the process gracefully: SIGTERM, wait up to grace,
// then SIGKILL.
func (s *Subprocess) Shutdown(grace time.Duration) error {
	if s.cmd.Process == nil {
		return nil
	}
	waited := make(chan error, 1)
	go func() {
		waited <- s.cmd.Wait()
	}()

	_ = s.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case err := <-waited:
		return ignoreExitError(err)
	case <-time.After(grace):
		log.Warn().Int("pid", s.cmd.Process.Pid).Msg("agent process ignored SIGTERM, killing")
		_ = s.cmd.Process.Kill()
		return ignoreExitError(<-waited)
	}
}

// ignoreExitError drops the error a terminated-by-signal process reports:
// the teardown itself caused it.
func ignoreExitError(err error) error {
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return err
}
