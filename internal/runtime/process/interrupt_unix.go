//go:build !windows

package process

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Interrupt sends SIGINT to the child's process group. A group that has
// already gone away is not an error.
func (p *processInstance) Interrupt() error {
	if p.cmd.Process == nil || p.exited() {
		return nil
	}
	if err := unix.Kill(-p.cmd.Process.Pid, unix.SIGINT); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("interrupt process group %s: %w", p.name, err)
	}
	return nil
}
