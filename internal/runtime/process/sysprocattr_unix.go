//go:build !windows

package process

import (
	"os/exec"
	"syscall"

	"github.com/Paintersrp/foreman/internal/shell"
)

func configureCmdSysProcAttr(cmd *exec.Cmd, _ shell.Invocation) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
