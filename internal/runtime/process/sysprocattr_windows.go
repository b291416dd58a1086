//go:build windows

package process

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/Paintersrp/foreman/internal/shell"
)

// configureCmdSysProcAttr gives the child its own hidden console. Interrupt
// attaches to that console to raise CTRL_C_EVENT. No new process group is
// requested because that would make the child ignore Ctrl-C.
func configureCmdSysProcAttr(cmd *exec.Cmd, inv shell.Invocation) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine:       inv.CmdLine,
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
