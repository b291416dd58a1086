//go:build windows

package process

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

const attachParentProcess = ^uint32(0)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procAttachConsole         = kernel32.NewProc("AttachConsole")
	procFreeConsole           = kernel32.NewProc("FreeConsole")
	procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")

	// The console a process is attached to is process-wide state.
	consoleMu sync.Mutex
)

// Interrupt raises CTRL_C_EVENT on the child's console. The supervisor
// detaches from its own console, attaches to the child's, generates the
// event while ignoring Ctrl-C itself, then reattaches to its parent console.
func (p *processInstance) Interrupt() error {
	if p.cmd.Process == nil || p.exited() {
		return nil
	}

	consoleMu.Lock()
	defer consoleMu.Unlock()

	freeConsole()
	defer func() {
		freeConsole()
		_, _, _ = procAttachConsole.Call(uintptr(attachParentProcess))
		_, _, _ = procSetConsoleCtrlHandler.Call(0, 0)
	}()

	if ok, _, err := procAttachConsole.Call(uintptr(p.cmd.Process.Pid)); ok == 0 {
		return fmt.Errorf("attach console of %s: %w", p.name, err)
	}
	_, _, _ = procSetConsoleCtrlHandler.Call(0, 1)
	if err := windows.GenerateConsoleCtrlEvent(windows.CTRL_C_EVENT, 0); err != nil {
		return fmt.Errorf("send ctrl-c to %s: %w", p.name, err)
	}
	return nil
}

func freeConsole() {
	_, _, _ = procFreeConsole.Call()
}
