package runtime

import (
	"context"

	"github.com/Paintersrp/foreman/internal/shell"
)

const (
	LogSourceStdout = "stdout"
	LogSourceStderr = "stderr"
	// LogSourceSystem marks lines produced by the supervisor itself.
	LogSourceSystem = "foreman"
)

// LogEntry is a single decoded line of child output.
type LogEntry struct {
	Message string
	Source  string
}

// Instance represents a single running child process.
type Instance interface {
	// PID returns the operating system process id.
	PID() int

	// Logs returns a channel of output lines from both streams. The channel is
	// closed once both streams reach end of file.
	Logs() <-chan LogEntry

	// Wait blocks until the process exits and returns its exit code. A non-nil
	// error means the exit status could not be observed. Wait may be called
	// from several goroutines.
	Wait() (int, error)

	// Interrupt delivers a best-effort Ctrl-C to the process group. It does
	// not wait for the process to react.
	Interrupt() error
}

// Launcher starts child processes from resolved invocations.
type Launcher interface {
	// Start launches the invocation under the given display name.
	Start(ctx context.Context, name string, inv shell.Invocation) (Instance, error)
}
