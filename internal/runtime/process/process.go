package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/text/transform"

	"github.com/Paintersrp/foreman/internal/runtime"
	"github.com/Paintersrp/foreman/internal/shell"
)

const (
	defaultLogBuffer = 64
	maxLineBytes     = 1024 * 1024
)

// Option configures a Launcher.
type Option func(*Launcher)

// WithDir sets the working directory of launched processes.
func WithDir(dir string) Option {
	return func(l *Launcher) {
		l.dir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env map[string]string) Option {
	return func(l *Launcher) {
		l.env = env
	}
}

// WithLogBuffer sets the capacity of each instance's log channel.
func WithLogBuffer(size int) Option {
	return func(l *Launcher) {
		if size > 0 {
			l.logBuffer = size
		}
	}
}

// Launcher starts Procfile commands as local child processes.
type Launcher struct {
	dir       string
	env       map[string]string
	logBuffer int
}

// New constructs a launcher that executes commands as local processes.
func New(opts ...Option) *Launcher {
	l := &Launcher{logBuffer: defaultLogBuffer}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ runtime.Launcher = (*Launcher)(nil)

// Start launches inv with both output streams captured. The child runs in its
// own process group so console interrupts reach it only through Interrupt.
func (l *Launcher) Start(ctx context.Context, name string, inv shell.Invocation) (runtime.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if inv.Path == "" {
		return nil, fmt.Errorf("process %s requires a command", name)
	}

	cmd := exec.Command(inv.Path, inv.Args...)
	if l.dir != "" {
		cmd.Dir = l.dir
	}
	env := os.Environ()
	for k, v := range l.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("process %s stdout: %w", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("process %s stderr: %w", name, err)
	}

	configureCmdSysProcAttr(cmd, inv)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start process %s: %w", name, err)
	}

	inst := &processInstance{
		name:     name,
		cmd:      cmd,
		logs:     make(chan runtime.LogEntry, l.logBuffer),
		waitDone: make(chan struct{}),
		exitCode: -1,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go inst.streamLogs(decode(stdout, inv), runtime.LogSourceStdout, &wg)
	go inst.streamLogs(decode(stderr, inv), runtime.LogSourceStderr, &wg)

	go func() {
		// The pipes must be fully read before Wait closes them.
		wg.Wait()
		close(inst.logs)
		inst.exitCode, inst.waitErr = exitStatus(cmd.Wait())
		close(inst.waitDone)
	}()

	return inst, nil
}

type processInstance struct {
	name string
	cmd  *exec.Cmd
	logs chan runtime.LogEntry

	waitDone chan struct{}
	exitCode int
	waitErr  error
}

func (p *processInstance) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *processInstance) Logs() <-chan runtime.LogEntry {
	return p.logs
}

func (p *processInstance) Wait() (int, error) {
	<-p.waitDone
	return p.exitCode, p.waitErr
}

func (p *processInstance) exited() bool {
	select {
	case <-p.waitDone:
		return true
	default:
		return false
	}
}

func (p *processInstance) streamLogs(r io.Reader, source string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		p.logs <- runtime.LogEntry{Message: line, Source: source}
	}
	if err := scanner.Err(); err != nil {
		p.logs <- runtime.LogEntry{
			Message: fmt.Sprintf("%s stream error: %v", source, err),
			Source:  runtime.LogSourceSystem,
		}
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
}

func decode(r io.Reader, inv shell.Invocation) io.Reader {
	if inv.Encoding == nil {
		return r
	}
	return transform.NewReader(r, inv.Encoding.NewDecoder())
}

func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
