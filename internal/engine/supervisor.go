package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/foreman/internal/cliutil"
	"github.com/Paintersrp/foreman/internal/logmux"
	"github.com/Paintersrp/foreman/internal/metrics"
	"github.com/Paintersrp/foreman/internal/procfile"
	"github.com/Paintersrp/foreman/internal/runtime"
	"github.com/Paintersrp/foreman/internal/shell"
)

// SystemLabel is the label used for lines written by the supervisor itself.
const SystemLabel = "system"

// ErrAlreadyStarted is returned when Start is called more than once.
var ErrAlreadyStarted = errors.New("supervisor already started")

// LaunchResult is the outcome of launching one Procfile entry: either an
// instance or the reason it failed to start.
type LaunchResult struct {
	Spec       procfile.Spec
	Invocation shell.Invocation
	Instance   runtime.Instance
	Err        error
}

// Started reports whether the entry is running.
func (r LaunchResult) Started() bool {
	return r.Err == nil && r.Instance != nil
}

// Exit records how one child terminated.
type Exit struct {
	Name string
	PID  int
	Code int
	Err  error
}

// Result aggregates the outcome of a supervised run.
type Result struct {
	Exits  []Exit
	Failed []LaunchResult
}

// Code is the supervisor exit status: 1 when any entry failed to start, 0
// otherwise. Children's own exit codes do not affect it.
func (r Result) Code() int {
	if len(r.Failed) > 0 {
		return 1
	}
	return 0
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEvents delivers lifecycle events to ch. Sends block until received or
// until the context passed to Start is done.
func WithEvents(ch chan<- Event) Option {
	return func(s *Supervisor) {
		s.events = ch
	}
}

// Supervisor launches a process group, relays interrupts to it and waits for
// every member to exit.
type Supervisor struct {
	launcher runtime.Launcher
	resolver *shell.Resolver
	mux      *logmux.Mux
	logger   *zap.Logger
	events   chan<- Event

	started atomic.Bool
	ctx     context.Context
	// results and running are written once by Start and read-only afterwards.
	results []LaunchResult
	running []LaunchResult
}

// NewSupervisor wires a launcher, shell resolver and output mux together.
func NewSupervisor(launcher runtime.Launcher, resolver *shell.Resolver, mux *logmux.Mux, opts ...Option) *Supervisor {
	s := &Supervisor{
		launcher: launcher,
		resolver: resolver,
		mux:      mux,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches every spec in order. A spec that fails to start is reported
// on the mux and does not prevent the remaining specs from launching.
func (s *Supervisor) Start(ctx context.Context, specs []procfile.Spec) ([]LaunchResult, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	s.ctx = ctx

	results := make([]LaunchResult, 0, len(specs))
	running := make([]LaunchResult, 0, len(specs))
	for _, spec := range specs {
		res := s.launch(ctx, spec)
		results = append(results, res)
		if res.Started() {
			running = append(running, res)
		}
	}
	s.results = results
	s.running = running
	return results, nil
}

func (s *Supervisor) launch(ctx context.Context, spec procfile.Spec) LaunchResult {
	inv := s.resolver.Resolve(spec.Shell, spec.Command)
	res := LaunchResult{Spec: spec, Invocation: inv}

	inst, err := s.launcher.Start(ctx, spec.Name, inv)
	if err != nil {
		res.Err = err
		metrics.ObserveStartFailure(spec.Name)
		s.logger.Error("process failed to start",
			zap.String("process", spec.Name),
			zap.String("command", cliutil.RedactSecrets(spec.Command)),
			zap.Error(err))
		_ = s.mux.Println(SystemLabel, 0, fmt.Sprintf("failed to start %s: %v", spec.Name, err))
		s.emit(Event{Process: spec.Name, Type: EventTypeFailed, Message: err.Error(), Err: err})
		return res
	}

	res.Instance = inst
	s.mux.Add(spec.Name, spec.Color, inst.Logs())
	metrics.ObserveProcessStarted(spec.Name)
	s.emit(Event{
		Process:  spec.Name,
		PID:      inst.PID(),
		Type:     EventTypeStarted,
		Message:  cliutil.RedactSecrets(spec.Command),
		Shell:    inv.Mode,
		CodePage: inv.CodePage,
	})
	return res
}

func (s *Supervisor) emit(evt Event) {
	sendEvent(s.ctx, s.events, evt)
}

// ForwardInterrupt attempts one interrupt delivery to every running child and
// returns the number of attempts. Delivery failures are logged and swallowed;
// nothing waits for a child to react.
//
// No output is written while deliveries are in progress: on Windows the
// supervisor is briefly detached from its console.
func (s *Supervisor) ForwardInterrupt() int {
	attempts := 0
	s.mux.Exclusive(func() {
		for _, proc := range s.running {
			attempts++
			if err := proc.Instance.Interrupt(); err != nil {
				s.logger.Debug("interrupt not delivered",
					zap.String("process", proc.Spec.Name),
					zap.Int("pid", proc.Instance.PID()),
					zap.Error(err))
			}
		}
	})
	metrics.AddInterruptsForwarded(attempts)
	s.emit(Event{Type: EventTypeInterrupt, Message: fmt.Sprintf("forwarded to %d processes", attempts)})
	return attempts
}

// HandleSignals relays every signal received on sigs to the process group
// until ctx is done or sigs is closed. The caller registers sigs with
// signal.Notify, which keeps the default handler from terminating the
// supervisor.
func (s *Supervisor) HandleSignals(ctx context.Context, sigs <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigs:
			if !ok {
				return
			}
			s.logger.Debug("forwarding signal", zap.Stringer("signal", sig))
			s.ForwardInterrupt()
		}
	}
}

// Wait blocks until every running child has exited and all of their output
// has been written, then returns the aggregate result.
func (s *Supervisor) Wait() Result {
	exits := make([]Exit, len(s.running))

	var g errgroup.Group
	for i, proc := range s.running {
		i, proc := i, proc
		g.Go(func() error {
			code, err := proc.Instance.Wait()
			exits[i] = Exit{Name: proc.Spec.Name, PID: proc.Instance.PID(), Code: code, Err: err}
			metrics.ObserveProcessExited(proc.Spec.Name, code)
			s.emit(Event{Process: proc.Spec.Name, PID: proc.Instance.PID(), Type: EventTypeExited, ExitCode: code, Err: err})
			return nil
		})
	}
	_ = g.Wait()
	s.mux.Close()

	var failed []LaunchResult
	for _, res := range s.results {
		if !res.Started() {
			failed = append(failed, res)
		}
	}
	return Result{Exits: exits, Failed: failed}
}
