package cli

import (
	stdcontext "context"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Paintersrp/foreman/internal/cliutil"
	"github.com/Paintersrp/foreman/internal/config"
	"github.com/Paintersrp/foreman/internal/engine"
	"github.com/Paintersrp/foreman/internal/logmux"
	"github.com/Paintersrp/foreman/internal/metrics"
	"github.com/Paintersrp/foreman/internal/procfile"
	"github.com/Paintersrp/foreman/internal/runtime/process"
	"github.com/Paintersrp/foreman/internal/shell"
)

func newStartCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [process]",
		Short: "Start every Procfile entry, or only the named one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, ctx, args)
		},
	}
	return cmd
}

func runStart(cmd *cobra.Command, ctx *context, args []string) error {
	cfg, err := ctx.settings(cmd)
	if err != nil {
		return err
	}

	logger, err := cliutil.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	specs, err := procfile.ParseFile(cfg.Procfile)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		specs, err = selectProcess(specs, args[0])
		if err != nil {
			return err
		}
	}
	if len(specs) == 0 {
		logger.Warn("no processes defined", zap.String("procfile", cfg.Procfile))
	}

	env, err := config.LoadEnvFiles(cfg.Env, cmd.Flags().Changed("env"))
	if err != nil {
		return err
	}
	dir, err := config.ResolveRoot(cfg.Procfile, cfg.Root)
	if err != nil {
		return err
	}

	runCtx, cancel := stdcontext.WithCancel(cmd.Context())
	defer cancel()

	if cfg.MetricsAddr != "" {
		if err := serveMetrics(runCtx, cfg.MetricsAddr, logger); err != nil {
			return err
		}
	}

	out, colored := ctx.output(cmd, cfg.NoColor)
	mux := logmux.New(out, logmux.WithWidth(cfg.LabelWidth), logmux.WithColor(colored))

	// Registered before any child exists so an early Ctrl-C is relayed
	// instead of terminating the supervisor.
	sigs := make(chan os.Signal, 1)
	ctx.notify(sigs)
	defer ctx.stop(sigs)

	events := make(chan engine.Event)
	observerCtx, stopObserver := stdcontext.WithCancel(runCtx)
	observerDone := make(chan struct{})
	go func() {
		defer close(observerDone)
		logEvents(observerCtx, logger, events)
	}()
	defer func() {
		stopObserver()
		<-observerDone
	}()

	launcher := process.New(process.WithDir(dir), process.WithEnv(env))
	sup := engine.NewSupervisor(launcher, shell.NewResolver(cfg.ShellMode()), mux,
		engine.WithLogger(logger),
		engine.WithEvents(events))

	logger.Debug("starting processes",
		zap.String("procfile", cfg.Procfile),
		zap.String("root", dir),
		zap.Strings("processes", procfile.Names(specs)),
		zap.Int("env", len(env)))
	if _, err := sup.Start(runCtx, specs); err != nil {
		return err
	}
	go sup.HandleSignals(runCtx, sigs)

	result := sup.Wait()
	if result.Code() != 0 {
		return fmt.Errorf("%d of %d processes failed to start", len(result.Failed), len(specs))
	}
	return nil
}

// logEvents writes supervisor lifecycle events to the diagnostics log until
// ctx is done. Launch failures are already logged by the supervisor.
func logEvents(ctx stdcontext.Context, logger *zap.Logger, events <-chan engine.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			switch evt.Type {
			case engine.EventTypeStarted:
				logger.Debug("process started",
					zap.String("process", evt.Process),
					zap.Int("pid", evt.PID),
					zap.Stringer("shell", evt.Shell),
					zap.Int("code_page", evt.CodePage),
					zap.String("command", evt.Message))
			case engine.EventTypeExited:
				logger.Debug("process exited",
					zap.String("process", evt.Process),
					zap.Int("pid", evt.PID),
					zap.Int("code", evt.ExitCode),
					zap.Error(evt.Err))
			case engine.EventTypeInterrupt:
				logger.Info("interrupt relayed", zap.String("detail", evt.Message))
			}
		}
	}
}

// selectProcess keeps the entries named name. Palette colors stay those of
// the full file.
func selectProcess(specs []procfile.Spec, name string) ([]procfile.Spec, error) {
	var selected []procfile.Spec
	for _, spec := range specs {
		if spec.Name == name {
			selected = append(selected, spec)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("unknown process %q", name)
	}
	return selected, nil
}

func serveMetrics(ctx stdcontext.Context, addr string, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen for metrics: %w", err)
	}
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := metrics.Serve(ctx, ln); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return nil
}
