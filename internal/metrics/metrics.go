package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultReadHeader      = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

var (
	registry = prometheus.NewRegistry()

	processesRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "foreman",
		Name:      "processes_running",
		Help:      "Number of child processes currently running.",
	})

	processStarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foreman",
		Name:      "process_starts_total",
		Help:      "Total number of child processes started per Procfile entry.",
	}, []string{"process"})

	processStartFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foreman",
		Name:      "process_start_failures_total",
		Help:      "Total number of Procfile entries that failed to start.",
	}, []string{"process"})

	processExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foreman",
		Name:      "process_exits_total",
		Help:      "Total number of child process exits by exit code.",
	}, []string{"process", "code"})

	interruptsForwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "foreman",
		Name:      "interrupts_forwarded_total",
		Help:      "Total number of interrupt deliveries attempted to child processes.",
	})

	outputLines = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foreman",
		Name:      "output_lines_total",
		Help:      "Total number of output lines relayed per process and stream.",
	}, []string{"process", "stream"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "foreman",
		Name:      "build_info",
		Help:      "Build metadata for the running foreman binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(
		processesRunning,
		processStarts,
		processStartFailures,
		processExits,
		interruptsForwarded,
		outputLines,
		buildInfo,
	)
}

// ObserveProcessStarted records a successful launch.
func ObserveProcessStarted(process string) {
	processStarts.WithLabelValues(label(process)).Inc()
	processesRunning.Inc()
}

// ObserveStartFailure records a Procfile entry that could not be launched.
func ObserveStartFailure(process string) {
	processStartFailures.WithLabelValues(label(process)).Inc()
}

// ObserveProcessExited records a child exit.
func ObserveProcessExited(process string, code int) {
	processExits.WithLabelValues(label(process), strconv.Itoa(code)).Inc()
	processesRunning.Dec()
}

// AddInterruptsForwarded counts interrupt delivery attempts.
func AddInterruptsForwarded(n int) {
	if n <= 0 {
		return
	}
	interruptsForwarded.Add(float64(n))
}

// ObserveOutputLine counts one relayed output line.
func ObserveOutputLine(process, stream string) {
	outputLines.WithLabelValues(label(process), stream).Inc()
}

func label(process string) string {
	if process == "" {
		return "unknown"
	}
	return process
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}

// Handler serves the foreman registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on the listener until ctx is cancelled.
func Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: defaultReadHeader,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
