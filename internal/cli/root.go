package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paintersrp/foreman/internal/cliutil"
	"github.com/Paintersrp/foreman/internal/config"
	"github.com/Paintersrp/foreman/internal/shell"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	ctx := &context{
		notify: func(ch chan<- os.Signal) {
			signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		},
		stop: signal.Stop,
	}

	root := &cobra.Command{
		Use:   "foreman [process]",
		Short: "Run the processes declared in a Procfile",
		Long: "foreman starts every entry of a Procfile, prefixes their output with a\n" +
			"colored label and relays Ctrl-C to all of them. Without a subcommand it\n" +
			"behaves like \"foreman start\".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, ctx, args)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&ctx.configFile, "config", config.DefaultFile, "Path to the optional settings file")
	flags.StringVarP(&ctx.flags.procfile, "procfile", "f", config.DefaultProcfile, "Path to the Procfile")
	flags.StringVarP(&ctx.flags.root, "root", "d", "", "Working directory for processes (default: the Procfile's directory)")
	flags.StringSliceVarP(&ctx.flags.env, "env", "e", []string{config.DefaultEnvFile}, "Env files loaded into every process")
	flags.StringVar(&ctx.flags.shellType, "shell-type", "", "Default shell: cmd, wsl or powershell")
	flags.BoolVar(&ctx.flags.wsl, "wsl", false, "Run entries under WSL unless a directive says otherwise")
	flags.BoolVar(&ctx.flags.noColor, "no-color", false, "Disable colored labels")
	flags.StringVar(&ctx.flags.logLevel, "log-level", cliutil.DefaultLogLevel, "Diagnostics level written to stderr")
	flags.StringVar(&ctx.flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.IntVar(&ctx.flags.labelWidth, "label-width", config.DefaultLabelWidth, "Width of the process label column")

	root.AddCommand(newStartCmd(ctx))
	root.AddCommand(newCheckCmd(ctx))
	root.AddCommand(newConfigCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint. Errors are printed to stdout, next to the
// process output, and exit with status 1.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(1)
	}
}

type context struct {
	configFile string
	flags      flagValues

	notify func(chan<- os.Signal)
	stop   func(chan<- os.Signal)
}

type flagValues struct {
	procfile    string
	root        string
	env         []string
	shellType   string
	wsl         bool
	noColor     bool
	logLevel    string
	metricsAddr string
	labelWidth  int
}

// settings layers explicitly set flags over the settings file and FOREMAN_*
// environment variables.
func (c *context) settings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("procfile") {
		cfg.Procfile = c.flags.procfile
	}
	if flags.Changed("root") {
		cfg.Root = c.flags.root
	}
	if flags.Changed("env") {
		cfg.Env = c.flags.env
	}
	if flags.Changed("shell-type") {
		cfg.ShellType = c.flags.shellType
	}
	if c.flags.wsl {
		cfg.ShellType = shell.ModeWSL.String()
	}
	if flags.Changed("no-color") {
		cfg.NoColor = c.flags.noColor
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.flags.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = c.flags.metricsAddr
	}
	if flags.Changed("label-width") {
		cfg.LabelWidth = c.flags.labelWidth
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// output returns the writer process lines go to and whether labels are
// colored. Color needs a terminal on stdout.
func (c *context) output(cmd *cobra.Command, noColor bool) (io.Writer, bool) {
	out := cmd.OutOrStdout()
	file, ok := out.(*os.File)
	if !ok {
		return out, false
	}
	if noColor || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(file.Fd())) {
		return file, false
	}
	return colorable.NewColorable(file), true
}
