package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/foreman/internal/cliutil"
	"github.com/Paintersrp/foreman/internal/shell"
)

const (
	// DefaultFile is the optional per-project settings file.
	DefaultFile         = ".foreman"
	DefaultProcfile     = "Procfile"
	DefaultEnvFile      = ".env"
	DefaultLabelWidth   = 10
	envPrefix           = "FOREMAN_"
	envListSeparator    = ","
	maxLabelWidthColumn = 64
)

// Config holds supervisor settings. Values come from defaults, then the
// .foreman file, then FOREMAN_* environment variables, then flags.
type Config struct {
	Procfile    string   `yaml:"procfile"`
	Root        string   `yaml:"root"`
	Env         []string `yaml:"env"`
	ShellType   string   `yaml:"shell_type"`
	NoColor     bool     `yaml:"no_color"`
	LogLevel    string   `yaml:"log_level"`
	MetricsAddr string   `yaml:"metrics_addr"`
	LabelWidth  int      `yaml:"label_width"`
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		Procfile:   DefaultProcfile,
		Env:        []string{DefaultEnvFile},
		LogLevel:   cliutil.DefaultLogLevel,
		LabelWidth: DefaultLabelWidth,
	}
}

// Load reads the settings file at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", path, err)
	}
	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from FOREMAN_* environment variables. Values that
// fail to parse are ignored.
func (c *Config) ApplyEnv() {
	if value := os.Getenv(envPrefix + "PROCFILE"); value != "" {
		c.Procfile = value
	}
	if value := os.Getenv(envPrefix + "ROOT"); value != "" {
		c.Root = value
	}
	if value := os.Getenv(envPrefix + "ENV"); value != "" {
		c.Env = splitList(value)
	}
	if value := os.Getenv(envPrefix + "SHELL_TYPE"); value != "" {
		if _, err := shell.ParseMode(value); err == nil {
			c.ShellType = value
		}
	}
	if value := os.Getenv(envPrefix + "NO_COLOR"); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			c.NoColor = enabled
		}
	}
	if value := os.Getenv(envPrefix + "LOG_LEVEL"); value != "" {
		if _, err := cliutil.ParseLevel(value); err == nil {
			c.LogLevel = value
		}
	}
	if value := os.Getenv(envPrefix + "METRICS_ADDR"); value != "" {
		c.MetricsAddr = value
	}
	if value := os.Getenv(envPrefix + "LABEL_WIDTH"); value != "" {
		if width, err := strconv.Atoi(value); err == nil && width > 0 && width <= maxLabelWidthColumn {
			c.LabelWidth = width
		}
	}
}

// Validate checks settings that flags and the environment can also set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Procfile) == "" {
		return errors.New("procfile path must not be empty")
	}
	if _, err := shell.ParseMode(c.ShellType); err != nil {
		return err
	}
	if _, err := cliutil.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LabelWidth < 1 || c.LabelWidth > maxLabelWidthColumn {
		return fmt.Errorf("label_width must be between 1 and %d", maxLabelWidthColumn)
	}
	return nil
}

// ShellMode returns the configured default shell.
func (c *Config) ShellMode() shell.Mode {
	mode, err := shell.ParseMode(c.ShellType)
	if err != nil {
		return shell.ModeUnset
	}
	return mode
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, envListSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
