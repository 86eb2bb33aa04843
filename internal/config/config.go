// Package config loads run settings from a YAML file and PAGEPROBE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mstoykov/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/cboone/pageprobe"
)

// DefaultFile is the project config file looked up in the working
// directory when no path is given.
const DefaultFile = "pageprobe.yaml"

// Driver names.
const (
	DriverChrome = "chrome"
	DriverStatic = "static"
)

// Config holds the settings of one run. Later sources override earlier
// ones: defaults, the YAML file, the environment, then command-line flags.
//
// An empty Fixture means the bundled fixture. Driver is "chrome" or
// "static". Timeout bounds the whole run, browser start-up included;
// WaitTimeout is the default for each wait.
type Config struct {
	Fixture      string        `yaml:"fixture" envconfig:"PAGEPROBE_FIXTURE"`
	Driver       string        `yaml:"driver" envconfig:"PAGEPROBE_DRIVER"`
	ChromePath   string        `yaml:"chrome" envconfig:"PAGEPROBE_CHROME"`
	Headless     bool          `yaml:"headless" envconfig:"PAGEPROBE_HEADLESS"`
	WindowWidth  int           `yaml:"window_width" envconfig:"PAGEPROBE_WINDOW_WIDTH"`
	WindowHeight int           `yaml:"window_height" envconfig:"PAGEPROBE_WINDOW_HEIGHT"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"PAGEPROBE_TIMEOUT"`
	WaitTimeout  time.Duration `yaml:"wait_timeout" envconfig:"PAGEPROBE_WAIT_TIMEOUT"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"PAGEPROBE_POLL_INTERVAL"`
	Backoff      bool          `yaml:"backoff" envconfig:"PAGEPROBE_BACKOFF"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Driver:       DriverChrome,
		Headless:     true,
		WindowWidth:  1920,
		WindowHeight: 1080,
		Timeout:      2 * time.Minute,
		WaitTimeout:  5 * time.Second,
		PollInterval: 50 * time.Millisecond,
	}
}

// Load returns the defaults overlaid with the YAML file at path and the
// environment seen through lookup. An empty path reads DefaultFile if it
// exists. A nil lookup reads the process environment.
func Load(path string, lookup func(key string) (string, bool)) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := envconfig.Process("", &cfg, lookup); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverChrome, DriverStatic:
	default:
		return fmt.Errorf("config: unknown driver %q (want %q or %q)", c.Driver, DriverChrome, DriverStatic)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("config: window size must be positive, got %dx%d", c.WindowWidth, c.WindowHeight)
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"timeout", c.Timeout},
		{"wait timeout", c.WaitTimeout},
		{"poll interval", c.PollInterval},
	} {
		if d.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", d.name, d.value)
		}
	}
	return nil
}

// Options converts the settings to session options. Driver selection is
// left to the caller.
func (c Config) Options() []pageprobe.Option {
	opts := []pageprobe.Option{
		pageprobe.WithHeadless(c.Headless),
		pageprobe.WithWindowSize(c.WindowWidth, c.WindowHeight),
		pageprobe.WithTimeout(c.WaitTimeout),
		pageprobe.WithPollInterval(c.PollInterval),
	}
	if c.ChromePath != "" {
		opts = append(opts, pageprobe.WithChromePath(c.ChromePath))
	}
	if c.Backoff {
		opts = append(opts, pageprobe.WithBackoff())
	}
	return opts
}
