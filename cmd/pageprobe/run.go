package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cboone/pageprobe"
	"github.com/cboone/pageprobe/internal/config"
	"github.com/cboone/pageprobe/internal/htmldriver"
	"github.com/cboone/pageprobe/internal/suite"
)

// errCasesFailed is returned when the run completed but a case failed.
var errCasesFailed = errors.New("acceptance run failed")

type runFlags struct {
	configPath   string
	driver       string
	chrome       string
	headless     bool
	windowSize   string
	timeout      time.Duration
	waitTimeout  time.Duration
	pollInterval time.Duration
	backoff      bool
	json         bool
	verbose      bool
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [fixture]",
		Short: "Run the acceptance cases against a fixture page",
		Long: `Run opens one browser session on the fixture page and runs the
acceptance cases in order, stopping at the first failure.

Without a fixture argument the bundled page is used. Settings are read from
pageprobe.yaml (or --config), then PAGEPROBE_* environment variables, then
flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	flags.StringVar(&f.driver, "driver", config.DriverChrome, `driver to run with: "chrome" or "static"`)
	flags.StringVar(&f.chrome, "chrome", "", "Chrome binary (default $PAGEPROBE_CHROME, then a PATH search)")
	flags.BoolVar(&f.headless, "headless", true, "hide the browser window")
	flags.StringVar(&f.windowSize, "window-size", "1920x1080", "browser window size, WIDTHxHEIGHT")
	flags.DurationVar(&f.timeout, "timeout", 2*time.Minute, "deadline for the whole run")
	flags.DurationVar(&f.waitTimeout, "wait-timeout", 5*time.Second, "default timeout for waits")
	flags.DurationVar(&f.pollInterval, "poll-interval", 50*time.Millisecond, "default polling interval for waits")
	flags.BoolVar(&f.backoff, "backoff", false, "back off exponentially between polls, up to the poll interval")
	flags.BoolVar(&f.json, "json", false, "write the report as JSON")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "log debug output to stderr")
	return cmd
}

func runSuite(cmd *cobra.Command, args []string, f runFlags) error {
	cfg, err := config.Load(f.configPath, nil)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg, f); err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Fixture = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(logrus.InfoLevel)
	if f.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	fixture := cfg.Fixture
	if fixture == "" {
		dir, err := os.MkdirTemp("", "pageprobe-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		if fixture, err = suite.WriteFixture(dir); err != nil {
			return err
		}
	}

	opts := append(cfg.Options(), pageprobe.WithLogger(log))
	if cfg.Driver == config.DriverStatic {
		drv := htmldriver.New(htmldriver.WithScript(suite.Script(suite.DynamicDelay)))
		opts = append(opts, pageprobe.WithLauncher(drv.Launcher()))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	result, runErr := pageprobe.Execute(ctx, fixture, suite.Cases(), opts...)

	out := cmd.OutOrStdout()
	if f.json {
		err = pageprobe.WriteJSONReport(out, result)
	} else {
		err = pageprobe.WriteReport(out, result)
	}
	if err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if failed, ok := result.FirstFailure(); ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "FAILED %s: %s\n", failed.Name, failed.Detail)
		return errCasesFailed
	}
	return nil
}

// applyFlags copies flags the user set over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f runFlags) error {
	changed := cmd.Flags().Changed
	if changed("driver") {
		cfg.Driver = f.driver
	}
	if changed("chrome") {
		cfg.ChromePath = f.chrome
	}
	if changed("headless") {
		cfg.Headless = f.headless
	}
	if changed("window-size") {
		var w, h int
		if _, err := fmt.Sscanf(f.windowSize, "%dx%d", &w, &h); err != nil {
			return fmt.Errorf("invalid --window-size %q: want WIDTHxHEIGHT", f.windowSize)
		}
		cfg.WindowWidth, cfg.WindowHeight = w, h
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("wait-timeout") {
		cfg.WaitTimeout = f.waitTimeout
	}
	if changed("poll-interval") {
		cfg.PollInterval = f.pollInterval
	}
	if changed("backoff") {
		cfg.Backoff = f.backoff
	}
	return nil
}
