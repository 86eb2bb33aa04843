package pageprobe

import (
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/cboone/pageprobe/driver"
)

type options struct {
	launcher     driver.Launcher
	chromePath   string
	headless     bool
	width        int
	height       int
	timeout      time.Duration
	pollInterval time.Duration
	backoff      bool
	logger       logrus.FieldLogger
	clock        clock.Clock
}

// Option configures a Session created by Open.
type Option func(*options)

// WithLauncher replaces the default Chrome launcher.
func WithLauncher(l driver.Launcher) Option {
	return func(o *options) {
		o.launcher = l
	}
}

// WithChromePath sets the Chrome binary used by the default launcher. The
// PAGEPROBE_CHROME environment variable is used when this is not set.
func WithChromePath(path string) Option {
	return func(o *options) {
		o.chromePath = path
	}
}

// WithHeadless controls whether the default launcher hides the browser
// window. Defaults to true.
func WithHeadless(headless bool) Option {
	return func(o *options) {
		o.headless = headless
	}
}

// WithWindowSize sets the browser window size (width x height). Headless
// browsers cannot be maximized, so this is their viewport.
func WithWindowSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithTimeout sets the default timeout for WaitUntil. Zero keeps the
// built-in default of 5s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d == 0 {
			d = defaultTimeout
		}
		o.timeout = d
	}
}

// WithPollInterval sets the default polling interval for WaitUntil.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithBackoff makes WaitUntil start polling quickly and back off
// exponentially, never waiting longer than the poll interval between
// attempts.
func WithBackoff() Option {
	return func(o *options) {
		o.backoff = true
	}
}

// WithLogger sets the logger for session and run events. Nothing is logged
// by default. A nil logger is ignored.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used to measure and sleep during waits. A nil
// clock is ignored.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WaitOption configures a single WaitUntil call.
type WaitOption func(*waitOptions)

type waitOptions struct {
	pollInterval time.Duration
}

// WithWaitPollInterval overrides the polling interval for a single wait.
// A value of 0 means "use defaults". Negative values are rejected.
// Positive values under 10ms are clamped to 10ms.
func WithWaitPollInterval(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		o.pollInterval = d
	}
}

const (
	defaultWidth        = 1920
	defaultHeight       = 1080
	defaultTimeout      = 5 * time.Second
	defaultPollInterval = 50 * time.Millisecond
	minPollInterval     = 10 * time.Millisecond
)

func defaultOptions() options {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return options{
		headless:     true,
		width:        defaultWidth,
		height:       defaultHeight,
		timeout:      defaultTimeout,
		pollInterval: defaultPollInterval,
		logger:       logger,
		clock:        clock.New(),
	}
}
