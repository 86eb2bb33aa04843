package pageprobe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/cboone/pageprobe/driver"
	"github.com/cboone/pageprobe/internal/cdpdriver"
)

// Session is one live browser bound to one loaded fixture document. It is
// owned by a single goroutine and is not safe for concurrent use.
//
// The context passed to Open bounds every later browser call made through
// the session, since Find, Click and the other element methods take none.
type Session struct {
	ctx     context.Context
	drv     driver.Driver
	fixture string
	url     string
	opts    options
	log     logrus.FieldLogger
	closed  bool
}

// Open launches a browser, maximizes it and loads the fixture. fixture is a
// local file path or a URL with a scheme. The caller owns the Session and
// must Close it; prefer With or Execute, which do that on every path.
//
// Any failure is returned as a *SessionStartError after the browser, if it
// started, has been quit.
func Open(ctx context.Context, fixture string, userOpts ...Option) (*Session, error) {
	opts := defaultOptions()
	for _, o := range userOpts {
		o(&opts)
	}

	startErr := func(op string, err error) error {
		return &SessionStartError{Fixture: fixture, Op: op, Err: err}
	}

	if opts.timeout < 0 {
		return nil, startErr("options", fmt.Errorf("negative timeout: %v", opts.timeout))
	}
	if opts.pollInterval < 0 {
		return nil, startErr("options", fmt.Errorf("negative poll interval: %v", opts.pollInterval))
	}
	if opts.pollInterval < minPollInterval {
		opts.pollInterval = minPollInterval
	}

	target, err := fixtureURL(fixture)
	if err != nil {
		return nil, startErr("resolve fixture", err)
	}

	log := opts.logger.WithField("fixture", target)

	launcher := opts.launcher
	if launcher == nil {
		launcher = cdpdriver.Launcher{Config: cdpdriver.Config{
			ExecPath: resolveChromePath(opts.chromePath),
			Headless: opts.headless,
			Width:    opts.width,
			Height:   opts.height,
			Logf:     log.Debugf,
		}}
	}

	log.Debug("launching browser")
	drv, err := launcher.Launch(ctx)
	if err != nil {
		return nil, startErr("launch", err)
	}

	if err := drv.Maximize(ctx); err != nil {
		_ = drv.Quit()
		return nil, startErr("maximize", err)
	}
	if err := drv.Navigate(ctx, target); err != nil {
		_ = drv.Quit()
		return nil, startErr("navigate", err)
	}
	log.Info("session opened")

	return &Session{
		ctx:     ctx,
		drv:     drv,
		fixture: fixture,
		url:     target,
		opts:    opts,
		log:     log,
	}, nil
}

// With opens a session, calls fn and closes the session whatever fn returns.
func With(ctx context.Context, fixture string, fn func(s *Session) error, opts ...Option) (err error) {
	s, err := Open(ctx, fixture, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()
	return fn(s)
}

// Close quits the browser. Only the first call does anything.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.drv.Quit(); err != nil {
		s.log.WithError(err).Warn("browser did not quit cleanly")
		return fmt.Errorf("pageprobe: close: %w", err)
	}
	s.log.Info("session closed")
	return nil
}

// URL returns the address the fixture was loaded from.
func (s *Session) URL() string {
	return s.url
}

// Logger returns the session's logger.
func (s *Session) Logger() logrus.FieldLogger {
	return s.log
}

// Find returns the first element matching sel right now, or an
// *ElementNotFoundError. It does not wait.
func (s *Session) Find(sel Selector) (*Element, error) {
	return s.find(nil, sel)
}

// FindAll returns every element matching sel right now. An empty result is
// not an error.
func (s *Session) FindAll(sel Selector) ([]*Element, error) {
	return s.findAll(nil, sel)
}

func (s *Session) find(scope *Element, sel Selector) (*Element, error) {
	els, err := s.findAll(scope, sel)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		nf := &ElementNotFoundError{Selector: sel}
		if scope != nil {
			nf.Scope = scope.String()
		}
		return nil, nf
	}
	return els[0], nil
}

func (s *Session) findAll(scope *Element, sel Selector) ([]*Element, error) {
	if s.closed {
		return nil, errors.New("pageprobe: find: session is closed")
	}

	var scopeNode driver.Node
	if scope != nil {
		scopeNode = scope.node
	}
	nodes, err := s.drv.Query(s.ctx, scopeNode, sel)
	if err != nil {
		if errors.Is(err, driver.ErrStale) && scope != nil {
			return nil, &StaleElementError{Selector: scope.sel, Op: "find " + sel.String(), Err: err}
		}
		return nil, fmt.Errorf("pageprobe: find %s: %w", sel, err)
	}

	els := make([]*Element, len(nodes))
	for i, n := range nodes {
		els[i] = &Element{s: s, node: n, sel: sel, index: i, parent: scope}
	}
	return els, nil
}

// fixtureURL turns a path into a file:// URL. Values that already carry a
// scheme are returned unchanged.
func fixtureURL(fixture string) (string, error) {
	if fixture == "" {
		return "", errors.New("empty fixture path")
	}
	if u, err := url.Parse(fixture); err == nil && len(u.Scheme) > 1 {
		return fixture, nil
	}
	abs, err := filepath.Abs(fixture)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// resolveChromePath returns the configured Chrome binary, falling back to
// PAGEPROBE_CHROME. Empty lets the driver search.
func resolveChromePath(configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv("PAGEPROBE_CHROME")
}
