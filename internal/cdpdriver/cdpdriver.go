// Package cdpdriver drives Chrome over the DevTools protocol. It is the
// default driver used by pageprobe.
package cdpdriver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/cboone/pageprobe/driver"
)

// Config controls how Chrome is launched.
type Config struct {
	// ExecPath is the Chrome binary. Empty lets chromedp search the usual
	// locations.
	ExecPath string
	Headless bool
	Width    int
	Height   int
	// Logf receives chromedp's protocol-level log lines. Nil discards them.
	Logf func(format string, args ...any)
}

// Launcher implements driver.Launcher.
type Launcher struct {
	Config Config
}

// Launch starts Chrome.
func (l Launcher) Launch(ctx context.Context) (driver.Driver, error) {
	return Launch(ctx, l.Config)
}

// Browser is one Chrome process with one tab.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	headless    bool
}

var _ driver.Driver = (*Browser)(nil)

// Launch starts Chrome and opens its first tab. The browser lives until Quit
// is called or ctx is canceled.
func Launch(ctx context.Context, cfg Config) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("start-maximized", true),
		// file:// fixtures load their scripts from disk.
		chromedp.Flag("allow-file-access-from-files", true),
	)
	if cfg.Width > 0 && cfg.Height > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.Width, cfg.Height))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if os.Geteuid() == 0 {
		opts = append(opts, chromedp.NoSandbox)
	}

	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	bctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logf), chromedp.WithErrorf(logf))

	// The first Run starts the browser.
	if err := chromedp.Run(bctx); err != nil {
		cancel()
		allocCancel()
		return nil, &Error{Op: "launch", Err: err}
	}

	b := &Browser{
		ctx:         bctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		headless:    cfg.Headless,
	}

	product, err := b.Version(ctx)
	if err != nil {
		_ = b.Quit()
		return nil, err
	}
	if !versionAtLeast(product, MinVersion) {
		_ = b.Quit()
		return nil, &Error{Op: "launch", Err: fmt.Errorf("browser %s is below minimum version %s", product, MinVersion)}
	}
	logf("launched %s", product)
	return b, nil
}

// run executes actions against the tab. ctx only bounds the call; the tab's
// lifetime is tied to the Browser.
func (b *Browser) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if isStale(err) {
			return &Error{Op: op, Err: fmt.Errorf("%w: %v", driver.ErrStale, err)}
		}
		return &Error{Op: op, Err: err}
	}
	return nil
}

// Version returns the browser product string, e.g. "HeadlessChrome/126.0".
func (b *Browser) Version(ctx context.Context) (string, error) {
	var product string
	err := b.run(ctx, "version", chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		_, product, _, _, _, err = browser.GetVersion().Do(ctx)
		return err
	}))
	return product, err
}

// Navigate loads url and waits for the load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, "navigate", chromedp.Navigate(url))
}

// Maximize maximizes the browser window. Headless Chrome has no window
// manager, so the configured window size is used as is.
func (b *Browser) Maximize(ctx context.Context) error {
	if b.headless {
		return nil
	}
	return b.run(ctx, "maximize", chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{
			WindowState: browser.WindowStateMaximized,
		}).Do(ctx)
	}))
}

// Query resolves sel without waiting for matches.
func (b *Browser) Query(ctx context.Context, scope driver.Node, sel driver.Selector) ([]driver.Node, error) {
	var parent *cdp.Node
	if scope != nil {
		n, ok := scope.(*Node)
		if !ok {
			return nil, &Error{Op: "query", Err: fmt.Errorf("scope %T was not produced by this driver", scope)}
		}
		parent = n.node
	}

	pattern := sel.Pattern
	opts := []chromedp.QueryOption{chromedp.AtLeast(0)}
	switch sel.Strategy {
	case driver.ByID:
		pattern = fmt.Sprintf("[id=%q]", sel.Pattern)
		opts = append(opts, chromedp.ByQueryAll)
	case driver.ByTag, driver.ByCSS:
		opts = append(opts, chromedp.ByQueryAll)
	case driver.ByPath:
		// DOM search cannot be rooted at a node, so relative expressions are
		// rebased onto the scope's absolute path.
		if parent != nil {
			pattern = rebaseXPath(parent.FullXPath(), pattern)
		}
		opts = append(opts, chromedp.BySearch)
	default:
		return nil, &Error{Op: "query", Err: fmt.Errorf("unsupported strategy %v", sel.Strategy)}
	}
	if parent != nil && sel.Strategy != driver.ByPath {
		opts = append(opts, chromedp.FromNode(parent))
	}

	var found []*cdp.Node
	if err := b.run(ctx, "query "+sel.String(), chromedp.Nodes(pattern, &found, opts...)); err != nil {
		return nil, err
	}

	nodes := make([]driver.Node, 0, len(found))
	for _, n := range found {
		nodes = append(nodes, &Node{b: b, node: n})
	}
	return nodes, nil
}

// Quit closes the browser and waits for the process to exit.
func (b *Browser) Quit() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return &Error{Op: "quit", Err: err}
	}
	return nil
}

// rebaseXPath turns "./tbody/tr" relative to "/html[1]/body[1]/table[1]" into
// an absolute expression. Absolute patterns are returned unchanged.
func rebaseXPath(base, pattern string) string {
	if !strings.HasPrefix(pattern, ".") {
		return pattern
	}
	base = strings.ToLower(base)
	rest := strings.TrimPrefix(pattern, ".")
	if rest == "" {
		return base
	}
	return base + rest
}

// isStale reports whether err means the node left the document.
func isStale(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"no node with given id",
		"could not find node with given id",
		"node with given id does not belong to the document",
		"node is detached from document",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// LookPath finds a Chrome binary: PAGEPROBE_CHROME first, then the common
// names on $PATH.
func LookPath() (string, error) {
	if p := os.Getenv("PAGEPROBE_CHROME"); p != "" {
		return p, nil
	}
	for _, name := range []string{
		"google-chrome",
		"google-chrome-stable",
		"chromium",
		"chromium-browser",
		"chrome",
		"headless-shell",
	} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", errors.New("cdpdriver: no chrome binary found")
}

// Error represents a failed browser operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("chrome %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
