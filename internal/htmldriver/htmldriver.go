// Package htmldriver is an in-memory driver that loads a fixture file into a
// static DOM. It cannot run the fixture's JavaScript; page behaviour is
// scripted in Go with Page.OnClick and Page.After instead.
//
// It exists so case logic, the poller and the runner can be exercised without
// a browser.
package htmldriver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/benbjohnson/clock"
	"golang.org/x/net/html"

	"github.com/cboone/pageprobe/driver"
)

// ErrQuit is returned by every operation after Quit.
var ErrQuit = errors.New("htmldriver: driver has quit")

// ErrNotInteractable is returned when clicking or typing into an element
// that is not displayed.
var ErrNotInteractable = errors.New("htmldriver: element not interactable")

// Script installs page behaviour after each load, the way an inline script
// would.
type Script func(p *Page)

// Option configures a Driver.
type Option func(*Driver)

// WithClock sets the clock used for Page.After timers.
func WithClock(c clock.Clock) Option {
	return func(d *Driver) {
		d.clock = c
	}
}

// WithScript adds a Script run after every navigation.
func WithScript(s Script) Option {
	return func(d *Driver) {
		d.scripts = append(d.scripts, s)
	}
}

// Driver implements driver.Driver over a parsed HTML document.
type Driver struct {
	clock   clock.Clock
	scripts []Script

	mu    sync.Mutex
	page  *Page
	quits int
}

var _ driver.Driver = (*Driver)(nil)

// New returns a Driver with no document loaded.
func New(opts ...Option) *Driver {
	d := &Driver{clock: clock.New()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Launcher returns a driver.Launcher that hands out d.
func (d *Driver) Launcher() driver.Launcher {
	return driver.LauncherFunc(func(context.Context) (driver.Driver, error) {
		return d, nil
	})
}

// Page returns the currently loaded page, or nil.
func (d *Driver) Page() *Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page
}

// Quits reports how many times Quit was called.
func (d *Driver) Quits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

func (d *Driver) current() (*Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quits > 0 {
		return nil, ErrQuit
	}
	if d.page == nil {
		return nil, errors.New("htmldriver: no document loaded")
	}
	d.page.tick()
	return d.page, nil
}

// Navigate loads a file:// URL.
func (d *Driver) Navigate(_ context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("htmldriver: navigate: %w", err)
	}
	if u.Scheme != "file" {
		return fmt.Errorf("htmldriver: navigate: unsupported scheme %q", u.Scheme)
	}

	f, err := os.Open(u.Path)
	if err != nil {
		return fmt.Errorf("htmldriver: navigate: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return fmt.Errorf("htmldriver: navigate: parse %s: %w", u.Path, err)
	}

	p := &Page{doc: doc, clock: d.clock}
	for _, s := range d.scripts {
		s(p)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quits > 0 {
		return ErrQuit
	}
	d.page = p
	return nil
}

// Maximize is a no-op; a static document has no viewport.
func (d *Driver) Maximize(context.Context) error {
	_, err := d.current()
	if errors.Is(err, ErrQuit) {
		return err
	}
	return nil
}

// Query resolves sel against the current document.
func (d *Driver) Query(_ context.Context, scope driver.Node, sel driver.Selector) ([]driver.Node, error) {
	p, err := d.current()
	if err != nil {
		return nil, err
	}

	var root *html.Node
	if scope != nil {
		n, ok := scope.(*Node)
		if !ok {
			return nil, fmt.Errorf("htmldriver: scope %T was not produced by this driver", scope)
		}
		if err := n.check(); err != nil {
			return nil, err
		}
		root = n.n
	}

	found, err := p.query(root, sel)
	if err != nil {
		return nil, err
	}
	nodes := make([]driver.Node, 0, len(found))
	for _, n := range found {
		nodes = append(nodes, &Node{d: d, page: p, n: n})
	}
	return nodes, nil
}

// Quit releases the document.
func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	d.page = nil
	return nil
}
