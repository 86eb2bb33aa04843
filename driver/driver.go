// Package driver defines the capabilities pageprobe needs from a browser:
// launch and quit, navigate, point-in-time element queries, and per-node
// reads and writes.
//
// Drivers never wait. A Query that matches nothing returns an empty slice and
// a nil error; waiting is the caller's job.
package driver

import (
	"context"
	"errors"
	"fmt"
)

// ErrStale is returned by Node methods when the node is no longer attached
// to the document.
var ErrStale = errors.New("node is no longer attached to the document")

// Strategy selects how a Selector pattern is interpreted.
type Strategy int

const (
	// ByID matches the element whose id attribute equals the pattern.
	ByID Strategy = iota
	// ByPath matches an XPath expression. Patterns starting with "." are
	// evaluated relative to the query scope.
	ByPath
	// ByTag matches every descendant with the given tag name.
	ByTag
	// ByCSS matches a CSS selector.
	ByCSS
)

func (s Strategy) String() string {
	switch s {
	case ByID:
		return "id"
	case ByPath:
		return "xpath"
	case ByTag:
		return "tag"
	case ByCSS:
		return "css"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Selector describes how to find elements. It is a plain value.
type Selector struct {
	Strategy Strategy
	Pattern  string
}

func (s Selector) String() string {
	return s.Strategy.String() + "=" + s.Pattern
}

// Unique reports whether the strategy matches at most one element.
func (s Selector) Unique() bool {
	return s.Strategy == ByID
}

// Node is a point-in-time reference to a DOM node.
type Node interface {
	// Text returns the rendered text of the node, trimmed.
	Text(ctx context.Context) (string, error)
	// Attribute returns the live property of that name if the node has one,
	// otherwise the HTML attribute. ok is false when neither exists.
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)
	Displayed(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
}

// Driver is one live browser bound to one document.
type Driver interface {
	// Navigate loads url and returns once the document's load event fired.
	Navigate(ctx context.Context, url string) error
	// Maximize gives the page a deterministic, maximal viewport.
	Maximize(ctx context.Context) error
	// Query resolves sel against the current document. A nil scope queries
	// the whole document.
	Query(ctx context.Context, scope Node, sel Selector) ([]Node, error)
	// Quit terminates the browser and frees its resources.
	Quit() error
}

// Launcher starts a browser.
type Launcher interface {
	Launch(ctx context.Context) (Driver, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context) (Driver, error)

// Launch calls f(ctx).
func (f LauncherFunc) Launch(ctx context.Context) (Driver, error) {
	return f(ctx)
}
