package pageprobe

import (
	"errors"
	"fmt"

	"github.com/cboone/pageprobe/driver"
)

// Element is a point-in-time reference to a DOM node.
//
// An Element is not re-resolved behind the caller's back. When the node
// leaves the document every method fails with a *StaleElementError, and
// Refresh resolves the originating selector again. Handles must not be
// carried from one case to the next.
type Element struct {
	s      *Session
	node   driver.Node
	sel    Selector
	index  int
	parent *Element
}

// Selector returns the selector the element was resolved with.
func (e *Element) Selector() Selector {
	return e.sel
}

// Node returns the driver node behind the element.
func (e *Element) Node() driver.Node {
	return e.node
}

func (e *Element) String() string {
	s := e.sel.String()
	if !e.sel.Unique() {
		s = fmt.Sprintf("%s[%d]", s, e.index)
	}
	if e.parent != nil {
		s = e.parent.String() + " > " + s
	}
	return s
}

func (e *Element) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrStale) {
		return &StaleElementError{Selector: e.sel, Op: op, Err: err}
	}
	return fmt.Errorf("pageprobe: %s %s: %w", op, e, err)
}

// Text returns the element's rendered text, trimmed.
func (e *Element) Text() (string, error) {
	t, err := e.node.Text(e.s.ctx)
	return t, e.wrap("text", err)
}

// Attribute returns the live property called name, or the HTML attribute
// when there is no such property. A missing attribute reads as "".
func (e *Element) Attribute(name string) (string, error) {
	v, _, err := e.node.Attribute(e.s.ctx, name)
	return v, e.wrap("attribute "+name, err)
}

// HasAttribute reports whether the element has a property or attribute
// called name.
func (e *Element) HasAttribute(name string) (bool, error) {
	_, ok, err := e.node.Attribute(e.s.ctx, name)
	return ok, e.wrap("attribute "+name, err)
}

// Displayed reports whether the element is rendered.
func (e *Element) Displayed() (bool, error) {
	ok, err := e.node.Displayed(e.s.ctx)
	return ok, e.wrap("displayed", err)
}

// Enabled reports whether the element is not disabled.
func (e *Element) Enabled() (bool, error) {
	ok, err := e.node.Enabled(e.s.ctx)
	return ok, e.wrap("enabled", err)
}

// Click clicks the element. The page may re-render; handles to other nodes
// should be resolved again if the case depends on their new state.
func (e *Element) Click() error {
	e.s.log.WithField("selector", e.String()).Debug("click")
	return e.wrap("click", e.node.Click(e.s.ctx))
}

// SendKeys types text into the element.
func (e *Element) SendKeys(text string) error {
	e.s.log.WithField("selector", e.String()).Debug("send-keys")
	return e.wrap("send-keys", e.node.SendKeys(e.s.ctx, text))
}

// Find returns the first element matching sel within e's subtree.
func (e *Element) Find(sel Selector) (*Element, error) {
	return e.s.find(e, sel)
}

// FindAll returns every element matching sel within e's subtree.
func (e *Element) FindAll(sel Selector) ([]*Element, error) {
	return e.s.findAll(e, sel)
}

// Refresh resolves the element's selector again, from a refreshed parent
// when it was found within one, and returns the element at the same index.
func (e *Element) Refresh() (*Element, error) {
	var scope *Element
	if e.parent != nil {
		p, err := e.parent.Refresh()
		if err != nil {
			return nil, err
		}
		scope = p
	}
	els, err := e.s.findAll(scope, e.sel)
	if err != nil {
		return nil, err
	}
	if e.index >= len(els) {
		nf := &ElementNotFoundError{Selector: e.sel}
		if scope != nil {
			nf.Scope = scope.String()
		}
		return nil, nf
	}
	return els[e.index], nil
}
