package htmldriver

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cboone/pageprobe/driver"
)

// Node is an element of the static document.
type Node struct {
	d    *Driver
	page *Page
	n    *html.Node
}

var _ driver.Node = (*Node)(nil)

// HTML returns the underlying parse node.
func (n *Node) HTML() *html.Node {
	return n.n
}

// check verifies the node still belongs to the live document and fires any
// due timers first.
func (n *Node) check() error {
	p, err := n.d.current()
	if err != nil {
		return err
	}
	if p != n.page || !p.attached(n.n) {
		return driver.ErrStale
	}
	return nil
}

// Text returns the visible text of the subtree with whitespace collapsed.
func (n *Node) Text(context.Context) (string, error) {
	if err := n.check(); err != nil {
		return "", err
	}
	return TextOf(n.n), nil
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Template, atom.Head:
			return
		}
		if hiddenSelf(n) {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// Attribute returns the attribute called name. Boolean attributes present
// without a value read as "true".
func (n *Node) Attribute(_ context.Context, name string) (string, bool, error) {
	if err := n.check(); err != nil {
		return "", false, err
	}
	v, ok := lookupAttr(n.n, name)
	if ok && v == "" && isBooleanAttr(name) {
		v = "true"
	}
	return v, ok, nil
}

func isBooleanAttr(name string) bool {
	switch name {
	case "disabled", "checked", "selected", "hidden", "readonly", "required", "multiple":
		return true
	}
	return false
}

// Displayed reports whether neither the node nor an ancestor is hidden.
func (n *Node) Displayed(context.Context) (bool, error) {
	if err := n.check(); err != nil {
		return false, err
	}
	return displayed(n.n), nil
}

func displayed(n *html.Node) bool {
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if hiddenSelf(cur) {
			return false
		}
		if styleValue(cur, "visibility") == "hidden" {
			return false
		}
	}
	return true
}

func hiddenSelf(n *html.Node) bool {
	if _, ok := lookupAttr(n, "hidden"); ok {
		return true
	}
	if styleValue(n, "display") == "none" {
		return true
	}
	if n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "hidden") {
		return true
	}
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Template:
		return true
	}
	return false
}

// Enabled reports whether a form control is not disabled, directly or
// through a disabled fieldset. Other elements are always enabled.
func (n *Node) Enabled(context.Context) (bool, error) {
	if err := n.check(); err != nil {
		return false, err
	}
	return enabled(n.n), nil
}

func enabled(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Button, atom.Input, atom.Select, atom.Textarea, atom.Option, atom.Optgroup, atom.Fieldset:
	default:
		return true
	}
	if _, ok := lookupAttr(n, "disabled"); ok {
		return false
	}
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.DataAtom == atom.Fieldset {
			if _, ok := lookupAttr(cur, "disabled"); ok {
				return false
			}
		}
	}
	return true
}

// Click fires the page's click handlers for the node. Disabled controls
// swallow the click, as browsers do.
func (n *Node) Click(context.Context) error {
	if err := n.check(); err != nil {
		return err
	}
	if !displayed(n.n) {
		return ErrNotInteractable
	}
	if !enabled(n.n) {
		return nil
	}
	n.page.click(n.n)
	return nil
}

// SendKeys edits the node's value as typing text would. Backspace deletes
// the last character; other control and navigation keys are ignored.
func (n *Node) SendKeys(_ context.Context, text string) error {
	if err := n.check(); err != nil {
		return err
	}
	if !displayed(n.n) {
		return ErrNotInteractable
	}
	if !enabled(n.n) {
		return nil
	}
	n.page.SetAttr(n.n, "value", typeInto(attr(n.n, "value"), text))
	return nil
}

func typeInto(value, keys string) string {
	out := []rune(value)
	for _, r := range keys {
		switch {
		case r == '\b':
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case unicode.IsControl(r), unicode.Is(unicode.Co, r):
			// Enter, Tab, arrows and other keys with no text.
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
