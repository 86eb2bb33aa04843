package htmldriver

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/benbjohnson/clock"
	"golang.org/x/net/html"

	"github.com/cboone/pageprobe/driver"
)

// Page is a loaded document plus its scripted behaviour.
type Page struct {
	doc    *html.Node
	clock  clock.Clock
	clicks []clickHandler
	timers []*timer
}

type clickHandler struct {
	sel driver.Selector
	fn  func(p *Page, target *html.Node)
}

type timer struct {
	at    time.Time
	fn    func(p *Page)
	fired bool
}

// OnClick runs fn when an element matching sel, or one of its descendants,
// is clicked.
func (p *Page) OnClick(sel driver.Selector, fn func(p *Page, target *html.Node)) {
	p.clicks = append(p.clicks, clickHandler{sel: sel, fn: fn})
}

// After runs fn once the clock has advanced by delay. Timers fire lazily, on
// the next driver call made at or after their deadline.
func (p *Page) After(delay time.Duration, fn func(p *Page)) {
	p.timers = append(p.timers, &timer{at: p.clock.Now().Add(delay), fn: fn})
}

func (p *Page) tick() {
	for {
		now := p.clock.Now()
		var due []*timer
		for _, t := range p.timers {
			if !t.fired && !t.at.After(now) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
		for _, t := range due {
			t.fired = true
			t.fn(p)
		}
	}
}

// Find resolves sel against the whole document.
func (p *Page) Find(sel driver.Selector) []*html.Node {
	nodes, err := p.query(nil, sel)
	if err != nil {
		panic(err)
	}
	return nodes
}

// MustFindID returns the element with the given id, panicking if it is
// absent. Scripts are fixture code; a missing id is a programming error.
func (p *Page) MustFindID(id string) *html.Node {
	nodes := p.Find(driver.Selector{Strategy: driver.ByID, Pattern: id})
	if len(nodes) == 0 {
		panic(fmt.Sprintf("htmldriver: no element with id %q", id))
	}
	return nodes[0]
}

func (p *Page) query(root *html.Node, sel driver.Selector) ([]*html.Node, error) {
	scoped := root != nil
	if root == nil {
		root = p.doc
	}

	switch sel.Strategy {
	case driver.ByID:
		return cssQuery(root, fmt.Sprintf("[id=%q]", sel.Pattern)), nil
	case driver.ByTag, driver.ByCSS:
		return cssQuery(root, sel.Pattern), nil
	case driver.ByPath:
		// Absolute expressions ignore the scope, as they do in a browser.
		if !scoped || !strings.HasPrefix(sel.Pattern, ".") {
			root = p.doc
		}
		nodes, err := htmlquery.QueryAll(root, sel.Pattern)
		if err != nil {
			return nil, fmt.Errorf("htmldriver: xpath %q: %w", sel.Pattern, err)
		}
		return elementsOnly(nodes), nil
	default:
		return nil, fmt.Errorf("htmldriver: unsupported strategy %v", sel.Strategy)
	}
}

func cssQuery(root *html.Node, css string) []*html.Node {
	return goquery.NewDocumentFromNode(root).Find(css).Nodes
}

func elementsOnly(nodes []*html.Node) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
	}
	return out
}

func (p *Page) attached(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == p.doc {
			return true
		}
	}
	return false
}

func (p *Page) click(target *html.Node) {
	var chain []*html.Node
	for cur := target; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		chain = append(chain, cur)
	}
	// Handlers are resolved before any of them run, so a handler that
	// rewrites the DOM cannot change which handlers fire for this click.
	var fire []clickHandler
	for _, n := range chain {
		for _, h := range p.clicks {
			for _, m := range p.Find(h.sel) {
				if m == n {
					fire = append(fire, h)
					break
				}
			}
		}
	}
	for _, h := range fire {
		h.fn(p, target)
	}
}

// SetStyle sets one inline style property on n.
func (p *Page) SetStyle(n *html.Node, prop, value string) {
	styles := parseStyle(attr(n, "style"))
	found := false
	for i := range styles {
		if styles[i][0] == prop {
			styles[i][1] = value
			found = true
		}
	}
	if !found {
		styles = append(styles, [2]string{prop, value})
	}
	parts := make([]string, 0, len(styles))
	for _, s := range styles {
		parts = append(parts, s[0]+": "+s[1])
	}
	p.SetAttr(n, "style", strings.Join(parts, "; "))
}

// SetAttr sets an attribute on n.
func (p *Page) SetAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr deletes an attribute from n.
func (p *Page) RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// SetText replaces the children of n with a single text node.
func (p *Page) SetText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Remove detaches n from the document.
func (p *Page) Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func parseStyle(s string) [][2]string {
	var out [][2]string
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out = append(out, [2]string{strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)})
	}
	return out
}

func styleValue(n *html.Node, prop string) string {
	for _, s := range parseStyle(attr(n, "style")) {
		if s[0] == prop {
			return strings.ToLower(s[1])
		}
	}
	return ""
}

// Style returns the inline value of a style property on n, lowercased.
func (p *Page) Style(n *html.Node, prop string) string {
	return styleValue(n, prop)
}

// TextOf returns the visible text of n with whitespace collapsed.
func TextOf(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n)
	return strings.Join(strings.Fields(b.String()), " ")
}
