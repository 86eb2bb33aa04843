package cdpdriver

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/cboone/pageprobe/driver"
)

// Node is a DOM node in the browser's document.
type Node struct {
	b    *Browser
	node *cdp.Node
}

var _ driver.Node = (*Node)(nil)

const (
	textFunc = `function() {
	return (this.innerText || this.textContent || "").trim();
}`

	// Live properties win over attributes, so "value" reflects typing.
	attributeFunc = `function(name) {
	const v = this[name];
	if (v !== undefined && v !== null && typeof v !== "object" && typeof v !== "function") {
		return {ok: true, value: String(v)};
	}
	if (this.hasAttribute(name)) {
		return {ok: true, value: this.getAttribute(name)};
	}
	return {ok: false, value: ""};
}`

	displayedFunc = `function() {
	if (!this.isConnected) {
		return false;
	}
	for (let el = this; el; el = el.parentElement) {
		if (window.getComputedStyle(el).display === "none") {
			return false;
		}
	}
	const style = window.getComputedStyle(this);
	if (style.visibility !== "visible" || parseFloat(style.opacity) === 0) {
		return false;
	}
	const rect = this.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
}`

	enabledFunc = `function() {
	return !this.matches(":disabled");
}`
)

// call runs fn with the node bound to this and decodes its result into res.
func (n *Node) call(ctx context.Context, op, fn string, res any, args ...any) error {
	return n.b.run(ctx, op, callOnNode(n.node.NodeID, fn, res, args...))
}

// callOnNode resolves the node to a remote object, calls fn on it and
// releases the object. The release fails harmlessly once the page is gone.
func callOnNode(id cdp.NodeID, fn string, res any, args ...any) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(id).Do(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = runtime.ReleaseObject(obj.ObjectID).Do(ctx)
		}()
		return chromedp.CallFunctionOn(fn, res, onObject(obj.ObjectID), args...).Do(ctx)
	})
}

// onObject binds a function call to the remote object id.
func onObject(id runtime.RemoteObjectID) chromedp.CallOption {
	return func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
		return p.WithObjectID(id)
	}
}

// Text returns the node's rendered text.
func (n *Node) Text(ctx context.Context) (string, error) {
	var s string
	err := n.call(ctx, "text", textFunc, &s)
	return s, err
}

// Attribute returns the property or attribute called name.
func (n *Node) Attribute(ctx context.Context, name string) (string, bool, error) {
	var res struct {
		OK    bool   `json:"ok"`
		Value string `json:"value"`
	}
	if err := n.call(ctx, "attribute "+name, attributeFunc, &res, name); err != nil {
		return "", false, err
	}
	return res.Value, res.OK, nil
}

// Displayed reports whether the node is rendered with a non-empty box.
func (n *Node) Displayed(ctx context.Context) (bool, error) {
	var ok bool
	err := n.call(ctx, "displayed", displayedFunc, &ok)
	return ok, err
}

// Enabled reports whether the node is not disabled.
func (n *Node) Enabled(ctx context.Context) (bool, error) {
	var ok bool
	err := n.call(ctx, "enabled", enabledFunc, &ok)
	return ok, err
}

// Click scrolls the node into view and clicks its center.
func (n *Node) Click(ctx context.Context) error {
	return n.b.run(ctx, "click", chromedp.MouseClickNode(n.node))
}

// SendKeys focuses the node and types text.
func (n *Node) SendKeys(ctx context.Context, text string) error {
	return n.b.run(ctx, "send-keys", chromedp.KeyEventNode(n.node, text))
}
