package cdpdriver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/mailru/easyjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboone/pageprobe/driver"
)

func findChrome(t *testing.T) string {
	t.Helper()
	path, err := LookPath()
	if err != nil {
		t.Skip("chrome not found in PATH")
	}
	return path
}

func TestRebaseXPath(t *testing.T) {
	tests := []struct {
		base, pattern, want string
	}{
		{"/HTML[1]/BODY[1]/TABLE[1]", "./tbody/tr", "/html[1]/body[1]/table[1]/tbody/tr"},
		{"/html[1]/body[1]/ul[1]", ".//li", "/html[1]/body[1]/ul[1]//li"},
		{"/html[1]/body[1]", ".", "/html[1]/body[1]"},
		{"/html[1]/body[1]", "//div[@id='x']", "//div[@id='x']"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rebaseXPath(tt.base, tt.pattern), "rebase %q onto %q", tt.pattern, tt.base)
	}
}

func TestIsStale(t *testing.T) {
	assert.True(t, isStale(errors.New("Could not find node with given id (-32000)")))
	assert.True(t, isStale(errors.New("No node with given id found")))
	assert.False(t, isStale(errors.New("context deadline exceeded")))
}

func TestErrorUnwrap(t *testing.T) {
	err := &Error{Op: "click", Err: driver.ErrStale}
	assert.ErrorIs(t, err, driver.ErrStale)
	assert.Contains(t, err.Error(), "chrome click failed")
}

// recorder answers the protocol commands callOnNode sends.
type recorder struct {
	methods    []string
	calledOn   runtime.RemoteObjectID
	args       int
	released   runtime.RemoteObjectID
	result     string
	resolveErr error
}

func (r *recorder) Execute(_ context.Context, method string, params easyjson.Marshaler, res easyjson.Unmarshaler) error {
	r.methods = append(r.methods, method)
	switch method {
	case dom.CommandResolveNode:
		if r.resolveErr != nil {
			return r.resolveErr
		}
		res.(*dom.ResolveNodeReturns).Object = &runtime.RemoteObject{Type: runtime.TypeObject, ObjectID: "node-7"}
	case runtime.CommandCallFunctionOn:
		p := params.(*runtime.CallFunctionOnParams)
		r.calledOn = p.ObjectID
		r.args = len(p.Arguments)
		res.(*runtime.CallFunctionOnReturns).Result = &runtime.RemoteObject{
			Type:  runtime.TypeString,
			Value: easyjson.RawMessage(r.result),
		}
	case runtime.CommandReleaseObject:
		r.released = params.(*runtime.ReleaseObjectParams).ObjectID
	}
	return nil
}

func TestCallOnNode(t *testing.T) {
	rec := &recorder{result: `"hello"`}
	ctx := cdp.WithExecutor(context.Background(), rec)

	var text string
	require.NoError(t, callOnNode(7, textFunc, &text).Do(ctx))
	assert.Equal(t, "hello", text)
	assert.Equal(t, []string{dom.CommandResolveNode, runtime.CommandCallFunctionOn, runtime.CommandReleaseObject}, rec.methods)
	assert.Equal(t, runtime.RemoteObjectID("node-7"), rec.calledOn)
	assert.Equal(t, runtime.RemoteObjectID("node-7"), rec.released)
	assert.Zero(t, rec.args)

	rec = &recorder{result: `{"ok":true,"value":"abc"}`}
	var attr struct {
		OK    bool   `json:"ok"`
		Value string `json:"value"`
	}
	require.NoError(t, callOnNode(7, attributeFunc, &attr, "value").Do(cdp.WithExecutor(context.Background(), rec)))
	assert.True(t, attr.OK)
	assert.Equal(t, "abc", attr.Value)
	assert.Equal(t, 1, rec.args)
}

func TestCallOnNodeResolveFailure(t *testing.T) {
	rec := &recorder{resolveErr: errors.New("No node with given id found")}
	var text string
	err := callOnNode(7, textFunc, &text).Do(cdp.WithExecutor(context.Background(), rec))
	require.Error(t, err)
	assert.True(t, isStale(err))
	assert.Equal(t, []string{dom.CommandResolveNode}, rec.methods)
}

func TestBrowserQueryAndRead(t *testing.T) {
	chrome := findChrome(t)

	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(page, []byte(`<!doctype html>
<html><body>
<input id="name" type="text">
<button id="off" disabled>Off</button>
<p id="hidden" style="display:none">secret</p>
<table><tbody><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></tbody></table>
</body></html>`), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := Launch(ctx, Config{ExecPath: chrome, Headless: true, Width: 1280, Height: 800})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, b.Quit()) })

	version, err := b.Version(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, version)

	require.NoError(t, b.Navigate(ctx, "file://"+page))
	require.NoError(t, b.Maximize(ctx))

	none, err := b.Query(ctx, nil, driver.Selector{Strategy: driver.ByID, Pattern: "missing"})
	require.NoError(t, err)
	assert.Empty(t, none)

	inputs, err := b.Query(ctx, nil, driver.Selector{Strategy: driver.ByID, Pattern: "name"})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	require.NoError(t, inputs[0].SendKeys(ctx, "hello"))
	value, ok, err := inputs[0].Attribute(ctx, "value")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", value)

	off, err := b.Query(ctx, nil, driver.Selector{Strategy: driver.ByID, Pattern: "off"})
	require.NoError(t, err)
	require.Len(t, off, 1)
	enabled, err := off[0].Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	hidden, err := b.Query(ctx, nil, driver.Selector{Strategy: driver.ByID, Pattern: "hidden"})
	require.NoError(t, err)
	require.Len(t, hidden, 1)
	shown, err := hidden[0].Displayed(ctx)
	require.NoError(t, err)
	assert.False(t, shown)

	tables, err := b.Query(ctx, nil, driver.Selector{Strategy: driver.ByTag, Pattern: "table"})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	rows, err := b.Query(ctx, tables[0], driver.Selector{Strategy: driver.ByPath, Pattern: "./tbody/tr"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	cells, err := b.Query(ctx, rows[1], driver.Selector{Strategy: driver.ByTag, Pattern: "td"})
	require.NoError(t, err)
	require.Len(t, cells, 2)
	text, err := cells[1].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "d", text)
}

func TestLaunchBadBinary(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := Launch(ctx, Config{ExecPath: filepath.Join(t.TempDir(), "no-such-chrome"), Headless: true})
	require.Error(t, err)

	var cdpErr *Error
	require.ErrorAs(t, err, &cdpErr)
	assert.Equal(t, "launch", cdpErr.Op)
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"HeadlessChrome/126.0.6478.126", MinVersion, true},
		{"Chrome/112.0.5615.49", MinVersion, true},
		{"Chrome/111.9.1", MinVersion, false},
		{"Chromium/99.0", MinVersion, false},
		{"unknown", MinVersion, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, versionAtLeast(tt.version, tt.min), tt.version)
	}
}
