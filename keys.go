package pageprobe

import (
	"strings"

	"github.com/chromedp/chromedp/kb"
)

// Key is a key that can be typed with Element.Press. Plain text can be
// passed as a Key too.
type Key string

// Special key constants for use with Press.
const (
	Enter     = Key(kb.Enter)
	Escape    = Key(kb.Escape)
	Tab       = Key(kb.Tab)
	Backspace = Key(kb.Backspace)
	Delete    = Key(kb.Delete)
	Up        = Key(kb.ArrowUp)
	Down      = Key(kb.ArrowDown)
	Left      = Key(kb.ArrowLeft)
	Right     = Key(kb.ArrowRight)
	Home      = Key(kb.Home)
	End       = Key(kb.End)
	PageUp    = Key(kb.PageUp)
	PageDown  = Key(kb.PageDown)
	Space     = Key(" ")
)

// Press types keys into the element in order.
func (e *Element) Press(keys ...Key) error {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(string(k))
	}
	return e.SendKeys(b.String())
}
