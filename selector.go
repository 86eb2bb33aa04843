package pageprobe

import "github.com/cboone/pageprobe/driver"

// Selector describes how to find elements. See the driver package for the
// strategies.
type Selector = driver.Selector

// ByID selects the element whose id is id. It matches at most one element.
func ByID(id string) Selector {
	return Selector{Strategy: driver.ByID, Pattern: id}
}

// ByPath selects elements with an XPath expression. Expressions starting
// with "." are relative to the element they are resolved from.
func ByPath(xpath string) Selector {
	return Selector{Strategy: driver.ByPath, Pattern: xpath}
}

// ByTag selects every descendant with the given tag name.
func ByTag(name string) Selector {
	return Selector{Strategy: driver.ByTag, Pattern: name}
}

// ByCSS selects elements with a CSS selector.
func ByCSS(css string) Selector {
	return Selector{Strategy: driver.ByCSS, Pattern: css}
}
