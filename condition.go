package pageprobe

import (
	"fmt"
	"strings"
)

// A Condition is a named predicate evaluated by WaitUntil. Check reports
// whether the condition holds and, when it does, the element it is about
// (nil for conditions that are not about one element).
//
// Check must not change the page: it is called repeatedly.
// *ElementNotFoundError and *StaleElementError from Check mean "not yet".
type Condition struct {
	Description string
	Check       func(s *Session) (el *Element, ok bool, err error)
}

// NewCondition returns a Condition.
func NewCondition(description string, check func(s *Session) (*Element, bool, error)) Condition {
	return Condition{Description: description, Check: check}
}

// PresenceOf holds once an element matching sel is in the document.
func PresenceOf(sel Selector) Condition {
	return NewCondition(fmt.Sprintf("element %s to be present", sel), func(s *Session) (*Element, bool, error) {
		el, err := s.Find(sel)
		if err != nil {
			return nil, false, err
		}
		return el, true, nil
	})
}

// VisibilityOf holds once an element matching sel is displayed.
func VisibilityOf(sel Selector) Condition {
	return NewCondition(fmt.Sprintf("element %s to be visible", sel), func(s *Session) (*Element, bool, error) {
		el, err := s.Find(sel)
		if err != nil {
			return nil, false, err
		}
		ok, err := el.Displayed()
		if err != nil || !ok {
			return nil, false, err
		}
		return el, true, nil
	})
}

// InvisibilityOf holds once no element matching sel is displayed, including
// when none exists.
func InvisibilityOf(sel Selector) Condition {
	return NewCondition(fmt.Sprintf("element %s to be invisible", sel), func(s *Session) (*Element, bool, error) {
		els, err := s.FindAll(sel)
		if err != nil {
			return nil, false, err
		}
		for _, el := range els {
			ok, err := el.Displayed()
			if err != nil || ok {
				return nil, false, err
			}
		}
		return nil, true, nil
	})
}

// ElementToBeClickable holds once an element matching sel is displayed and
// enabled.
func ElementToBeClickable(sel Selector) Condition {
	return NewCondition(fmt.Sprintf("element %s to be clickable", sel), func(s *Session) (*Element, bool, error) {
		el, err := s.Find(sel)
		if err != nil {
			return nil, false, err
		}
		shown, err := el.Displayed()
		if err != nil || !shown {
			return nil, false, err
		}
		enabled, err := el.Enabled()
		if err != nil || !enabled {
			return nil, false, err
		}
		return el, true, nil
	})
}

// TextToBe holds once the element matching sel has exactly the given text.
func TextToBe(sel Selector, text string) Condition {
	return NewCondition(fmt.Sprintf("element %s to have text %q", sel, text), func(s *Session) (*Element, bool, error) {
		el, err := s.Find(sel)
		if err != nil {
			return nil, false, err
		}
		got, err := el.Text()
		if err != nil || got != text {
			return nil, false, err
		}
		return el, true, nil
	})
}

// Not inverts a condition. A missing or stale element counts as c not
// holding, so Not(PresenceOf(sel)) holds once sel matches nothing.
func Not(c Condition) Condition {
	return NewCondition("NOT("+c.Description+")", func(s *Session) (*Element, bool, error) {
		_, ok, err := c.Check(s)
		if err != nil {
			if transient(err) {
				return nil, true, nil
			}
			return nil, false, err
		}
		return nil, !ok, nil
	})
}

// All holds when every condition holds. It yields the last condition's
// element.
func All(conds ...Condition) Condition {
	descs := make([]string, len(conds))
	for i, c := range conds {
		descs[i] = c.Description
	}
	return NewCondition("all of: "+strings.Join(descs, ", "), func(s *Session) (*Element, bool, error) {
		var last *Element
		for _, c := range conds {
			el, ok, err := c.Check(s)
			if err != nil || !ok {
				return nil, false, err
			}
			last = el
		}
		return last, true, nil
	})
}

// Any holds when at least one condition holds, yielding the first one's
// element. A non-transient error from any condition is returned at once.
func Any(conds ...Condition) Condition {
	descs := make([]string, len(conds))
	for i, c := range conds {
		descs[i] = c.Description
	}
	return NewCondition("any of: "+strings.Join(descs, ", "), func(s *Session) (*Element, bool, error) {
		var notYet error
		for _, c := range conds {
			el, ok, err := c.Check(s)
			switch {
			case err == nil && ok:
				return el, true, nil
			case err != nil && !transient(err):
				return nil, false, err
			case err != nil && notYet == nil:
				notYet = err
			}
		}
		return nil, false, notYet
	})
}
