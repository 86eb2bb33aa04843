package pageprobe

import (
	"fmt"
	"time"
)

// SessionStartError reports that the browser could not be launched or the
// fixture could not be loaded. No case runs after it.
type SessionStartError struct {
	Fixture string
	Op      string
	Err     error
}

func (e *SessionStartError) Error() string {
	return fmt.Sprintf("pageprobe: open %s: %s: %v", e.Fixture, e.Op, e.Err)
}

func (e *SessionStartError) Unwrap() error {
	return e.Err
}

// ElementNotFoundError reports a point-in-time query with no match where
// one was required.
type ElementNotFoundError struct {
	Selector Selector
	// Scope describes the element the query was resolved from; empty for
	// the document.
	Scope string
}

func (e *ElementNotFoundError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("pageprobe: no element matches %s within %s", e.Selector, e.Scope)
	}
	return fmt.Sprintf("pageprobe: no element matches %s", e.Selector)
}

// StaleElementError reports an operation on an element that is no longer
// attached to the document. Element.Refresh re-resolves it.
type StaleElementError struct {
	Selector Selector
	Op       string
	Err      error
}

func (e *StaleElementError) Error() string {
	return fmt.Sprintf("pageprobe: %s: element %s is stale", e.Op, e.Selector)
}

func (e *StaleElementError) Unwrap() error {
	return e.Err
}

// WaitTimeoutError reports a Condition that did not hold before its
// deadline.
type WaitTimeoutError struct {
	Description string
	Elapsed     time.Duration
	Attempts    int
	// Last is the transient error seen on the final attempt, if any.
	Last error
}

func (e *WaitTimeoutError) Error() string {
	msg := fmt.Sprintf("pageprobe: wait-until: timed out after %v (%d attempts)\n    waiting for: %s",
		e.Elapsed.Round(time.Millisecond), e.Attempts, e.Description)
	if e.Last != nil {
		msg += "\n    last error: " + e.Last.Error()
	}
	return msg
}

func (e *WaitTimeoutError) Unwrap() error {
	return e.Last
}

// AssertionFailure reports an expected value that did not match.
type AssertionFailure struct {
	// Case is filled in by Run.
	Case     string
	Message  string
	Expected any
	Actual   any
	// Diff is a go-cmp diff of Expected and Actual, when one is meaningful.
	Diff string
}

func (e *AssertionFailure) Error() string {
	prefix := "pageprobe: assertion failed"
	if e.Case != "" {
		prefix += " in " + e.Case
	}
	msg := fmt.Sprintf("%s: %s\n    expected: %#v\n    actual:   %#v", prefix, e.Message, e.Expected, e.Actual)
	if e.Diff != "" {
		msg += "\n    diff (-expected +actual):\n" + e.Diff
	}
	return msg
}
