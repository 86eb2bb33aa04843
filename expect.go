package pageprobe

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// Expect returns an *AssertionFailure unless actual equals expected.
// msgAndArgs, when given, is a format string and its arguments.
func Expect[T any](expected, actual T, msgAndArgs ...any) error {
	if cmp.Equal(expected, actual) {
		return nil
	}
	return &AssertionFailure{
		Message:  message("values differ", msgAndArgs),
		Expected: expected,
		Actual:   actual,
		Diff:     cmp.Diff(expected, actual),
	}
}

// ExpectTrue returns an *AssertionFailure unless cond is true.
func ExpectTrue(cond bool, msgAndArgs ...any) error {
	if cond {
		return nil
	}
	return &AssertionFailure{Message: message("expected true", msgAndArgs), Expected: true, Actual: false}
}

// ExpectFalse returns an *AssertionFailure unless cond is false.
func ExpectFalse(cond bool, msgAndArgs ...any) error {
	if !cond {
		return nil
	}
	return &AssertionFailure{Message: message("expected false", msgAndArgs), Expected: false, Actual: true}
}

// ExpectLen returns an *AssertionFailure unless len(items) is n.
func ExpectLen[T any](items []T, n int, msgAndArgs ...any) error {
	if len(items) == n {
		return nil
	}
	return &AssertionFailure{Message: message("unexpected length", msgAndArgs), Expected: n, Actual: len(items)}
}

func message(def string, msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return def
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
