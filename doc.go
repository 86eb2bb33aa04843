// Package pageprobe runs browser-driven acceptance tests against a static
// HTML page.
//
// pageprobe launches a real browser, loads a fixture document, and runs an
// ordered list of cases against that one session. Cases locate elements,
// act on them and assert on the resulting DOM. The session is released on
// every exit path.
//
// # Quick Start
//
//	cases := []pageprobe.Case{
//		{Name: "login form", Run: func(s *pageprobe.Session) error {
//			email, err := s.Find(pageprobe.ByID("inputEmail"))
//			if err != nil {
//				return err
//			}
//			if err := email.SendKeys("email@test.com"); err != nil {
//				return err
//			}
//			got, err := email.Attribute("value")
//			if err != nil {
//				return err
//			}
//			return pageprobe.Expect("email@test.com", got)
//		}},
//	}
//	result, err := pageprobe.Execute(ctx, "index.html", cases)
//
// # Session Lifecycle
//
// [Open] launches Chrome (see [WithLauncher] for other drivers), maximizes
// the window and navigates to the fixture as a file:// URL. [Session.Close]
// quits the browser once; later calls do nothing. [With] and [Execute] pair
// the two so release cannot be skipped.
//
// Chrome is resolved in this order:
//
//   - [WithChromePath]
//   - PAGEPROBE_CHROME
//   - chromedp's search of the usual install locations
//
// # Locating Elements
//
// [Session.Find] and [Session.FindAll] query the document as it is at the
// time of the call; neither waits. Find fails with an [ElementNotFoundError]
// when nothing matches, FindAll returns an empty slice. [Element.Find] and
// [Element.FindAll] resolve within an element's subtree.
//
// Selectors come in four strategies: [ByID] (at most one match), [ByPath]
// (XPath), [ByTag] and [ByCSS].
//
// An [Element] is a point-in-time handle. If its node leaves the document,
// every method fails with a [StaleElementError]; [Element.Refresh] resolves
// it again. Handles are never refreshed implicitly.
//
// # Waiting
//
// [Session.WaitUntil] polls a [Condition] until it holds or a timeout
// expires. It is the only way cases should wait for the page; there is no
// sleep helper.
//
// Wait behavior:
//
//   - Defaults: 5s timeout, 50ms poll interval
//   - Per-session overrides: [WithTimeout], [WithPollInterval], [WithBackoff]
//   - Per-call overrides: the timeout argument, [WithWaitPollInterval]
//   - Poll intervals under 10ms are clamped to 10ms
//   - Missing and stale elements are retried; other errors end the wait
//   - Timeouts fail with a [WaitTimeoutError] naming the condition
//
// Built-in conditions include [PresenceOf], [VisibilityOf],
// [InvisibilityOf], [ElementToBeClickable], [TextToBe], [Not], [All] and
// [Any].
//
// # Running Cases
//
// [Run] executes cases in order and stops at the first failure. Every case
// is reported as Passed, Failed or NotRun, so a case that never ran is not
// mistaken for one that failed. Assertion helpers ([Expect], [ExpectTrue],
// [ExpectFalse], [ExpectLen]) return an [AssertionFailure] carrying the case
// name, expected and actual values.
//
// [WriteReport] and [WriteJSONReport] render a [RunResult].
package pageprobe
