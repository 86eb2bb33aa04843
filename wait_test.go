package pageprobe_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboone/pageprobe"
	"github.com/cboone/pageprobe/internal/htmldriver"
)

// showLate reveals #late after delay.
func showLate(delay time.Duration) htmldriver.Script {
	return func(p *htmldriver.Page) {
		late := p.MustFindID("late")
		p.After(delay, func(p *htmldriver.Page) {
			p.SetStyle(late, "display", "block")
		})
	}
}

// counting wraps c and records the clock time of every check.
func counting(h *harness, c pageprobe.Condition) (pageprobe.Condition, *[]time.Time) {
	var at []time.Time
	return pageprobe.NewCondition(c.Description, func(s *pageprobe.Session) (*pageprobe.Element, bool, error) {
		at = append(at, h.clock.Now())
		return c.Check(s)
	}), &at
}

func TestWaitUntilImmediate(t *testing.T) {
	h := openStatic(t, nil)
	start := h.clock.Now()

	el, err := h.s.WaitUntil(pageprobe.VisibilityOf(pageprobe.ByID("title")), time.Second)
	require.NoError(t, err)
	text, err := el.Text()
	require.NoError(t, err)
	assert.Equal(t, "Title", text)
	assert.Equal(t, start, h.clock.Now(), "a satisfied condition should not sleep")
}

func TestWaitUntilEventuallyHolds(t *testing.T) {
	h := openStatic(t, []htmldriver.Script{showLate(300 * time.Millisecond)})
	start := h.clock.Now()

	el, err := h.s.WaitUntil(pageprobe.VisibilityOf(pageprobe.ByID("late")), 2*time.Second)
	require.NoError(t, err)
	text, err := el.Text()
	require.NoError(t, err)
	assert.Equal(t, "Loaded", text)

	elapsed := h.clock.Since(start)
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
	assert.Less(t, elapsed, 350*time.Millisecond)
}

func TestWaitUntilTimeout(t *testing.T) {
	h := openStatic(t, nil)
	cond, checks := counting(h, pageprobe.VisibilityOf(pageprobe.ByID("late")))

	_, err := h.s.WaitUntil(cond, time.Second)

	var te *pageprobe.WaitTimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, time.Second, te.Elapsed)
	assert.Equal(t, 21, te.Attempts)
	assert.Len(t, *checks, 21)
	assert.Equal(t, "element id=late to be visible", te.Description)
	assert.Contains(t, err.Error(), "pageprobe: wait-until: timed out after 1s (21 attempts)")
	assert.Contains(t, err.Error(), "waiting for: element id=late to be visible")
}

func TestWaitUntilLastSleepIsClamped(t *testing.T) {
	h := openStatic(t, nil)
	cond, checks := counting(h, pageprobe.VisibilityOf(pageprobe.ByID("late")))

	_, err := h.s.WaitUntil(cond, 120*time.Millisecond)

	var te *pageprobe.WaitTimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 120*time.Millisecond, te.Elapsed)
	require.Len(t, *checks, 4)
	start := (*checks)[0]
	assert.Equal(t, 100*time.Millisecond, (*checks)[2].Sub(start))
	assert.Equal(t, 120*time.Millisecond, (*checks)[3].Sub(start))
}

func TestWaitUntilTimeoutKeepsLastTransientError(t *testing.T) {
	h := openStatic(t, nil)

	_, err := h.s.WaitUntil(pageprobe.PresenceOf(pageprobe.ByID("never")), 100*time.Millisecond)

	var te *pageprobe.WaitTimeoutError
	require.ErrorAs(t, err, &te)
	var nf *pageprobe.ElementNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, pageprobe.ByID("never"), nf.Selector)
	assert.Contains(t, err.Error(), "last error: pageprobe: no element matches id=never")
}

func TestWaitUntilDefaults(t *testing.T) {
	h := openStatic(t, nil, pageprobe.WithTimeout(300*time.Millisecond), pageprobe.WithPollInterval(100*time.Millisecond))

	_, err := h.s.WaitUntil(pageprobe.VisibilityOf(pageprobe.ByID("late")), 0)

	var te *pageprobe.WaitTimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 300*time.Millisecond, te.Elapsed)
	assert.Equal(t, 4, te.Attempts)
}

func TestWaitUntilPollIntervalOverride(t *testing.T) {
	h := openStatic(t, nil)

	_, err := h.s.WaitUntil(pageprobe.VisibilityOf(pageprobe.ByID("late")), 100*time.Millisecond,
		pageprobe.WithWaitPollInterval(25*time.Millisecond))
	var te *pageprobe.WaitTimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 5, te.Attempts)

	// Intervals under 10ms are clamped.
	_, err = h.s.WaitUntil(pageprobe.VisibilityOf(pageprobe.ByID("late")), 100*time.Millisecond,
		pageprobe.WithWaitPollInterval(time.Millisecond))
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 11, te.Attempts)
}

func TestWaitUntilRejectsNegativeValues(t *testing.T) {
	h := openStatic(t, nil)
	cond := pageprobe.PresenceOf(pageprobe.ByID("title"))

	_, err := h.s.WaitUntil(cond, -time.Second)
	assert.ErrorContains(t, err, "negative timeout")

	_, err = h.s.WaitUntil(cond, time.Second, pageprobe.WithWaitPollInterval(-time.Millisecond))
	assert.ErrorContains(t, err, "negative poll interval")
}

func TestWaitUntilStopsOnHardError(t *testing.T) {
	h := openStatic(t, nil)
	boom := errors.New("browser went away")
	calls := 0
	cond := pageprobe.NewCondition("something", func(*pageprobe.Session) (*pageprobe.Element, bool, error) {
		calls++
		return nil, false, boom
	})

	_, err := h.s.WaitUntil(cond, time.Second)
	assert.ErrorIs(t, err, boom)
	var te *pageprobe.WaitTimeoutError
	assert.False(t, errors.As(err, &te))
	assert.Equal(t, 1, calls)
}

func TestWaitUntilStopsOnHardErrorInsideAny(t *testing.T) {
	h := openStatic(t, nil)
	crashed := errors.New("browser crashed")
	hard := pageprobe.NewCondition("hard", func(*pageprobe.Session) (*pageprobe.Element, bool, error) {
		return nil, false, crashed
	})
	cond, at := counting(h, pageprobe.Any(pageprobe.PresenceOf(pageprobe.ByID("missing")), hard))

	_, err := h.s.WaitUntil(cond, time.Second)
	assert.ErrorIs(t, err, crashed)
	var te *pageprobe.WaitTimeoutError
	assert.False(t, errors.As(err, &te))
	assert.Len(t, *at, 1)
}

func TestWaitUntilRetriesStaleElements(t *testing.T) {
	h := openStatic(t, nil)
	calls := 0
	cond := pageprobe.NewCondition("eventually fresh", func(*pageprobe.Session) (*pageprobe.Element, bool, error) {
		calls++
		if calls < 3 {
			return nil, false, &pageprobe.StaleElementError{Selector: pageprobe.ByID("title"), Op: "text"}
		}
		return nil, true, nil
	})

	_, err := h.s.WaitUntil(cond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWaitUntilBackoff(t *testing.T) {
	h := openStatic(t, nil, pageprobe.WithBackoff())
	cond, checks := counting(h, pageprobe.VisibilityOf(pageprobe.ByID("late")))

	_, err := h.s.WaitUntil(cond, time.Second)
	var te *pageprobe.WaitTimeoutError
	require.ErrorAs(t, err, &te)

	at := *checks
	require.Greater(t, len(at), 5)
	gaps := make([]time.Duration, 0, len(at)-1)
	for i := 1; i < len(at); i++ {
		gaps = append(gaps, at[i].Sub(at[i-1]))
	}
	assert.Equal(t, 10*time.Millisecond, gaps[0])
	for i := 1; i < len(gaps)-1; i++ {
		assert.GreaterOrEqual(t, gaps[i], gaps[i-1])
		assert.LessOrEqual(t, gaps[i], 50*time.Millisecond)
	}
	assert.Equal(t, 50*time.Millisecond, gaps[len(gaps)-2])
	assert.Equal(t, time.Second, te.Elapsed)
}
