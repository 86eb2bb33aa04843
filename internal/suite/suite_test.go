package suite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboone/pageprobe"
	"github.com/cboone/pageprobe/internal/cdpdriver"
	"github.com/cboone/pageprobe/internal/htmldriver"
)

// sleepClock is a mock clock whose Sleep advances time instead of blocking.
type sleepClock struct {
	*clock.Mock
}

func (c sleepClock) Sleep(d time.Duration) {
	c.Add(d)
}

func staticRun(t *testing.T, opts ...htmldriver.Option) (pageprobe.RunResult, *htmldriver.Driver) {
	t.Helper()
	clk := sleepClock{clock.NewMock()}
	drv := htmldriver.New(append([]htmldriver.Option{htmldriver.WithClock(clk)}, opts...)...)
	result, err := pageprobe.Execute(context.Background(), filepath.Join("testdata", FixtureName), Cases(),
		pageprobe.WithLauncher(drv.Launcher()),
		pageprobe.WithClock(clk),
	)
	require.NoError(t, err)
	return result, drv
}

func statuses(r pageprobe.RunResult) []pageprobe.Status {
	out := make([]pageprobe.Status, len(r.Cases))
	for i, c := range r.Cases {
		out[i] = c.Status
	}
	return out
}

func TestCasesOrder(t *testing.T) {
	var names []string
	for _, c := range Cases() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"login form", "list items", "dropdown", "button states", "dynamic button", "table cell"}, names)
}

func TestSuitePassesStatic(t *testing.T) {
	result, drv := staticRun(t, htmldriver.WithScript(Script(DynamicDelay)))

	for _, c := range result.Cases {
		assert.Equal(t, pageprobe.Passed, c.Status, "%s: %s", c.Name, c.Detail)
	}
	assert.True(t, result.OK())
	assert.Equal(t, 1, drv.Quits())
}

func TestSuiteStopsAtFirstFailure(t *testing.T) {
	// Without the script the dropdown never opens.
	result, drv := staticRun(t)

	assert.Equal(t, []pageprobe.Status{
		pageprobe.Passed,
		pageprobe.Passed,
		pageprobe.Failed,
		pageprobe.NotRun,
		pageprobe.NotRun,
		pageprobe.NotRun,
	}, statuses(result))

	failed, ok := result.FirstFailure()
	require.True(t, ok)
	assert.Equal(t, "dropdown", failed.Name)

	var af *pageprobe.AssertionFailure
	require.ErrorAs(t, failed.Err, &af)
	assert.Equal(t, "dropdown", af.Case)
	assert.Equal(t, 1, drv.Quits())
}

func TestDynamicButtonTimesOut(t *testing.T) {
	// The button appears after the wait has given up.
	result, _ := staticRun(t, htmldriver.WithScript(Script(DynamicTimeout+time.Second)))

	failed, ok := result.FirstFailure()
	require.True(t, ok)
	assert.Equal(t, "dynamic button", failed.Name)

	var te *pageprobe.WaitTimeoutError
	require.ErrorAs(t, failed.Err, &te)
	assert.GreaterOrEqual(t, te.Elapsed, DynamicTimeout)
	assert.Less(t, te.Elapsed, DynamicTimeout+50*time.Millisecond)
	assert.Equal(t, pageprobe.NotRun, result.Cases[5].Status)
}

func TestTableCellOutOfRange(t *testing.T) {
	drv := htmldriver.New()
	err := pageprobe.With(context.Background(), filepath.Join("testdata", FixtureName), func(s *pageprobe.Session) error {
		v, err := TableCell(s, "", 0, 1)
		require.NoError(t, err)
		assert.Equal(t, "Ipsum", v)

		_, err = TableCell(s, "", 3, 0)
		assert.ErrorContains(t, err, "3 body rows")

		_, err = TableCell(s, "", 1, 7)
		assert.ErrorContains(t, err, "3 cells")

		_, err = TableCell(s, "no-such-table", 0, 0)
		var nf *pageprobe.ElementNotFoundError
		assert.ErrorAs(t, err, &nf)
		return nil
	}, pageprobe.WithLauncher(drv.Launcher()))
	require.NoError(t, err)
}

func TestWriteFixture(t *testing.T) {
	path, err := WriteFixture(t.TempDir())
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("testdata", FixtureName))
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSuitePassesChrome(t *testing.T) {
	chrome, err := cdpdriver.LookPath()
	if err != nil {
		t.Skip("chrome not found in PATH")
	}
	if testing.Short() {
		t.Skip("skipping browser run in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := pageprobe.Execute(ctx, filepath.Join("testdata", FixtureName), Cases(),
		pageprobe.WithChromePath(chrome),
	)
	require.NoError(t, err)
	for _, c := range result.Cases {
		assert.Equal(t, pageprobe.Passed, c.Status, "%s: %s", c.Name, c.Detail)
	}
}
