package pageprobe

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// A Case is one named step of a run. It gets the shared session and
// returns nil when every assertion held. A case keeps no state of its own
// and may only assume the document state left by the cases before it.
type Case struct {
	Name string
	Run  func(s *Session) error
}

// Status is the outcome of one case.
type Status int

const (
	// NotRun marks a case that was never attempted because an earlier case
	// failed or the session did not start.
	NotRun Status = iota
	Passed
	Failed
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "PASSED"
	case Failed:
		return "FAILED"
	case NotRun:
		return "NOT RUN"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status for reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// RunResult is the ordered outcome of a run.
type RunResult struct {
	Cases    []CaseResult  `json:"cases"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether every case passed.
func (r RunResult) OK() bool {
	for _, c := range r.Cases {
		if c.Status != Passed {
			return false
		}
	}
	return true
}

// FirstFailure returns the failed case, if any.
func (r RunResult) FirstFailure() (CaseResult, bool) {
	for _, c := range r.Cases {
		if c.Status == Failed {
			return c, true
		}
	}
	return CaseResult{}, false
}

// Count returns how many cases ended with status st.
func (r RunResult) Count(st Status) int {
	n := 0
	for _, c := range r.Cases {
		if c.Status == st {
			n++
		}
	}
	return n
}

func notRun(cases []Case) RunResult {
	r := RunResult{Cases: make([]CaseResult, len(cases))}
	for i, c := range cases {
		r.Cases[i] = CaseResult{Name: c.Name, Status: NotRun}
	}
	return r
}

// Run executes cases in order against s and stops at the first failure.
// Cases after it are reported as NotRun. Run does not close s.
func Run(s *Session, cases []Case) RunResult {
	clk := s.opts.clock
	start := clk.Now()
	result := notRun(cases)

	for i, c := range cases {
		log := s.log.WithField("case", c.Name)
		log.Debug("case started")

		caseStart := clk.Now()
		err := runCase(s, c)
		cr := &result.Cases[i]
		cr.Duration = clk.Since(caseStart)

		if err == nil {
			cr.Status = Passed
			log.WithField("duration", cr.Duration).Info("case passed")
			continue
		}

		cr.Status = Failed
		cr.Err = err
		cr.Detail = err.Error()
		log.WithError(err).Error("case failed")
		if remaining := len(cases) - i - 1; remaining > 0 {
			log.WithField("not_run", remaining).Warn("stopping run after failure")
		}
		break
	}

	result.Duration = clk.Since(start)
	return result
}

// runCase calls c.Run, stamping assertion failures with the case name and
// turning a panic into an error.
func runCase(s *Session, c Case) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("stack", string(debug.Stack())).Debug("case panicked")
			err = fmt.Errorf("pageprobe: case %q panicked: %v", c.Name, r)
		}
	}()

	err = c.Run(s)
	var af *AssertionFailure
	if errors.As(err, &af) && af.Case == "" {
		af.Case = c.Name
	}
	return err
}

// Execute opens a session on fixture, runs cases against it and closes it
// on every path. If the session cannot start, every case is NotRun and the
// *SessionStartError is returned. A failing case is reported in the result,
// not as an error; the error is only about the session.
func Execute(ctx context.Context, fixture string, cases []Case, opts ...Option) (RunResult, error) {
	var result RunResult
	err := With(ctx, fixture, func(s *Session) error {
		s.log.WithFields(logrus.Fields{"cases": len(cases)}).Info("run started")
		result = Run(s, cases)
		s.log.WithFields(logrus.Fields{
			"passed":  result.Count(Passed),
			"failed":  result.Count(Failed),
			"not_run": result.Count(NotRun),
		}).Info("run finished")
		return nil
	}, opts...)

	var startErr *SessionStartError
	if errors.As(err, &startErr) {
		return notRun(cases), err
	}
	return result, err
}
