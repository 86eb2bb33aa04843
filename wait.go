package pageprobe

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WaitUntil evaluates c until it holds or timeout elapses and returns the
// element c yielded. A condition that already holds returns at once.
//
// Between attempts it sleeps the poll interval, never past the deadline, so
// a timeout is reported with an elapsed time of at least timeout and less
// than timeout plus one interval. A timeout of 0 uses the session default.
//
// Missing and stale elements are expected while waiting and are retried.
// Any other error from c ends the wait immediately.
func (s *Session) WaitUntil(c Condition, timeout time.Duration, wopts ...WaitOption) (*Element, error) {
	wo := waitOptions{}
	for _, o := range wopts {
		o(&wo)
	}

	if timeout < 0 {
		return nil, fmt.Errorf("pageprobe: wait-until: negative timeout: %v", timeout)
	}
	if timeout == 0 {
		timeout = s.opts.timeout
	}

	interval := s.opts.pollInterval
	if wo.pollInterval > 0 {
		interval = wo.pollInterval
		if interval < minPollInterval {
			interval = minPollInterval
		}
	} else if wo.pollInterval < 0 {
		return nil, fmt.Errorf("pageprobe: wait-until: negative poll interval: %v", wo.pollInterval)
	}

	log := s.log.WithField("condition", c.Description)
	schedule := s.schedule(interval)
	clk := s.opts.clock
	start := clk.Now()
	attempts := 0

	for {
		attempts++
		el, ok, err := c.Check(s)
		if err != nil && !transient(err) {
			return nil, fmt.Errorf("pageprobe: wait-until %s: %w", c.Description, err)
		}
		if err == nil && ok {
			log.WithField("attempts", attempts).Debug("condition satisfied")
			return el, nil
		}

		elapsed := clk.Since(start)
		if elapsed >= timeout {
			log.WithField("attempts", attempts).Debug("condition timed out")
			return nil, &WaitTimeoutError{
				Description: c.Description,
				Elapsed:     elapsed,
				Attempts:    attempts,
				Last:        err,
			}
		}

		next := schedule.NextBackOff()
		if next == backoff.Stop || next > interval {
			next = interval
		}
		if remaining := timeout - elapsed; next > remaining {
			next = remaining
		}
		clk.Sleep(next)
	}
}

// schedule returns the sleep schedule between attempts: constant by default,
// exponential up to interval with WithBackoff.
func (s *Session) schedule(interval time.Duration) backoff.BackOff {
	if !s.opts.backoff {
		return backoff.NewConstantBackOff(interval)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = minPollInterval
	b.MaxInterval = interval
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// transient reports whether err means "not yet" inside a wait.
func transient(err error) bool {
	var nf *ElementNotFoundError
	var stale *StaleElementError
	return errors.As(err, &nf) || errors.As(err, &stale)
}
