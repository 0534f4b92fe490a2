package playback

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrDurationTimeout is returned when a track never reports a usable
// duration within the wait budget.
var ErrDurationTimeout = errors.New("timeout waiting for audio metadata")

var errNoDuration = errors.New("duration not available yet")

// DurationSource reports the length of the loaded track in seconds. Until
// the audio metadata is in, it may report zero, a negative value or NaN.
type DurationSource interface {
	Duration() float64
}

// WaitOptions bound the duration poll.
type WaitOptions struct {
	Timeout  time.Duration
	Interval time.Duration
}

// DefaultWait polls every 100ms for up to 10s.
var DefaultWait = WaitOptions{Timeout: 10 * time.Second, Interval: 100 * time.Millisecond}

func validDuration(d float64) bool {
	return d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

// WaitForDuration polls src until it reports a finite positive duration.
// It gives up with ErrDurationTimeout after opts.Timeout, or with the
// context's error if ctx ends first.
func WaitForDuration(ctx context.Context, src DurationSource, opts WaitOptions) (float64, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultWait.Timeout
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultWait.Interval
	}

	poll := func() (float64, error) {
		if d := src.Duration(); validDuration(d) {
			return d, nil
		}
		return 0, errNoDuration
	}

	d, err := backoff.Retry(ctx, poll,
		backoff.WithBackOff(backoff.NewConstantBackOff(opts.Interval)),
		backoff.WithMaxElapsedTime(opts.Timeout),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, ErrDurationTimeout
	}
	return d, nil
}

// ReportedDuration is a DurationSource fed by the browser's audio element,
// which posts the track length once its metadata has loaded. Each report
// carries the load token the page was rendered with, so a late report for
// an earlier track is dropped.
type ReportedDuration struct {
	mu      sync.Mutex
	load    uint64
	seconds float64
}

// Expect forgets the previous report and accepts reports for load only.
func (r *ReportedDuration) Expect(load uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load = load
	r.seconds = 0
}

// Report records d seconds for load and reports whether load is the one
// expected.
func (r *ReportedDuration) Report(load uint64, d float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if load != r.load {
		return false
	}
	r.seconds = d
	return true
}

// Duration implements DurationSource.
func (r *ReportedDuration) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seconds
}
