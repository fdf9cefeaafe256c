/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package retry provides caller-side retransmission for read-only calls.
// Lifecycle mutations, invokes and commit submission are never retried;
// the options here are accepted only by registry and query operations
// through their WithRetry request options.
package retry

import (
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
)

// Opts defines the retry parameters
type Opts struct {
	// Attempts the number retry attempts
	Attempts int
	// InitialBackoff the backoff interval for the first retry attempt
	InitialBackoff time.Duration
	// MaxBackoff the maximum backoff interval for any retry attempt
	MaxBackoff time.Duration
	// BackoffFactor the factor by which the InitialBackoff is exponentially
	// incremented for consecutive retry attempts.
	BackoffFactor float64
	// RetryableCodes defines the status codes, mapped by group, that warrant
	// a retry. This will default to retry.DefaultRetryableCodes.
	RetryableCodes map[status.Group][]status.Code
}

// Handler decides whether a retry is required for the given error
type Handler interface {
	Required(err error) bool
}

// Option configures a Handler
type Option func(*impl)

// WithClock sets the clock used to sleep between attempts
func WithClock(clk clock.Clock) Option {
	return func(i *impl) {
		i.clock = clk
	}
}

type impl struct {
	opts    Opts
	retries int
	clock   clock.Clock
}

// New retry Handler with the given opts
func New(opts Opts, options ...Option) Handler {
	if len(opts.RetryableCodes) == 0 {
		opts.RetryableCodes = DefaultRetryableCodes
	}
	i := &impl{opts: opts, clock: clock.NewClock()}
	for _, o := range options {
		o(i)
	}
	return i
}

// WithDefaults new retry Handler with default opts
func WithDefaults() Handler {
	return New(DefaultOpts)
}

// WithAttempts new retry Handler with given attempts. Other opts are set to default.
func WithAttempts(attempts int) Handler {
	opts := DefaultOpts
	opts.Attempts = attempts
	return New(opts)
}

// Required determines if retry is required for the given error.
// The backoff sleep happens inside Required.
func (i *impl) Required(err error) bool {
	if i.retries >= i.opts.Attempts {
		return false
	}

	s, ok := status.FromError(err)
	if ok && i.isRetryable(s.Group, s.Code) {
		i.clock.Sleep(i.backoffPeriod())
		i.retries++
		return true
	}

	return false
}

func (i *impl) backoffPeriod() time.Duration {
	backoff, max := float64(i.opts.InitialBackoff), float64(i.opts.MaxBackoff)
	for j := 0; j < i.retries && backoff < max; j++ {
		backoff *= i.opts.BackoffFactor
	}
	if backoff > max {
		backoff = max
	}

	return time.Duration(backoff)
}

// isRetryable reports whether the status is configured as retryable.
// Codes that signal wrong data are never retryable.
func (i *impl) isRetryable(g status.Group, c int32) bool {
	if IsFatal(g, status.Code(c)) {
		return false
	}
	for _, code := range i.opts.RetryableCodes[g] {
		if status.Code(c) == code {
			return true
		}
	}
	return false
}

// IsFatal returns true for the statuses that must never be retried.
func IsFatal(g status.Group, c status.Code) bool {
	for _, code := range fatalCodes[g] {
		if c == code {
			return true
		}
	}
	return false
}
