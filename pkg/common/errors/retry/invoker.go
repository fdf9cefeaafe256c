/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/multi"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
)

var logger = logging.NewLogger("orchestrator/common")

// Invocation is the function to be invoked.
type Invocation func() (interface{}, error)

// BeforeRetryHandler is invoked before a retry attempt.
type BeforeRetryHandler func(error)

// RetryableInvoker invokes a function and retries it on transient errors.
type RetryableInvoker struct {
	handler     Handler
	beforeRetry BeforeRetryHandler
}

// InvokerOpt is an invoker option
type InvokerOpt func(invoker *RetryableInvoker)

// WithBeforeRetry specifies a function to call before a retry attempt
func WithBeforeRetry(beforeRetry BeforeRetryHandler) InvokerOpt {
	return func(invoker *RetryableInvoker) {
		invoker.beforeRetry = beforeRetry
	}
}

// NewInvoker creates a new RetryableInvoker. A nil handler disables retries.
func NewInvoker(handler Handler, opts ...InvokerOpt) *RetryableInvoker {
	invoker := &RetryableInvoker{
		handler: handler,
	}
	for _, opt := range opts {
		opt(invoker)
	}
	return invoker
}

// Invoke calls invocation until it succeeds or the handler declines a retry.
func (ri *RetryableInvoker) Invoke(invocation Invocation) (interface{}, error) {
	attemptNum := 0
	var lastErr error

	for {
		attemptNum++
		if attemptNum > 1 {
			logger.Debugf("Retry attempt #%d on error [%s]", attemptNum, lastErr)
		}

		retval, err := invocation()
		if err == nil {
			if attemptNum > 1 {
				logger.Debugf("Success on attempt #%d after error [%s]", attemptNum, lastErr)
			}
			return retval, nil
		}

		if !ri.resolveRetry(err) {
			logger.Debugf("Retry for err [%s] is not warranted after %d attempt(s)", err, attemptNum)
			return nil, err
		}
		lastErr = err
	}
}

func (ri *RetryableInvoker) resolveRetry(err error) bool {
	if ri.handler == nil {
		return false
	}
	errs, ok := err.(multi.Errors)
	if !ok {
		errs = multi.Errors{err}
	}
	for _, e := range errs {
		if ri.handler.Required(e) {
			if ri.beforeRetry != nil {
				ri.beforeRetry(err)
			}
			return true
		}
	}
	return false
}
