/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"time"

	"github.com/hyperledger/fabric-protos-go/common"
	grpcCodes "google.golang.org/grpc/codes"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
)

const (
	// DefaultAttempts number of retry attempts made by default
	DefaultAttempts = 3
	// DefaultInitialBackoff default initial backoff
	DefaultInitialBackoff = 500 * time.Millisecond
	// DefaultMaxBackoff default maximum backoff
	DefaultMaxBackoff = 60 * time.Second
	// DefaultBackoffFactor default backoff factor
	DefaultBackoffFactor = 2.0
)

// DefaultOpts default retry options
var DefaultOpts = Opts{
	Attempts:       DefaultAttempts,
	InitialBackoff: DefaultInitialBackoff,
	MaxBackoff:     DefaultMaxBackoff,
	BackoffFactor:  DefaultBackoffFactor,
	RetryableCodes: DefaultRetryableCodes,
}

// DefaultRetryableCodes are the transport-level conditions treated as
// transient.
var DefaultRetryableCodes = map[status.Group][]status.Code{
	status.EndorserClientStatus: {
		status.ConnectionFailed,
	},
	status.EndorserServerStatus: {
		status.Code(common.Status_SERVICE_UNAVAILABLE),
	},
	status.GRPCTransportStatus: {
		status.Code(grpcCodes.Unavailable),
	},
}

// TestRetryableCodes are used by tests
var TestRetryableCodes = map[status.Group][]status.Code{
	status.TestStatus: {
		status.GenericTransient,
	},
}

var fatalCodes = map[status.Group][]status.Code{
	status.EndorserClientStatus: {
		status.EndorsementMismatch,
		status.IntegrityViolation,
		status.EndorsementFailed,
	},
	status.ClientStatus: {
		status.PreconditionFailed,
		status.CommitTimeout,
		status.LifecycleStateConflict,
	},
	status.EventServerStatus: {
		status.InvalidCommitNotification,
	},
}
