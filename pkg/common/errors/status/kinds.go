/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

// IsPrecondition reports a request rejected before any network call
func IsPrecondition(err error) bool {
	return Is(err, ClientStatus, PreconditionFailed)
}

// IsEndorsement reports a failed or unverified endorsement
func IsEndorsement(err error) bool {
	return Is(err, EndorserClientStatus, EndorsementFailed)
}

// IsConsistency reports endorsements that split into several consistency sets
func IsConsistency(err error) bool {
	return Is(err, EndorserClientStatus, EndorsementMismatch)
}

// IsIntegrity reports endorsements that do not match the request
func IsIntegrity(err error) bool {
	return Is(err, EndorserClientStatus, IntegrityViolation)
}

// IsCommitTimeout reports a commit wait that expired
func IsCommitTimeout(err error) bool {
	return Is(err, ClientStatus, CommitTimeout)
}

// IsLifecycleState reports an instantiate or upgrade that conflicts with the
// current lifecycle state of the chaincode
func IsLifecycleState(err error) bool {
	return Is(err, ClientStatus, LifecycleStateConflict)
}
