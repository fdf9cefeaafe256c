/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"strconv"

	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	grpcCodes "google.golang.org/grpc/codes"
)

// Code represents a status code
type Code uint32

const (
	// OK is returned on success.
	OK Code = 0

	// Unknown represents status codes that are uncategorized or unknown
	Unknown Code = 1

	// ConnectionFailed is returned when a network connection attempt fails
	ConnectionFailed Code = 2

	// EndorsementMismatch is returned when the successful endorsements split
	// into more than one consistency set
	EndorsementMismatch Code = 3

	// Timeout operation timed out
	Timeout Code = 5

	// NoPeersFound no target peers were configured or selected
	NoPeersFound Code = 6

	// MultipleErrors multiple errors occurred
	MultipleErrors Code = 7

	// SignatureVerificationFailed is when signature fails verification
	SignatureVerificationFailed Code = 8

	// MissingEndorsement a proposal response carries no endorsement
	MissingEndorsement Code = 9

	// GenericTransient is generally used by tests to indicate that a retry is possible
	GenericTransient Code = 12

	// PreconditionFailed a required request field is missing or two
	// mutually exclusive fields are both set
	PreconditionFailed Code = 30

	// EndorsementFailed one or more endorsers returned a failure status
	EndorsementFailed Code = 31

	// IntegrityViolation the endorsed chaincode identity, payload marker or
	// read/write set does not match the request
	IntegrityViolation Code = 32

	// CommitTimeout no commit notification arrived within the wait budget
	CommitTimeout Code = 33

	// LifecycleStateConflict instantiate of an instantiated chaincode, or
	// upgrade of one that was never instantiated
	LifecycleStateConflict Code = 34

	// InvalidCommitNotification a commit notification arrived without a
	// signature or block reference
	InvalidCommitNotification Code = 35

	// QueryFailed a query target failed or was not verified
	QueryFailed Code = 36

	// InstallFailed an install target rejected the package
	InstallFailed Code = 37

	// InstantiateFailed an instantiate endorsement failed or was not verified
	InstantiateFailed Code = 38

	// UpgradeFailed an upgrade endorsement failed
	UpgradeFailed Code = 39
)

// CodeName maps the codes in this packages to human-readable strings
var CodeName = map[int32]string{
	0:  "OK",
	1:  "UNKNOWN",
	2:  "CONNECTION_FAILED",
	3:  "ENDORSEMENT_MISMATCH",
	5:  "TIMEOUT",
	6:  "NO_PEERS_FOUND",
	7:  "MULTIPLE_ERRORS",
	8:  "SIGNATURE_VERIFICATION_FAILED",
	9:  "MISSING_ENDORSEMENT",
	12: "GENERIC_TRANSIENT",
	30: "PRECONDITION_FAILED",
	31: "ENDORSEMENT_FAILED",
	32: "INTEGRITY_VIOLATION",
	33: "COMMIT_TIMEOUT",
	34: "LIFECYCLE_STATE_CONFLICT",
	35: "INVALID_COMMIT_NOTIFICATION",
	36: "QUERY_FAILED",
	37: "INSTALL_FAILED",
	38: "INSTANTIATE_FAILED",
	39: "UPGRADE_FAILED",
}

// ToInt32 cast to int32
func (c Code) ToInt32() int32 {
	return int32(c)
}

// String representation of the code
func (c Code) String() string {
	if s, ok := CodeName[c.ToInt32()]; ok {
		return s
	}
	return strconv.Itoa(int(c))
}

// ToSDKStatusCode cast to client status code
func ToSDKStatusCode(c int32) Code {
	return Code(c)
}

// ToGRPCStatusCode cast to gRPC status code
func ToGRPCStatusCode(c int32) grpcCodes.Code {
	return grpcCodes.Code(c)
}

// ToFabricCommonStatusCode cast to common.Status
func ToFabricCommonStatusCode(c int32) common.Status {
	return common.Status(c)
}

// ToTransactionValidationCode cast to transaction validation status code
func ToTransactionValidationCode(c int32) pb.TxValidationCode {
	return pb.TxValidationCode(c)
}
