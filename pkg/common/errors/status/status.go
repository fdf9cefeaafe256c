/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package status defines the metadata attached to errors returned by the
// orchestrator. Callers use the Group and Code of a Status to tell apart
// conditions that may be retried (a peer was unreachable) from those that
// must not be (endorsers disagreed, a response did not match the request).
//
// Status codes are divided by group, where each group represents the
// component that produced the code.
package status

import (
	"fmt"
	"strings"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/multi"
)

// Status provides additional information about an unsuccessful operation.
type Status struct {
	// Group status group
	Group Group
	// Code status code
	Code int32
	// Message status message
	Message string
	// Details any additional status details. A Context entry, when present,
	// identifies the node, transaction and chaincode involved.
	Details []interface{}
}

// Group of status to help users infer status codes from various components
type Group int32

const (
	// UnknownStatus unknown status group
	UnknownStatus Group = iota

	// GRPCTransportStatus is the status associated with requests made over
	// gRPC connections
	GRPCTransportStatus

	// EndorserServerStatus status returned by the endorser server
	EndorserServerStatus
	// EventServerStatus status returned by the event service. The code is a
	// transaction validation code.
	EventServerStatus
	// OrdererServerStatus status returned by the ordering service
	OrdererServerStatus

	// EndorserClientStatus status inferred while validating endorsements
	EndorserClientStatus
	// OrdererClientStatus status inferred while talking to the orderer
	OrdererClientStatus
	// ClientStatus is a generic client status
	ClientStatus

	// ChaincodeStatus defines the status codes returned by chaincode
	ChaincodeStatus

	// TestStatus is used by tests to create retry codes.
	TestStatus
)

// GroupName maps the groups in this packages to human-readable strings
var GroupName = map[int32]string{
	0: "Unknown",
	1: "gRPC Transport Status",
	2: "Endorser Server Status",
	3: "Event Server Status",
	4: "Orderer Server Status",
	5: "Endorser Client Status",
	6: "Orderer Client Status",
	7: "Client Status",
	8: "Chaincode status",
	9: "Test status",
}

func (g Group) String() string {
	if s, ok := GroupName[int32(g)]; ok {
		return s
	}
	return UnknownStatus.String()
}

// Context identifies the party an error relates to.
type Context struct {
	Node        string
	TxID        string
	ChaincodeID string
	Verified    bool
	Failed      int
	Succeeded   int
}

func (c Context) String() string {
	var parts []string
	if c.Node != "" {
		parts = append(parts, "node="+c.Node)
	}
	if c.TxID != "" {
		parts = append(parts, "txID="+c.TxID)
	}
	if c.ChaincodeID != "" {
		parts = append(parts, "chaincode="+c.ChaincodeID)
	}
	if c.Node != "" {
		parts = append(parts, fmt.Sprintf("verified=%t", c.Verified))
	}
	if c.Failed > 0 || c.Succeeded > 0 {
		parts = append(parts, fmt.Sprintf("failed=%d succeeded=%d", c.Failed, c.Succeeded))
	}
	return strings.Join(parts, " ")
}

// FromError returns a Status representing err if available,
// otherwise it returns nil, false.
func FromError(err error) (s *Status, ok bool) {
	if err == nil {
		return &Status{Code: int32(OK)}, true
	}
	if s, ok := err.(*Status); ok {
		return s, true
	}
	unwrappedErr := errors.Cause(err)
	if s, ok := unwrappedErr.(*Status); ok {
		return s, true
	}
	if m, ok := unwrappedErr.(multi.Errors); ok {
		details := make([]interface{}, len(m))
		for i, e := range m {
			details[i] = e
		}
		return New(ClientStatus, MultipleErrors.ToInt32(), m.Error(), details), true
	}

	return nil, false
}

// Is returns true if err carries a Status with the given group and code.
func Is(err error, group Group, code Code) bool {
	s, ok := FromError(err)
	if !ok || err == nil {
		return false
	}
	return s.Group == group && s.Code == code.ToInt32()
}

// ContextOf returns the Context attached to the Status carried by err
func ContextOf(err error) (Context, bool) {
	s, ok := FromError(err)
	if !ok || err == nil {
		return Context{}, false
	}
	for _, d := range s.Details {
		if c, ok := d.(Context); ok {
			return c, true
		}
	}
	return Context{}, false
}

func (s *Status) Error() string {
	msg := fmt.Sprintf("%s Code: (%d) %s. Description: %s", s.Group.String(), s.Code, s.codeString(), s.Message)
	for _, d := range s.Details {
		if c, ok := d.(Context); ok {
			if cs := c.String(); cs != "" {
				msg += " [" + cs + "]"
			}
			break
		}
	}
	return msg
}

func (s *Status) codeString() string {
	switch s.Group {
	case GRPCTransportStatus:
		return ToGRPCStatusCode(s.Code).String()
	case EndorserServerStatus, OrdererServerStatus:
		return ToFabricCommonStatusCode(s.Code).String()
	case EventServerStatus:
		return ToTransactionValidationCode(s.Code).String()
	case EndorserClientStatus, OrdererClientStatus, ClientStatus:
		return ToSDKStatusCode(s.Code).String()
	default:
		return Unknown.String()
	}
}

// New returns a Status with the given parameters
func New(group Group, code int32, msg string, details []interface{}) *Status {
	return &Status{Group: group, Code: code, Message: msg, Details: details}
}

// NewWithContext returns a Status whose details hold ctx
func NewWithContext(group Group, code Code, ctx Context, format string, args ...interface{}) *Status {
	return New(group, code.ToInt32(), fmt.Sprintf(format, args...), []interface{}{ctx})
}

// NewPrecondition returns a client status for a missing or conflicting
// request field. Precondition failures never reach the network.
func NewPrecondition(format string, args ...interface{}) *Status {
	return New(ClientStatus, PreconditionFailed.ToInt32(), fmt.Sprintf(format, args...), nil)
}

// NewFromProposalResponse creates a status created from the given ProposalResponse
func NewFromProposalResponse(res *pb.ProposalResponse, endorser string) *Status {
	if res == nil || res.Response == nil {
		return nil
	}
	details := []interface{}{endorser, res.Response.Payload}

	return New(EndorserServerStatus, res.Response.Status, res.Response.Message, details)
}

// NewFromGRPCStatus new Status from gRPC status response
func NewFromGRPCStatus(s *grpcstatus.Status) *Status {
	if s == nil {
		return nil
	}
	details := make([]interface{}, len(s.Proto().Details))
	for i, detail := range s.Proto().Details {
		details[i] = detail
	}

	return &Status{Group: GRPCTransportStatus, Code: s.Proto().Code,
		Message: s.Message(), Details: details}
}
