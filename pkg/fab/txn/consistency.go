/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	"bytes"

	"github.com/golang/protobuf/proto"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

const successStatus = 200

// Succeeded returns true when the endorser reported success
func Succeeded(r *fab.TransactionProposalResponse) bool {
	if r == nil || r.ProposalResponse == nil || r.ProposalResponse.Response == nil {
		return false
	}
	return r.ProposalResponse.Response.Status == successStatus
}

// Accepted returns true for a successful response whose endorsement was
// verified
func Accepted(r *fab.TransactionProposalResponse) bool {
	return Succeeded(r) && r.Verified
}

// ConsistencySets groups the accepted responses by their signed payload. The
// payload embeds the proposal hash and the chaincode action, so two
// responses fall into the same set only if they propose the same ledger
// effect. Sets are returned in the order their first member appears.
func ConsistencySets(responses []*fab.TransactionProposalResponse) [][]*fab.TransactionProposalResponse {
	var sets [][]*fab.TransactionProposalResponse
	for _, r := range responses {
		if !Accepted(r) {
			continue
		}
		placed := false
		for i, set := range sets {
			if bytes.Equal(set[0].ProposalResponse.Payload, r.ProposalResponse.Payload) {
				sets[i] = append(set, r)
				placed = true
				break
			}
		}
		if !placed {
			sets = append(sets, []*fab.TransactionProposalResponse{r})
		}
	}
	return sets
}

// ChaincodeAction decodes the chaincode action carried by the payload of a
// proposal response
func ChaincodeAction(response *pb.ProposalResponse) (*pb.ChaincodeAction, error) {
	if response == nil || len(response.Payload) == 0 {
		return nil, errors.New("proposal response has no payload")
	}

	prp := &pb.ProposalResponsePayload{}
	if err := proto.Unmarshal(response.Payload, prp); err != nil {
		return nil, errors.Wrap(err, "unmarshal of proposal response payload failed")
	}

	action := &pb.ChaincodeAction{}
	if err := proto.Unmarshal(prp.Extension, action); err != nil {
		return nil, errors.Wrap(err, "unmarshal of chaincode action failed")
	}
	return action, nil
}
