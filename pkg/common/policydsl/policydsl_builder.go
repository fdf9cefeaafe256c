/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package policydsl

import (
	"sort"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	mb "github.com/hyperledger/fabric-protos-go/msp"
	"github.com/pkg/errors"
)

// SignedBy creates a SignaturePolicy requiring a given signer's signature
func SignedBy(index int32) *cb.SignaturePolicy {
	return &cb.SignaturePolicy{
		Type: &cb.SignaturePolicy_SignedBy{
			SignedBy: index,
		},
	}
}

// And is a convenience method which utilizes NOutOf to produce And equivalent behavior
func And(lhs, rhs *cb.SignaturePolicy) *cb.SignaturePolicy {
	return NOutOf(2, []*cb.SignaturePolicy{lhs, rhs})
}

// Or is a convenience method which utilizes NOutOf to produce Or equivalent behavior
func Or(lhs, rhs *cb.SignaturePolicy) *cb.SignaturePolicy {
	return NOutOf(1, []*cb.SignaturePolicy{lhs, rhs})
}

// NOutOf creates a policy which requires N out of the slice of policies to evaluate to true
func NOutOf(n int32, policies []*cb.SignaturePolicy) *cb.SignaturePolicy {
	return &cb.SignaturePolicy{
		Type: &cb.SignaturePolicy_NOutOf_{
			NOutOf: &cb.SignaturePolicy_NOutOf{
				N:     n,
				Rules: policies,
			},
		},
	}
}

// RolePrincipal returns the principal of role in mspID
func RolePrincipal(mspID string, role mb.MSPRole_MSPRoleType) (*mb.MSPPrincipal, error) {
	principal, err := proto.Marshal(&mb.MSPRole{Role: role, MspIdentifier: mspID})
	if err != nil {
		return nil, errors.Wrap(err, "marshal of MSP role failed")
	}
	return &mb.MSPPrincipal{
		PrincipalClassification: mb.MSPPrincipal_ROLE,
		Principal:               principal,
	}, nil
}

// SignedByMspMember creates a SignaturePolicyEnvelope requiring 1 signature
// from any member of the specified MSP
func SignedByMspMember(mspID string) (*cb.SignaturePolicyEnvelope, error) {
	return signedByAnyOfGivenRole(mb.MSPRole_MEMBER, []string{mspID})
}

// SignedByAnyMember returns a policy that requires one valid signature
// from a member of any of the orgs whose ids are listed
func SignedByAnyMember(ids []string) (*cb.SignaturePolicyEnvelope, error) {
	return signedByAnyOfGivenRole(mb.MSPRole_MEMBER, ids)
}

// SignedByAnyAdmin returns a policy that requires one valid signature from
// an admin of any of the orgs whose ids are listed
func SignedByAnyAdmin(ids []string) (*cb.SignaturePolicyEnvelope, error) {
	return signedByAnyOfGivenRole(mb.MSPRole_ADMIN, ids)
}

func signedByAnyOfGivenRole(role mb.MSPRole_MSPRoleType, ids []string) (*cb.SignaturePolicyEnvelope, error) {
	if len(ids) == 0 {
		return nil, errors.New("at least one MSP id is required")
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	principals := make([]*mb.MSPPrincipal, len(sorted))
	sigspolicy := make([]*cb.SignaturePolicy, len(sorted))
	for i, id := range sorted {
		principal, err := RolePrincipal(id, role)
		if err != nil {
			return nil, err
		}
		principals[i] = principal
		sigspolicy[i] = SignedBy(int32(i))
	}

	return &cb.SignaturePolicyEnvelope{
		Version:    0,
		Rule:       NOutOf(1, sigspolicy),
		Identities: principals,
	}, nil
}
