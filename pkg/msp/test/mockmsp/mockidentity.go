/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mockmsp provides signing identities for tests.
package mockmsp

import (
	"crypto/sha256"

	"github.com/golang/protobuf/proto"
	mspproto "github.com/hyperledger/fabric-protos-go/msp"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
)

// MockSigningIdentity signs with a digest of the message. Verify accepts
// any signature unless VerifyErr is set.
type MockSigningIdentity struct {
	ID    string
	MSPID string
	Cert  []byte
	// SignErr is returned by Sign when set
	SignErr error
	// VerifyErr is returned by Verify when set
	VerifyErr error
}

// NewMockSigningIdentity returns an identity of user id in mspID
func NewMockSigningIdentity(id, mspID string) *MockSigningIdentity {
	return &MockSigningIdentity{
		ID:    id,
		MSPID: mspID,
		Cert:  []byte("-----BEGIN CERTIFICATE-----\n" + id + "@" + mspID + "\n-----END CERTIFICATE-----\n"),
	}
}

// Identifier returns the identifier of the identity
func (m *MockSigningIdentity) Identifier() *msp.IdentityIdentifier {
	return &msp.IdentityIdentifier{MSPID: m.MSPID, ID: m.ID}
}

// Verify returns VerifyErr
func (m *MockSigningIdentity) Verify(msg []byte, sig []byte) error {
	return m.VerifyErr
}

// Serialize returns the marshalled SerializedIdentity
func (m *MockSigningIdentity) Serialize() ([]byte, error) {
	serializedIdentity := &mspproto.SerializedIdentity{
		Mspid:   m.MSPID,
		IdBytes: m.Cert,
	}
	identity, err := proto.Marshal(serializedIdentity)
	if err != nil {
		return nil, errors.Wrap(err, "marshal serializedIdentity failed")
	}
	return identity, nil
}

// EnrollmentCertificate returns the certificate bytes
func (m *MockSigningIdentity) EnrollmentCertificate() []byte {
	return m.Cert
}

// Sign returns the SHA-256 digest of msg
func (m *MockSigningIdentity) Sign(msg []byte) ([]byte, error) {
	if m.SignErr != nil {
		return nil, m.SignErr
	}
	digest := sha256.Sum256(msg)
	return digest[:], nil
}

// PublicVersion returns the identity itself
func (m *MockSigningIdentity) PublicVersion() msp.Identity {
	return m
}
