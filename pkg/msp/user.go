/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package msp provides ECDSA signing identities and the identity store
// resolving them by user and organization.
package msp

import (
	"crypto/x509"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-lib-go/bccsp"
	mspproto "github.com/hyperledger/fabric-protos-go/msp"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/cryptosuite"
)

// identity is the public part of a user
type identity struct {
	id                    string
	mspID                 string
	enrollmentCertificate []byte
	cert                  *x509.Certificate
	cryptoSuite           bccsp.BCCSP
	publicKey             bccsp.Key
}

// User is a signing identity backed by an enrollment certificate and its
// ECDSA private key
type User struct {
	identity
	privateKey bccsp.Key
}

// NewUser creates a User from the PEM certificate and private key of
// userData using the default crypto suite
func NewUser(userData *msp.UserData) (*User, error) {
	return newUser(cryptosuite.GetDefault(), userData)
}

func newUser(cs bccsp.BCCSP, userData *msp.UserData) (*User, error) {
	if userData == nil {
		return nil, errors.New("user data is nil")
	}
	cert, err := cryptosuite.ParseCertificate(userData.EnrollmentCertificate)
	if err != nil {
		return nil, errors.WithMessagef(err, "certificate of user %s is invalid", userData.ID)
	}
	publicKey, err := cryptosuite.PublicKeyFromCert(cs, cert)
	if err != nil {
		return nil, errors.WithMessagef(err, "certificate of user %s is invalid", userData.ID)
	}
	privateKey, err := cryptosuite.PrivateKeyFromPEM(cs, userData.PrivateKey)
	if err != nil {
		return nil, errors.WithMessagef(err, "private key of user %s is invalid", userData.ID)
	}
	if !cryptosuite.MatchesPublicKey(privateKey, publicKey) {
		return nil, errors.Errorf("private key of user %s does not match the certificate", userData.ID)
	}
	return &User{
		identity: identity{
			id:                    userData.ID,
			mspID:                 userData.MSPID,
			enrollmentCertificate: userData.EnrollmentCertificate,
			cert:                  cert,
			cryptoSuite:           cs,
			publicKey:             publicKey,
		},
		privateKey: privateKey,
	}, nil
}

// Identifier returns user identifier
func (i *identity) Identifier() *msp.IdentityIdentifier {
	return &msp.IdentityIdentifier{MSPID: i.mspID, ID: i.id}
}

// Verify a signature over some message using this identity as reference
func (i *identity) Verify(msg []byte, sig []byte) error {
	return cryptosuite.Verify(i.cryptoSuite, i.publicKey, msg, sig)
}

// Serialize returns a serialized version of this identity
func (i *identity) Serialize() ([]byte, error) {
	serializedIdentity := &mspproto.SerializedIdentity{
		Mspid:   i.mspID,
		IdBytes: i.enrollmentCertificate,
	}
	identityBytes, err := proto.Marshal(serializedIdentity)
	if err != nil {
		return nil, errors.Wrap(err, "marshal serializedIdentity failed")
	}
	return identityBytes, nil
}

// EnrollmentCertificate Returns the underlying ECert representing this user’s identity.
func (i *identity) EnrollmentCertificate() []byte {
	return i.enrollmentCertificate
}

// Sign the message with the private key. The signature is the ASN.1
// encoded ECDSA signature of the SHA-256 digest with a low S value.
func (u *User) Sign(msg []byte) ([]byte, error) {
	return cryptosuite.Sign(u.cryptoSuite, u.privateKey, msg)
}

// PublicVersion returns the public parts of this identity
func (u *User) PublicVersion() msp.Identity {
	return &u.identity
}
