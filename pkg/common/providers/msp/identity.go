/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import "github.com/pkg/errors"

var (
	// ErrUserNotFound indicates the user was not found
	ErrUserNotFound = errors.New("user not found")
	// ErrChannelNotFound indicates no topology is stored for the channel
	ErrChannelNotFound = errors.New("channel topology not found")
)

// IdentityIdentifier is a holder for the identifier of a specific
// identity, naturally namespaced, by its provider identifier.
type IdentityIdentifier struct {
	// The identifier of the associated membership service provider
	MSPID string

	// The identifier for an identity within a provider
	ID string
}

// Identity represents a Fabric client identity
type Identity interface {
	Identifier() *IdentityIdentifier
	Verify(msg []byte, sig []byte) error
	// Serialize returns the marshalled msp.SerializedIdentity
	Serialize() ([]byte, error)
	EnrollmentCertificate() []byte
}

// SigningIdentity is an extension of Identity to cover signing capabilities.
type SigningIdentity interface {
	Identity
	Sign(msg []byte) ([]byte, error)
	PublicVersion() Identity
}

// UserData is the persisted form of a user
type UserData struct {
	ID                    string
	MSPID                 string
	EnrollmentCertificate []byte
	PrivateKey            []byte
}

// UserStore is responsible for UserData persistence
type UserStore interface {
	Store(*UserData) error
	Load(IdentityIdentifier) (*UserData, error)
}

// IdentityStore resolves identities by user and organization and keeps the
// serialized topology of channels.
type IdentityStore interface {
	GetIdentity(user, org string) (SigningIdentity, error)
	StoreIdentity(user *UserData) error
	SaveChannelTopology(channelID string, topology []byte) error
	LoadChannelTopology(channelID string) ([]byte, error)
}
