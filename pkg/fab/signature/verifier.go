/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package signature verifies the endorsements of proposal responses
// against the endorser certificate they carry.
package signature

import (
	"crypto/x509"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-lib-go/bccsp"
	mspproto "github.com/hyperledger/fabric-protos-go/msp"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/cryptosuite"
)

// Verifier checks that the endorsement signature covers the response
// payload followed by the serialized endorser
type Verifier struct {
	now         func() time.Time
	cryptoSuite bccsp.BCCSP
}

// Option configures a Verifier
type Option func(*Verifier)

// WithTimeSource sets the time used to check certificate validity
func WithTimeSource(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// WithCryptoSuite sets the suite used to import endorser keys and verify
// signatures
func WithCryptoSuite(cs bccsp.BCCSP) Option {
	return func(v *Verifier) {
		v.cryptoSuite = cs
	}
}

// New returns a Verifier. Without WithCryptoSuite it uses the default suite.
func New(opts ...Option) *Verifier {
	v := &Verifier{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	if v.cryptoSuite == nil {
		v.cryptoSuite = cryptosuite.GetDefault()
	}
	return v
}

// Verify checks the endorsement of response
func (v *Verifier) Verify(response *pb.ProposalResponse) error {
	if response.GetEndorsement() == nil {
		return errors.WithStack(status.New(status.EndorserClientStatus, status.MissingEndorsement.ToInt32(), "missing endorsement in proposal response", nil))
	}
	endorser := response.Endorsement.Endorser

	cert, err := endorserCertificate(endorser)
	if err != nil {
		return errors.WithStack(status.New(status.EndorserClientStatus, status.SignatureVerificationFailed.ToInt32(), "the creator certificate is not valid", []interface{}{err.Error()}))
	}
	if err := ValidateCertificateDates(cert, v.now()); err != nil {
		return errors.WithStack(status.New(status.EndorserClientStatus, status.SignatureVerificationFailed.ToInt32(), "the creator certificate is not valid", []interface{}{err.Error()}))
	}

	key, err := cryptosuite.PublicKeyFromCert(v.cryptoSuite, cert)
	if err != nil {
		return errors.WithStack(status.New(status.EndorserClientStatus, status.SignatureVerificationFailed.ToInt32(), "the creator certificate is not valid", []interface{}{err.Error()}))
	}

	msg := append(append([]byte{}, response.Payload...), endorser...)
	if err := cryptosuite.Verify(v.cryptoSuite, key, msg, response.Endorsement.Signature); err != nil {
		return errors.WithStack(status.New(status.EndorserClientStatus, status.SignatureVerificationFailed.ToInt32(), "the creator's signature over the proposal is not valid", []interface{}{err.Error()}))
	}
	return nil
}

func endorserCertificate(serialized []byte) (*x509.Certificate, error) {
	sid := &mspproto.SerializedIdentity{}
	if err := proto.Unmarshal(serialized, sid); err != nil {
		return nil, errors.Wrap(err, "unmarshal of serialized identity failed")
	}
	cert, err := cryptosuite.ParseCertificate(sid.IdBytes)
	if err != nil {
		return nil, errors.WithMessagef(err, "endorser certificate of %s is invalid", sid.Mspid)
	}
	return cert, nil
}

// ValidateCertificateDates checks that cert is valid at now
func ValidateCertificateDates(cert *x509.Certificate, now time.Time) error {
	if now.Before(cert.NotBefore) {
		return errors.New("certificate provided is not valid until later date")
	}
	if now.After(cert.NotAfter) {
		return errors.New("certificate provided has expired")
	}
	return nil
}
