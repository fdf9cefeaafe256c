/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signature

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	mspproto "github.com/hyperledger/fabric-protos-go/msp"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/cryptosuite"
	"github.com/fabric-orchestrator/orchestrator/pkg/msp/test/mockmsp"
)

func signedResponse(t *testing.T, payload []byte) *pb.ProposalResponse {
	certPEM, keyPEM, err := mockmsp.GenerateCertKey("peer0.org1.example.com")
	require.NoError(t, err)
	cs := cryptosuite.GetDefault()
	key, err := cryptosuite.PrivateKeyFromPEM(cs, keyPEM)
	require.NoError(t, err)

	endorser, err := proto.Marshal(&mspproto.SerializedIdentity{Mspid: "Org1MSP", IdBytes: certPEM})
	require.NoError(t, err)
	sig, err := cryptosuite.Sign(cs, key, append(append([]byte{}, payload...), endorser...))
	require.NoError(t, err)

	return &pb.ProposalResponse{
		Response:    &pb.Response{Status: 200},
		Payload:     payload,
		Endorsement: &pb.Endorsement{Endorser: endorser, Signature: sig},
	}
}

func TestVerify(t *testing.T) {
	response := signedResponse(t, []byte("proposal response payload"))
	assert.NoError(t, New().Verify(response))
}

func TestVerifyTampered(t *testing.T) {
	response := signedResponse(t, []byte("proposal response payload"))
	response.Payload = []byte("other payload")
	err := New().Verify(response)
	assert.True(t, status.Is(err, status.EndorserClientStatus, status.SignatureVerificationFailed))
}

func TestVerifyMissingEndorsement(t *testing.T) {
	err := New().Verify(&pb.ProposalResponse{Payload: []byte("p")})
	assert.True(t, status.Is(err, status.EndorserClientStatus, status.MissingEndorsement))
}

func TestVerifyInvalidEndorser(t *testing.T) {
	response := signedResponse(t, []byte("p"))
	response.Endorsement.Endorser = []byte("garbage")
	err := New().Verify(response)
	assert.True(t, status.Is(err, status.EndorserClientStatus, status.SignatureVerificationFailed))
}

func TestVerifyExpiredCertificate(t *testing.T) {
	response := signedResponse(t, []byte("p"))
	future := func() time.Time { return time.Now().Add(48 * time.Hour) }
	err := New(WithTimeSource(future)).Verify(response)
	assert.True(t, status.Is(err, status.EndorserClientStatus, status.SignatureVerificationFailed))
}

func TestVerifyWithCryptoSuite(t *testing.T) {
	cs, err := cryptosuite.NewSoftwareSuite()
	require.NoError(t, err)
	response := signedResponse(t, []byte("p"))
	assert.NoError(t, New(WithCryptoSuite(cs)).Verify(response))
}

type ecdsaSignature struct {
	R, S *big.Int
}

func TestVerifyRejectsHighS(t *testing.T) {
	certPEM, keyPEM, err := mockmsp.GenerateCertKey("peer0.org1.example.com")
	require.NoError(t, err)
	block, _ := pem.Decode(keyPEM)
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	key := parsed.(*ecdsa.PrivateKey)

	payload := []byte("p")
	endorser, err := proto.Marshal(&mspproto.SerializedIdentity{Mspid: "Org1MSP", IdBytes: certPEM})
	require.NoError(t, err)
	digest := sha256.Sum256(append(append([]byte{}, payload...), endorser...))
	r, s, err := ecdsa.Sign(rand.Reader, key, digest[:])
	require.NoError(t, err)
	s = toHighS(key.Curve, s)
	sig, err := asn1.Marshal(ecdsaSignature{R: r, S: s})
	require.NoError(t, err)

	response := &pb.ProposalResponse{
		Response:    &pb.Response{Status: 200},
		Payload:     payload,
		Endorsement: &pb.Endorsement{Endorser: endorser, Signature: sig},
	}
	err = New().Verify(response)
	assert.True(t, status.Is(err, status.EndorserClientStatus, status.SignatureVerificationFailed))
}

func toHighS(curve elliptic.Curve, s *big.Int) *big.Int {
	n := curve.Params().N
	if s.Cmp(new(big.Int).Rsh(n, 1)) <= 0 {
		return new(big.Int).Sub(n, s)
	}
	return s
}
