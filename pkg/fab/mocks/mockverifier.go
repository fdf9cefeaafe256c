/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"sync"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// MockVerifier accepts every endorsement except those of rejected
// endorsers
type MockVerifier struct {
	mutex    sync.RWMutex
	rejected map[string]bool
}

// NewMockVerifier returns a verifier accepting every endorsement
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{rejected: make(map[string]bool)}
}

// Reject makes verification fail for the endorser at url
func (v *MockVerifier) Reject(url string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.rejected[url] = true
}

// Verify checks the endorser of response against the rejected set
func (v *MockVerifier) Verify(response *pb.ProposalResponse) error {
	if response == nil || response.Endorsement == nil {
		return errors.New("missing endorsement in proposal response")
	}
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	if v.rejected[string(response.Endorsement.Endorser)] {
		return errors.Errorf("signature of %s is invalid", response.Endorsement.Endorser)
	}
	return nil
}
