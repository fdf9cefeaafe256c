/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cryptosuite provides the BCCSP used to hash, sign and verify.
// The default is the software implementation of fabric-lib-go with
// ephemeral keys.
package cryptosuite

import (
	"sync"
	"sync/atomic"

	"github.com/hyperledger/fabric-lib-go/bccsp"
	"github.com/hyperledger/fabric-lib-go/bccsp/sw"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
)

var logger = logging.NewLogger("orchestrator/core")

var initOnce sync.Once
var defaultCryptoSuite bccsp.BCCSP
var initialized int32

func initSuite(defaultSuite bccsp.BCCSP) error {
	if defaultSuite == nil {
		return errors.New("attempting to set invalid default suite")
	}
	initOnce.Do(func() {
		defaultCryptoSuite = defaultSuite
		atomic.StoreInt32(&initialized, 1)
	})
	return nil
}

// GetDefault returns the default suite, creating the software suite on
// first use
func GetDefault() bccsp.BCCSP {
	if atomic.LoadInt32(&initialized) > 0 {
		return defaultCryptoSuite
	}
	s, err := NewSoftwareSuite()
	if err != nil {
		logger.Panicf("Could not initialize default cryptosuite: %s", err)
	}
	if err := initSuite(s); err != nil {
		logger.Panicf("Could not set default cryptosuite: %s", err)
	}
	return defaultCryptoSuite
}

// SetDefault sets the default suite. It fails once GetDefault has been
// called.
func SetDefault(newDefaultSuite bccsp.BCCSP) error {
	if atomic.LoadInt32(&initialized) > 0 {
		return errors.New("default crypto suite is already set")
	}
	return initSuite(newDefaultSuite)
}

// DefaultInitialized returns true if a default suite has already been set
func DefaultInitialized() bool {
	return atomic.LoadInt32(&initialized) > 0
}

// NewSoftwareSuite returns the sw BCCSP at the default security level with
// a key store that keeps nothing
func NewSoftwareSuite() (bccsp.BCCSP, error) {
	s, err := sw.NewDefaultSecurityLevelWithKeystore(sw.NewDummyKeyStore())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create software cryptosuite")
	}
	return s, nil
}

// GetSHA256Opts returns options relating to SHA-256
func GetSHA256Opts() bccsp.HashOpts {
	return &bccsp.SHA256Opts{}
}
