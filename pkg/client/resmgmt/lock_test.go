/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resmgmt

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleLocks(t *testing.T) {
	locks := newLifecycleLocks()

	release := locks.lock("ledger_cc")
	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		locks.lock("ledger_cc")()
	}()

	select {
	case <-acquired:
		t.Fatal("a second mutation of the same chaincode must wait")
	case <-time.After(50 * time.Millisecond):
	}

	locks.lock("other_cc")()

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was not released")
	}
}

func TestNilLifecycleLocks(t *testing.T) {
	var locks *lifecycleLocks
	release := locks.lock("ledger_cc")
	locks.lock("ledger_cc")()
	release()
}

func TestInstantiateCCWithLifecycleLock(t *testing.T) {
	rc, _ := setupClient(t, WithLifecycleLock())
	req := InstantiateCCRequest{Name: ledgerCC.Name, Path: ledgerCC.Path, Version: ledgerCC.Version, Policy: testPolicy(t)}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = rc.InstantiateCC(channelID, req)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}
