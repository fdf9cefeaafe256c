/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resmgmt

import "sync"

// lifecycleLocks holds one mutex per chaincode name. A nil lifecycleLocks
// does not lock.
type lifecycleLocks struct {
	mutex sync.Mutex
	names map[string]*sync.Mutex
}

func newLifecycleLocks() *lifecycleLocks {
	return &lifecycleLocks{names: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex of name and returns its release
func (l *lifecycleLocks) lock(name string) func() {
	if l == nil {
		return func() {}
	}
	l.mutex.Lock()
	m, ok := l.names[name]
	if !ok {
		m = &sync.Mutex{}
		l.names[name] = m
	}
	l.mutex.Unlock()

	m.Lock()
	return m.Unlock
}
