/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

type txRegistration struct {
	txID    string
	eventch chan *fab.TxStatusEvent
}

// MockEventService delivers the events passed to Notify to the
// registration of the event's transaction
type MockEventService struct {
	// RegisterErr is returned by RegisterTxStatusEvent when set
	RegisterErr error

	mutex         sync.Mutex
	registrations map[string]*txRegistration
	unregistered  int
}

// NewMockEventService returns a new mock event service
func NewMockEventService() *MockEventService {
	return &MockEventService{registrations: make(map[string]*txRegistration)}
}

// RegisterTxStatusEvent registers for the transaction status of txID
func (m *MockEventService) RegisterTxStatusEvent(txID string) (fab.Registration, <-chan *fab.TxStatusEvent, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.RegisterErr != nil {
		return nil, nil, m.RegisterErr
	}
	if _, ok := m.registrations[txID]; ok {
		return nil, nil, errors.Errorf("registration already exists for TX ID [%s]", txID)
	}
	reg := &txRegistration{txID: txID, eventch: make(chan *fab.TxStatusEvent, 1)}
	m.registrations[txID] = reg
	return reg, reg.eventch, nil
}

// Unregister removes the registration and closes its channel
func (m *MockEventService) Unregister(reg fab.Registration) {
	r, ok := reg.(*txRegistration)
	if !ok {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if current, ok := m.registrations[r.txID]; ok && current == r {
		delete(m.registrations, r.txID)
		close(r.eventch)
		m.unregistered++
	}
}

// Notify delivers event to the registration of its transaction. It returns
// false if nobody is registered.
func (m *MockEventService) Notify(event *fab.TxStatusEvent) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	reg, ok := m.registrations[event.TxID]
	if !ok {
		return false
	}
	select {
	case reg.eventch <- event:
		return true
	default:
		return false
	}
}

// Registered returns true if txID has a registration
func (m *MockEventService) Registered(txID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.registrations[txID]
	return ok
}

// UnregisterCount returns the number of registrations removed
func (m *MockEventService) UnregisterCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.unregistered
}
