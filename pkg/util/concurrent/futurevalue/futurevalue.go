/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package futurevalue provides a value that is resolved once and awaited by
// any number of goroutines.
package futurevalue

import (
	"context"
	"sync"
)

// Initializer produces the value
type Initializer func() (interface{}, error)

// Value is resolved exactly once, either by Initialize or by Set. Readers
// block in Get until it is resolved. Later resolutions are ignored.
type Value struct {
	initializer Initializer
	once        sync.Once
	done        chan struct{}
	value       interface{}
	err         error
}

// New returns an unresolved future value. initializer may be nil if the
// value is only ever resolved through Set.
func New(initializer Initializer) *Value {
	return &Value{
		initializer: initializer,
		done:        make(chan struct{}),
	}
}

// Initialize invokes the initializer and resolves the value with its result.
// If the value was already resolved the stored result is returned.
func (f *Value) Initialize() (interface{}, error) {
	f.once.Do(func() {
		if f.initializer == nil {
			f.resolve(nil, nil)
			return
		}
		value, err := f.initializer()
		f.resolve(value, err)
	})
	<-f.done
	return f.value, f.err
}

// Set resolves the value. It returns false if the value was already resolved.
func (f *Value) Set(value interface{}, err error) bool {
	set := false
	f.once.Do(func() {
		f.resolve(value, err)
		set = true
	})
	return set
}

// Get blocks until the value is resolved and returns it
func (f *Value) Get() (interface{}, error) {
	<-f.done
	return f.value, f.err
}

// GetWithContext blocks until the value is resolved or ctx is done
func (f *Value) GetWithContext(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel that is closed once the value is resolved
func (f *Value) Done() <-chan struct{} {
	return f.done
}

// IsSet returns true if the value has been resolved
func (f *Value) IsSet() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Value) resolve(value interface{}, err error) {
	f.value = value
	f.err = err
	close(f.done)
}
