/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package core

import "github.com/pkg/errors"

// ConfigBackend backend for all config types
type ConfigBackend interface {
	Lookup(key string) (interface{}, bool)
}

// ConfigProvider provides config backends
type ConfigProvider func() ([]ConfigBackend, error)

// ErrKeyValueNotFound indicates that a value for the key does not exist
var ErrKeyValueNotFound = errors.New("value for key not found")

// KVStore is a generic key/value store. Load returns ErrKeyValueNotFound
// for a missing key.
type KVStore interface {
	Store(key interface{}, value interface{}) error
	Load(key interface{}) (interface{}, error)
	Delete(key interface{}) error
}
