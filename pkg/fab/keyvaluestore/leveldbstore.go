/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyvaluestore

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/core"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

var logger = logging.NewLogger("orchestrator/fab")

// LevelDBStore keeps values in a leveldb database
type LevelDBStore struct {
	mutex     sync.RWMutex
	path      string
	db        *leveldb.DB
	writeOpts *opt.WriteOptions
	closed    bool
}

// NewLevelDBStore opens or creates the database at path
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	if path == "" {
		return nil, errors.New("LevelDBStore path is empty")
	}
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %s failed", path)
	}
	return &LevelDBStore{path: path, db: db, writeOpts: &opt.WriteOptions{Sync: true}}, nil
}

func dbKey(key interface{}) ([]byte, error) {
	keyString, ok := key.(string)
	if !ok || keyString == "" {
		return nil, errors.New("key must be a non-empty string")
	}
	return []byte(keyString), nil
}

// Load returns the bytes stored for key, or core.ErrKeyValueNotFound
func (s *LevelDBStore) Load(key interface{}) (interface{}, error) {
	k, err := dbKey(key)
	if err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return nil, errors.New("store is closed")
	}
	value, err := s.db.Get(k, nil)
	if err == leveldb.ErrNotFound {
		return nil, core.ErrKeyValueNotFound
	}
	if err != nil {
		logger.Errorf("Error retrieving leveldb key [%s]: %s", k, err)
		return nil, errors.Wrapf(err, "error retrieving leveldb key [%s]", k)
	}
	return value, nil
}

// Store writes value, which must be a byte slice, for key
func (s *LevelDBStore) Store(key interface{}, value interface{}) error {
	k, err := dbKey(key)
	if err != nil {
		return err
	}
	valueBytes, ok := value.([]byte)
	if !ok || valueBytes == nil {
		return errors.New("value must be a non-nil byte array")
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return errors.New("store is closed")
	}
	if err := s.db.Put(k, valueBytes, s.writeOpts); err != nil {
		return errors.Wrapf(err, "error writing leveldb key [%s]", k)
	}
	return nil
}

// Delete removes the value of key
func (s *LevelDBStore) Delete(key interface{}) error {
	k, err := dbKey(key)
	if err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return errors.New("store is closed")
	}
	if err := s.db.Delete(k, s.writeOpts); err != nil {
		return errors.Wrapf(err, "error deleting leveldb key [%s]", k)
	}
	return nil
}

// Close closes the database
func (s *LevelDBStore) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return
	}
	if err := s.db.Close(); err != nil {
		logger.Errorf("Error closing leveldb: %s", err)
	}
	s.closed = true
}

// New opens the store described by cfg. The type is "file" (default) or
// "leveldb".
func New(cfg fab.CredentialStoreConfig) (core.KVStore, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileKeyValueStore(cfg.Path)
	case "leveldb":
		return NewLevelDBStore(cfg.Path)
	default:
		return nil, errors.Errorf("unsupported credential store type %s", cfg.Type)
	}
}
