/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyvaluestore persists identities and channel topologies as
// files or in a leveldb database.
package keyvaluestore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/core"
)

const (
	newDirMode  = 0700
	newFileMode = 0600
)

// FileKeyValueStore stores each value in its own file below the store
// path. Keys are slash separated relative paths.
type FileKeyValueStore struct {
	path string
}

// NewFileKeyValueStore returns a store rooted at path
func NewFileKeyValueStore(path string) (*FileKeyValueStore, error) {
	if path == "" {
		return nil, errors.New("FileKeyValueStore path is empty")
	}
	return &FileKeyValueStore{path: path}, nil
}

// GetPath returns the store path
func (fkvs *FileKeyValueStore) GetPath() string {
	return fkvs.path
}

func (fkvs *FileKeyValueStore) file(key interface{}) (string, error) {
	keyString, ok := key.(string)
	if !ok {
		return "", errors.New("converting key to string failed")
	}
	if keyString == "" {
		return "", errors.New("key is empty")
	}
	clean := filepath.Clean(filepath.FromSlash(keyString))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("key %s escapes the store path", keyString)
	}
	return filepath.Join(fkvs.path, clean), nil
}

// Load returns the bytes stored for key, or core.ErrKeyValueNotFound
func (fkvs *FileKeyValueStore) Load(key interface{}) (interface{}, error) {
	file, err := fkvs.file(key)
	if err != nil {
		return nil, err
	}
	bytes, err := os.ReadFile(file) // nolint: gosec
	if os.IsNotExist(err) {
		return nil, core.ErrKeyValueNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s failed", file)
	}
	return bytes, nil
}

// Store writes value, which must be a byte slice, for key. The file is
// replaced atomically.
func (fkvs *FileKeyValueStore) Store(key interface{}, value interface{}) error {
	if key == nil {
		return errors.New("key is nil")
	}
	valueBytes, ok := value.([]byte)
	if !ok || valueBytes == nil {
		return errors.New("value must be a non-nil byte array")
	}
	file, err := fkvs.file(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), newDirMode); err != nil {
		return errors.Wrap(err, "creating store directory failed")
	}
	tmp, err := os.CreateTemp(filepath.Dir(file), ".tmp-"+filepath.Base(file))
	if err != nil {
		return errors.Wrap(err, "creating temporary file failed")
	}
	defer os.Remove(tmp.Name()) // nolint: errcheck
	if _, err := tmp.Write(valueBytes); err != nil {
		tmp.Close() // nolint: errcheck
		return errors.Wrap(err, "writing temporary file failed")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temporary file failed")
	}
	if err := os.Chmod(tmp.Name(), newFileMode); err != nil {
		return errors.Wrap(err, "setting file mode failed")
	}
	return os.Rename(tmp.Name(), file)
}

// Delete removes the value of key. Deleting a missing key is not an error.
func (fkvs *FileKeyValueStore) Delete(key interface{}) error {
	if key == nil {
		return errors.New("key is nil")
	}
	file, err := fkvs.file(key)
	if err != nil {
		return err
	}
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s failed", file)
	}
	return nil
}
