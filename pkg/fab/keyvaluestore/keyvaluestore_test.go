/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyvaluestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/core"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

func testStore(t *testing.T, store core.KVStore) {
	_, err := store.Load("users/Org1MSP/User1")
	assert.Equal(t, core.ErrKeyValueNotFound, err)

	require.NoError(t, store.Store("users/Org1MSP/User1", []byte("cert")))
	value, err := store.Load("users/Org1MSP/User1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cert"), value)

	require.NoError(t, store.Store("users/Org1MSP/User1", []byte("renewed")))
	value, err = store.Load("users/Org1MSP/User1")
	require.NoError(t, err)
	assert.Equal(t, []byte("renewed"), value)

	require.NoError(t, store.Delete("users/Org1MSP/User1"))
	_, err = store.Load("users/Org1MSP/User1")
	assert.Equal(t, core.ErrKeyValueNotFound, err)
	assert.NoError(t, store.Delete("users/Org1MSP/User1"))

	assert.Error(t, store.Store("k", "not bytes"))
	assert.Error(t, store.Store(42, []byte("v")))
	assert.Error(t, store.Store(nil, []byte("v")))
	_, err = store.Load(42)
	assert.Error(t, err)
}

func TestFileKeyValueStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileKeyValueStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.GetPath())
	testStore(t, store)

	require.NoError(t, store.Store("channel/mychannel", []byte("topology")))
	info, err := os.Stat(filepath.Join(dir, "channel", "mychannel"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(newFileMode), info.Mode().Perm())

	assert.Error(t, store.Store("../outside", []byte("v")))
	_, err = NewFileKeyValueStore("")
	assert.Error(t, err)
}

func TestLevelDBStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	store, err := NewLevelDBStore(dir)
	require.NoError(t, err)
	testStore(t, store)

	require.NoError(t, store.Store("channel/mychannel", []byte("topology")))
	store.Close()
	_, err = store.Load("channel/mychannel")
	assert.Error(t, err)

	reopened, err := NewLevelDBStore(dir)
	require.NoError(t, err)
	defer reopened.Close()
	value, err := reopened.Load("channel/mychannel")
	require.NoError(t, err)
	assert.Equal(t, []byte("topology"), value)
}

func TestNew(t *testing.T) {
	store, err := New(fab.CredentialStoreConfig{Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileKeyValueStore{}, store)

	store, err = New(fab.CredentialStoreConfig{Type: "leveldb", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LevelDBStore{}, store)
	store.(*LevelDBStore).Close()

	_, err = New(fab.CredentialStoreConfig{Type: "vault"})
	assert.Error(t, err)
}
