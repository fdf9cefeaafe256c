/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/core"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
)

var logger = logging.NewLogger("orchestrator/msp")

// IdentityStore resolves signing identities of configured organizations.
// A user is looked up in the user store first, then in the users embedded
// in the organization configuration and finally in the organization's
// crypto path.
type IdentityStore struct {
	config    fab.EndpointConfig
	store     core.KVStore
	userStore msp.UserStore
}

// NewIdentityStore creates an identity store persisting users and channel
// topologies in store
func NewIdentityStore(config fab.EndpointConfig, store core.KVStore) (*IdentityStore, error) {
	if config == nil {
		return nil, errors.New("endpoint config is required")
	}
	if store == nil {
		return nil, errors.New("key/value store is required")
	}
	userStore, err := NewKVUserStore(store)
	if err != nil {
		return nil, err
	}
	return &IdentityStore{config: config, store: store, userStore: userStore}, nil
}

// GetIdentity returns the signing identity of user in org
func (s *IdentityStore) GetIdentity(user, org string) (msp.SigningIdentity, error) {
	orgConfig, ok := s.config.OrganizationConfig(org)
	if !ok {
		return nil, errors.Errorf("organization %s is not configured", org)
	}

	userData, err := s.userStore.Load(msp.IdentityIdentifier{MSPID: orgConfig.MSPID, ID: user})
	if err != nil && err != msp.ErrUserNotFound {
		return nil, errors.WithMessage(err, "loading user from store failed")
	}
	if userData == nil || len(userData.PrivateKey) == 0 {
		userData, err = s.configuredUser(user, orgConfig)
		if err != nil {
			return nil, err
		}
	}
	u, err := NewUser(userData)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Resolved identity of user [%s] in [%s]", user, orgConfig.MSPID)
	return u, nil
}

func (s *IdentityStore) configuredUser(user string, orgConfig *fab.OrganizationConfig) (*msp.UserData, error) {
	if pair, ok := orgConfig.Users[strings.ToLower(user)]; ok && len(pair.Cert) > 0 && len(pair.Key) > 0 {
		return &msp.UserData{ID: user, MSPID: orgConfig.MSPID, EnrollmentCertificate: pair.Cert, PrivateKey: pair.Key}, nil
	}
	if orgConfig.CryptoPath == "" {
		return nil, msp.ErrUserNotFound
	}
	dir := expandUser(orgConfig.CryptoPath, user)
	cert, err := readFirstFile(filepath.Join(dir, "signcerts"))
	if err != nil {
		return nil, err
	}
	key, err := readFirstFile(filepath.Join(dir, "keystore"))
	if err != nil {
		return nil, err
	}
	return &msp.UserData{ID: user, MSPID: orgConfig.MSPID, EnrollmentCertificate: cert, PrivateKey: key}, nil
}

func expandUser(path, user string) string {
	path = strings.Replace(path, "{username}", user, -1)
	return strings.Replace(path, "{userName}", user, -1)
}

func readFirstFile(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, msp.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s failed", dir)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, entry.Name())) // nolint: gosec
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s failed", entry.Name())
		}
		return b, nil
	}
	return nil, msp.ErrUserNotFound
}

// StoreIdentity persists userData so GetIdentity finds it first
func (s *IdentityStore) StoreIdentity(userData *msp.UserData) error {
	if _, err := NewUser(userData); err != nil {
		return err
	}
	return s.userStore.Store(userData)
}

func topologyKey(channelID string) string {
	return "channels/" + channelID
}

// SaveChannelTopology stores the serialized topology of channelID
func (s *IdentityStore) SaveChannelTopology(channelID string, topology []byte) error {
	if channelID == "" {
		return errors.New("channel id is required")
	}
	return s.store.Store(topologyKey(channelID), topology)
}

// LoadChannelTopology returns the serialized topology of channelID or
// msp.ErrChannelNotFound
func (s *IdentityStore) LoadChannelTopology(channelID string) ([]byte, error) {
	value, err := s.store.Load(topologyKey(channelID))
	if err != nil {
		if err == core.ErrKeyValueNotFound {
			return nil, msp.ErrChannelNotFound
		}
		return nil, err
	}
	b, ok := value.([]byte)
	if !ok {
		return nil, errors.New("channel topology is not a byte array")
	}
	return b, nil
}
