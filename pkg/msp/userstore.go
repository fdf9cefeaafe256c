/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/core"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
)

type userRecord struct {
	ID          string `yaml:"id"`
	MSPID       string `yaml:"mspid"`
	Certificate string `yaml:"certificate"`
	PrivateKey  string `yaml:"privateKey,omitempty"`
}

// KVUserStore keeps users as YAML records in a key/value store
type KVUserStore struct {
	store core.KVStore
}

// NewKVUserStore creates a user store over store
func NewKVUserStore(store core.KVStore) (*KVUserStore, error) {
	if store == nil {
		return nil, errors.New("key/value store is nil")
	}
	return &KVUserStore{store: store}, nil
}

func userKey(id msp.IdentityIdentifier) string {
	return "users/" + id.MSPID + "/" + strings.ToLower(id.ID)
}

// Store stores a user
func (s *KVUserStore) Store(user *msp.UserData) error {
	if user == nil || user.ID == "" || user.MSPID == "" {
		return errors.New("user id and mspid are required")
	}
	if len(user.EnrollmentCertificate) == 0 {
		return errors.Errorf("user %s has no enrollment certificate", user.ID)
	}
	data, err := yaml.Marshal(&userRecord{
		ID:          user.ID,
		MSPID:       user.MSPID,
		Certificate: string(user.EnrollmentCertificate),
		PrivateKey:  string(user.PrivateKey),
	})
	if err != nil {
		return errors.Wrap(err, "marshal user failed")
	}
	return s.store.Store(userKey(msp.IdentityIdentifier{MSPID: user.MSPID, ID: user.ID}), data)
}

// Load returns the stored user or msp.ErrUserNotFound
func (s *KVUserStore) Load(id msp.IdentityIdentifier) (*msp.UserData, error) {
	value, err := s.store.Load(userKey(id))
	if err != nil {
		if err == core.ErrKeyValueNotFound {
			return nil, msp.ErrUserNotFound
		}
		return nil, err
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, errors.New("user record is not a byte array")
	}
	record := &userRecord{}
	if err := yaml.Unmarshal(data, record); err != nil {
		return nil, errors.Wrap(err, "unmarshal user failed")
	}
	return &msp.UserData{
		ID:                    record.ID,
		MSPID:                 record.MSPID,
		EnrollmentCertificate: []byte(record.Certificate),
		PrivateKey:            []byte(record.PrivateKey),
	}, nil
}
