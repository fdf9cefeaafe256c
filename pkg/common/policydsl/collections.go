/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package policydsl

import (
	"os"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// CollectionConfig is the YAML form of a static private data collection
type CollectionConfig struct {
	Name              string `yaml:"name"`
	Policy            string `yaml:"policy"`
	RequiredPeerCount int32  `yaml:"requiredPeerCount"`
	MaxPeerCount      int32  `yaml:"maxPeerCount"`
	BlockToLive       uint64 `yaml:"blockToLive"`
	MemberOnlyRead    bool   `yaml:"memberOnlyRead"`
	MemberOnlyWrite   bool   `yaml:"memberOnlyWrite"`
}

// NewCollectionConfig converts c into its protobuf form. The member
// organizations policy is parsed from the policy language.
func NewCollectionConfig(c CollectionConfig) (*pb.CollectionConfig, error) {
	if c.Name == "" {
		return nil, errors.New("collection name is required")
	}
	if c.RequiredPeerCount > c.MaxPeerCount {
		return nil, errors.Errorf("collection %s requires %d peers but allows at most %d", c.Name, c.RequiredPeerCount, c.MaxPeerCount)
	}
	policy, err := FromString(c.Policy)
	if err != nil {
		return nil, errors.WithMessagef(err, "policy of collection %s is invalid", c.Name)
	}
	return &pb.CollectionConfig{
		Payload: &pb.CollectionConfig_StaticCollectionConfig{
			StaticCollectionConfig: &pb.StaticCollectionConfig{
				Name: c.Name,
				MemberOrgsPolicy: &pb.CollectionPolicyConfig{
					Payload: &pb.CollectionPolicyConfig_SignaturePolicy{SignaturePolicy: policy},
				},
				RequiredPeerCount: c.RequiredPeerCount,
				MaximumPeerCount:  c.MaxPeerCount,
				BlockToLive:       c.BlockToLive,
				MemberOnlyRead:    c.MemberOnlyRead,
				MemberOnlyWrite:   c.MemberOnlyWrite,
			},
		},
	}, nil
}

// CollectionConfigsFromYAML parses a list of collections
func CollectionConfigsFromYAML(b []byte) ([]*pb.CollectionConfig, error) {
	var collections []CollectionConfig
	if err := yaml.UnmarshalStrict(b, &collections); err != nil {
		return nil, errors.Wrap(err, "unmarshal of collection configuration failed")
	}
	configs := make([]*pb.CollectionConfig, 0, len(collections))
	seen := make(map[string]bool)
	for _, c := range collections {
		if seen[c.Name] {
			return nil, errors.Errorf("collection %s is defined twice", c.Name)
		}
		seen[c.Name] = true
		config, err := NewCollectionConfig(c)
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}
	return configs, nil
}

// CollectionConfigsFromYAMLFile loads a collection configuration file
func CollectionConfigsFromYAMLFile(path string) ([]*pb.CollectionConfig, error) {
	b, err := os.ReadFile(path) // nolint: gosec
	if err != nil {
		return nil, errors.Wrapf(err, "reading collection file %s failed", path)
	}
	return CollectionConfigsFromYAML(b)
}
