/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

// TopologyNode is a peer or orderer of a channel topology
type TopologyNode struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	MSPID string `yaml:"mspid,omitempty"`
}

// ChannelTopology is the persisted membership of a channel
type ChannelTopology struct {
	Channel  string         `yaml:"channel"`
	Peers    []TopologyNode `yaml:"peers"`
	Orderers []TopologyNode `yaml:"orderers"`
}

// TopologyFromConfig captures the endorsing peers and orderers configured
// for channelID
func TopologyFromConfig(config fab.EndpointConfig, channelID string) (*ChannelTopology, error) {
	if _, ok := config.ChannelConfig(channelID); !ok {
		return nil, errors.Errorf("channel %s is not configured", channelID)
	}
	topology := &ChannelTopology{Channel: channelID}
	for _, p := range config.ChannelPeers(channelID) {
		if p.EndorsingPeer {
			topology.Peers = append(topology.Peers, TopologyNode{Name: p.Name, URL: p.URL, MSPID: p.MSPID})
		}
	}
	for _, o := range config.ChannelOrderers(channelID) {
		topology.Orderers = append(topology.Orderers, TopologyNode{Name: o.Name, URL: o.URL})
	}
	return topology, nil
}

// Marshal serializes the topology as YAML
func (t *ChannelTopology) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "marshal channel topology failed")
	}
	return b, nil
}

// UnmarshalTopology parses a serialized topology
func UnmarshalTopology(b []byte) (*ChannelTopology, error) {
	topology := &ChannelTopology{}
	if err := yaml.Unmarshal(b, topology); err != nil {
		return nil, errors.Wrap(err, "unmarshal channel topology failed")
	}
	if topology.Channel == "" {
		return nil, errors.New("channel topology has no channel name")
	}
	return topology, nil
}
