/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package policydsl

import (
	"testing"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	mb "github.com/hyperledger/fabric-protos-go/msp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principal(t *testing.T, mspID string, role mb.MSPRole_MSPRoleType) *mb.MSPPrincipal {
	p, err := RolePrincipal(mspID, role)
	require.NoError(t, err)
	return p
}

func TestFromStringOr(t *testing.T) {
	p, err := FromString("OR('Org1MSP.member', 'Org2MSP.member')")
	require.NoError(t, err)

	expected := &cb.SignaturePolicyEnvelope{
		Version: 0,
		Rule:    NOutOf(1, []*cb.SignaturePolicy{SignedBy(0), SignedBy(1)}),
		Identities: []*mb.MSPPrincipal{
			principal(t, "Org1MSP", mb.MSPRole_MEMBER),
			principal(t, "Org2MSP", mb.MSPRole_MEMBER),
		},
	}
	assert.True(t, proto.Equal(expected, p))
}

func TestFromStringNested(t *testing.T) {
	p, err := FromString("and('Org1MSP.admin', or('Org2MSP.peer', 'Org3MSP.client'))")
	require.NoError(t, err)
	require.Len(t, p.Identities, 3)

	outer := p.Rule.GetNOutOf()
	require.NotNil(t, outer)
	assert.Equal(t, int32(2), outer.N)
	require.Len(t, outer.Rules, 2)
	inner := outer.Rules[1].GetNOutOf()
	require.NotNil(t, inner)
	assert.Equal(t, int32(1), inner.N)
}

func TestFromStringOutOf(t *testing.T) {
	p, err := FromString("OutOf(2, 'Org1MSP.member', 'Org2MSP.member', 'Org1MSP.member')")
	require.NoError(t, err)
	assert.Len(t, p.Identities, 2, "repeated principals share an identity")
	rules := p.Rule.GetNOutOf().Rules
	assert.Equal(t, rules[0].GetSignedBy(), rules[2].GetSignedBy())
}

func TestFromStringErrors(t *testing.T) {
	for _, policy := range []string{
		"OR('Org1MSP.member')x",
		"OR('Org1MSP.member') garbage",
		"OR('Org1MSP.member') 'Org2MSP.member'",
		"OR('Org1MSP.member'), OR('Org2MSP.member')",
		"'Org1MSP.member'",
		"OR(Org1MSP.member, 'Org2MSP.member')",
		"OutOf(3, 'Org1MSP.member', 'Org2MSP.member')",
		"OR('Org1MSP.superuser', 'Org2MSP.member')",
		"OutOf('Org1MSP.member')",
		"",
	} {
		_, err := FromString(policy)
		assert.Error(t, err, policy)
	}
}

func TestSignedByAnyMember(t *testing.T) {
	p, err := SignedByAnyMember([]string{"Org2MSP", "Org1MSP"})
	require.NoError(t, err)
	fromDSL, err := FromString("OR('Org1MSP.member', 'Org2MSP.member')")
	require.NoError(t, err)
	assert.True(t, proto.Equal(fromDSL, p))

	single, err := SignedByMspMember("Org1MSP")
	require.NoError(t, err)
	assert.Len(t, single.Identities, 1)

	admins, err := SignedByAnyAdmin([]string{"Org1MSP"})
	require.NoError(t, err)
	role := &mb.MSPRole{}
	require.NoError(t, proto.Unmarshal(admins.Identities[0].Principal, role))
	assert.Equal(t, mb.MSPRole_ADMIN, role.Role)

	_, err = SignedByAnyMember(nil)
	assert.Error(t, err)
}

func TestFromYAMLFile(t *testing.T) {
	p, err := FromYAMLFile("testdata/policy.yaml")
	require.NoError(t, err)

	fromDSL, err := FromString("OR('Org1MSP.member', AND('Org2MSP.member', 'Org3MSP.admin'))")
	require.NoError(t, err)

	assert.Len(t, p.Identities, 3)
	assert.Equal(t, int32(1), p.Rule.GetNOutOf().N)
	assert.Equal(t, int32(0), p.Rule.GetNOutOf().Rules[0].GetSignedBy())
	inner := p.Rule.GetNOutOf().Rules[1].GetNOutOf()
	require.NotNil(t, inner)
	assert.Equal(t, int32(2), inner.N)
	assert.Equal(t, len(fromDSL.Identities), len(p.Identities))
}

func TestFromYAMLErrors(t *testing.T) {
	for _, doc := range []string{
		"policy:\n  signed-by: user1\n",
		"identities:\n  - user1: {role: {name: member, mspId: Org1MSP}}\npolicy:\n  signed-by: user9\n",
		"identities:\n  - user1: {role: {name: boss, mspId: Org1MSP}}\npolicy:\n  signed-by: user1\n",
		"identities:\n  - user1: {role: {name: member, mspId: Org1MSP}}\npolicy:\n  3-of:\n    - signed-by: user1\n",
		"identities:\n  - user1: {role: {name: member, mspId: Org1MSP}}\npolicy:\n  any-of:\n    - signed-by: user1\n",
	} {
		_, err := FromYAML([]byte(doc))
		assert.Error(t, err, doc)
	}
	_, err := FromYAMLFile("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestCollectionConfigsFromYAMLFile(t *testing.T) {
	configs, err := CollectionConfigsFromYAMLFile("testdata/collections.yaml")
	require.NoError(t, err)
	require.Len(t, configs, 2)

	static := configs[0].GetStaticCollectionConfig()
	require.NotNil(t, static)
	assert.Equal(t, "collectionMarbles", static.Name)
	assert.Equal(t, int32(3), static.MaximumPeerCount)
	assert.Equal(t, uint64(1000000), static.BlockToLive)
	assert.True(t, static.MemberOnlyRead)
	assert.Len(t, static.MemberOrgsPolicy.GetSignaturePolicy().Identities, 2)
}

func TestCollectionConfigErrors(t *testing.T) {
	_, err := NewCollectionConfig(CollectionConfig{Policy: "OR('Org1MSP.member')"})
	assert.Error(t, err)
	_, err = NewCollectionConfig(CollectionConfig{Name: "c", Policy: "OR('Org1MSP.member')", RequiredPeerCount: 2, MaxPeerCount: 1})
	assert.Error(t, err)
	_, err = NewCollectionConfig(CollectionConfig{Name: "c", Policy: "nonsense("})
	assert.Error(t, err)
	_, err = CollectionConfigsFromYAML([]byte("- name: c\n  policy: OR('Org1MSP.member')\n- name: c\n  policy: OR('Org1MSP.member')\n"))
	assert.Error(t, err)
	_, err = CollectionConfigsFromYAML([]byte("- name: c\n  unknownField: 1\n"))
	assert.Error(t, err)
}
