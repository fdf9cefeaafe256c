/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package policydsl

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	cb "github.com/hyperledger/fabric-protos-go/common"
	mb "github.com/hyperledger/fabric-protos-go/msp"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

var nOfRegex = regexp.MustCompile(`^([0-9]+)-of$`)

const signedByKey = "signed-by"

type roleYAML struct {
	Name  string `yaml:"name"`
	MSPID string `yaml:"mspId"`
}

type identityYAML struct {
	Role roleYAML `yaml:"role"`
}

type policyFileYAML struct {
	Identities []map[string]identityYAML `yaml:"identities"`
	Policy     map[string]interface{}    `yaml:"policy"`
}

// FromYAMLFile loads a policy file. See FromYAML for the format.
func FromYAMLFile(path string) (*cb.SignaturePolicyEnvelope, error) {
	b, err := os.ReadFile(path) // nolint: gosec
	if err != nil {
		return nil, errors.Wrapf(err, "reading policy file %s failed", path)
	}
	return FromYAML(b)
}

// FromYAML parses a policy document that names its identities and combines
// them with signed-by and N-of rules:
//
//	identities:
//	  - user1: {"role": {"name": "member", "mspId": "Org1MSP"}}
//	  - user2: {"role": {"name": "admin", "mspId": "Org2MSP"}}
//	policy:
//	  1-of:
//	    - signed-by: "user1"
//	    - signed-by: "user2"
func FromYAML(b []byte) (*cb.SignaturePolicyEnvelope, error) {
	doc := &policyFileYAML{}
	if err := yaml.Unmarshal(b, doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal of policy document failed")
	}
	if len(doc.Identities) == 0 {
		return nil, errors.New("policy document has no identities")
	}

	indexes := make(map[string]int32)
	var principals []*mb.MSPPrincipal
	for _, entry := range doc.Identities {
		for name, id := range entry {
			if _, ok := indexes[name]; ok {
				return nil, errors.Errorf("identity %s is declared twice", name)
			}
			role, ok := roles[id.Role.Name]
			if !ok {
				return nil, errors.Errorf("identity %s has unknown role %s", name, id.Role.Name)
			}
			if id.Role.MSPID == "" {
				return nil, errors.Errorf("identity %s has no mspId", name)
			}
			p, err := RolePrincipal(id.Role.MSPID, role)
			if err != nil {
				return nil, err
			}
			indexes[name] = int32(len(principals))
			principals = append(principals, p)
		}
	}

	rule, err := parseRule(doc.Policy, indexes)
	if err != nil {
		return nil, err
	}
	return &cb.SignaturePolicyEnvelope{Version: 0, Rule: rule, Identities: principals}, nil
}

func parseRule(node interface{}, indexes map[string]int32) (*cb.SignaturePolicy, error) {
	entries, err := toStringMap(node)
	if err != nil {
		return nil, err
	}
	if len(entries) != 1 {
		return nil, errors.Errorf("policy rule must have exactly one key, got %d", len(entries))
	}
	for key, value := range entries {
		if key == signedByKey {
			name, ok := value.(string)
			if !ok {
				return nil, errors.Errorf("signed-by expects an identity name, got %v", value)
			}
			idx, ok := indexes[name]
			if !ok {
				return nil, errors.Errorf("signed-by references unknown identity %s", name)
			}
			return SignedBy(idx), nil
		}

		subm := nOfRegex.FindStringSubmatch(key)
		if subm == nil {
			return nil, errors.Errorf("unsupported policy rule %s", key)
		}
		n, err := strconv.Atoi(subm[1])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid count in %s", key)
		}
		items, ok := value.([]interface{})
		if !ok {
			return nil, errors.Errorf("%s expects a list of rules", key)
		}
		if n > len(items) {
			return nil, errors.Errorf("%s has only %d rules", key, len(items))
		}
		rules := make([]*cb.SignaturePolicy, len(items))
		for i, item := range items {
			if rules[i], err = parseRule(item, indexes); err != nil {
				return nil, err
			}
		}
		return NOutOf(int32(n), rules), nil
	}
	return nil, errors.New("empty policy rule")
}

func toStringMap(node interface{}) (map[string]interface{}, error) {
	switch m := node.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, nil
	default:
		return nil, errors.Errorf("policy rule must be a mapping, got %T", node)
	}
}
