/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package policydsl builds endorsement policies from the policy language
// (for example OR('Org1MSP.member', AND('Org2MSP.peer', 'Org3MSP.admin')))
// and from YAML policy and collection files.
package policydsl

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	cb "github.com/hyperledger/fabric-protos-go/common"
	mb "github.com/hyperledger/fabric-protos-go/msp"
	"github.com/pkg/errors"
)

// Gate values
const (
	GateAnd   = "And"
	GateOr    = "Or"
	GateOutOf = "OutOf"
)

// Role values for principals
const (
	RoleAdmin   = "admin"
	RoleMember  = "member"
	RoleClient  = "client"
	RolePeer    = "peer"
	RoleOrderer = "orderer"
)

var (
	principalRegex = regexp.MustCompile(
		fmt.Sprintf("^([[:alnum:].-]+)([.])(%s|%s|%s|%s|%s)$",
			RoleAdmin, RoleMember, RoleClient, RolePeer, RoleOrderer),
	)
	roles = map[string]mb.MSPRole_MSPRoleType{
		RoleAdmin:   mb.MSPRole_ADMIN,
		RoleMember:  mb.MSPRole_MEMBER,
		RoleClient:  mb.MSPRole_CLIENT,
		RolePeer:    mb.MSPRole_PEER,
		RoleOrderer: mb.MSPRole_ORDERER,
	}
)

func gateFunctions(name string, f govaluate.ExpressionFunction) map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		name:                  f,
		strings.ToLower(name): f,
		strings.ToUpper(name): f,
	}
}

// normalize rewrites And and Or gates as outof gates, leaving a string
// where principals are quoted
func normalize(args ...interface{}) (interface{}, error) {
	if len(args) < 2 {
		return nil, errors.Errorf("expected at least two arguments to NOutOf, given %d", len(args))
	}
	var sb strings.Builder
	sb.WriteString("outof(")
	switch n := args[0].(type) {
	case float64:
		sb.WriteString(strconv.Itoa(int(n)))
	case int:
		sb.WriteString(strconv.Itoa(n))
	case string:
		sb.WriteString(n)
	default:
		return nil, errors.Errorf("unexpected type %s", reflect.TypeOf(args[0]))
	}
	for _, arg := range args[1:] {
		sb.WriteString(", ")
		t, ok := arg.(string)
		if !ok {
			return nil, errors.Errorf("unexpected type %s", reflect.TypeOf(arg))
		}
		if principalRegex.MatchString(t) {
			sb.WriteString("'" + t + "'")
		} else {
			sb.WriteString(t)
		}
	}
	sb.WriteString(")")
	return sb.String(), nil
}

func and(args ...interface{}) (interface{}, error) {
	return normalize(append([]interface{}{len(args)}, args...)...)
}

func or(args ...interface{}) (interface{}, error) {
	return normalize(append([]interface{}{1}, args...)...)
}

// builder collects the principals of a policy. Repeated principals share
// one identity index.
type builder struct {
	principals []*mb.MSPPrincipal
	indexes    map[string]int32
}

func (b *builder) signedBy(principal string) (*cb.SignaturePolicy, error) {
	if idx, ok := b.indexes[principal]; ok {
		return SignedBy(idx), nil
	}
	subm := principalRegex.FindStringSubmatch(principal)
	if len(subm) != 4 {
		return nil, errors.Errorf("error parsing principal %s", principal)
	}
	p, err := RolePrincipal(subm[1], roles[subm[3]])
	if err != nil {
		return nil, err
	}
	idx := int32(len(b.principals))
	b.principals = append(b.principals, p)
	b.indexes[principal] = idx
	return SignedBy(idx), nil
}

func (b *builder) outof(args ...interface{}) (interface{}, error) {
	if len(args) < 2 {
		return nil, errors.Errorf("at least 2 arguments expected, got %d", len(args))
	}
	t, ok := args[0].(float64)
	if !ok {
		return nil, errors.Errorf("unrecognized type, expected a number, got %s", reflect.TypeOf(args[0]))
	}
	n := len(args) - 1
	if t < 0 || int(t) > n {
		return nil, errors.Errorf("invalid t-out-of-n predicate, t %d, n %d", int(t), n)
	}

	policies := make([]*cb.SignaturePolicy, 0, n)
	for _, arg := range args[1:] {
		switch v := arg.(type) {
		case string:
			policy, err := b.signedBy(v)
			if err != nil {
				return nil, err
			}
			policies = append(policies, policy)
		case *cb.SignaturePolicy:
			policies = append(policies, v)
		default:
			return nil, errors.Errorf("unrecognized type, expected a principal or a policy, got %s", reflect.TypeOf(arg))
		}
	}
	return NOutOf(int32(t), policies), nil
}

func evaluate(expression string, functions map[string]govaluate.ExpressionFunction) (interface{}, error) {
	exp, err := govaluate.NewEvaluableExpressionWithFunctions(expression, functions)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid policy string '%s'", expression)
	}
	if err := checkSingleGate(exp); err != nil {
		return nil, errors.WithMessagef(err, "invalid policy string '%s'", expression)
	}
	return exp.Evaluate(map[string]interface{}{})
}

// checkSingleGate accepts only one gate call spanning the whole expression.
// govaluate treats stray identifiers as variables and drops tokens trailing
// the call.
func checkSingleGate(exp *govaluate.EvaluableExpression) error {
	if vars := exp.Vars(); len(vars) > 0 {
		return errors.Errorf("unrecognized token '%s'", vars[0])
	}
	tokens := exp.Tokens()
	if len(tokens) == 0 || tokens[0].Kind != govaluate.FUNCTION {
		return errors.New("expected a gate")
	}
	depth := 0
	for i, token := range tokens[1:] {
		switch token.Kind {
		case govaluate.CLAUSE:
			depth++
		case govaluate.CLAUSE_CLOSE:
			depth--
		}
		if depth == 0 && i+2 < len(tokens) {
			return errors.Errorf("unexpected trailing token '%v'", tokens[i+2].Value)
		}
	}
	return nil
}

// FromString parses a policy string into a SignaturePolicyEnvelope
func FromString(policy string) (*cb.SignaturePolicyEnvelope, error) {
	functions := map[string]govaluate.ExpressionFunction{}
	for _, gate := range []map[string]govaluate.ExpressionFunction{
		gateFunctions(GateAnd, and), gateFunctions(GateOr, or), gateFunctions(GateOutOf, normalize),
	} {
		for name, f := range gate {
			functions[name] = f
		}
	}
	intermediate, err := evaluate(policy, functions)
	if err != nil {
		return nil, err
	}
	normalized, ok := intermediate.(string)
	if !ok {
		return nil, errors.Errorf("invalid policy string '%s'", policy)
	}

	b := &builder{indexes: make(map[string]int32)}
	res, err := evaluate(normalized, map[string]govaluate.ExpressionFunction{"outof": b.outof})
	if err != nil {
		return nil, err
	}
	rule, ok := res.(*cb.SignaturePolicy)
	if !ok {
		return nil, errors.Errorf("invalid policy string '%s'", policy)
	}
	return &cb.SignaturePolicyEnvelope{
		Version:    0,
		Rule:       rule,
		Identities: b.principals,
	}, nil
}
