/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import "strings"

// ChaincodeID identifies a chaincode by name, version and optional path.
type ChaincodeID struct {
	Name    string
	Version string
	Path    string
}

// Matches reports whether other denotes the same chaincode: the names and
// versions are equal, and so are the paths when ID carries one.
func (id ChaincodeID) Matches(other ChaincodeID) bool {
	if id.Name != other.Name || id.Version != other.Version {
		return false
	}
	if id.Path != "" && id.Path != other.Path {
		return false
	}
	return true
}

func (id ChaincodeID) String() string {
	var sb strings.Builder
	sb.WriteString(id.Name)
	if id.Version != "" {
		sb.WriteString(":" + id.Version)
	}
	if id.Path != "" {
		sb.WriteString("@" + id.Path)
	}
	return sb.String()
}
