/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pathvar expands ${VAR} references in configured file paths.
package pathvar

import (
	"go/build"
	"os"
	"path/filepath"
	"strings"
)

const (
	sepPrefix = "${"
	sepSuffix = "}"
)

// Subst replaces instances of '${VARNAME}' (eg ${GOPATH}) with the value of
// the variable. ${GOPATH} and ${CONFIG_DIR} are resolved locally and every
// other name is read from the environment. References that cannot be
// resolved are left in place.
func Subst(path string) string {
	return SubstWith(path, nil)
}

// SubstWith behaves like Subst but consults vars before the built-in names
// and the environment.
func SubstWith(path string, vars map[string]string) string {
	splits := strings.Split(path, sepPrefix)

	var b strings.Builder
	b.WriteString(splits[0])

	for _, s := range splits[1:] {
		end := strings.Index(s, sepSuffix)
		if end == -1 {
			b.WriteString(sepPrefix)
			b.WriteString(s)
			continue
		}
		v, ok := lookupVar(s[:end], vars)
		if !ok {
			b.WriteString(sepPrefix)
			b.WriteString(s)
			continue
		}
		b.WriteString(v)
		b.WriteString(s[end+len(sepSuffix):])
	}

	return b.String()
}

func lookupVar(name string, vars map[string]string) (string, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	switch name {
	case "GOPATH":
		return goPath(), true
	case "CONFIG_DIR":
		if dir, ok := os.LookupEnv("FABRIC_ORCH_CONFIG_DIR"); ok {
			return dir, true
		}
		wd, err := os.Getwd()
		return wd, err == nil
	}
	return os.LookupEnv(name)
}

// goPath returns the first entry of GOPATH
func goPath() string {
	return filepath.SplitList(build.Default.GOPATH)[0]
}
