/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package multi collects the errors of a fan-out over several nodes into
// a single error value. A proposal sent to three endorsers, two of which
// are unreachable, yields an Errors holding both transport failures.
package multi

import (
	"fmt"
	"strings"
)

// Errors is an ordered list of errors
type Errors []error

// New returns nil when every argument is nil, the error itself when exactly
// one is non-nil, and an Errors value otherwise.
func New(errs ...error) error {
	var collected Errors
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	return collected.ToError()
}

// Append adds err to errs. A non-Errors first argument is promoted.
func Append(errs error, err error) error {
	if err == nil {
		return errs
	}
	m, ok := errs.(Errors)
	if !ok {
		return New(errs, err)
	}
	return append(m, err)
}

// ToError collapses errs: nil when empty, the single element when it has one.
func (errs Errors) ToError() error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errs
	}
}

// First returns the first error or nil
func (errs Errors) First() error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return errs[0].Error()
	}

	msgs := make([]string, 0, len(errs)+1)
	msgs = append(msgs, fmt.Sprintf("%d errors occurred:", len(errs)))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, " - ")
}
