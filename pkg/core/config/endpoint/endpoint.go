/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package endpoint holds the URL and TLS material helpers shared by peer and
// orderer configuration.
package endpoint

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// IsTLSEnabled returns true for grpcs:// and https:// URLs
func IsTLSEnabled(url string) bool {
	u := strings.ToLower(url)
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "grpcs://")
}

// ToAddress strips a grpc:// or grpcs:// scheme from url
func ToAddress(url string) string {
	for _, prefix := range []string{"grpc://", "grpcs://"} {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

// AttemptSecured returns whether a TLS connection is required for url. A
// secure scheme always requires TLS and a plain scheme never does. Without a
// scheme TLS is used unless allowInsecure is set.
func AttemptSecured(url string, allowInsecure bool) bool {
	u := strings.ToLower(url)
	switch {
	case strings.HasPrefix(u, "grpcs://"), strings.HasPrefix(u, "https://"):
		return true
	case strings.Contains(u, "://"):
		return false
	default:
		return !allowInsecure
	}
}

// TLSKeyPair contains the private key and certificate for TLS encryption
type TLSKeyPair struct {
	Key  TLSConfig
	Cert TLSConfig
}

// TLSConfig locates PEM material either inline (Pem) or on disk (Path).
// Pem takes precedence when both are set.
type TLSConfig struct {
	Path string
	Pem  string

	bytes []byte
}

// Bytes returns the bytes loaded by LoadBytes
func (cfg *TLSConfig) Bytes() []byte {
	return cfg.bytes
}

// LoadBytes reads the PEM bytes from Pem or Path. Neither being set is not an
// error.
func (cfg *TLSConfig) LoadBytes() error {
	switch {
	case cfg.Pem != "":
		cfg.bytes = []byte(cfg.Pem)
	case cfg.Path != "":
		b, err := os.ReadFile(cfg.Path)
		if err != nil {
			return errors.Wrapf(err, "failed to load pem bytes from path %s", cfg.Path)
		}
		cfg.bytes = b
	}
	return nil
}

// TLSCert parses the loaded bytes as a certificate. The second return value
// is false when no PEM block was loaded.
func (cfg *TLSConfig) TLSCert() (*x509.Certificate, bool, error) {
	block, _ := pem.Decode(cfg.bytes)
	if block == nil {
		return nil, false, nil
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, false, errors.Wrap(err, "certificate parsing failed")
	}
	return cert, true, nil
}
