/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package endpoint

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLHelpers(t *testing.T) {
	assert.True(t, IsTLSEnabled("grpcs://peer0:7051"))
	assert.True(t, IsTLSEnabled("HTTPS://peer0:7051"))
	assert.False(t, IsTLSEnabled("grpc://peer0:7051"))
	assert.False(t, IsTLSEnabled("peer0:7051"))

	assert.Equal(t, "peer0:7051", ToAddress("grpcs://peer0:7051"))
	assert.Equal(t, "peer0:7051", ToAddress("grpc://peer0:7051"))
	assert.Equal(t, "peer0:7051", ToAddress("peer0:7051"))

	assert.True(t, AttemptSecured("grpcs://peer0:7051", true))
	assert.False(t, AttemptSecured("grpc://peer0:7051", false))
	assert.True(t, AttemptSecured("peer0:7051", false))
	assert.False(t, AttemptSecured("peer0:7051", true))
}

func TestTLSConfig(t *testing.T) {
	certPEM := selfSignedPEM(t)

	inline := TLSConfig{Pem: string(certPEM), Path: "/does/not/exist"}
	require.NoError(t, inline.LoadBytes())
	cert, ok, err := inline.TLSCert()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "peer0.org1.example.com", cert.Subject.CommonName)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, certPEM, 0600))
	fromFile := TLSConfig{Path: path}
	require.NoError(t, fromFile.LoadBytes())
	assert.Equal(t, certPEM, fromFile.Bytes())

	empty := TLSConfig{}
	require.NoError(t, empty.LoadBytes())
	_, ok, err = empty.TLSCert()
	require.NoError(t, err)
	assert.False(t, ok)

	missing := TLSConfig{Path: filepath.Join(t.TempDir(), "missing.pem")}
	assert.Error(t, missing.LoadBytes())

	garbage := TLSConfig{Pem: "-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n"}
	require.NoError(t, garbage.LoadBytes())
	_, _, err = garbage.TLSCert()
	assert.Error(t, err)
}

func selfSignedPEM(t *testing.T) []byte {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "peer0.org1.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}
