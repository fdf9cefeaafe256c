/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cryptosuite

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"

	"github.com/hyperledger/fabric-lib-go/bccsp"
	"github.com/pkg/errors"
)

// PrivateKeyFromPEM imports the PKCS#8 or SEC 1 ECDSA private key in
// keyPEM as an ephemeral key of cs
func PrivateKeyFromPEM(cs bccsp.BCCSP, keyPEM []byte) (bccsp.Key, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	key, err := cs.KeyImport(block.Bytes, &bccsp.ECDSAPrivateKeyImportOpts{Temporary: true})
	if err != nil {
		return nil, errors.Wrap(err, "import of private key failed")
	}
	return key, nil
}

// PublicKeyFromCert imports the public key of cert as an ephemeral key of cs
func PublicKeyFromCert(cs bccsp.BCCSP, cert *x509.Certificate) (bccsp.Key, error) {
	if cert == nil {
		return nil, errors.New("certificate is nil")
	}
	key, err := cs.KeyImport(cert, &bccsp.X509PublicKeyImportOpts{Temporary: true})
	if err != nil {
		return nil, errors.Wrap(err, "import of certificate public key failed")
	}
	return key, nil
}

// ParseCertificate decodes the PEM certificate certPEM
func ParseCertificate(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parse certificate failed")
	}
	return cert, nil
}

// MatchesPublicKey reports whether the private key belongs to the public
// key, comparing subject key identifiers
func MatchesPublicKey(private, public bccsp.Key) bool {
	pub, err := private.PublicKey()
	if err != nil {
		return false
	}
	return bytes.Equal(pub.SKI(), public.SKI())
}

// Sign signs the SHA-256 digest of msg with key
func Sign(cs bccsp.BCCSP, key bccsp.Key, msg []byte) ([]byte, error) {
	digest, err := cs.Hash(msg, GetSHA256Opts())
	if err != nil {
		return nil, errors.Wrap(err, "hash of message failed")
	}
	sig, err := cs.Sign(key, digest, nil)
	if err != nil {
		return nil, errors.Wrap(err, "sign failed")
	}
	return sig, nil
}

// Verify checks sig over the SHA-256 digest of msg with key
func Verify(cs bccsp.BCCSP, key bccsp.Key, msg, sig []byte) error {
	digest, err := cs.Hash(msg, GetSHA256Opts())
	if err != nil {
		return errors.Wrap(err, "hash of message failed")
	}
	valid, err := cs.Verify(key, sig, digest, nil)
	if err != nil {
		return errors.Wrap(err, "signature verification failed")
	}
	if !valid {
		return errors.New("signature mismatch")
	}
	return nil
}
