package ecies

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/kochabx/curvebox/errors"
)

var zeroSalt = make([]byte, KDFSaltSize)

// deriveKey expands the serialized shared secret into the AES-256 key with a
// single HKDF-SHA256 extract and expand step.
func deriveKey(sharedSecret []byte) ([]byte, error) {
	kdfReader := hkdf.New(sha256.New, sharedSecret, zeroSalt, []byte(KDFInfo))

	key := make([]byte, AESKeySize)
	if _, err := io.ReadFull(kdfReader, key); err != nil {
		return nil, errors.Wrap(err, 500, "ecies: key derivation failed")
	}
	return key, nil
}
