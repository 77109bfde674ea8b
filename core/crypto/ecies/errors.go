package ecies

import (
	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/errors"
)

// Key-related errors
var (
	// ErrPrivateKeyEmpty indicates that the private key is nil or destroyed
	ErrPrivateKeyEmpty = errors.NewWithReason(400, "PRIVATE_KEY_EMPTY", "ecies: private key is empty")

	// ErrPublicKeyEmpty indicates that the public key is nil
	ErrPublicKeyEmpty = errors.NewWithReason(400, "PUBLIC_KEY_EMPTY", "ecies: public key is empty")

	// ErrCurveMismatch indicates keys that belong to different curves
	ErrCurveMismatch = errors.NewWithReason(422, "CURVE_MISMATCH", "ecies: key belongs to a different curve")
)

// I/O errors
var (
	// ErrInvalidPEMBlock indicates a missing or mistyped PEM block
	ErrInvalidPEMBlock = errors.NewWithReason(400, "INVALID_PEM", "ecies: invalid PEM block")

	// ErrKeyFile indicates a failure to read or write a key file
	ErrKeyFile = errors.NewWithReason(500, "KEY_FILE", "ecies: key file error")
)

// authFailed is the single error every failed decryption collapses to.
func authFailed(format string, args ...any) *errors.Error {
	return ecerr.New(ecerr.AuthenticationFailed, format, args...)
}

func malformed(format string, args ...any) *errors.Error {
	return ecerr.New(ecerr.MalformedEnvelope, format, args...)
}
