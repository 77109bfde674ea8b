package ecies

import (
	"encoding/json"
	"math/big"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/errors"
)

// FileEnvelope is the JSON container for an encrypted file.
type FileEnvelope struct {
	Version  string    `json:"version"`
	Filename string    `json:"filename"`
	MimeType string    `json:"mimeType"`
	Envelope *Envelope `json:"envelope"`
}

// DecryptedFile is a recovered file with its original name and type.
type DecryptedFile struct {
	Filename string
	MimeType string
	Data     []byte
}

// EncryptedFilename returns the conventional output name for name.
func EncryptedFilename(name string) string {
	return name + EncryptedFileSuffix
}

// Marshal renders the container as indented JSON.
func (f *FileEnvelope) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, 500, "ecies: encode file envelope")
	}
	return data, nil
}

// ParseFileEnvelope decodes a container. Invalid JSON, a version other than
// FileEnvelopeVersion or a missing envelope fail with
// ecerr.MalformedEnvelope.
func ParseFileEnvelope(data []byte) (*FileEnvelope, error) {
	var f FileEnvelope
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, malformed("encrypted file is not valid JSON").WithCause(err)
	}
	if f.Version != FileEnvelopeVersion || f.Envelope == nil {
		return nil, malformed("encrypted file has an unexpected format").
			WithMetadata(map[string]string{"version": f.Version})
	}
	if f.Envelope.Ephemeral.IsInfinity() {
		return nil, malformed("encrypted file has no ephemeral_pub")
	}
	return &f, nil
}

// EncryptFile encrypts data for recipient and wraps it with its name and
// MIME type. An empty mimeType becomes DefaultMimeType.
func (e *Engine) EncryptFile(c *curve.Curve, recipient curve.Point, filename, mimeType string, data []byte) (*FileEnvelope, error) {
	env, err := e.Encrypt(c, recipient, data)
	if err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return &FileEnvelope{
		Version:  FileEnvelopeVersion,
		Filename: filename,
		MimeType: mimeType,
		Envelope: env,
	}, nil
}

// DecryptFile parses and opens a container produced by EncryptFile.
func (e *Engine) DecryptFile(c *curve.Curve, d *big.Int, data []byte) (*DecryptedFile, error) {
	f, err := ParseFileEnvelope(data)
	if err != nil {
		return nil, err
	}
	plaintext, err := e.Decrypt(c, d, f.Envelope)
	if err != nil {
		return nil, err
	}

	out := &DecryptedFile{Filename: f.Filename, MimeType: f.MimeType, Data: plaintext}
	if out.Filename == "" {
		out.Filename = DefaultDecryptedFilename
	}
	if out.MimeType == "" {
		out.MimeType = DefaultMimeType
	}
	return out, nil
}
