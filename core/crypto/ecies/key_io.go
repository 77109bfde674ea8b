package ecies

import (
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"

	"github.com/creasty/defaults"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/errors"
)

// KeyOption contains options for key generation and file I/O.
type KeyOption struct {
	Dirpath            string `json:"dirpath" default:"."`
	PrivateKeyFilename string `json:"private_key_filename" default:"private.pem"`
	PublicKeyFilename  string `json:"public_key_filename" default:"public.pem"`
}

// WithDirpath sets the directory path for key file operations.
func WithDirpath(dirpath string) func(*KeyOption) {
	return func(o *KeyOption) {
		o.Dirpath = dirpath
	}
}

// WithPrivateKeyFilename sets the filename for the private key.
func WithPrivateKeyFilename(filename string) func(*KeyOption) {
	return func(o *KeyOption) {
		o.PrivateKeyFilename = filename
	}
}

// WithPublicKeyFilename sets the filename for the public key.
func WithPublicKeyFilename(filename string) func(*KeyOption) {
	return func(o *KeyOption) {
		o.PublicKeyFilename = filename
	}
}

// GenerateKeyFiles generates a key pair on c and writes both halves as PEM.
// It returns the generated key; the caller owns its destruction.
func (e *Engine) GenerateKeyFiles(c *curve.Curve, opts ...func(*KeyOption)) (*PrivateKey, error) {
	option := &KeyOption{}
	if err := defaults.Set(option); err != nil {
		return nil, errors.Wrap(err, 500, "apply key file defaults")
	}
	for _, opt := range opts {
		opt(option)
	}

	privateKey, err := e.GenerateKey(c)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(option.Dirpath, 0o700); err != nil {
		privateKey.Destroy()
		return nil, ErrKeyFile.WithCause(err)
	}
	if err := SavePrivateKey(privateKey, filepath.Join(option.Dirpath, option.PrivateKeyFilename)); err != nil {
		privateKey.Destroy()
		return nil, err
	}
	if err := SavePublicKey(privateKey.Public(), filepath.Join(option.Dirpath, option.PublicKeyFilename)); err != nil {
		privateKey.Destroy()
		return nil, err
	}
	return privateKey, nil
}

// curveHeaders carries the domain parameters in the PEM headers so a key file
// is usable without knowing its curve in advance. Gx and Gy are left out for
// a generator at infinity.
func curveHeaders(c *curve.Curve) map[string]string {
	p := c.Params()
	h := map[string]string{
		"a": p.A.String(),
		"b": p.B.String(),
		"p": p.P.String(),
		"n": p.N.String(),
	}
	if !p.G.IsInfinity() {
		h["Gx"], h["Gy"] = p.G.X().String(), p.G.Y().String()
	}
	if p.Name != "" {
		h["Curve"] = p.Name
	}
	return h
}

func curveFromHeaders(h map[string]string) (*curve.Curve, error) {
	if name := h["Curve"]; curve.IsPreset(name) {
		return curve.Preset(name)
	}
	keys := []string{"a", "b", "p", "n", "Gx", "Gy"}
	_, hasX := h["Gx"]
	_, hasY := h["Gy"]
	infinite := !hasX && !hasY
	if infinite {
		keys = keys[:4]
	}
	ints := make(map[string]*big.Int, len(keys))
	for _, k := range keys {
		v, ok := new(big.Int).SetString(h[k], 10)
		if !ok {
			return nil, ecerr.New(ecerr.MalformedParams, "key file header %s is missing or not decimal", k)
		}
		ints[k] = v
	}
	g := curve.Infinity()
	if !infinite {
		g = curve.NewPoint(ints["Gx"], ints["Gy"])
	}
	return curve.New(curve.Params{
		Name: h["Curve"],
		A:    ints["a"],
		B:    ints["b"],
		P:    ints["p"],
		N:    ints["n"],
		G:    g,
	})
}

// SavePrivateKey writes the scalar in a PEM block of type PEMPrivateKeyType
// with mode 0600.
func SavePrivateKey(privateKey *PrivateKey, path string) error {
	if privateKey == nil || privateKey.d == nil {
		return ErrPrivateKeyEmpty
	}
	block := &pem.Block{
		Type:    PEMPrivateKeyType,
		Headers: curveHeaders(privateKey.curve),
		Bytes:   privateKey.Bytes(),
	}
	return writePEM(path, block, 0o600)
}

// SavePublicKey writes 0x04 || X || Y in a PEM block of type
// PEMPublicKeyType.
func SavePublicKey(publicKey *PublicKey, path string) error {
	if publicKey == nil {
		return ErrPublicKeyEmpty
	}
	block := &pem.Block{
		Type:    PEMPublicKeyType,
		Headers: curveHeaders(publicKey.curve),
		Bytes:   publicKey.Bytes(),
	}
	return writePEM(path, block, 0o644)
}

func writePEM(path string, block *pem.Block, perm os.FileMode) error {
	data := pem.EncodeToMemory(block)
	if data == nil {
		return ErrInvalidPEMBlock.WithMessage("ecies: PEM headers cannot be encoded")
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return ErrKeyFile.WithCause(err)
	}
	return nil
}

func readPEM(path, blockType string) (*pem.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrKeyFile.WithCause(err)
	}
	return decodePEM(data, blockType)
}

func decodePEM(data []byte, blockType string) (*pem.Block, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != blockType {
		return nil, ErrInvalidPEMBlock
	}
	return block, nil
}

// LoadPrivateKey reads a key written by SavePrivateKey.
func LoadPrivateKey(path string) (*PrivateKey, error) {
	block, err := readPEM(path, PEMPrivateKeyType)
	if err != nil {
		return nil, err
	}
	return parsePrivateKeyBlock(block)
}

// ParsePrivateKeyPEM parses PEM bytes written by SavePrivateKey.
func ParsePrivateKeyPEM(data []byte) (*PrivateKey, error) {
	block, err := decodePEM(data, PEMPrivateKeyType)
	if err != nil {
		return nil, err
	}
	return parsePrivateKeyBlock(block)
}

func parsePrivateKeyBlock(block *pem.Block) (*PrivateKey, error) {
	c, err := curveFromHeaders(block.Headers)
	if err != nil {
		return nil, err
	}
	d := new(big.Int).SetBytes(block.Bytes)
	defer d.SetInt64(0)
	return NewPrivateKey(c, d)
}

// LoadPublicKey reads a key written by SavePublicKey.
func LoadPublicKey(path string) (*PublicKey, error) {
	block, err := readPEM(path, PEMPublicKeyType)
	if err != nil {
		return nil, err
	}
	return parsePublicKeyBlock(block)
}

// ParsePublicKeyPEM parses PEM bytes written by SavePublicKey.
func ParsePublicKeyPEM(data []byte) (*PublicKey, error) {
	block, err := decodePEM(data, PEMPublicKeyType)
	if err != nil {
		return nil, err
	}
	return parsePublicKeyBlock(block)
}

func parsePublicKeyBlock(block *pem.Block) (*PublicKey, error) {
	c, err := curveFromHeaders(block.Headers)
	if err != nil {
		return nil, err
	}
	b := block.Bytes
	if len(b) < 3 || len(b)%2 != 1 || b[0] != UncompressedPointTag {
		return nil, ecerr.New(ecerr.InvalidPoint, "public key must be an uncompressed point")
	}
	size := (len(b) - 1) / 2
	x := new(big.Int).SetBytes(b[1 : 1+size])
	y := new(big.Int).SetBytes(b[1+size:])
	return NewPublicKey(c, curve.NewPoint(x, y))
}
