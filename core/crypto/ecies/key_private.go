package ecies

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"math/big"
	"strings"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/core/crypto/ecies/internal"
	"github.com/kochabx/curvebox/errors"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// PrivateKey is a scalar d in [1, n-1] on a curve together with Q = d·G.
type PrivateKey struct {
	curve     *curve.Curve
	d         *big.Int
	publicKey *PublicKey
}

// Curve returns the curve the key lives on.
func (priv *PrivateKey) Curve() *curve.Curve {
	return priv.curve
}

// Public returns the public key corresponding to this private key.
func (priv *PrivateKey) Public() *PublicKey {
	return priv.publicKey
}

// Scalar returns a copy of d, or nil after Destroy.
func (priv *PrivateKey) Scalar() *big.Int {
	if priv.d == nil {
		return nil
	}
	return new(big.Int).Set(priv.d)
}

// Bytes returns d big-endian, left-padded to the byte length of n.
func (priv *PrivateKey) Bytes() []byte {
	if priv.d == nil {
		return nil
	}
	return internal.ZeroPad(priv.d.Bytes(), (priv.curve.N().BitLen()+7)/8)
}

// Hex returns Bytes hex encoded.
func (priv *PrivateKey) Hex() string {
	return hex.EncodeToString(priv.Bytes())
}

// String never prints the scalar.
func (priv *PrivateKey) String() string {
	return "ecies.PrivateKey{curve=" + priv.curve.Name() + ", d=[redacted]}"
}

// SharedPoint returns d·pub.
func (priv *PrivateKey) SharedPoint(pub curve.Point) (curve.Point, error) {
	if priv.d == nil {
		return curve.Point{}, ErrPrivateKeyEmpty
	}
	return priv.curve.ScalarMult(priv.d, pub)
}

// Equal compares two private keys using constant-time comparison of the
// scalar bytes.
func (priv *PrivateKey) Equal(other *PrivateKey) bool {
	if priv == nil || other == nil {
		return priv == other
	}
	if priv.d == nil || other.d == nil {
		return priv.d == other.d
	}
	if !priv.curve.Equal(other.curve) {
		return false
	}
	return subtle.ConstantTimeCompare(priv.Bytes(), other.Bytes()) == 1
}

// Destroy zeroes the scalar. The key is unusable afterwards.
func (priv *PrivateKey) Destroy() {
	if priv.d != nil {
		priv.d.SetInt64(0)
		priv.d = nil
	}
}

// GenerateKey draws ScalarEntropyBytes from rnd, maps them onto [1, n-1] as
// (r mod (n-1)) + 1 and derives the public point. A nil rnd uses
// crypto/rand.Reader.
//
// It fails with ecerr.OutOfRange when n < 2, where [1, n-1] is empty.
func GenerateKey(c *curve.Curve, rnd io.Reader) (*PrivateKey, error) {
	if c == nil {
		return nil, ecerr.New(ecerr.MalformedParams, "curve is required")
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	n := c.N()
	if n.Cmp(two) < 0 {
		return nil, ecerr.New(ecerr.OutOfRange, "curve order n must be at least 2").
			WithMetadata(map[string]string{"n": n.String()})
	}

	buf := make([]byte, ScalarEntropyBytes)
	defer internal.Wipe(buf)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return nil, errors.Wrap(err, 500, "ecies: read random source")
	}

	nMinus1 := new(big.Int).Sub(n, one)
	d := new(big.Int).SetBytes(buf)
	d.Mod(d, nMinus1).Add(d, one)

	return newPrivateKey(c, d)
}

// NewPrivateKey wraps an externally supplied scalar after the same range
// check as DerivePublic.
func NewPrivateKey(c *curve.Curve, d *big.Int) (*PrivateKey, error) {
	if err := checkScalar(c, d); err != nil {
		return nil, err
	}
	return newPrivateKey(c, new(big.Int).Set(d))
}

func newPrivateKey(c *curve.Curve, d *big.Int) (*PrivateKey, error) {
	q, err := c.ScalarBaseMult(d)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{
		curve:     c,
		d:         d,
		publicKey: &PublicKey{curve: c, point: q},
	}, nil
}

// DerivePublic returns d·G. It fails with ecerr.OutOfRange unless
// 1 <= d <= n-1.
func DerivePublic(c *curve.Curve, d *big.Int) (*PublicKey, error) {
	if err := checkScalar(c, d); err != nil {
		return nil, err
	}
	q, err := c.ScalarBaseMult(d)
	if err != nil {
		return nil, err
	}
	return &PublicKey{curve: c, point: q}, nil
}

func checkScalar(c *curve.Curve, d *big.Int) error {
	if c == nil {
		return ecerr.New(ecerr.MalformedParams, "curve is required")
	}
	if d == nil {
		return ErrPrivateKeyEmpty
	}
	n := c.N()
	if d.Sign() <= 0 || d.Cmp(n) >= 0 {
		maxD := new(big.Int).Sub(n, one)
		return ecerr.New(ecerr.OutOfRange, "private key must be in the range 1..n-1").
			WithMetadata(map[string]string{"min": "1", "max": maxD.String()})
	}
	return nil
}

// ParseScalar parses a private scalar written in decimal, or in hex with a
// 0x prefix. Surrounding whitespace is ignored.
func ParseScalar(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	base := 10
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		s, base = rest, 16
	}
	d, ok := new(big.Int).SetString(s, base)
	if !ok || s == "" {
		return nil, errors.NewWithReason(400, "INVALID_SCALAR", "private key is not a valid integer")
	}
	return d, nil
}
