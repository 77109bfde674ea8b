package ecies

import (
	"bytes"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/core/crypto/ecies/internal"
)

// UncompressedPointTag prefixes the SEC 1 style encoding returned by Bytes.
const UncompressedPointTag = 0x04

// PublicKey is a point on a curve.
type PublicKey struct {
	curve *curve.Curve
	point curve.Point
}

// NewPublicKey validates that pt is a finite point of c.
func NewPublicKey(c *curve.Curve, pt curve.Point) (*PublicKey, error) {
	if c == nil {
		return nil, ecerr.New(ecerr.MalformedParams, "curve is required")
	}
	if err := checkPoint(c, pt); err != nil {
		return nil, err
	}
	return &PublicKey{curve: c, point: pt}, nil
}

// ParsePublicKey builds a public key from decimal coordinates.
func ParsePublicKey(c *curve.Curve, x, y string) (*PublicKey, error) {
	pt, err := curve.ParsePoint(strings.TrimSpace(x), strings.TrimSpace(y))
	if err != nil {
		return nil, err
	}
	return NewPublicKey(c, pt)
}

func checkPoint(c *curve.Curve, pt curve.Point) error {
	if pt.IsInfinity() {
		return ecerr.New(ecerr.InvalidPoint, "public key is the point at infinity")
	}
	if !c.IsOnCurve(pt) {
		return ecerr.New(ecerr.InvalidPoint, "public key is not on the curve").
			WithMetadata(map[string]string{"x": pt.X().String(), "y": pt.Y().String()})
	}
	return nil
}

// Curve returns the curve the key lives on.
func (pub *PublicKey) Curve() *curve.Curve {
	return pub.curve
}

// Point returns Q.
func (pub *PublicKey) Point() curve.Point {
	return pub.point
}

// X returns a copy of the x coordinate.
func (pub *PublicKey) X() *big.Int {
	return pub.point.X()
}

// Y returns a copy of the y coordinate.
func (pub *PublicKey) Y() *big.Int {
	return pub.point.Y()
}

// Bytes returns 0x04 || X || Y with both coordinates padded to the byte
// length of p. Infinity encodes as a single zero byte.
func (pub *PublicKey) Bytes() []byte {
	if pub.point.IsInfinity() {
		return []byte{0}
	}
	size := (pub.curve.P().BitLen() + 7) / 8
	xBytes := internal.ZeroPad(pub.point.X().Bytes(), size)
	yBytes := internal.ZeroPad(pub.point.Y().Bytes(), size)
	return bytes.Join([][]byte{{UncompressedPointTag}, xBytes, yBytes}, nil)
}

// Hex returns Bytes hex encoded.
func (pub *PublicKey) Hex() string {
	return hex.EncodeToString(pub.Bytes())
}

// Compact returns "x|y" with decimal coordinates.
func (pub *PublicKey) Compact() string {
	if pub.point.IsInfinity() {
		return ""
	}
	return pub.point.X().String() + CompactSeparator + pub.point.Y().String()
}

// Equal compares two public keys using constant-time comparison.
func (pub *PublicKey) Equal(other *PublicKey) bool {
	if pub == nil || other == nil {
		return pub == other
	}
	if !pub.curve.Equal(other.curve) {
		return false
	}
	return subtle.ConstantTimeCompare(pub.Bytes(), other.Bytes()) == 1
}
