// Package field implements arithmetic modulo a big-integer prime.
//
// All results are canonical: reduced into [0, p) and freshly allocated, so
// callers may keep and share them without copying.
package field

import (
	"math/big"

	"github.com/kochabx/curvebox/core/crypto/ecerr"
)

var one = big.NewInt(1)

// Reduce returns x mod p normalised into [0, p), also for negative x.
func Reduce(x, p *big.Int) *big.Int {
	// big.Int.Mod is Euclidean: the result is never negative for p > 0.
	return new(big.Int).Mod(x, p)
}

// ModInverse returns a⁻¹ mod p computed with the extended Euclidean
// algorithm. It fails with ecerr.NotInvertible when gcd(a, p) != 1, which
// includes a ≡ 0.
func ModInverse(a, p *big.Int) (*big.Int, error) {
	r := Reduce(a, p)

	// GCD with a non-nil x fills in the Bézout coefficient: r·x + p·y = g.
	x := new(big.Int)
	g := new(big.Int).GCD(x, nil, r, p)
	if g.Cmp(one) != 0 {
		return nil, ecerr.New(ecerr.NotInvertible, "%s is not invertible modulo %s", a, p).
			WithMetadata(map[string]string{"a": a.String(), "p": p.String(), "gcd": g.String()})
	}
	return x.Mod(x, p), nil
}

// Field is the prime field GF(p). The zero value is not usable; build one
// with New.
type Field struct {
	p *big.Int
}

// New returns the field of integers modulo p. p is copied.
func New(p *big.Int) Field {
	return Field{p: new(big.Int).Set(p)}
}

// P returns a copy of the modulus.
func (f Field) P() *big.Int {
	return new(big.Int).Set(f.p)
}

// Reduce maps x into [0, p).
func (f Field) Reduce(x *big.Int) *big.Int {
	return Reduce(x, f.p)
}

func (f Field) Add(x, y *big.Int) *big.Int {
	z := new(big.Int).Add(x, y)
	return z.Mod(z, f.p)
}

func (f Field) Sub(x, y *big.Int) *big.Int {
	z := new(big.Int).Sub(x, y)
	return z.Mod(z, f.p)
}

func (f Field) Mul(x, y *big.Int) *big.Int {
	z := new(big.Int).Mul(x, y)
	return z.Mod(z, f.p)
}

func (f Field) Square(x *big.Int) *big.Int {
	return f.Mul(x, x)
}

func (f Field) Neg(x *big.Int) *big.Int {
	z := new(big.Int).Neg(x)
	return z.Mod(z, f.p)
}

// Inv returns x⁻¹; see ModInverse.
func (f Field) Inv(x *big.Int) (*big.Int, error) {
	return ModInverse(x, f.p)
}

// Div returns x·y⁻¹.
func (f Field) Div(x, y *big.Int) (*big.Int, error) {
	inv, err := f.Inv(y)
	if err != nil {
		return nil, err
	}
	return f.Mul(x, inv), nil
}

// Equal reports whether x ≡ y (mod p).
func (f Field) Equal(x, y *big.Int) bool {
	return f.Reduce(x).Cmp(f.Reduce(y)) == 0
}

// IsZero reports whether x ≡ 0 (mod p).
func (f Field) IsZero(x *big.Int) bool {
	return f.Reduce(x).Sign() == 0
}
