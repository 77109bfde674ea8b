// Package curve implements short Weierstrass curves y² = x³ + ax + b over a
// prime field, with user supplied parameters.
//
// Curves are permissive on purpose: the generator must satisfy the curve
// equation, but neither the primality of p, the order n nor the discriminant
// is enforced. IsSingular reports the latter for callers that care.
//
// None of the arithmetic is constant time.
package curve

import (
	"math/big"

	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/core/crypto/field"
)

var (
	one   = big.NewInt(1)
	two   = big.NewInt(2)
	three = big.NewInt(3)
	four  = big.NewInt(4)
	n27   = big.NewInt(27)
)

// Params are the domain parameters of a curve. Name is informational.
type Params struct {
	Name string
	A    *big.Int
	B    *big.Int
	P    *big.Int
	N    *big.Int
	G    Point
}

func (p Params) clone() Params {
	c := Params{Name: p.Name, G: p.G}
	if p.A != nil {
		c.A = new(big.Int).Set(p.A)
	}
	if p.B != nil {
		c.B = new(big.Int).Set(p.B)
	}
	if p.P != nil {
		c.P = new(big.Int).Set(p.P)
	}
	if p.N != nil {
		c.N = new(big.Int).Set(p.N)
	}
	return c
}

// Curve is a validated, immutable curve. It is safe for concurrent use.
type Curve struct {
	params Params
	f      field.Field
}

// New validates params and returns the curve.
//
// It fails with ecerr.MalformedParams when a parameter is missing or p < 2,
// and with ecerr.InvalidGenerator when a finite generator does not satisfy
// the curve equation. An infinite generator is accepted as is.
func New(params Params) (*Curve, error) {
	for _, f := range []struct {
		name string
		v    *big.Int
	}{{"a", params.A}, {"b", params.B}, {"p", params.P}, {"n", params.N}} {
		if f.v == nil {
			return nil, ecerr.New(ecerr.MalformedParams, "curve parameter %s is missing", f.name)
		}
	}
	if params.P.Cmp(two) < 0 {
		return nil, ecerr.New(ecerr.MalformedParams, "modulus p must be at least 2").
			WithMetadata(map[string]string{"p": params.P.String()})
	}

	c := &Curve{params: params.clone(), f: field.New(params.P)}
	c.params.A = c.f.Reduce(params.A)
	c.params.B = c.f.Reduce(params.B)

	if g := params.G; !g.IsInfinity() {
		x, y := c.f.Reduce(g.x), c.f.Reduce(g.y)
		if !c.onCurve(x, y) {
			return nil, ecerr.New(ecerr.InvalidGenerator, "generator (%s, %s) is not on the curve", g.x, g.y).
				WithMetadata(map[string]string{
					"gx": g.x.String(),
					"gy": g.y.String(),
					"a":  params.A.String(),
					"b":  params.B.String(),
					"p":  params.P.String(),
				})
		}
		c.params.G = Point{x: x, y: y, finite: true}
	}
	return c, nil
}

// Params returns a copy of the curve parameters.
func (c *Curve) Params() Params {
	return c.params.clone()
}

// Name returns the preset or user supplied label, possibly empty.
func (c *Curve) Name() string {
	return c.params.Name
}

// P returns a copy of the field modulus.
func (c *Curve) P() *big.Int {
	return new(big.Int).Set(c.params.P)
}

// N returns a copy of the generator order.
func (c *Curve) N() *big.Int {
	return new(big.Int).Set(c.params.N)
}

// Generator returns G.
func (c *Curve) Generator() Point {
	return c.params.G
}

// Equal reports whether both curves have the same a, b, p, n and G. Names
// are ignored.
func (c *Curve) Equal(o *Curve) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	return c.params.A.Cmp(o.params.A) == 0 &&
		c.params.B.Cmp(o.params.B) == 0 &&
		c.params.P.Cmp(o.params.P) == 0 &&
		c.params.N.Cmp(o.params.N) == 0 &&
		c.params.G.Equal(o.params.G)
}

// Field returns the base field.
func (c *Curve) Field() field.Field {
	return c.f
}

func (c *Curve) onCurve(x, y *big.Int) bool {
	return onCurve(c.f, c.params.A, c.params.B, x, y)
}

func onCurve(f field.Field, a, b, x, y *big.Int) bool {
	lhs := f.Square(y)
	rhs := f.Mul(f.Square(x), x)
	rhs = f.Add(rhs, f.Mul(a, x))
	rhs = f.Add(rhs, b)
	return lhs.Cmp(rhs) == 0
}

// IsOnCurve reports whether pt satisfies the curve equation. The point at
// infinity is always on the curve.
func (c *Curve) IsOnCurve(pt Point) bool {
	if pt.IsInfinity() {
		return true
	}
	return c.onCurve(c.f.Reduce(pt.x), c.f.Reduce(pt.y))
}

// Negate returns -pt.
func (c *Curve) Negate(pt Point) Point {
	if pt.IsInfinity() {
		return pt
	}
	return Point{x: c.f.Reduce(pt.x), y: c.f.Neg(pt.y), finite: true}
}

// Add returns p + q.
//
// A vertical chord (equal x and y ≡ -y) yields infinity. Off-curve input with
// equal x but unrelated y has no slope and fails with ecerr.NotInvertible.
func (c *Curve) Add(p, q Point) (Point, error) {
	if p.IsInfinity() {
		return q, nil
	}
	if q.IsInfinity() {
		return p, nil
	}

	f := c.f
	x1, y1 := f.Reduce(p.x), f.Reduce(p.y)
	x2, y2 := f.Reduce(q.x), f.Reduce(q.y)

	if x1.Cmp(x2) == 0 && f.IsZero(f.Add(y1, y2)) {
		return Infinity(), nil
	}
	if x1.Cmp(x2) == 0 && y1.Cmp(y2) == 0 {
		return c.double(x1, y1)
	}

	m, err := f.Div(f.Sub(y2, y1), f.Sub(x2, x1))
	if err != nil {
		return Point{}, err
	}
	return c.chord(m, x1, y1, x2), nil
}

// Double returns 2·pt. Infinity and points with y ≡ 0 double to infinity.
func (c *Curve) Double(pt Point) (Point, error) {
	if pt.IsInfinity() {
		return pt, nil
	}
	return c.double(c.f.Reduce(pt.x), c.f.Reduce(pt.y))
}

func (c *Curve) double(x, y *big.Int) (Point, error) {
	f := c.f
	if f.IsZero(y) {
		return Infinity(), nil
	}
	num := f.Add(f.Mul(three, f.Square(x)), c.params.A)
	m, err := f.Div(num, f.Mul(two, y))
	if err != nil {
		return Point{}, err
	}
	return c.chord(m, x, y, x), nil
}

// chord finishes addition and doubling once the slope is known:
// x3 = m² - x1 - x2, y3 = m(x1 - x3) - y1.
func (c *Curve) chord(m, x1, y1, x2 *big.Int) Point {
	f := c.f
	x3 := f.Sub(f.Sub(f.Square(m), x1), x2)
	y3 := f.Sub(f.Mul(m, f.Sub(x1, x3)), y1)
	return Point{x: x3, y: y3, finite: true}
}

// ScalarMult returns |k|·pt by right-to-left double-and-add. A nil or zero k
// yields infinity.
func (c *Curve) ScalarMult(k *big.Int, pt Point) (Point, error) {
	result := Infinity()
	if k == nil || k.Sign() == 0 || pt.IsInfinity() {
		return result, nil
	}
	e := new(big.Int).Abs(k)

	addend := pt
	var err error
	n := e.BitLen()
	for i := 0; i < n; i++ {
		if e.Bit(i) == 1 {
			if result, err = c.Add(result, addend); err != nil {
				return Point{}, err
			}
		}
		if i == n-1 {
			break
		}
		if addend, err = c.Double(addend); err != nil {
			return Point{}, err
		}
	}
	return result, nil
}

// ScalarBaseMult returns |k|·G.
func (c *Curve) ScalarBaseMult(k *big.Int) (Point, error) {
	return c.ScalarMult(k, c.params.G)
}

// Discriminant returns 4a³ + 27b² mod p.
func (c *Curve) Discriminant() *big.Int {
	return Discriminant(c.params.A, c.params.B, c.params.P)
}

// IsSingular reports whether the discriminant vanishes. It is advisory: New
// accepts singular curves.
func (c *Curve) IsSingular() bool {
	return c.Discriminant().Sign() == 0
}

// Discriminant returns 4a³ + 27b² mod p.
func Discriminant(a, b, p *big.Int) *big.Int {
	f := field.New(p)
	a3 := f.Mul(f.Square(a), a)
	return f.Add(f.Mul(four, a3), f.Mul(n27, f.Square(b)))
}
