package curve

import (
	"math/big"
	"strconv"

	"github.com/kochabx/curvebox/core/crypto/ecerr"
)

// MaxEnumerationModulus caps EnumeratePoints; the scan is quadratic in p.
const MaxEnumerationModulus = 500

var maxEnumeration = big.NewInt(MaxEnumerationModulus)

// EnumeratePoints returns every affine point of y² = x³ + ax + b over GF(p),
// ordered by x and then by y. The point at infinity is not included.
//
// It fails with ecerr.FieldTooLarge when p exceeds MaxEnumerationModulus.
func EnumeratePoints(a, b, p *big.Int) ([]Point, error) {
	if a == nil || b == nil || p == nil {
		return nil, ecerr.New(ecerr.MalformedParams, "a, b and p are required")
	}
	if p.Cmp(maxEnumeration) > 0 {
		return nil, ecerr.New(ecerr.FieldTooLarge, "cannot enumerate points for p = %s", p).
			WithMetadata(map[string]string{"p": p.String(), "max": strconv.Itoa(MaxEnumerationModulus)})
	}
	if p.Cmp(two) < 0 {
		return nil, ecerr.New(ecerr.MalformedParams, "modulus p must be at least 2").
			WithMetadata(map[string]string{"p": p.String()})
	}

	m := p.Int64()
	ai := new(big.Int).Mod(a, p).Int64()
	bi := new(big.Int).Mod(b, p).Int64()

	// roots[v] lists every y with y² ≡ v, ascending.
	roots := make([][]int64, m)
	for y := int64(0); y < m; y++ {
		v := y * y % m
		roots[v] = append(roots[v], y)
	}

	var points []Point
	for x := int64(0); x < m; x++ {
		rhs := (x*x%m*x + ai*x + bi) % m
		for _, y := range roots[rhs] {
			points = append(points, NewPointInt64(x, y))
		}
	}
	return points, nil
}
