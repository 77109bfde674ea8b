package curve

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/kochabx/curvebox/core/crypto/ecerr"
)

// Point is an affine curve point or the point at infinity. The zero value is
// the point at infinity. Points are immutable: coordinates are copied in and
// out.
type Point struct {
	x, y   *big.Int
	finite bool
}

// Infinity returns the group identity.
func Infinity() Point {
	return Point{}
}

// NewPoint returns the affine point (x, y). The coordinates are copied and
// not reduced; the curve reduces them when it operates on the point.
func NewPoint(x, y *big.Int) Point {
	return Point{x: new(big.Int).Set(x), y: new(big.Int).Set(y), finite: true}
}

// NewPointInt64 is a shorthand for small curves.
func NewPointInt64(x, y int64) Point {
	return Point{x: big.NewInt(x), y: big.NewInt(y), finite: true}
}

// ParsePoint parses decimal coordinates.
func ParsePoint(x, y string) (Point, error) {
	px, ok := new(big.Int).SetString(x, 10)
	if !ok {
		return Point{}, ecerr.New(ecerr.InvalidPoint, "x coordinate %q is not a decimal integer", x)
	}
	py, ok := new(big.Int).SetString(y, 10)
	if !ok {
		return Point{}, ecerr.New(ecerr.InvalidPoint, "y coordinate %q is not a decimal integer", y)
	}
	return Point{x: px, y: py, finite: true}, nil
}

// IsInfinity reports whether p is the point at infinity.
func (p Point) IsInfinity() bool {
	return !p.finite
}

// X returns a copy of the x coordinate, or nil for infinity.
func (p Point) X() *big.Int {
	if !p.finite {
		return nil
	}
	return new(big.Int).Set(p.x)
}

// Y returns a copy of the y coordinate, or nil for infinity.
func (p Point) Y() *big.Int {
	if !p.finite {
		return nil
	}
	return new(big.Int).Set(p.y)
}

// Equal reports structural equality: both infinity, or equal coordinates.
func (p Point) Equal(q Point) bool {
	if !p.finite || !q.finite {
		return p.finite == q.finite
	}
	return p.x.Cmp(q.x) == 0 && p.y.Cmp(q.y) == 0
}

func (p Point) String() string {
	if !p.finite {
		return "O"
	}
	return fmt.Sprintf("(%s, %s)", p.x, p.y)
}

type pointJSON struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// MarshalJSON encodes a finite point as {"x":"..","y":".."} with decimal
// strings and infinity as null.
func (p Point) MarshalJSON() ([]byte, error) {
	if !p.finite {
		return []byte("null"), nil
	}
	return json.Marshal(pointJSON{X: p.x.String(), Y: p.y.String()})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Infinity()
		return nil
	}
	var v pointJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return ecerr.New(ecerr.InvalidPoint, "point must be an object with x and y").WithCause(err)
	}
	pt, err := ParsePoint(v.X, v.Y)
	if err != nil {
		return err
	}
	*p = pt
	return nil
}
