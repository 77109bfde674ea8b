package curve

import (
	"math/big"

	"github.com/kochabx/curvebox/core/crypto/ecerr"
)

// MaxSuggestions bounds the points returned by Suggest.
const MaxSuggestions = 20

// Suggest lists up to MaxSuggestions valid points of y² = x³ + ax + b over
// GF(p), in enumeration order, to help fix a rejected generator. It returns
// an empty slice when p is too large or anything else goes wrong.
func Suggest(a, b, p *big.Int) []Point {
	points, err := EnumeratePoints(a, b, p)
	if err != nil || len(points) == 0 {
		return []Point{}
	}
	if len(points) > MaxSuggestions {
		points = points[:MaxSuggestions]
	}
	return points
}

// SuggestFor returns suggestions when err is an InvalidGenerator failure for
// params, and nil otherwise.
func SuggestFor(params Params, err error) []Point {
	if ecerr.KindOf(err) != ecerr.InvalidGenerator {
		return nil
	}
	return Suggest(params.A, params.B, params.P)
}
