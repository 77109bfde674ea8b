package curve

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"

	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/errors"
)

// DefaultSearchPrimes are the moduli FindRandomTestCurve picks from.
var DefaultSearchPrimes = []int64{5, 7, 11, 13, 17, 19, 23, 29, 31}

// DefaultSearchAttempts bounds the (a, b) samples per search.
const DefaultSearchAttempts = 200

type searchOptions struct {
	primes   []int64
	attempts int
}

// SearchOption configures FindRandomTestCurve.
type SearchOption func(*searchOptions)

// WithPrimes replaces the candidate moduli. Values above
// MaxEnumerationModulus make every attempt fail.
func WithPrimes(primes ...int64) SearchOption {
	return func(o *searchOptions) {
		o.primes = primes
	}
}

// WithAttempts sets the attempt budget.
func WithAttempts(n int) SearchOption {
	return func(o *searchOptions) {
		o.attempts = n
	}
}

// FindRandomTestCurve builds a small toy curve for demonstrations.
//
// One prime is drawn from the candidate set; then up to the attempt budget
// random (a, b) pairs are tried. Singular and empty curves are skipped. For
// the rest a random point becomes the generator and its order is found by
// adding G until infinity, giving up after p²+2 steps. A walk that does not
// reach infinity discards the candidate and the search goes on.
//
// A nil rnd uses crypto/rand. Exhausting the budget fails with
// ecerr.NoSuitableCurveFound.
func FindRandomTestCurve(rnd io.Reader, opts ...SearchOption) (*Curve, error) {
	o := searchOptions{primes: DefaultSearchPrimes, attempts: DefaultSearchAttempts}
	for _, opt := range opts {
		opt(&o)
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	if len(o.primes) == 0 {
		return nil, ecerr.New(ecerr.NoSuitableCurveFound, "no candidate primes")
	}

	idx, err := randIndex(rnd, len(o.primes))
	if err != nil {
		return nil, err
	}
	p := big.NewInt(o.primes[idx])

	for attempt := 0; attempt < o.attempts; attempt++ {
		a, err := randBelow(rnd, p)
		if err != nil {
			return nil, err
		}
		b, err := randBelow(rnd, p)
		if err != nil {
			return nil, err
		}
		if Discriminant(a, b, p).Sign() == 0 {
			continue
		}

		points, err := EnumeratePoints(a, b, p)
		if err != nil || len(points) == 0 {
			continue
		}
		gi, err := randIndex(rnd, len(points))
		if err != nil {
			return nil, err
		}
		g := points[gi]

		order, ok := pointOrder(a, b, p, g)
		if !ok {
			continue
		}
		return New(Params{
			Name: "random-p" + p.String(),
			A:    a,
			B:    b,
			P:    p,
			N:    order,
			G:    g,
		})
	}

	return nil, ecerr.New(ecerr.NoSuitableCurveFound, "no suitable curve found after %d attempts", o.attempts).
		WithMetadata(map[string]string{"p": p.String(), "attempts": strconv.Itoa(o.attempts)})
}

// pointOrder walks G, 2G, 3G, ... until infinity. It reports false when the
// walk exceeds p²+2 steps or the group law fails.
func pointOrder(a, b, p *big.Int, g Point) (*big.Int, bool) {
	c, err := New(Params{A: a, B: b, P: p, N: big.NewInt(1), G: g})
	if err != nil {
		return nil, false
	}
	limit := new(big.Int).Mul(p, p)
	limit.Add(limit, two)

	q := g
	order := big.NewInt(1)
	for order.Cmp(limit) <= 0 {
		if q, err = c.Add(q, g); err != nil {
			return nil, false
		}
		order.Add(order, one)
		if q.IsInfinity() {
			break
		}
	}
	if !q.IsInfinity() || order.Cmp(one) <= 0 {
		return nil, false
	}
	return order, true
}

func randIndex(rnd io.Reader, n int) (int, error) {
	v, err := randBelow(rnd, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// randBelow draws uniformly from [0, limit) by rejection sampling on the bytes
// of rnd, so a seeded reader always yields the same sequence.
func randBelow(rnd io.Reader, limit *big.Int) (*big.Int, error) {
	bitLen := limit.BitLen()
	if limit.Sign() <= 0 {
		return new(big.Int), nil
	}
	buf := make([]byte, (bitLen+7)/8)
	excess := uint(len(buf)*8 - bitLen)
	v := new(big.Int)
	for {
		if _, err := io.ReadFull(rnd, buf); err != nil {
			return nil, errors.Wrap(err, 500, "read random source")
		}
		buf[0] &= byte(0xff >> excess)
		if v.SetBytes(buf).Cmp(limit) < 0 {
			return v, nil
		}
	}
}
