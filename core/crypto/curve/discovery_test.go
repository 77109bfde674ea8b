package curve

import (
	"encoding/json"
	"math/big"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/errors"
)

func seeded(seed byte) *mrand.ChaCha8 {
	var s [32]byte
	s[0] = seed
	return mrand.NewChaCha8(s)
}

var golden17 = []string{
	"(0, 6)", "(0, 11)",
	"(3, 1)", "(3, 16)",
	"(5, 1)", "(5, 16)",
	"(6, 3)", "(6, 14)",
	"(7, 6)", "(7, 11)",
	"(9, 1)", "(9, 16)",
	"(10, 6)", "(10, 11)",
	"(13, 7)", "(13, 10)",
	"(16, 4)", "(16, 13)",
}

func pointStrings(pts []Point) []string {
	out := make([]string, len(pts))
	for i, p := range pts {
		out[i] = p.String()
	}
	return out
}

func TestEnumeratePointsGolden(t *testing.T) {
	pts, err := EnumeratePoints(big.NewInt(2), big.NewInt(2), big.NewInt(17))
	require.NoError(t, err)
	assert.Equal(t, golden17, pointStrings(pts))

	// negative coefficients are reduced first: -15 ≡ 2 (mod 17)
	pts, err = EnumeratePoints(big.NewInt(-15), big.NewInt(19), big.NewInt(17))
	require.NoError(t, err)
	assert.Equal(t, golden17, pointStrings(pts))
}

func TestEnumeratePointsLimit(t *testing.T) {
	_, err := EnumeratePoints(big.NewInt(1), big.NewInt(1), big.NewInt(501))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ecerr.ErrFieldTooLarge))
	meta := errors.FromError(err).GetMetadata()
	assert.Equal(t, "501", meta["p"])
	assert.Equal(t, "500", meta["max"])

	pts, err := EnumeratePoints(big.NewInt(1), big.NewInt(1), big.NewInt(499))
	require.NoError(t, err)
	c, err := New(Params{A: big.NewInt(1), B: big.NewInt(1), P: big.NewInt(499), N: big.NewInt(1)})
	require.NoError(t, err)
	for _, p := range pts {
		require.True(t, c.IsOnCurve(p))
	}
}

func TestSuggest(t *testing.T) {
	assert.Len(t, Suggest(big.NewInt(2), big.NewInt(2), big.NewInt(17)), 18)

	pts := Suggest(big.NewInt(1), big.NewInt(1), big.NewInt(499))
	assert.Len(t, pts, MaxSuggestions)
	all, _ := EnumeratePoints(big.NewInt(1), big.NewInt(1), big.NewInt(499))
	assert.Equal(t, pointStrings(all[:MaxSuggestions]), pointStrings(pts))

	assert.Empty(t, Suggest(big.NewInt(1), big.NewInt(1), big.NewInt(1009)))
	assert.NotNil(t, Suggest(nil, nil, nil))
}

func TestSuggestFor(t *testing.T) {
	params := Params{A: big.NewInt(2), B: big.NewInt(2), P: big.NewInt(17), N: big.NewInt(19), G: NewPointInt64(1, 1)}
	_, err := New(params)
	assert.Len(t, SuggestFor(params, err), 18)
	assert.Nil(t, SuggestFor(params, nil))
}

func TestFindRandomTestCurve(t *testing.T) {
	for seed := byte(0); seed < 16; seed++ {
		c, err := FindRandomTestCurve(seeded(seed))
		require.NoError(t, err)

		assert.True(t, slices.Contains(DefaultSearchPrimes, c.P().Int64()))
		assert.False(t, c.IsSingular())
		assert.False(t, c.Generator().IsInfinity())
		assert.True(t, c.IsOnCurve(c.Generator()))
		assert.True(t, c.N().Cmp(big.NewInt(1)) > 0)

		nG, err := c.ScalarBaseMult(c.N())
		require.NoError(t, err)
		assert.True(t, nG.IsInfinity(), "n·G must be infinity on %s", c.Name())

		// n is the smallest such multiple
		for k := int64(1); k < c.N().Int64(); k++ {
			kG, err := c.ScalarBaseMult(big.NewInt(k))
			require.NoError(t, err)
			require.False(t, kG.IsInfinity(), "%d·G is infinity but n = %s", k, c.N())
		}
	}
}

func TestFindRandomTestCurveDeterministic(t *testing.T) {
	a, err := FindRandomTestCurve(seeded(42))
	require.NoError(t, err)
	b, err := FindRandomTestCurve(seeded(42))
	require.NoError(t, err)

	ja, _ := json.Marshal(a.Params())
	jb, _ := json.Marshal(b.Params())
	assert.JSONEq(t, string(ja), string(jb))
}

func TestFindRandomTestCurveExhausted(t *testing.T) {
	_, err := FindRandomTestCurve(seeded(1), WithAttempts(0))
	assert.True(t, errors.Is(err, ecerr.ErrNoSuitableCurveFound))

	// enumeration refuses every candidate
	_, err = FindRandomTestCurve(seeded(1), WithPrimes(1009), WithAttempts(5))
	assert.Equal(t, ecerr.NoSuitableCurveFound, ecerr.KindOf(err))
	assert.Equal(t, "5", errors.FromError(err).GetMetadata()["attempts"])

	_, err = FindRandomTestCurve(seeded(1), WithPrimes())
	assert.Equal(t, ecerr.NoSuitableCurveFound, ecerr.KindOf(err))
}

func TestParamsJSON(t *testing.T) {
	c := toyCurve(t)
	data, err := json.Marshal(c.Params())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"toy17","a":"2","b":"2","p":"17","Gx":"5","Gy":"1","n":"19"}`, string(data))

	var back Params
	require.NoError(t, json.Unmarshal(data, &back))
	c2, err := New(back)
	require.NoError(t, err)
	assert.True(t, c2.Generator().Equal(c.Generator()))
	assert.Equal(t, "toy17", c2.Name())

	// numbers are accepted as well as strings
	p, err := ParseParamsJSON([]byte(`{"a":2,"b":"2","p":17,"Gx":"5","Gy":1,"n":"19"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(17), p.P.Int64())
}

func TestParseParamsJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		missing string
	}{
		{"missing n", `{"a":"2","b":"2","p":"17","Gx":"5","Gy":"1"}`, "n"},
		{"missing several", `{"a":"2","p":"17"}`, "b,Gx,Gy,n"},
		{"null field", `{"a":"2","b":null,"p":"17","Gx":"5","Gy":"1","n":"19"}`, "b"},
		{"not an object", `[1,2,3]`, ""},
		{"not json", `a=2`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParamsJSON([]byte(tt.input))
			require.Error(t, err)
			e := errors.FromError(err)
			assert.Equal(t, ecerr.MalformedParams.String(), e.Reason)
			assert.Equal(t, "curve file must contain fields: a, b, p, Gx, Gy, n", e.Message)
			if tt.missing != "" {
				assert.Equal(t, tt.missing, e.GetMetadata()["missing"])
			}
		})
	}

	_, err := ParseParamsJSON([]byte(`{"a":"two","b":"2","p":"17","Gx":"5","Gy":"1","n":"19"}`))
	assert.Equal(t, ecerr.MalformedParams, ecerr.KindOf(err))
	assert.Equal(t, "a", errors.FromError(err).GetMetadata()["field"])
}

func TestSaveLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), ParamsFilename)
	require.NoError(t, SaveParams(Secp256k1().Params(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Gx": "55066263022277343669578718895168534326250603453777594175500187360389116729240"`)

	p, err := LoadParams(path)
	require.NoError(t, err)
	c, err := New(p)
	require.NoError(t, err)
	assert.Equal(t, Secp256k1().N().String(), c.N().String())
	assert.True(t, c.Generator().Equal(Secp256k1().Generator()))

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSaveParamsInfiniteGenerator(t *testing.T) {
	params := toyCurve(t).Params()
	params.G = Infinity()
	c, err := New(params)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), ParamsFilename)
	err = SaveParams(c.Params(), path)
	assert.Equal(t, ecerr.InvalidGenerator, ecerr.KindOf(err))
	assert.NoFileExists(t, path)

	_, err = json.Marshal(c.Params())
	assert.Equal(t, ecerr.InvalidGenerator, ecerr.KindOf(err))
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(NewPointInt64(5, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":"5","y":"1"}`, string(data))

	data, err = json.Marshal(Infinity())
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var p Point
	require.NoError(t, json.Unmarshal([]byte(`{"x":"6","y":"3"}`), &p))
	assert.Equal(t, "(6, 3)", p.String())

	err = json.Unmarshal([]byte(`{"x":"six","y":"3"}`), &p)
	assert.True(t, errors.Is(err, ecerr.ErrInvalidPoint))
}
