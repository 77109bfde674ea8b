package ecies

import (
	"bytes"
	mrand "math/rand/v2"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/errors"
)

// lockedReader makes a seeded ChaCha8 stream safe for concurrent use.
type lockedReader struct {
	mu  sync.Mutex
	src *mrand.ChaCha8
}

func (r *lockedReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Read(p)
}

func seededReader(seed byte) *lockedReader {
	var s [32]byte
	s[0] = seed
	return &lockedReader{src: mrand.NewChaCha8(s)}
}

// toyCurve is y² = x³ + 2x + 2 over GF(17) with G = (5, 1) of order 19.
func toyCurve(t testing.TB) *curve.Curve {
	t.Helper()
	c, err := curve.New(curve.Params{
		Name: "toy17",
		A:    big.NewInt(2),
		B:    big.NewInt(2),
		P:    big.NewInt(17),
		N:    big.NewInt(19),
		G:    curve.NewPointInt64(5, 1),
	})
	if err != nil {
		t.Fatalf("toy curve: %v", err)
	}
	return c
}

// TestGenerateKey tests key pair generation
func TestGenerateKey(t *testing.T) {
	c := curve.Secp256k1()
	privateKey, err := GenerateKey(c, nil)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	defer privateKey.Destroy()

	d := privateKey.Scalar()
	if d.Sign() <= 0 || d.Cmp(c.N()) >= 0 {
		t.Fatalf("scalar %s outside [1, n-1]", d)
	}

	q, err := c.ScalarBaseMult(d)
	if err != nil {
		t.Fatalf("ScalarBaseMult: %v", err)
	}
	if !privateKey.Public().Point().Equal(q) {
		t.Error("public point is not d·G")
	}
	if !c.IsOnCurve(privateKey.Public().Point()) {
		t.Error("public point is not on the curve")
	}
	if got := len(privateKey.Bytes()); got != 32 {
		t.Errorf("private key bytes length = %d, want 32", got)
	}
}

// TestGenerateKeyReduction checks d = (r mod (n-1)) + 1 for a fixed r
func TestGenerateKeyReduction(t *testing.T) {
	c := toyCurve(t)
	entropy := bytes.Repeat([]byte{0xff}, ScalarEntropyBytes)

	privateKey, err := GenerateKey(c, bytes.NewReader(entropy))
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	r := new(big.Int).SetBytes(entropy)
	want := r.Mod(r, big.NewInt(18))
	want.Add(want, big.NewInt(1))
	if privateKey.Scalar().Cmp(want) != 0 {
		t.Errorf("scalar = %s, want %s", privateKey.Scalar(), want)
	}

	for seed := byte(0); seed < 50; seed++ {
		k, err := GenerateKey(c, seededReader(seed))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if d := k.Scalar().Int64(); d < 1 || d > 18 {
			t.Fatalf("seed %d: scalar %d outside [1, 18]", seed, d)
		}
	}
}

func TestGenerateKeyShortEntropy(t *testing.T) {
	_, err := GenerateKey(curve.Secp256k1(), bytes.NewReader([]byte{1, 2, 3}))
	if err == nil {
		t.Fatal("expected error for short random source")
	}
}

func TestGenerateKeyTinyOrder(t *testing.T) {
	c, err := curve.New(curve.Params{
		A: big.NewInt(2), B: big.NewInt(2), P: big.NewInt(17), N: big.NewInt(1),
		G: curve.NewPointInt64(5, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = GenerateKey(c, seededReader(1))
	if !errors.Is(err, ecerr.ErrOutOfRange) {
		t.Fatalf("GenerateKey with n = 1: got %v, want OutOfRange", err)
	}
}

// TestDerivePublicRange checks 0 and n are rejected and n-1 accepted
func TestDerivePublicRange(t *testing.T) {
	c := curve.Secp256k1()
	n := c.N()

	for _, d := range []*big.Int{big.NewInt(0), big.NewInt(-1), n, new(big.Int).Add(n, big.NewInt(1))} {
		_, err := DerivePublic(c, d)
		if ecerr.KindOf(err) != ecerr.OutOfRange {
			t.Errorf("DerivePublic(%s): got %v, want OutOfRange", d, err)
			continue
		}
		meta := errors.FromError(err).GetMetadata()
		if meta["min"] != "1" || meta["max"] != new(big.Int).Sub(n, big.NewInt(1)).String() {
			t.Errorf("metadata = %v", meta)
		}
	}

	nm1 := new(big.Int).Sub(n, big.NewInt(1))
	pub, err := DerivePublic(c, nm1)
	if err != nil {
		t.Fatalf("DerivePublic(n-1): %v", err)
	}
	if !pub.Point().Equal(c.Negate(c.Generator())) {
		t.Error("(n-1)·G must be -G")
	}

	if _, err := NewPrivateKey(c, big.NewInt(0)); ecerr.KindOf(err) != ecerr.OutOfRange {
		t.Errorf("NewPrivateKey(0): got %v", err)
	}
	if _, err := DerivePublic(c, nil); !errors.Is(err, ErrPrivateKeyEmpty) {
		t.Errorf("DerivePublic(nil): got %v", err)
	}
}

// TestKeyEquality tests key equality checking
func TestKeyEquality(t *testing.T) {
	c := curve.Secp256r1()
	key1, _ := GenerateKey(c, nil)
	defer key1.Destroy()
	key2, _ := GenerateKey(c, nil)
	defer key2.Destroy()

	if !key1.Equal(key1) {
		t.Error("Key should equal itself")
	}
	if key1.Equal(key2) {
		t.Error("Different keys should not be equal")
	}
	if key1.Equal(nil) {
		t.Error("Key should not equal nil")
	}

	same, err := NewPrivateKey(c, key1.Scalar())
	if err != nil {
		t.Fatal(err)
	}
	if !key1.Equal(same) || !key1.Public().Equal(same.Public()) {
		t.Error("keys rebuilt from the same scalar should be equal")
	}

	other, err := NewPrivateKey(curve.Secp256k1(), key1.Scalar())
	if err != nil {
		t.Fatal(err)
	}
	if key1.Equal(other) || key1.Public().Equal(other.Public()) {
		t.Error("keys on different curves should not be equal")
	}
}

func TestDestroy(t *testing.T) {
	key, _ := GenerateKey(toyCurve(t), seededReader(3))
	key.Destroy()
	if key.Scalar() != nil || key.Bytes() != nil {
		t.Fatal("scalar survived Destroy")
	}
	if _, err := key.SharedPoint(curve.NewPointInt64(5, 1)); !errors.Is(err, ErrPrivateKeyEmpty) {
		t.Fatalf("SharedPoint after Destroy: %v", err)
	}
	if strings.Contains(key.String(), "0") {
		t.Fatalf("String leaks key material: %s", key.String())
	}
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"123", 123, true},
		{" 123\n", 123, true},
		{"0x7b", 123, true},
		{"0X7B", 123, true},
		{"-5", -5, true},
		{"abc", 0, false},
		{"0x", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		d, err := ParseScalar(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("ParseScalar(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && d.Int64() != tt.want {
			t.Errorf("ParseScalar(%q) = %s, want %d", tt.in, d, tt.want)
		}
	}
}

func TestPublicKeyEncoding(t *testing.T) {
	c := curve.Secp256k1()
	pub, err := DerivePublic(c, big.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}

	b := pub.Bytes()
	if len(b) != 65 || b[0] != UncompressedPointTag {
		t.Fatalf("Bytes() = %x", b)
	}
	if !strings.HasPrefix(pub.Hex(), "0479be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798") {
		t.Errorf("Hex() = %s", pub.Hex())
	}
	want := c.Generator().X().String() + "|" + c.Generator().Y().String()
	if pub.Compact() != want {
		t.Errorf("Compact() = %s, want %s", pub.Compact(), want)
	}
}

func TestNewPublicKeyValidation(t *testing.T) {
	c := toyCurve(t)
	if _, err := NewPublicKey(c, curve.Infinity()); !errors.Is(err, ecerr.ErrInvalidPoint) {
		t.Errorf("infinity: got %v", err)
	}
	if _, err := NewPublicKey(c, curve.NewPointInt64(1, 1)); !errors.Is(err, ecerr.ErrInvalidPoint) {
		t.Errorf("off curve: got %v", err)
	}
	if _, err := ParsePublicKey(c, "x", "1"); !errors.Is(err, ecerr.ErrInvalidPoint) {
		t.Errorf("bad decimal: got %v", err)
	}
	pub, err := ParsePublicKey(c, " 6 ", "3")
	if err != nil {
		t.Fatal(err)
	}
	if pub.Point().String() != "(6, 3)" {
		t.Errorf("point = %s", pub.Point())
	}
}

// TestKeyFiles tests saving and loading keys to and from files
func TestKeyFiles(t *testing.T) {
	for _, c := range []*curve.Curve{curve.Secp256k1(), curve.Secp256r1(), toyCurve(t)} {
		t.Run(c.Name(), func(t *testing.T) {
			dir := t.TempDir()
			engine := NewEngine(WithRandom(seededReader(9)))

			privateKey, err := engine.GenerateKeyFiles(c,
				WithDirpath(dir),
				WithPrivateKeyFilename("my_key.pem"),
			)
			if err != nil {
				t.Fatalf("GenerateKeyFiles: %v", err)
			}
			defer privateKey.Destroy()

			loaded, err := LoadPrivateKey(filepath.Join(dir, "my_key.pem"))
			if err != nil {
				t.Fatalf("LoadPrivateKey: %v", err)
			}
			if !loaded.Equal(privateKey) {
				t.Error("loaded private key differs")
			}
			if !loaded.Curve().Equal(c) {
				t.Error("loaded curve differs")
			}

			pub, err := LoadPublicKey(filepath.Join(dir, "public.pem"))
			if err != nil {
				t.Fatalf("LoadPublicKey: %v", err)
			}
			if !pub.Equal(privateKey.Public()) {
				t.Error("loaded public key differs")
			}

			info, err := os.Stat(filepath.Join(dir, "my_key.pem"))
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != 0o600 {
				t.Errorf("private key mode = %v", info.Mode().Perm())
			}
		})
	}
}

func TestCurveHeadersInfiniteGenerator(t *testing.T) {
	params := toyCurve(t).Params()
	params.G = curve.Infinity()
	c, err := curve.New(params)
	if err != nil {
		t.Fatal(err)
	}

	h := curveHeaders(c)
	if _, ok := h["Gx"]; ok {
		t.Fatalf("headers carry Gx for an infinite generator: %v", h)
	}
	back, err := curveFromHeaders(h)
	if err != nil {
		t.Fatalf("curveFromHeaders: %v", err)
	}
	if !back.Equal(c) || !back.Generator().IsInfinity() {
		t.Errorf("round trip changed the curve: %v", back.Params())
	}

	// a single coordinate is still malformed
	delete(h, "Curve")
	h["Gx"] = "5"
	if _, err := curveFromHeaders(h); ecerr.KindOf(err) != ecerr.MalformedParams {
		t.Errorf("expected MalformedParams, got %v", err)
	}
}

func TestLoadKeyErrors(t *testing.T) {
	dir := t.TempDir()
	engine := NewEngine()
	key, err := engine.GenerateKeyFiles(toyCurve(t), WithDirpath(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer key.Destroy()

	if _, err := LoadPrivateKey(filepath.Join(dir, "public.pem")); !errors.Is(err, ErrInvalidPEMBlock) {
		t.Errorf("public file as private: got %v", err)
	}
	if _, err := LoadPublicKey(filepath.Join(dir, "missing.pem")); !errors.Is(err, ErrKeyFile) {
		t.Errorf("missing file: got %v", err)
	}
	if _, err := ParsePrivateKeyPEM([]byte("not pem")); !errors.Is(err, ErrInvalidPEMBlock) {
		t.Errorf("garbage: got %v", err)
	}
}
