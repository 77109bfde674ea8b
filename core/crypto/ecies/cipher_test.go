package ecies

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/errors"
)

// TestEncryptDecrypt tests basic encryption and decryption
func TestEncryptDecrypt(t *testing.T) {
	for _, c := range []*curve.Curve{curve.Secp256k1(), curve.Secp256r1(), toyCurve(t)} {
		t.Run(c.Name(), func(t *testing.T) {
			engine := NewEngine()
			privateKey, err := engine.GenerateKey(c)
			if err != nil {
				t.Fatalf("Failed to generate key: %v", err)
			}
			defer privateKey.Destroy()

			for _, size := range []int{0, 1, 15, 16, 17, 1024} {
				plaintext := bytes.Repeat([]byte{byte(size)}, size)
				env, err := engine.Encrypt(c, privateKey.Public().Point(), plaintext)
				if err != nil {
					t.Fatalf("Encrypt(%d bytes): %v", size, err)
				}
				if len(env.IV) != AESGCMNonceSize {
					t.Fatalf("iv length = %d", len(env.IV))
				}
				if len(env.Ciphertext) != size+AESGCMTagSize {
					t.Fatalf("ciphertext length = %d, want %d", len(env.Ciphertext), size+AESGCMTagSize)
				}
				if !c.IsOnCurve(env.Ephemeral) || env.Ephemeral.IsInfinity() {
					t.Fatalf("ephemeral %s is not a finite curve point", env.Ephemeral)
				}

				decrypted, err := engine.Decrypt(c, privateKey.Scalar(), env)
				if err != nil {
					t.Fatalf("Decrypt(%d bytes): %v", size, err)
				}
				if !bytes.Equal(plaintext, decrypted) {
					t.Fatalf("Decrypted text doesn't match: got %x, want %x", decrypted, plaintext)
				}
			}
		})
	}
}

// TestHelloBetweenTwoParties encrypts "hello" twice from A to B
func TestHelloBetweenTwoParties(t *testing.T) {
	c := curve.Secp256k1()
	engine := NewEngine()

	alice, err := engine.GenerateKey(c)
	if err != nil {
		t.Fatal(err)
	}
	defer alice.Destroy()
	bob, err := engine.GenerateKey(c)
	if err != nil {
		t.Fatal(err)
	}
	defer bob.Destroy()

	first, err := engine.EncryptMessage(c, bob.Public().Point(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.EncryptMessage(c, bob.Public().Point(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if first.Compact() == second.Compact() {
		t.Fatal("two encryptions of the same message produced the same envelope")
	}
	if first.Ephemeral.Equal(second.Ephemeral) || bytes.Equal(first.IV, second.IV) {
		t.Fatal("ephemeral key or nonce was reused")
	}

	for _, env := range []*Envelope{first, second} {
		parsed, err := ParseCompact(env.Compact())
		if err != nil {
			t.Fatalf("ParseCompact: %v", err)
		}
		msg, err := engine.DecryptMessage(c, bob.Scalar(), parsed)
		if err != nil {
			t.Fatalf("DecryptMessage: %v", err)
		}
		if msg != "hello" {
			t.Fatalf("got %q, want hello", msg)
		}
		if _, err := engine.DecryptMessage(c, alice.Scalar(), parsed); !errors.Is(err, ecerr.ErrAuthenticationFailed) {
			t.Fatalf("decrypt with the sender's key: got %v", err)
		}
	}
}

func TestSeededEngineIsDeterministic(t *testing.T) {
	c := curve.Secp256k1()
	recipient, err := DerivePublic(c, big.NewInt(12345))
	if err != nil {
		t.Fatal(err)
	}

	a, err := NewEngine(WithRandom(seededReader(7))).EncryptMessage(c, recipient.Point(), "same")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewEngine(WithRandom(seededReader(7))).EncryptMessage(c, recipient.Point(), "same")
	if err != nil {
		t.Fatal(err)
	}
	if a.Compact() != b.Compact() {
		t.Fatal("same seed produced different envelopes")
	}
}

// TestTamperDetection flips every bit of the nonce and the ciphertext
func TestTamperDetection(t *testing.T) {
	c := curve.Secp256k1()
	engine := NewEngine(WithRandom(seededReader(1)))
	privateKey, _ := engine.GenerateKey(c)
	defer privateKey.Destroy()

	env, err := engine.Encrypt(c, privateKey.Public().Point(), []byte("hi"))
	if err != nil {
		t.Fatal(err)
	}

	flip := func(field []byte) {
		for i := range len(field) * 8 {
			field[i/8] ^= 1 << (i % 8)
			plaintext, err := engine.Decrypt(c, privateKey.Scalar(), env)
			field[i/8] ^= 1 << (i % 8)

			if !errors.Is(err, ecerr.ErrAuthenticationFailed) {
				t.Fatalf("bit %d: got %v, want AuthenticationFailed", i, err)
			}
			if plaintext != nil {
				t.Fatalf("bit %d: plaintext returned on failure", i)
			}
		}
	}
	flip(env.IV)
	flip(env.Ciphertext)

	if _, err := engine.Decrypt(c, privateKey.Scalar(), env); err != nil {
		t.Fatalf("restored envelope no longer decrypts: %v", err)
	}
}

func TestDecryptWrongCurve(t *testing.T) {
	k1, r1 := curve.Secp256k1(), curve.Secp256r1()
	engine := NewEngine()

	privateKey, _ := engine.GenerateKey(k1)
	defer privateKey.Destroy()
	env, err := engine.EncryptMessage(k1, privateKey.Public().Point(), "secret")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := engine.Decrypt(r1, privateKey.Scalar(), env); !errors.Is(err, ecerr.ErrAuthenticationFailed) {
		t.Fatalf("got %v, want AuthenticationFailed", err)
	}
}

func TestDecryptDegenerateInput(t *testing.T) {
	c := toyCurve(t)
	engine := NewEngine(WithRandom(seededReader(2)))
	privateKey, _ := engine.GenerateKey(c)
	env, err := engine.EncryptMessage(c, privateKey.Public().Point(), "x")
	if err != nil {
		t.Fatal(err)
	}

	// 19·E is the point at infinity on the toy curve.
	if _, err := engine.Decrypt(c, big.NewInt(19), env); !errors.Is(err, ecerr.ErrAuthenticationFailed) {
		t.Errorf("shared point at infinity: got %v", err)
	}
	if _, err := engine.Decrypt(c, big.NewInt(0), env); !errors.Is(err, ecerr.ErrAuthenticationFailed) {
		t.Errorf("zero scalar: got %v", err)
	}

	short := *env
	short.IV = env.IV[:8]
	_, err = engine.Decrypt(c, privateKey.Scalar(), &short)
	if !errors.Is(err, ecerr.ErrMalformedEnvelope) {
		t.Fatalf("short iv: got %v", err)
	}
	if got := errors.FromError(err).GetMetadata()["iv_len"]; got != "8" {
		t.Errorf("iv_len = %q", got)
	}

	if _, err := engine.Decrypt(c, nil, env); !errors.Is(err, ErrPrivateKeyEmpty) {
		t.Errorf("nil scalar: got %v", err)
	}
	if _, err := engine.Decrypt(c, privateKey.Scalar(), nil); !errors.Is(err, ecerr.ErrMalformedEnvelope) {
		t.Errorf("nil envelope: got %v", err)
	}
}

func TestEncryptInvalidRecipient(t *testing.T) {
	c := toyCurve(t)
	engine := NewEngine()

	for _, p := range []curve.Point{curve.Infinity(), curve.NewPointInt64(1, 1)} {
		if _, err := engine.EncryptMessage(c, p, "x"); !errors.Is(err, ecerr.ErrInvalidPoint) {
			t.Errorf("recipient %s: got %v, want InvalidPoint", p, err)
		}
	}
	if _, err := engine.EncryptMessage(nil, curve.NewPointInt64(5, 1), "x"); ecerr.KindOf(err) != ecerr.MalformedParams {
		t.Errorf("nil curve: got %v", err)
	}
}

func TestDecryptMessageInvalidUTF8(t *testing.T) {
	c := toyCurve(t)
	engine := NewEngine()
	privateKey, _ := engine.GenerateKey(c)

	env, err := engine.Encrypt(c, privateKey.Public().Point(), []byte{0xff, 'o', 'k'})
	if err != nil {
		t.Fatal(err)
	}
	msg, err := engine.DecryptMessage(c, privateKey.Scalar(), env)
	if err != nil {
		t.Fatal(err)
	}
	if msg != "\uFFFDok" {
		t.Fatalf("got %q", msg)
	}
}

func TestSharedSecretEncoding(t *testing.T) {
	got := sharedSecret(curve.NewPointInt64(12345, 1))
	if !bytes.Equal(got, []byte{0x01, 0x23, 0x45}) {
		t.Fatalf("sharedSecret = %x", got)
	}

	key1, err := deriveKey(got)
	if err != nil {
		t.Fatal(err)
	}
	key2, _ := deriveKey([]byte{0x01, 0x23, 0x45})
	if len(key1) != AESKeySize || !bytes.Equal(key1, key2) {
		t.Fatalf("deriveKey is not a deterministic %d-byte function", AESKeySize)
	}
	key3, _ := deriveKey([]byte{0x01, 0x23, 0x46})
	if bytes.Equal(key1, key3) {
		t.Fatal("different secrets derived the same key")
	}
}

func TestParseCompact(t *testing.T) {
	env := &Envelope{
		Ephemeral:  curve.NewPointInt64(6, 3),
		IV:         bytes.Repeat([]byte{1}, AESGCMNonceSize),
		Ciphertext: []byte("0123456789abcdef!"),
	}
	wire := env.Compact()
	if !strings.HasPrefix(wire, "6|3|") {
		t.Fatalf("Compact() = %s", wire)
	}

	parsed, err := ParseCompact(" " + strings.ReplaceAll(wire, "|", " | ") + "\n")
	if err != nil {
		t.Fatalf("ParseCompact: %v", err)
	}
	if !parsed.Ephemeral.Equal(env.Ephemeral) || !bytes.Equal(parsed.IV, env.IV) || !bytes.Equal(parsed.Ciphertext, env.Ciphertext) {
		t.Fatal("round trip mismatch")
	}

	tests := []struct {
		name  string
		in    string
		parts string
	}{
		{"three parts", "1|2|AAAA", "3"},
		{"five parts", "1|2|AAAA|AAAA|AAAA", "5"},
		{"empty", "", "1"},
		{"bad x", "x|2|AAAA|AAAA", ""},
		{"bad iv", "1|2|!!!|AAAA", ""},
		{"bad ciphertext", "1|2|AAAA|???", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCompact(tt.in)
			if !errors.Is(err, ecerr.ErrMalformedEnvelope) {
				t.Fatalf("got %v, want MalformedEnvelope", err)
			}
			if tt.parts != "" && errors.FromError(err).GetMetadata()["parts"] != tt.parts {
				t.Fatalf("metadata = %v", errors.FromError(err).GetMetadata())
			}
		})
	}
}
