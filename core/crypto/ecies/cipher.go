package ecies

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/core/crypto/ecies/internal"
	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/log"
)

// maxEphemeralAttempts bounds the retries when an ephemeral scalar sends the
// recipient point to infinity, which only happens on toy curves whose n is
// not the order of the recipient point.
const maxEphemeralAttempts = 8

// Engine performs ECIES encryption and decryption. It holds no per-call
// state and is safe for concurrent use as long as its random source is.
type Engine struct {
	rand   io.Reader
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom replaces crypto/rand.Reader, e.g. with a seeded reader in tests.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
	}
}

// WithLogger sets the logger; the global log.G is used otherwise.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine returns an engine reading randomness from crypto/rand.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{rand: rand.Reader}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) log() *log.Logger {
	if e.logger != nil {
		return e.logger
	}
	return log.G
}

// Rand returns the engine's random source.
func (e *Engine) Rand() io.Reader {
	return e.rand
}

// GenerateKey generates a key pair on c from the engine's random source.
func (e *Engine) GenerateKey(c *curve.Curve) (*PrivateKey, error) {
	return GenerateKey(c, e.rand)
}

// Encrypt seals plaintext for recipient on c.
//
// A fresh ephemeral key pair is drawn, the shared secret is the x coordinate
// of d_e·Q_r, HKDF-SHA256 turns it into an AES-256 key, and AES-GCM seals the
// plaintext under a fresh 96-bit nonce without associated data.
//
// recipient must be a finite point of c, otherwise ecerr.InvalidPoint.
func (e *Engine) Encrypt(c *curve.Curve, recipient curve.Point, plaintext []byte) (*Envelope, error) {
	if c == nil {
		return nil, ecerr.New(ecerr.MalformedParams, "curve is required")
	}
	if err := checkPoint(c, recipient); err != nil {
		return nil, err
	}

	var (
		ephemeral *PrivateKey
		shared    curve.Point
		err       error
	)
	for range maxEphemeralAttempts {
		if ephemeral, err = GenerateKey(c, e.rand); err != nil {
			return nil, err
		}
		if shared, err = ephemeral.SharedPoint(recipient); err != nil {
			ephemeral.Destroy()
			return nil, err
		}
		if !shared.IsInfinity() {
			break
		}
		ephemeral.Destroy()
		ephemeral = nil
	}
	if ephemeral == nil {
		return nil, ecerr.New(ecerr.InvalidPoint, "recipient point has small order on this curve").
			WithMetadata(map[string]string{"attempts": strconv.Itoa(maxEphemeralAttempts)})
	}
	defer ephemeral.Destroy()

	aead, err := newAEAD(shared)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, AESGCMNonceSize)
	if _, err := io.ReadFull(e.rand, nonce); err != nil {
		return nil, errors.Wrap(err, 500, "ecies: read random source")
	}

	env := &Envelope{
		Ephemeral:  ephemeral.Public().Point(),
		IV:         nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
	}

	e.log().Debug().
		Str("curve", c.Name()).
		Int("plaintext_len", len(plaintext)).
		Msg("ecies encrypt")
	return env, nil
}

// Decrypt opens env with the recipient scalar d.
//
// Every failure past envelope shape checks, a wrong key, a wrong curve, a
// tampered nonce or ciphertext, or a degenerate shared point, is reported as
// ecerr.AuthenticationFailed and no plaintext is returned.
func (e *Engine) Decrypt(c *curve.Curve, d *big.Int, env *Envelope) ([]byte, error) {
	if c == nil {
		return nil, ecerr.New(ecerr.MalformedParams, "curve is required")
	}
	if d == nil {
		return nil, ErrPrivateKeyEmpty
	}
	if env == nil {
		return nil, malformed("envelope is required")
	}
	if len(env.IV) != AESGCMNonceSize {
		return nil, malformed("iv must be %d bytes", AESGCMNonceSize).
			WithMetadata(map[string]string{"iv_len": strconv.Itoa(len(env.IV))})
	}

	shared, err := c.ScalarMult(d, env.Ephemeral)
	if err != nil {
		return nil, authFailed("shared secret could not be derived").WithCause(err)
	}
	if shared.IsInfinity() {
		return nil, authFailed("shared secret is the point at infinity")
	}

	aead, err := newAEAD(shared)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, env.IV, env.Ciphertext, nil)
	if err != nil {
		e.log().Debug().Str("curve", c.Name()).Msg("ecies decrypt: tag mismatch")
		return nil, authFailed("wrong key, curve mismatch or corrupted envelope")
	}
	return plaintext, nil
}

// EncryptMessage encrypts the UTF-8 bytes of msg.
func (e *Engine) EncryptMessage(c *curve.Curve, recipient curve.Point, msg string) (*Envelope, error) {
	return e.Encrypt(c, recipient, []byte(msg))
}

// DecryptMessage decrypts env and decodes the plaintext as UTF-8, replacing
// invalid sequences with U+FFFD.
func (e *Engine) DecryptMessage(c *curve.Curve, d *big.Int, env *Envelope) (string, error) {
	plaintext, err := e.Decrypt(c, d, env)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(plaintext), "\uFFFD"), nil
}

// newAEAD derives the AES-256-GCM instance from a finite shared point.
func newAEAD(shared curve.Point) (cipher.AEAD, error) {
	secret := sharedSecret(shared)
	defer internal.Wipe(secret)

	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	defer internal.Wipe(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, 500, "ecies: create AES cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, 500, "ecies: create GCM")
	}
	return aead, nil
}

// sharedSecret serializes the x coordinate of the shared point: its decimal
// digits packed two per byte. Peers exchanging envelopes must agree on this
// form, so it cannot change without breaking existing ciphertexts.
func sharedSecret(shared curve.Point) []byte {
	return internal.PackDigits(shared.X().String())
}
