package ecies

import (
	"encoding/base64"
	"math/big"
	"strconv"
	"strings"

	"github.com/kochabx/curvebox/core/crypto/curve"
)

// Envelope is the output of one encryption: the ephemeral public point, the
// GCM nonce and the ciphertext with the tag appended. It marshals to the
// envelope object of the file container; byte fields are standard Base64.
type Envelope struct {
	Ephemeral  curve.Point `json:"ephemeral_pub"`
	IV         []byte      `json:"iv"`
	Ciphertext []byte      `json:"ciphertext"`
}

// Compact renders "x|y|ivBase64|ciphertextBase64".
func (e *Envelope) Compact() string {
	var b strings.Builder
	b.WriteString(decimalOrEmpty(e.Ephemeral.X()))
	b.WriteString(CompactSeparator)
	b.WriteString(decimalOrEmpty(e.Ephemeral.Y()))
	b.WriteString(CompactSeparator)
	b.WriteString(base64.StdEncoding.EncodeToString(e.IV))
	b.WriteString(CompactSeparator)
	b.WriteString(base64.StdEncoding.EncodeToString(e.Ciphertext))
	return b.String()
}

// ParseCompact parses the text form written by Compact. Exactly four
// '|'-separated fields are required; each is trimmed before decoding.
// Any deviation fails with ecerr.MalformedEnvelope.
func ParseCompact(s string) (*Envelope, error) {
	parts := strings.Split(s, CompactSeparator)
	if len(parts) != 4 {
		return nil, malformed("encrypted data must be in format: ephemX|ephemY|iv|ciphertext").
			WithMetadata(map[string]string{"parts": strconv.Itoa(len(parts))})
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	eph, err := curve.ParsePoint(parts[0], parts[1])
	if err != nil {
		return nil, malformed("ephemeral public key coordinates must be decimal integers").WithCause(err)
	}
	iv, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, malformed("iv is not valid base64").WithCause(err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, malformed("ciphertext is not valid base64").WithCause(err)
	}
	return &Envelope{Ephemeral: eph, IV: iv, Ciphertext: ct}, nil
}

func decimalOrEmpty(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
