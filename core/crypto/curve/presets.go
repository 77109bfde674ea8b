package curve

import (
	"math/big"
	"slices"
	"sync"

	"github.com/kochabx/curvebox/errors"
)

const (
	NameSecp256k1 = "secp256k1"
	NameSecp256r1 = "secp256r1"
)

type presetDef struct {
	a, b, p, gx, gy, n string
}

var presetDefs = map[string]presetDef{
	NameSecp256k1: {
		a:  "0",
		b:  "7",
		p:  "115792089237316195423570985008687907853269984665640564039457584007908834671663",
		gx: "55066263022277343669578718895168534326250603453777594175500187360389116729240",
		gy: "32670510020758816978083085130507043184471273380659243275938904335757337482424",
		n:  "115792089237316195423570985008687907852837564279074904382605163141518161494337",
	},
	NameSecp256r1: {
		a:  "115792089210356248762697446949407573530086143415290314195533631308867097853948",
		b:  "41058363725152142129326129780047268409114441015993725554835256314039467401291",
		p:  "115792089210356248762697446949407573530086143415290314195533631308867097853951",
		gx: "48439561293906451759052585252797914202762949526041747995844080717082404635286",
		gy: "36134250956749795798585127919587881956611106672985015071877198253568414405109",
		n:  "115792089210356248762697446949407573529996955224135760342422259061068512044369",
	},
}

var (
	secp256k1 = sync.OnceValue(func() *Curve { return mustPreset(NameSecp256k1) })
	secp256r1 = sync.OnceValue(func() *Curve { return mustPreset(NameSecp256r1) })
)

// Secp256k1 returns the SEC 2 secp256k1 curve.
func Secp256k1() *Curve { return secp256k1() }

// Secp256r1 returns the SEC 2 secp256r1 (NIST P-256) curve.
func Secp256r1() *Curve { return secp256r1() }

// PresetNames returns the names accepted by Preset, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presetDefs))
	for name := range presetDefs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsPreset reports whether name is a known preset.
func IsPreset(name string) bool {
	_, ok := presetDefs[name]
	return ok
}

// Preset returns the named curve. Unknown names are a 404 error.
func Preset(name string) (*Curve, error) {
	switch name {
	case NameSecp256k1:
		return Secp256k1(), nil
	case NameSecp256r1:
		return Secp256r1(), nil
	}
	return nil, errors.NotFound("unknown curve %q", name).
		WithMetadata(map[string]string{"name": name})
}

func mustPreset(name string) *Curve {
	def := presetDefs[name]
	c, err := New(Params{
		Name: name,
		A:    mustInt(def.a),
		B:    mustInt(def.b),
		P:    mustInt(def.p),
		N:    mustInt(def.n),
		G:    Point{x: mustInt(def.gx), y: mustInt(def.gy), finite: true},
	})
	if err != nil {
		panic("curve: invalid preset " + name + ": " + err.Error())
	}
	return c
}

func mustInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("curve: bad constant " + s)
	}
	return v
}
