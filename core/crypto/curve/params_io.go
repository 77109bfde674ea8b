package curve

import (
	"bytes"
	"encoding/json"
	"math/big"
	"os"
	"strings"

	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/errors"
)

// ParamsFilename is the conventional name of an exported parameter file.
const ParamsFilename = "curve-params.json"

const missingFieldsMessage = "curve file must contain fields: a, b, p, Gx, Gy, n"

var paramFields = []string{"a", "b", "p", "Gx", "Gy", "n"}

// paramsFile is the on-disk form: decimal strings keyed a, b, p, Gx, Gy, n.
type paramsFile struct {
	Name string `json:"name,omitempty"`
	A    string `json:"a"`
	B    string `json:"b"`
	P    string `json:"p"`
	Gx   string `json:"Gx"`
	Gy   string `json:"Gy"`
	N    string `json:"n"`
}

// MarshalJSON writes the parameter file form. The file has no encoding for
// the point at infinity, so an infinite generator is rejected with
// ecerr.InvalidGenerator.
func (p Params) MarshalJSON() ([]byte, error) {
	if p.G.IsInfinity() {
		return nil, errInfiniteGenerator()
	}
	return json.Marshal(paramsFile{
		Name: p.Name,
		A:    decimal(p.A),
		B:    decimal(p.B),
		P:    decimal(p.P),
		N:    decimal(p.N),
		Gx:   p.G.x.String(),
		Gy:   p.G.y.String(),
	})
}

func errInfiniteGenerator() *errors.Error {
	return ecerr.New(ecerr.InvalidGenerator, "a generator at infinity cannot be written to a parameter file")
}

func (p *Params) UnmarshalJSON(data []byte) error {
	parsed, err := ParseParamsJSON(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func decimal(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// ParseParamsJSON parses a curve parameter file. Every field must be present
// and hold a decimal integer, given as a JSON string or number. The curve is
// not validated; pass the result to New.
func ParseParamsJSON(data []byte) (Params, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		e := ecerr.New(ecerr.MalformedParams, missingFieldsMessage)
		if err != nil {
			e = e.WithCause(err)
		}
		return Params{}, e
	}

	var missing []string
	values := make(map[string]*big.Int, len(paramFields))
	for _, name := range paramFields {
		msg, ok := raw[name]
		if !ok || string(msg) == "null" {
			missing = append(missing, name)
			continue
		}
		v, err := parseDecimalField(name, msg)
		if err != nil {
			return Params{}, err
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return Params{}, ecerr.New(ecerr.MalformedParams, missingFieldsMessage).
			WithMetadata(map[string]string{"missing": strings.Join(missing, ",")})
	}

	var name string
	if msg, ok := raw["name"]; ok {
		_ = json.Unmarshal(msg, &name)
	}

	return Params{
		Name: name,
		A:    values["a"],
		B:    values["b"],
		P:    values["p"],
		N:    values["n"],
		G:    Point{x: values["Gx"], y: values["Gy"], finite: true},
	}, nil
}

func parseDecimalField(name string, msg json.RawMessage) (*big.Int, error) {
	s := strings.TrimSpace(string(msg))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(msg, &s); err != nil {
			return nil, ecerr.New(ecerr.MalformedParams, "field %s is not a string", name).WithCause(err)
		}
		s = strings.TrimSpace(s)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, ecerr.New(ecerr.MalformedParams, "field %s is not a decimal integer", name).
			WithMetadata(map[string]string{"field": name})
	}
	return v, nil
}

// LoadParams reads and parses a parameter file.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, errors.Wrap(err, 500, "read curve file %s", path)
	}
	return ParseParamsJSON(data)
}

// SaveParams writes params as indented JSON.
func SaveParams(params Params, path string) error {
	if params.G.IsInfinity() {
		return errInfiniteGenerator()
	}
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return errors.Wrap(err, 500, "encode curve parameters")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(err, 500, "write curve file %s", path)
	}
	return nil
}
