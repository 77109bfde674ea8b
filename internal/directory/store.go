// Package directory maps user names to ECIES public keys.
package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/errors"
)

var (
	ErrNotFound        = errors.NotFound("public key not found").WithReason("PUBLIC_KEY_NOT_FOUND")
	ErrInvalidUsername = errors.BadRequest("username must match [A-Za-z0-9_.-]{1,64}").WithReason("INVALID_USERNAME")
)

// Entry is one published public key together with the curve it lives on.
type Entry struct {
	Username  string       `json:"username"`
	Curve     curve.Params `json:"curve"`
	Point     curve.Point  `json:"point"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Store persists entries. Implementations return ErrNotFound from Get and
// Delete when the user has no entry.
type Store interface {
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, username string) (*Entry, error)
	Delete(ctx context.Context, username string) error
	// List returns every entry ordered by user name.
	List(ctx context.Context) ([]Entry, error)
}

func marshalParams(p curve.Params) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", errors.Wrap(err, 500, "encode curve parameters")
	}
	return string(b), nil
}

func unmarshalParams(s string) (curve.Params, error) {
	p, err := curve.ParseParamsJSON([]byte(s))
	if err != nil {
		return curve.Params{}, errors.Wrap(err, 500, "stored curve parameters are corrupt")
	}
	return p, nil
}
