package directory

import (
	"context"
	"time"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecies"
	"github.com/kochabx/curvebox/core/validator"
	"github.com/kochabx/curvebox/log"
)

// Service validates keys before they reach the Store and turns stored
// entries back into usable public keys.
type Service struct {
	store    Store
	validate validator.Validator
	logger   *log.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		validate: validator.Validate,
		logger:   log.G,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) checkUsername(username string) error {
	if err := s.validate.Var(username, "required,username"); err != nil {
		return ErrInvalidUsername.WithMetadata(map[string]string{"username": username})
	}
	return nil
}

// Publish stores pub under username, replacing any previous key.
func (s *Service) Publish(ctx context.Context, username string, pub *ecies.PublicKey) (*Entry, error) {
	if err := s.checkUsername(username); err != nil {
		return nil, err
	}
	if pub == nil {
		return nil, ecies.ErrPublicKeyEmpty
	}
	// keys built outside NewPublicKey are checked again
	checked, err := ecies.NewPublicKey(pub.Curve(), pub.Point())
	if err != nil {
		return nil, err
	}

	e := Entry{
		Username:  username,
		Curve:     checked.Curve().Params(),
		Point:     checked.Point(),
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.Put(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("publish public key")
		return nil, err
	}
	s.logger.Info().Str("username", username).Str("curve", e.Curve.Name).Msg("public key published")
	return &e, nil
}

// Register builds the curve from params and the point from decimal
// coordinates, then publishes it.
func (s *Service) Register(ctx context.Context, username string, params curve.Params, x, y string) (*Entry, error) {
	if err := s.checkUsername(username); err != nil {
		return nil, err
	}
	c, err := curve.New(params)
	if err != nil {
		return nil, err
	}
	pub, err := ecies.ParsePublicKey(c, x, y)
	if err != nil {
		return nil, err
	}
	return s.Publish(ctx, username, pub)
}

// Entry returns the raw stored entry.
func (s *Service) Entry(ctx context.Context, username string) (*Entry, error) {
	if err := s.checkUsername(username); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, username)
}

// Lookup returns the public key published by username.
func (s *Service) Lookup(ctx context.Context, username string) (*ecies.PublicKey, error) {
	e, err := s.Entry(ctx, username)
	if err != nil {
		return nil, err
	}
	c, err := curve.New(e.Curve)
	if err != nil {
		return nil, err
	}
	return ecies.NewPublicKey(c, e.Point)
}

func (s *Service) Remove(ctx context.Context, username string) error {
	if err := s.checkUsername(username); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, username); err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Msg("public key removed")
	return nil
}

func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.store.List(ctx)
}
