package directory

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/store/db"
)

// publicKey is the row layout of the public_keys table.
type publicKey struct {
	Username  string `gorm:"primaryKey;size:64"`
	CurveName string `gorm:"size:64;index"`
	Params    string `gorm:"type:text;not null"`
	X         string `gorm:"type:text;not null"`
	Y         string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (publicKey) TableName() string { return "public_keys" }

// SQLStore stores entries through gorm on any driver store/db supports.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore migrates the public_keys table.
func NewSQLStore(client *db.Client) (*SQLStore, error) {
	g := client.DB()
	if err := g.AutoMigrate(&publicKey{}); err != nil {
		return nil, errors.Wrap(err, 500, "migrate public_keys")
	}
	return &SQLStore{db: g}, nil
}

func (s *SQLStore) Put(ctx context.Context, e Entry) error {
	params, err := marshalParams(e.Curve)
	if err != nil {
		return err
	}
	row := publicKey{
		Username:  e.Username,
		CurveName: e.Curve.Name,
		Params:    params,
		X:         e.Point.X().String(),
		Y:         e.Point.Y().String(),
		UpdatedAt: e.UpdatedAt,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"curve_name", "params", "x", "y", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(err, 500, "save public key")
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, username string) (*Entry, error) {
	var row publicKey
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, 500, "load public key")
	}
	return row.entry()
}

func (s *SQLStore) Delete(ctx context.Context, username string) error {
	res := s.db.WithContext(ctx).Where("username = ?", username).Delete(&publicKey{})
	if res.Error != nil {
		return errors.Wrap(res.Error, 500, "delete public key")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]Entry, error) {
	var rows []publicKey
	if err := s.db.WithContext(ctx).Order("username").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, 500, "list public keys")
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *publicKey) entry() (*Entry, error) {
	params, err := unmarshalParams(r.Params)
	if err != nil {
		return nil, err
	}
	pt, err := curve.ParsePoint(r.X, r.Y)
	if err != nil {
		return nil, errors.Wrap(err, 500, "stored point is corrupt")
	}
	return &Entry{Username: r.Username, Curve: params, Point: pt, UpdatedAt: r.UpdatedAt}, nil
}
