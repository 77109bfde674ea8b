package history

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/store/db"
)

// curveRow curve_history 表
type curveRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Label     string    `gorm:"size:64"`
	Source    string    `gorm:"size:16"`
	Params    string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (curveRow) TableName() string { return "curve_history" }

// encryptionRow encryption_history 表
type encryptionRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Curve     string    `gorm:"size:64"`
	Recipient string    `gorm:"type:text"`
	Preview   string    `gorm:"type:text"`
	Envelope  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (encryptionRow) TableName() string { return "encryption_history" }

// SQLStore 基于 gorm 的历史存储
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore 创建存储并迁移表结构
func NewSQLStore(client *db.Client) (*SQLStore, error) {
	g := client.DB()
	if err := g.AutoMigrate(&curveRow{}, &encryptionRow{}); err != nil {
		return nil, errors.Wrap(err, 500, "migrate history tables")
	}
	return &SQLStore{db: g}, nil
}

func (s *SQLStore) AddCurve(ctx context.Context, r CurveRecord) error {
	params, err := json.Marshal(r.Curve)
	if err != nil {
		return errors.Wrap(err, 500, "encode curve parameters")
	}
	row := curveRow{ID: r.ID, Label: r.Label, Source: string(r.Source), Params: string(params), CreatedAt: r.CreatedAt}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(err, 500, "save curve history")
	}
	return nil
}

func (s *SQLStore) RecentCurves(ctx context.Context, limit int) ([]CurveRecord, error) {
	var rows []curveRow
	if err := s.recent(ctx, limit).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, 500, "list curve history")
	}
	out := make([]CurveRecord, 0, len(rows))
	for _, row := range rows {
		params, err := curve.ParseParamsJSON([]byte(row.Params))
		if err != nil {
			return nil, errors.Wrap(err, 500, "stored curve parameters are corrupt")
		}
		out = append(out, CurveRecord{
			ID:        row.ID,
			Label:     row.Label,
			Source:    Source(row.Source),
			Curve:     params,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

func (s *SQLStore) AddEncryption(ctx context.Context, r EncryptionRecord) error {
	row := encryptionRow(r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(err, 500, "save encryption history")
	}
	return nil
}

func (s *SQLStore) RecentEncryptions(ctx context.Context, limit int) ([]EncryptionRecord, error) {
	var rows []encryptionRow
	if err := s.recent(ctx, limit).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, 500, "list encryption history")
	}
	out := make([]EncryptionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, EncryptionRecord(row))
	}
	return out, nil
}

func (s *SQLStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("created_at < ?", before).Delete(&curveRow{})
		if res.Error != nil {
			return res.Error
		}
		n += res.RowsAffected
		res = tx.Where("created_at < ?", before).Delete(&encryptionRow{})
		if res.Error != nil {
			return res.Error
		}
		n += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, 500, "prune history")
	}
	return n, nil
}

func (s *SQLStore) recent(ctx context.Context, limit int) *gorm.DB {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}
