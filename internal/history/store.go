// Package history 记录最近生成/校验的曲线和加密操作
package history

import (
	"context"
	"time"

	"github.com/kochabx/curvebox/core/crypto/curve"
)

// Source 曲线来源
type Source string

const (
	SourceStandard Source = "standard"
	SourceRandom   Source = "random"
	SourceCustom   Source = "custom"
)

// Label 历史列表中显示的名称：预置曲线用曲线名，其余按来源
func (s Source) Label(params curve.Params) string {
	switch s {
	case SourceStandard:
		if params.Name != "" {
			return params.Name
		}
		return "Standard curve"
	case SourceRandom:
		return "Random curve"
	default:
		return "Custom curve"
	}
}

// CurveRecord 一条曲线历史
type CurveRecord struct {
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	Source    Source       `json:"source"`
	Curve     curve.Params `json:"curve"`
	CreatedAt time.Time    `json:"created_at"`
}

// EncryptionRecord 一条加密历史；Preview 仅在开启 record_plaintext 时填写
type EncryptionRecord struct {
	ID        string    `json:"id"`
	Curve     string    `json:"curve"`
	Recipient string    `json:"recipient"`
	Preview   string    `json:"preview,omitempty"`
	Envelope  string    `json:"envelope"`
	CreatedAt time.Time `json:"created_at"`
}

// Store 历史存储，Recent* 按时间倒序返回
type Store interface {
	AddCurve(ctx context.Context, r CurveRecord) error
	RecentCurves(ctx context.Context, limit int) ([]CurveRecord, error)
	AddEncryption(ctx context.Context, r EncryptionRecord) error
	RecentEncryptions(ctx context.Context, limit int) ([]EncryptionRecord, error)
	// Prune 删除 before 之前的记录，返回删除条数
	Prune(ctx context.Context, before time.Time) (int64, error)
}
