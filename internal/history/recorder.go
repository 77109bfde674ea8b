package history

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/log"
)

const (
	// DefaultLimit Recent* 未指定条数时的默认值
	DefaultLimit = 10
	// PreviewRunes 明文预览最多保留的字符数
	PreviewRunes = 140
)

// Recorder 为记录分配 ID 和时间戳后写入 Store
type Recorder struct {
	store     Store
	limit     int
	plaintext bool
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*Recorder)

// WithLimit 设置 Recent* 的默认条数
func WithLimit(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithPlaintextPreview 开启后加密记录保存明文预览
func WithPlaintextPreview(enabled bool) Option {
	return func(r *Recorder) {
		r.plaintext = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		limit:  DefaultLimit,
		now:    time.Now,
		logger: log.G,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store 返回底层存储
func (r *Recorder) Store() Store {
	return r.store
}

// RecordCurve 记录一条曲线
func (r *Recorder) RecordCurve(ctx context.Context, source Source, params curve.Params) (*CurveRecord, error) {
	rec := CurveRecord{
		ID:        uuid.NewString(),
		Label:     source.Label(params),
		Source:    source,
		Curve:     params,
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.AddCurve(ctx, rec); err != nil {
		r.logger.Error().Err(err).Str("source", string(source)).Msg("record curve")
		return nil, err
	}
	return &rec, nil
}

// RecordEncryption 记录一次加密；envelope 为紧凑格式密文
func (r *Recorder) RecordEncryption(ctx context.Context, curveName, recipient, plaintext, envelope string) (*EncryptionRecord, error) {
	rec := EncryptionRecord{
		ID:        uuid.NewString(),
		Curve:     curveName,
		Recipient: recipient,
		Envelope:  envelope,
		CreatedAt: r.now().UTC(),
	}
	if r.plaintext {
		rec.Preview = Preview(plaintext)
	}
	if err := r.store.AddEncryption(ctx, rec); err != nil {
		r.logger.Error().Err(err).Str("curve", curveName).Msg("record encryption")
		return nil, err
	}
	return &rec, nil
}

// Curves 最近的曲线记录，limit<=0 时使用默认条数
func (r *Recorder) Curves(ctx context.Context, limit int) ([]CurveRecord, error) {
	if limit <= 0 {
		limit = r.limit
	}
	return r.store.RecentCurves(ctx, limit)
}

// Encryptions 最近的加密记录，limit<=0 时使用默认条数
func (r *Recorder) Encryptions(ctx context.Context, limit int) ([]EncryptionRecord, error) {
	if limit <= 0 {
		limit = r.limit
	}
	return r.store.RecentEncryptions(ctx, limit)
}

// Preview 截断到 PreviewRunes 个字符，超出部分以 … 结尾
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewRunes-1]) + "…"
}
