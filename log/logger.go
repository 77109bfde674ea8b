package log

import (
	"io"
	"time"

	"github.com/creasty/defaults"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/log/redact"
	"github.com/kochabx/curvebox/log/writer"
)

// Logger 日志记录器
type Logger struct {
	zerolog.Logger
	redactor *redact.Redactor
	writer   io.Writer
	closer   io.Closer // 用于资源清理
}

// Redactor 获取脱敏器，未设置时为 nil
func (l *Logger) Redactor() *redact.Redactor {
	return l.redactor
}

// Close 关闭日志记录器，释放资源
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// SetZerologGlobalLevel 设置全局日志级别
func SetZerologGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// newLogger 统一的 Logger 构建方法
func newLogger(w io.Writer, opts ...Option) *Logger {
	logger := &Logger{writer: w}

	// 先收集选项得到 redactor，再决定底层 writer
	staged := &Logger{}
	for _, opt := range opts {
		opt(staged)
	}
	if staged.redactor != nil {
		logger.redactor = staged.redactor
		w = redact.NewWriter(w, staged.redactor)
	}

	logger.Logger = zerolog.New(w).With().Timestamp().Logger()
	for _, opt := range opts {
		opt(logger)
	}
	return logger
}

// New 创建新的 Logger 实例，输出到控制台
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(), opts...)
}

// NewJSON 创建输出 JSON 行到 w 的 Logger
func NewJSON(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// NewFile 创建文件输出的 Logger
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	fw, err := fileWriter(&c)
	if err != nil {
		return nil, err
	}

	logger := newLogger(fw, opts...)
	if closer, ok := fw.(io.Closer); ok {
		logger.closer = closer
	}
	return logger, nil
}

// NewMulti 创建同时输出到文件和控制台的 Logger
func NewMulti(c FileConfig, opts ...Option) (*Logger, error) {
	fw, err := fileWriter(&c)
	if err != nil {
		return nil, err
	}

	multi := zerolog.MultiLevelWriter(fw, writer.Console())
	logger := newLogger(multi, opts...)
	if closer, ok := fw.(io.Closer); ok {
		logger.closer = closer
	}
	return logger, nil
}

// NewFromConfig 按配置创建 Logger
func NewFromConfig(c Config) (*Logger, error) {
	if err := defaults.Set(&c); err != nil {
		return nil, errors.Wrap(err, 500, "log: apply defaults")
	}

	opts := []Option{WithLevel(c.level())}
	if c.Caller {
		opts = append(opts, WithCaller())
	}
	if !c.DisableRedact {
		opts = append(opts, WithRedactor(redact.Default()))
	}

	switch c.Output {
	case OutputFile:
		return NewFile(c.File, opts...)
	case OutputMulti:
		return NewMulti(c.File, opts...)
	}
	if c.Format == "json" {
		return NewJSON(writer.Stdout(), opts...), nil
	}
	return New(opts...), nil
}

func fileWriter(c *FileConfig) (io.Writer, error) {
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, 500, "log: apply defaults")
	}
	w, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, errors.Wrap(err, 500, "log: create file writer")
	}
	return w, nil
}
