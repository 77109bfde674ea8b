package redact

import (
	"io"
)

// Writer 包装下游 writer，写入前先脱敏
type Writer struct {
	w io.Writer
	r *Redactor
}

// NewWriter 创建脱敏 writer
func NewWriter(w io.Writer, r *Redactor) *Writer {
	if w == nil || r == nil {
		panic("redact: writer and redactor cannot be nil")
	}
	return &Writer{w: w, r: r}
}

// Write 返回值始终是 len(p)，以免 zerolog 把长度变化当作短写
func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 || w.r.Len() == 0 {
		return w.w.Write(p)
	}

	text := string(p)
	out := w.r.Redact(text)
	if out == text {
		return w.w.Write(p)
	}
	if _, err := io.WriteString(w.w, out); err != nil {
		return 0, err
	}
	return len(p), nil
}
