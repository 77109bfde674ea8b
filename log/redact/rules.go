package redact

import (
	"fmt"
	"regexp"
	"sync/atomic"
)

// Mask 默认的掩码
const Mask = "[REDACTED]"

// Rule 脱敏规则
type Rule interface {
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	// Apply 返回处理后的内容，未命中时原样返回
	Apply(s string) string
}

// toggle 规则开关，零值为启用
type toggle struct {
	disabled atomic.Bool
}

func (t *toggle) Enabled() bool {
	return !t.disabled.Load()
}

func (t *toggle) SetEnabled(enabled bool) {
	t.disabled.Store(!enabled)
}

// PatternRule 按正则匹配整段内容
type PatternRule struct {
	toggle
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewPatternRule 创建正则规则，replacement 支持 $1 形式的分组引用
func NewPatternRule(name, pattern, replacement string) (*PatternRule, error) {
	if name == "" {
		return nil, fmt.Errorf("redact: rule name cannot be empty")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("redact: invalid pattern %q: %w", pattern, err)
	}
	return &PatternRule{name: name, pattern: re, replacement: replacement}, nil
}

// MustPatternRule 同 NewPatternRule，失败时 panic
func MustPatternRule(name, pattern, replacement string) *PatternRule {
	r, err := NewPatternRule(name, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *PatternRule) Name() string { return r.name }

func (r *PatternRule) Apply(s string) string {
	if !r.Enabled() {
		return s
	}
	return r.pattern.ReplaceAllString(s, r.replacement)
}

// FieldRule 按 JSON 字段名屏蔽整个值，字符串与裸值都会被替换
type FieldRule struct {
	toggle
	name  string
	field string
	re    *regexp.Regexp
	mask  string
}

// NewFieldRule 创建字段规则
func NewFieldRule(name, field, mask string) (*FieldRule, error) {
	if name == "" || field == "" {
		return nil, fmt.Errorf("redact: rule name and field cannot be empty")
	}
	if mask == "" {
		mask = Mask
	}
	re, err := regexp.Compile(`"` + regexp.QuoteMeta(field) + `"\s*:\s*(?:"(?:[^"\\]|\\.)*"|[^,}\]\s]+)`)
	if err != nil {
		return nil, fmt.Errorf("redact: field %q: %w", field, err)
	}
	return &FieldRule{name: name, field: field, re: re, mask: mask}, nil
}

// MustFieldRule 同 NewFieldRule，失败时 panic
func MustFieldRule(name, field, mask string) *FieldRule {
	r, err := NewFieldRule(name, field, mask)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *FieldRule) Name() string { return r.name }

func (r *FieldRule) Field() string { return r.field }

func (r *FieldRule) Apply(s string) string {
	if !r.Enabled() {
		return s
	}
	return r.re.ReplaceAllLiteralString(s, fmt.Sprintf(`"%s":%q`, r.field, r.mask))
}
