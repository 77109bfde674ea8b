// Package redact 在日志写出之前屏蔽密钥材料
package redact

import (
	"sort"
	"sync"
)

// Redactor 按规则名管理一组脱敏规则，并发安全
type Redactor struct {
	mu    sync.RWMutex
	order []string
	rules map[string]Rule
}

// New 创建 Redactor 并加入给定规则
func New(rules ...Rule) *Redactor {
	r := &Redactor{rules: make(map[string]Rule)}
	r.Add(rules...)
	return r
}

// Default 返回加载了全部内置规则的 Redactor
func Default() *Redactor {
	return New(BuiltinRules()...)
}

// Add 添加规则，同名规则会被替换且保持原有顺序
func (r *Redactor) Add(rules ...Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if _, ok := r.rules[rule.Name()]; !ok {
			r.order = append(r.order, rule.Name())
		}
		r.rules[rule.Name()] = rule
	}
}

// AddPattern 添加正则规则
func (r *Redactor) AddPattern(name, pattern, replacement string) error {
	rule, err := NewPatternRule(name, pattern, replacement)
	if err != nil {
		return err
	}
	r.Add(rule)
	return nil
}

// AddField 添加字段规则
func (r *Redactor) AddField(name, field, mask string) error {
	rule, err := NewFieldRule(name, field, mask)
	if err != nil {
		return err
	}
	r.Add(rule)
	return nil
}

// Remove 移除规则
func (r *Redactor) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[name]; !ok {
		return false
	}
	delete(r.rules, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Enable 启用规则
func (r *Redactor) Enable(name string) bool {
	return r.setEnabled(name, true)
}

// Disable 禁用规则
func (r *Redactor) Disable(name string) bool {
	return r.setEnabled(name, false)
}

func (r *Redactor) setEnabled(name string, enabled bool) bool {
	rule, ok := r.Rule(name)
	if ok {
		rule.SetEnabled(enabled)
	}
	return ok
}

// Rule 获取指定规则
func (r *Redactor) Rule(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Names 返回排序后的规则名
func (r *Redactor) Names() []string {
	r.mu.RLock()
	names := append([]string(nil), r.order...)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len 返回规则数量
func (r *Redactor) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Redact 按添加顺序依次应用启用的规则
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}
	r.mu.RLock()
	rules := make([]Rule, 0, len(r.order))
	for _, name := range r.order {
		rules = append(rules, r.rules[name])
	}
	r.mu.RUnlock()

	for _, rule := range rules {
		s = rule.Apply(s)
	}
	return s
}
