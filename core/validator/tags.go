package validator

import (
	"math/big"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kochabx/curvebox/core/crypto/curve"
)

// 自定义标签
const (
	// TagBigInt 十进制大整数字符串，允许前导负号
	TagBigInt = "bigint"
	// TagCurve 预置曲线名
	TagCurve = "curve"
	// TagUsername 公钥目录中的用户名
	TagUsername = "username"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// customTags 标签 -> 校验函数与中英文提示
var customTags = map[string]struct {
	fn validator.Func
	en string
	zh string
}{
	TagBigInt: {
		fn: isBigInt,
		en: "{0} must be a decimal integer",
		zh: "{0}必须是十进制整数",
	},
	TagCurve: {
		fn: func(fl validator.FieldLevel) bool {
			return curve.IsPreset(fl.Field().String())
		},
		en: "{0} must be one of " + strings.Join(curve.PresetNames(), ", "),
		zh: "{0}必须是以下曲线之一: " + strings.Join(curve.PresetNames(), ", "),
	},
	TagUsername: {
		fn: func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		},
		en: "{0} must be 1-64 letters, digits, '.', '_' or '-'",
		zh: "{0}只能包含1-64个字母、数字、'.'、'_'或'-'",
	},
}

// isBigInt 空串交给 required 处理
func isBigInt(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, ok := new(big.Int).SetString(s, 10)
	return ok
}

// registerCustomTags 注册自定义标签及其翻译
func (v *translatingValidator) registerCustomTags() {
	for tag, def := range customTags {
		_ = v.validate.RegisterValidation(tag, def.fn)

		for lang, trans := range v.translators {
			text := def.en
			if lang == "zh" {
				text = def.zh
			}
			_ = v.validate.RegisterTranslation(tag, trans,
				func(ut ut.Translator) error {
					return ut.Add(tag, text, true)
				},
				func(ut ut.Translator, fe validator.FieldError) string {
					msg, err := ut.T(fe.Tag(), fe.Field())
					if err != nil {
						return fe.Error()
					}
					return msg
				},
			)
		}
	}
}
