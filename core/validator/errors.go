package validator

import (
	"errors"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// ValidationErrors 校验失败时返回的错误，每个失败字段一条
type ValidationErrors interface {
	error
	Errors() []FieldError
	HasErrors() bool
}

// FieldError 单个字段的校验失败
type FieldError interface {
	// Field json 标签名
	Field() string
	Tag() string
	Value() any
	// Message 校验器语言下的消息
	Message() string
	// Translate 按 lang 重新翻译
	Translate(lang string) string
}

// validationErrors 翻译后的校验错误，Error() 为各字段消息以 "; " 拼接
type validationErrors struct {
	fieldErrors []FieldError
	message     string
}

func (ve *validationErrors) Error() string {
	return ve.message
}

func (ve *validationErrors) Errors() []FieldError {
	return ve.fieldErrors
}

func (ve *validationErrors) HasErrors() bool {
	return len(ve.fieldErrors) > 0
}

// fieldError 单个字段的校验错误，Field 为 json 标签名
type fieldError struct {
	fieldError  validator.FieldError
	message     string
	translators map[string]ut.Translator
}

func (fe *fieldError) Field() string {
	return fe.fieldError.Field()
}

func (fe *fieldError) Tag() string {
	return fe.fieldError.Tag()
}

func (fe *fieldError) Value() any {
	return fe.fieldError.Value()
}

func (fe *fieldError) Message() string {
	return fe.message
}

// Translate 按语言重新翻译，未启用的语言返回默认消息
func (fe *fieldError) Translate(lang string) string {
	if trans, ok := fe.translators[lang]; ok {
		return fe.fieldError.Translate(trans)
	}
	return fe.message
}

// AsValidationErrors 在错误链中查找校验错误
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsValidationError 检查错误链中是否有校验错误
func IsValidationError(err error) bool {
	_, ok := AsValidationErrors(err)
	return ok
}

// Fields 返回 字段 -> 翻译后的消息，用作错误元数据
// 同一字段多条错误时保留第一条；非校验错误返回 nil
func Fields(err error) map[string]string {
	ve, ok := AsValidationErrors(err)
	if !ok || !ve.HasErrors() {
		return nil
	}
	fields := make(map[string]string, len(ve.Errors()))
	for _, fe := range ve.Errors() {
		name := fe.Field()
		if name == "" {
			name = fe.Tag()
		}
		if _, seen := fields[name]; !seen {
			fields[name] = fe.Message()
		}
	}
	return fields
}
