package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Validator 校验结构体或单个值，失败时返回 ValidationErrors
type Validator interface {
	Struct(s any) error
	StructCtx(ctx context.Context, s any) error
	Var(field any, tag string) error
}

// Validate 全局校验器，消息为英文
var Validate = New()

// 支持的消息语言
var languages = map[string]struct {
	locale   locales.Translator
	register func(*validator.Validate, ut.Translator) error
}{
	"en": {en.New(), en_translations.RegisterDefaultTranslations},
	"zh": {zh.New(), zh_translations.RegisterDefaultTranslations},
}

// translatingValidator 构建后只读，可并发使用
type translatingValidator struct {
	validate    *validator.Validate
	translators map[string]ut.Translator
	lang        string
}

// Option 校验器选项
type Option func(*translatingValidator)

// WithTagName 替换默认的 validate 标签名
func WithTagName(name string) Option {
	return func(v *translatingValidator) {
		v.validate.SetTagName(name)
	}
}

// WithLanguage 错误消息使用的语言，不支持的语言忽略
func WithLanguage(lang string) Option {
	return func(v *translatingValidator) {
		if _, ok := languages[lang]; ok {
			v.lang = lang
		}
	}
}

// New 创建校验器，注册 en/zh 翻译与自定义标签
func New(opts ...Option) Validator {
	v := &translatingValidator{
		validate:    validator.New(),
		translators: make(map[string]ut.Translator, len(languages)),
		lang:        "en",
	}

	fallback := languages["en"].locale
	uni := ut.New(fallback, languages["en"].locale, languages["zh"].locale)
	for lang, l := range languages {
		trans, _ := uni.GetTranslator(lang)
		_ = l.register(v.validate, trans)
		v.translators[lang] = trans
	}

	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	v.registerCustomTags()
	v.validate.RegisterTagNameFunc(jsonFieldName)
	return v
}

// jsonFieldName 错误中的字段名使用 json 标签，没有标签时用结构体字段名
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func (v *translatingValidator) Struct(s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validate.Struct(s))
}

func (v *translatingValidator) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validate.StructCtx(ctx, s))
}

func (v *translatingValidator) Var(field any, tag string) error {
	return v.translate(v.validate.Var(field, tag))
}

// translate 把 validator.ValidationErrors 换成带译文的 ValidationErrors
// 其他错误原样返回
func (v *translatingValidator) translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	trans := v.translators[v.lang]
	out := &validationErrors{fieldErrors: make([]FieldError, 0, len(verrs))}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		item := &fieldError{
			fieldError:  fe,
			message:     fe.Translate(trans),
			translators: v.translators,
		}
		out.fieldErrors = append(out.fieldErrors, item)
		messages = append(messages, item.message)
	}
	out.message = strings.Join(messages, "; ")
	return out
}
