// Package validation はgo-playground/validatorによる構造体検証を提供する。
//
// バリデータはシングルトンで、初回利用時にjsonタグ名でのフィールド名解決と
// カスタムタグ（notblank、nomarkup）を登録する。検証エラーはフィールドパス
// （例: nutritionalValue.calories、ingredients[0].unit）付きで返す。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/recipebox/internal/security"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError は1フィールド分の検証エラー。
type FieldError struct {
	Path    string // jsonタグ名によるパス（例: ingredients[0].unit）
	Tag     string
	Param   string
	Message string // 既定の英語メッセージ
}

// RequestValidationError は検証エラーの集合。
type RequestValidationError struct {
	Fields []FieldError
}

// Error はerrorインターフェースを実装する。
func (ve *RequestValidationError) Error() string {
	return ve.Message("validation failed", nil)
}

// Message は "<prefix>: path: msg, path: msg" 形式のメッセージを組み立てる。
// overridesのキーは添字を除いたパスとタグを "."で連結したもの（例: "name.min"）。
func (ve *RequestValidationError) Message(prefix string, overrides map[string]string) string {
	parts := make([]string, 0, len(ve.Fields))
	for _, fe := range ve.Fields {
		msg := fe.Message
		if o, ok := overrides[overrideKey(fe.Path, fe.Tag)]; ok {
			msg = o
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Path, msg))
	}
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ": " + strings.Join(parts, ", ")
}

var indexPattern = regexp.MustCompile(`\[\d+\]`)

func overrideKey(path, tag string) string {
	return indexPattern.ReplaceAllString(path, "") + "." + tag
}

// GetValidator はシングルトンのバリデータを返す。
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// notblank: 空白のみの文字列を拒否する
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})

		// nomarkup: タグやコメントを含む文字列を拒否する
		_ = validate.RegisterValidation("nomarkup", func(fl validator.FieldLevel) bool {
			return !security.ContainsMarkup(fl.Field().String())
		})
	})
	return validate
}

// ValidateStruct は構造体を検証する。問題がなければnilを返す。
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{Fields: []FieldError{{
			Path:    "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		path := fieldPath(fe.Namespace())
		fields[i] = FieldError{
			Path:    path,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		}
	}
	return &RequestValidationError{Fields: fields}
}

// fieldPath は名前空間の先頭（構造体名）を取り除く。
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// 既定メッセージにはパスを含めない。Messageが "path: msg" の形で付与する。
var errorMessageTemplates = map[string]string{
	"required": "is required",
	"notblank": "must not be blank",
	"nomarkup": "must not contain HTML markup",
	"uuid":     "must be a valid id",
}

var errorMessageWithParam = map[string]string{
	"oneof": "must be one of: %s",
	"gte":   "must be greater than or equal to %s",
	"lte":   "must be less than or equal to %s",
}

func translateError(fe validator.FieldError) string {
	if msg, ok := errorMessageTemplates[fe.Tag()]; ok {
		return msg
	}
	if tmpl, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Param())
	}

	switch fe.Tag() {
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
