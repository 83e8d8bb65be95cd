package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/ja"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ja_translations "github.com/go-playground/validator/v10/translations/ja"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
)

func init() {
	validate = validator.New()

	_ja := ja.New()
	uni := ut.New(_ja, _ja)
	translator, _ = uni.GetTranslator("ja")
	_ = ja_translations.RegisterDefaultTranslations(validate, translator)

	// Field names in messages come from the label tag.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + "を入力してください"
		},
	)
}

// validationMessage returns the first translated validation error, or "".
func validationMessage(v interface{}) string {
	err := validate.Struct(v)
	if err == nil {
		return ""
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "入力内容に問題があります。確認してください。"
	}
	return errs[0].Translate(translator)
}

type themeForm struct {
	Title       string `label:"テーマ" validate:"notblank,max=200"`
	Description string `label:"説明" validate:"max=2000"`
	FiscalYear  *int   `label:"年度" validate:"omitempty,min=2000,max=2100"`
}

type labForm struct {
	Name        string `label:"ゼミ名" validate:"notblank,max=100"`
	Description string `label:"説明" validate:"max=500"`
}

type profileForm struct {
	Grade     *int   `label:"学年" validate:"omitempty,min=1,max=6"`
	ClassName string `label:"クラス" validate:"max=50"`
}

type passwordLoginForm struct {
	Email    string `label:"メールアドレス" validate:"required,email"`
	Password string `label:"パスワード" validate:"required"`
}

type chatForm struct {
	Message string `label:"メッセージ" validate:"notblank,max=2000"`
}
