package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	keyNameTag   = "keyname"
	keyNameText  = "only alphanumeric characters, underscores, dashes, dots and colons are allowed"
	keyNameRegex = regexp.MustCompile(`^[\w\-:.]+$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(keyNameTag, keyNameValidation)
	RegisterCustomTranslation(validate, translator, keyNameTag, keyNameText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateErrors turns validator errors into a ValidationError carrying one FieldError per invalid field.
// Any other error is returned as is.
func TranslateErrors(err error, translator ut.Translator) error {
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
	}
	return NewValidationError(nil, flds...)
}

// ValidateConfig checks the settings the apps cannot run without.
func ValidateConfig(conf *Config, validate *validator.Validate, translator ut.Translator) error {
	if err := validate.Struct(conf.Backend); err != nil {
		return errors.Wrap(TranslateErrors(err, translator), "backend config")
	}
	if err := validate.Struct(conf.Session); err != nil {
		return errors.Wrap(TranslateErrors(err, translator), "session config")
	}
	return nil
}

// Custom Global Validators

// keyNameValidation only allows characters that are safe in storage keys.
func keyNameValidation(fl validator.FieldLevel) bool {
	return keyNameRegex.MatchString(fl.Field().String())
}
