package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError is a field-to-message map returned when validation fails.
//
// Keys are field names in snake_case to match typical JSON conventions.
type V10ValidationError map[string]string

// Error implements the error interface.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// Rule is a custom string rule registered under Tag. Message may use {0} for the field name.
type Rule struct {
	Tag     string
	Message string
	Valid   func(string) bool
}

// NewV10Validator constructs a V10Validator with English translations and the given custom rules.
func NewV10Validator(rules ...Rule) (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	for _, rule := range rules {
		if err := registerRule(validate, enTrans, rule); err != nil {
			return nil, err
		}
	}

	return &V10Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validate validates a struct and returns a V10ValidationError on failure.
func (v *V10Validator) Validate(data any) error {
	if err := v.validate.Struct(data); err != nil {
		var validateErrs validator.ValidationErrors
		if !errors.As(err, &validateErrs) {
			return err
		}

		errV10 := make(V10ValidationError)
		for _, fe := range validateErrs {
			errV10[lo.SnakeCase(fe.Field())] = fe.Translate(v.translator)
		}

		return errV10
	}

	return nil
}

func registerRule(validate *validator.Validate, enTrans ut.Translator, rule Rule) error {
	if strings.TrimSpace(rule.Tag) == "" || rule.Valid == nil {
		return fmt.Errorf("validator: invalid rule %q", rule.Tag)
	}

	err := validate.RegisterValidation(rule.Tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && rule.Valid(s)
	})
	if err != nil {
		return err
	}

	msg := rule.Message
	if msg == "" {
		msg = "{0} is invalid"
	}

	return validate.RegisterTranslation(rule.Tag, enTrans,
		func(ut ut.Translator) error {
			return ut.Add(rule.Tag, msg, false)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, err := ut.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("warning: error translating", "FieldError", fe, "error", err)
				return fe.Error()
			}
			return t
		},
	)
}
