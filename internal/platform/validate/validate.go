// Package validate holds the process-wide struct validator with english messages
package validate

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	perr "ycintel/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Svc holds the validator and its translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Svc

	slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

// Get returns the singleton, building it on first use.
// Field names in messages come from json tags, then query tags
func Get() *Svc {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "-" || tag == "" {
				tag = fld.Tag.Get("query")
			}
			if tag == "" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		register(v, trans, "min", "{0} must be at least {1}", true)
		register(v, trans, "max", "{0} must be at most {1}", true)

		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugRe.MatchString(fl.Field().String())
		})
		register(v, trans, "slug", "{0} must be a lowercase slug", false)

		svc = &Svc{Validator: v, Translator: trans}
	})
	return svc
}

// Struct validates v and maps the first failure to a validation error carrying the field
func Struct(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.New(perr.ErrorCodeValidation, msg), field)
}

// FieldAndMessage returns the first failing field and its translated message
func FieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Field(), fe.Translate(Get().Translator)
	}
	return "", err.Error()
}

func register(v *validator.Validate, trans ut.Translator, tag, text string, withParam bool) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			if withParam {
				msg, _ := t.T(tag, fe.Field(), fe.Param())
				return msg
			}
			msg, _ := t.T(tag, fe.Field())
			return msg
		},
	)
}
