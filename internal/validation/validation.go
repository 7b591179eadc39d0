package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const objectIDTag = "objectid"

// Validator implements echo.Validator on top of go-playground/validator.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func New() *Validator {
	validate := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(objectIDTag, func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})
	_ = validate.RegisterTranslation(objectIDTag, translator,
		func(t ut.Translator) error { return t.Add(objectIDTag, "{0} must be a valid id", false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(objectIDTag, fe.Field())
			return s
		},
	)

	return &Validator{validate: validate, translator: translator}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// Translate turns validation errors into a field -> message map.
func (v *Validator) Translate(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = e.Translate(v.translator)
	}
	return out
}
