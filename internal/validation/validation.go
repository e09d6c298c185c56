// Package validation is the Form Validation Pipeline. Schemas are tagged
// structs; Validate checks every field, keeps the first failing rule per
// field and reports one labelled message per invalid field, in declaration
// order.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// messages overrides the default English texts. {0} is the field label,
	// {1} the rule parameter.
	messages = map[string]string{
		"required": "{0} is not allowed to be empty",
		"min":      "{0} length must be at least {1} characters long",
		"max":      "{0} length must be less than or equal to {1} characters long",
		"email":    "{0} must be a valid email",
		"eqfield":  "Password must match",
	}
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Messages name fields by their human label, not the Go field name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})

	for tag, text := range messages {
		registerTranslation(tag, text)
	}
}

// registerTranslation replaces the translation for tag.
func registerTranslation(tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
}

// FieldError is the message for one invalid field. Field is the form key.
type FieldError struct {
	Field   string
	Message string
}

// Errors is an ordered field error set. At most one message per field.
type Errors struct {
	Fields []FieldError
}

// Error implements error by joining all messages.
func (e *Errors) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Add records msg for field unless the field already has a message.
func (e *Errors) Add(field, msg string) {
	if e.Has(field) {
		return
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// Has reports whether field has a message.
func (e *Errors) Has(field string) bool {
	return e.Get(field) != ""
}

// Get returns the message for field, or "". Safe on a nil receiver so
// templates can call it on forms without errors.
func (e *Errors) Get(field string) string {
	if e == nil {
		return ""
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Single builds a one-field error set.
func Single(field, msg string) *Errors {
	return &Errors{Fields: []FieldError{{Field: field, Message: msg}}}
}

// Validate checks schema (a pointer to, or value of, a schema struct) and
// returns nil when it is valid.
func Validate(schema any) *Errors {
	err := validate.Struct(schema)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Only reachable with a non-struct argument: a programming error.
		panic(err)
	}

	t := reflect.TypeOf(schema)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := &Errors{}
	for _, fe := range verrs {
		out.Add(fieldKey(t, fe.StructField()), fe.Translate(translator))
	}
	return out
}

// fieldKey maps a Go field name to its form key.
func fieldKey(t reflect.Type, goName string) string {
	if f, ok := t.FieldByName(goName); ok {
		if key := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]; key != "" {
			return key
		}
	}
	return goName
}
