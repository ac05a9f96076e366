// Package forms holds the input schemas of every dashboard form.
//
// A form that fails validation is never submitted to the backend.
package forms

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldErrors maps a form field name to its message. The key "general" holds
// errors that do not belong to a single field.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

// Merge copies other into fe, keeping existing messages.
func (fe FieldErrors) Merge(other FieldErrors) {
	for field, msg := range other {
		fe.Add(field, msg)
	}
}

// Empty reports whether no field failed.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Fields returns the failing field names in sorted order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for field := range fe {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Error implements error so FieldErrors can travel through error returns.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, field := range fe.Fields() {
		parts = append(parts, field+": "+fe[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Any reports whether at least one of names failed.
func (fe FieldErrors) Any(names ...string) bool {
	for _, name := range names {
		if _, ok := fe[name]; ok {
			return true
		}
	}
	return false
}

// FromBackend maps a backend field error list onto form fields. Backend
// snake_case names become the form's camelCase names and only the first
// message of each field is kept.
func FromBackend(fields map[string][]string) FieldErrors {
	out := FieldErrors{}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if msgs := fields[name]; len(msgs) > 0 {
			out.Add(camelCase(name), msgs[0])
		}
	}
	return out
}

func camelCase(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}

// messenger supplies the message for a failed "field.tag" pair.
type messenger interface {
	messages() map[string]string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate checks form against its struct tags and returns the messages of
// every failed field. A nil result means the form may be submitted.
func Validate(form messenger) FieldErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	out := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("general", err.Error())
		return out
	}
	msgs := form.messages()
	for _, fieldErr := range verrs {
		out.Add(fieldPath(fieldErr), messageFor(msgs, fieldErr))
	}
	return out
}

// fieldPath drops the struct name from the namespace, so nested fields read
// like "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.IndexByte(ns, '.'); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func messageFor(msgs map[string]string, fe validator.FieldError) string {
	if msg, ok := msgs[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := msgs[fe.Field()]; ok {
		return msg
	}
	return fe.Error()
}
