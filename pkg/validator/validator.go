package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MessageTag carries the user-facing message reported when a field fails any
// of its rules.
const MessageTag = "msg"

// DateLayouts are the accepted textual date forms, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// Validator validates structs against `validate` tags and reports one message
// per failing field.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("date", isDate); err != nil {
		panic(err)
	}

	return &Validator{v: v}
}

// Validate returns nil when obj passes, otherwise the list of field messages in
// struct order. A non-validation failure (bad argument) is returned as a single
// message.
func (v *Validator) Validate(obj interface{}) []string {
	err := v.v.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []string{err.Error()}
	}

	typ := reflect.TypeOf(obj)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	issues := make([]string, 0, len(verrs))
	seen := make(map[string]struct{}, len(verrs))
	for _, fe := range verrs {
		if _, ok := seen[fe.StructNamespace()]; ok {
			continue
		}
		seen[fe.StructNamespace()] = struct{}{}
		issues = append(issues, message(typ, fe))
	}
	return issues
}

func message(typ reflect.Type, fe validator.FieldError) string {
	if typ.Kind() == reflect.Struct {
		if f, ok := typ.FieldByName(fe.StructField()); ok {
			if msg := f.Tag.Get(MessageTag); msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("%s is invalid.", fe.Field())
}

// ParseDate parses s using DateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func isDate(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	_, err := ParseDate(fl.Field().String())
	return err == nil
}
