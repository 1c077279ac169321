package parley

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStructValue runs struct validation on v if it is a struct or a
// non-nil pointer to one; other kinds pass through. The returned error
// carries the given code with per-field details.
func validateStructValue(v any, code ErrorCode) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(rv.Interface()); err != nil {
		return fromValidation(err, code)
	}
	return nil
}

// checkArgument verifies a call-time argument against its declared
// parameter: nil only for nilable kinds, assignable type, and struct tags
// satisfied. A mismatch is surfaced before any request is built.
func checkArgument(p Parameter, v any) error {
	if v == nil {
		switch p.Type.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
			return nil
		}
		return Errorf(CodeInvalidArgument, "parameter %q: nil is not a valid %s", p.Name, p.Type)
	}
	t := reflect.TypeOf(v)
	if !t.AssignableTo(p.Type) {
		return Errorf(CodeInvalidArgument, "parameter %q: %s is not assignable to %s", p.Name, t, p.Type)
	}
	return validateStructValue(v, CodeInvalidArgument)
}
