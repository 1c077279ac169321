package parley

import (
	"encoding/json"
	"reflect"
)

// ReturnShape is the bind-time split of a declared return type: the
// container type (the method's first result), the success shape, and the
// fault shape when the container is polymorphic. Backends compute it once
// per method in BindMethod and reuse it for every call.
type ReturnShape struct {
	// Container is the declared result type, or nil when the method
	// returns only an error.
	Container reflect.Type

	// Success is the shape a successful payload parses into. Equal to
	// Container for plain return types.
	Success reflect.Type

	// Fault is the declared fault shape, or nil when the return type does
	// not model faults.
	Fault reflect.Type
}

// ShapeOf splits the declared return type t. A type whose pointer
// implements the Outcome seam is split into its success and fault shapes;
// anything else is its own success shape.
func ShapeOf(t reflect.Type) ReturnShape {
	if t == nil {
		return ReturnShape{}
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(polymorphicResultType) {
		p := reflect.New(t).Interface().(polymorphicResult)
		s, f := p.resultShapes()
		return ReturnShape{Container: t, Success: s, Fault: f}
	}
	return ReturnShape{Container: t, Success: t}
}

// Polymorphic reports whether the return type declares a fault shape.
func (s ReturnShape) Polymorphic() bool {
	return s.Fault != nil
}

// ParseSuccess decodes a JSON payload into the success shape, validates it,
// and packs it into the declared container. A nil Container yields nil (the
// method returns only an error). Empty data leaves the zero value.
func (s ReturnShape) ParseSuccess(data []byte) (any, error) {
	if s.Container == nil {
		return nil, nil
	}
	v, err := decodePayload(data, s.Success)
	if err != nil {
		return nil, err
	}
	return s.pack(v, false), nil
}

// ParseFault decodes a JSON payload into the declared fault shape. A fault
// arriving for a return type that declares none is a transport error: the
// engine never coerces an undeclared fault into a success shape.
func (s ReturnShape) ParseFault(data []byte) (any, error) {
	if s.Fault == nil {
		return nil, NewError(CodeTransport, "transport fault for a return type with no declared fault shape")
	}
	v, err := decodePayload(data, s.Fault)
	if err != nil {
		return nil, err
	}
	return s.pack(v, true), nil
}

// FromValue packs an already-decoded value into the declared container,
// for transports that hand over typed values rather than raw payloads.
func (s ReturnShape) FromValue(value any, fault bool) (any, error) {
	want := s.Success
	if fault {
		if s.Fault == nil {
			return nil, NewError(CodeTransport, "transport fault for a return type with no declared fault shape")
		}
		want = s.Fault
	}
	if s.Container == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || !rv.Type().AssignableTo(want) {
		return nil, Errorf(CodeResponseInvalid, "response value %T does not conform to declared shape %s", value, want)
	}
	if err := validateStructValue(value, CodeResponseInvalid); err != nil {
		return nil, err
	}
	return s.pack(rv, fault), nil
}

func decodePayload(data []byte, shape reflect.Type) (reflect.Value, error) {
	v := reflect.New(shape)
	if len(data) > 0 {
		if err := json.Unmarshal(data, v.Interface()); err != nil {
			return reflect.Value{}, WrapError(CodeResponseInvalid, err, "cannot decode response payload")
		}
	}
	if err := validateStructValue(v.Interface(), CodeResponseInvalid); err != nil {
		return reflect.Value{}, err
	}
	return v.Elem(), nil
}

// pack places a parsed value into the declared container: directly for
// plain return types, through the Outcome seam for polymorphic ones.
func (s ReturnShape) pack(v reflect.Value, fault bool) any {
	if !s.Polymorphic() {
		return v.Interface()
	}
	c := reflect.New(s.Container)
	p := c.Interface().(polymorphicResult)
	if fault {
		p.acceptFault(v)
	} else {
		p.acceptSuccess(v)
	}
	return c.Elem().Interface()
}
