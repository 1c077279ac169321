package parley

import (
	"context"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Parameter describes one declared method parameter: its name, its declared
// type, and the single marker (if any) that places it into a request. A
// parameter without a marker is not placed automatically and must be
// consumed by a method marker instead.
type Parameter struct {
	Name   string
	Type   reflect.Type
	Marker ParameterMarker
}

// Signature is the extracted descriptor of one interface method. It is built
// exactly once per definition, is pure data afterwards, and is safely
// shareable across goroutines and across bound instances.
type Signature struct {
	// Interface is the struct type the method belongs to.
	Interface reflect.Type

	// Name is the method name (the struct field name).
	Name string

	// Params lists the declared parameters in declared order, excluding the
	// leading context.Context.
	Params []Parameter

	// Return is the declared result type, or nil when the method returns
	// only an error.
	Return reflect.Type

	// Markers lists the method markers in declaration order.
	Markers []MethodMarker

	fieldIndex int
	funcType   reflect.Type
}

// matchesCallableShape reports whether a struct field looks like a service
// method: an exported func field taking a leading context.Context and
// returning an error last. Fields that do not match are skipped during
// extraction, not rejected.
func matchesCallableShape(f reflect.StructField) bool {
	if !f.IsExported() || f.Type.Kind() != reflect.Func {
		return false
	}
	t := f.Type
	if t.NumIn() < 1 || t.In(0) != contextType {
		return false
	}
	if n := t.NumOut(); n < 1 || n > 2 || t.Out(n-1) != errorType {
		return false
	}
	return true
}

// extractSignatures derives the method descriptors for the interface type rt
// from the registered method definitions. Extraction is a pure function of
// the type and the definitions; it is invoked once per InterfaceDef.
func extractSignatures(rt reflect.Type, methods map[string]*MethodDef) ([]*Signature, error) {
	if rt.Kind() != reflect.Struct {
		return nil, Errorf(CodeDefinition, "%s: interface description must be a struct of func fields", rt)
	}

	seen := make(map[string]bool, len(methods))
	var sigs []*Signature
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !matchesCallableShape(f) {
			continue
		}
		def, ok := methods[f.Name]
		if !ok {
			return nil, Errorf(CodeDefinition, "%s.%s: method has no definition", rt, f.Name)
		}
		seen[f.Name] = true

		sig, err := buildSignature(rt, f, i, def)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}

	for name := range methods {
		if !seen[name] {
			return nil, Errorf(CodeDefinition, "%s.%s: definition does not match a callable method field", rt, name)
		}
	}
	return sigs, nil
}

func buildSignature(rt reflect.Type, f reflect.StructField, index int, def *MethodDef) (*Signature, error) {
	t := f.Type
	if t.IsVariadic() {
		return nil, Errorf(CodeDefinition, "%s.%s: variadic methods are not supported", rt, f.Name)
	}

	declared := t.NumIn() - 1 // leading context excluded
	if len(def.params) != declared {
		return nil, Errorf(CodeDefinition, "%s.%s: definition declares %d parameters, method takes %d",
			rt, f.Name, len(def.params), declared)
	}

	params := make([]Parameter, declared)
	names := make(map[string]bool, declared)
	for i, pd := range def.params {
		if pd.name == "" {
			return nil, Errorf(CodeDefinition, "%s.%s: parameter %d has an empty name", rt, f.Name, i)
		}
		if names[pd.name] {
			return nil, Errorf(CodeDefinition, "%s.%s: duplicate parameter %q", rt, f.Name, pd.name)
		}
		names[pd.name] = true
		params[i] = Parameter{
			Name:   pd.name,
			Type:   t.In(i + 1),
			Marker: pd.marker,
		}
	}

	var ret reflect.Type
	if t.NumOut() == 2 {
		ret = t.Out(0)
	}

	return &Signature{
		Interface:  rt,
		Name:       f.Name,
		Params:     params,
		Return:     ret,
		Markers:    def.markers,
		fieldIndex: index,
		funcType:   t,
	}, nil
}
