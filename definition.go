package parley

import (
	"fmt"
	"reflect"
	"sync"
)

// InterfaceDef is the declarative side-table for an interface description:
// it maps method names to their markers and named parameter lists. The Go
// type system does not carry parameter names or annotations, so the
// definition supplies both.
//
// Definitions are meant to be built once, at package init time, and then
// shared. The descriptor extraction they drive runs once and is memoized;
// mutating a definition after the first Bind has no effect.
//
//	var CountryAPI = parley.Define[CountryInfo]("CountryInfo")
//
//	func init() {
//		CountryAPI.Method("ListContinents", parley.Route("GET /continents/{lang}")).
//			Param("lang", nil)
//	}
type InterfaceDef[T any] struct {
	name    string
	methods map[string]*MethodDef

	once sync.Once
	sigs []*Signature
	err  error
}

// MethodDef accumulates the markers and parameters of one method.
type MethodDef struct {
	name    string
	markers []MethodMarker
	params  []paramDef
}

type paramDef struct {
	name   string
	marker ParameterMarker
}

// Define creates an empty definition for the interface type T. The name is
// used for logging and cache identity; it does not need to match the type
// name.
func Define[T any](name string) *InterfaceDef[T] {
	return &InterfaceDef[T]{
		name:    name,
		methods: make(map[string]*MethodDef),
	}
}

// Method registers (or extends) the definition of the named method with the
// given method markers, in declaration order. Later markers override earlier
// ones when they touch the same request field.
func (d *InterfaceDef[T]) Method(name string, markers ...MethodMarker) *MethodDef {
	m, ok := d.methods[name]
	if !ok {
		m = &MethodDef{name: name}
		d.methods[name] = m
	}
	m.markers = append(m.markers, markers...)
	return m
}

// Param declares the next parameter of the method, in the method's declared
// parameter order. marker may be nil for parameters that are consumed by a
// method marker (a path template, for example) rather than placed into the
// request individually.
func (m *MethodDef) Param(name string, marker ParameterMarker) *MethodDef {
	m.params = append(m.params, paramDef{name: name, marker: marker})
	return m
}

// Name returns the definition's display name.
func (d *InterfaceDef[T]) Name() string {
	return d.name
}

// descriptorSource is the non-generic view of a definition used by the
// binding cache.
type descriptorSource interface {
	descriptorID() string
	interfaceType() reflect.Type
	signatures() ([]*Signature, error)
}

func (d *InterfaceDef[T]) descriptorID() string {
	// The pointer disambiguates two definitions of the same type.
	return fmt.Sprintf("%s(%s)@%p", d.name, d.interfaceType(), d)
}

func (d *InterfaceDef[T]) interfaceType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (d *InterfaceDef[T]) signatures() ([]*Signature, error) {
	d.once.Do(func() {
		d.sigs, d.err = extractSignatures(d.interfaceType(), d.methods)
	})
	return d.sigs, d.err
}
