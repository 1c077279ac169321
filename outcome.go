package parley

import (
	"fmt"
	"reflect"
)

// Outcome is a polymorphic response container: a declared return type that
// represents either a success payload S or a structured fault F. The binder
// splits the two shapes once at bind time; at call time the backend decides
// which shape to parse into based on the transport outcome, so faults the
// service models explicitly never cross the boundary as Go errors.
type Outcome[S any, F any] struct {
	value S
	fault *F
}

// Success wraps a success payload in an Outcome.
func Success[S any, F any](value S) Outcome[S, F] {
	return Outcome[S, F]{value: value}
}

// Faulted wraps a fault payload in an Outcome.
func Faulted[S any, F any](fault F) Outcome[S, F] {
	return Outcome[S, F]{fault: &fault}
}

// Ok reports whether the outcome holds a success payload.
func (o Outcome[S, F]) Ok() bool {
	return o.fault == nil
}

// Value returns the success payload. It is the zero value when the outcome
// is a fault.
func (o Outcome[S, F]) Value() S {
	return o.value
}

// Fault returns the fault payload and whether the outcome is a fault.
func (o Outcome[S, F]) Fault() (F, bool) {
	if o.fault == nil {
		var zero F
		return zero, false
	}
	return *o.fault, true
}

// Unwrap converts the outcome into Go's (value, error) convention, turning
// a fault into a *FaultError.
func (o Outcome[S, F]) Unwrap() (S, error) {
	if o.fault != nil {
		var zero S
		return zero, &FaultError{Fault: *o.fault}
	}
	return o.value, nil
}

// FaultError carries a parsed service fault through an error return.
type FaultError struct {
	Fault any
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("service fault: %+v", e.Fault)
}

// polymorphicResult is the reflection seam backends use to split and
// populate an Outcome without knowing its type parameters.
type polymorphicResult interface {
	resultShapes() (success, fault reflect.Type)
	acceptSuccess(v reflect.Value)
	acceptFault(v reflect.Value)
}

func (o *Outcome[S, F]) resultShapes() (reflect.Type, reflect.Type) {
	return reflect.TypeFor[S](), reflect.TypeFor[F]()
}

func (o *Outcome[S, F]) acceptSuccess(v reflect.Value) {
	o.value = v.Interface().(S)
	o.fault = nil
}

func (o *Outcome[S, F]) acceptFault(v reflect.Value) {
	f := v.Interface().(F)
	o.fault = &f
}

var polymorphicResultType = reflect.TypeOf((*polymorphicResult)(nil)).Elem()
