// Package parley binds declarative service interface descriptions to
// pluggable transport backends. A caller describes a remote service as a
// struct of typed function fields, attaches markers to methods and
// parameters through an InterfaceDef, and obtains a concrete, callable
// implementation from Bind. The engine composes markers into a request
// construction pipeline, validates call arguments, caches generated
// implementations, and dispatches through a backend-supplied binder.
package parley

// MethodMarker is an immutable, reusable unit of metadata attached to a
// method. It mutates an in-progress request given the full set of bound
// call arguments. Markers may be shared across many signatures and must
// never be mutated after construction.
type MethodMarker interface {
	// Prepare applies the marker to the request under construction.
	// req is a backend-specific request value; markers discover the
	// capabilities they need via type assertion against the Supports*
	// interfaces.
	Prepare(req any, args *BoundArguments) error
}

// ParameterMarker is an immutable unit of metadata attached to a single
// parameter. It receives only that parameter's bound value.
type ParameterMarker interface {
	PrepareValue(req any, value any) error
}

// Wrapper is an optional MethodMarker extension. Wrap is applied once, at
// bind time, around the generated dispatch callable. Markers declared first
// end up innermost.
type Wrapper interface {
	Wrap(next CallFunc) CallFunc
}

// RequestChecker is an optional marker extension. CheckRequest is called at
// bind time against a zero value of the backend's request type so that a
// marker requiring an unsupported capability fails the bind instead of the
// first call.
type RequestChecker interface {
	CheckRequest(req any) error
}

// SignatureChecker is an optional marker extension. CheckSignature is called
// at bind time with the method's signature so that markers referencing
// parameters by name can reject undeclared names early.
type SignatureChecker interface {
	CheckSignature(sig *Signature) error
}

// CheckMarkers runs the bind-time checks of every marker on sig against a
// zero request value. Backends call this from BindMethod before producing
// the dispatch callable.
func CheckMarkers(sig *Signature, probe any) error {
	for _, m := range sig.Markers {
		if c, ok := m.(RequestChecker); ok {
			if err := c.CheckRequest(probe); err != nil {
				return err
			}
		}
		if c, ok := m.(SignatureChecker); ok {
			if err := c.CheckSignature(sig); err != nil {
				return err
			}
		}
	}
	for _, p := range sig.Params {
		if p.Marker == nil {
			continue
		}
		if c, ok := p.Marker.(RequestChecker); ok {
			if err := c.CheckRequest(probe); err != nil {
				return Errorf(CodeDefinition, "parameter %q: %v", p.Name, err)
			}
		}
	}
	return nil
}
