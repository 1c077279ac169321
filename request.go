package parley

import "errors"

// BoundArguments is the ephemeral mapping from parameter name to runtime
// value for a single call, produced by reconciling positional and keyword
// arguments against the declared parameter order. It never outlives the
// call it was built for.
type BoundArguments struct {
	params []Parameter
	values map[string]any
}

// Value returns the bound value of the named parameter.
func (a *BoundArguments) Value(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Len returns the number of bound parameters.
func (a *BoundArguments) Len() int {
	return len(a.values)
}

// Positional returns the bound values in declared parameter order.
func (a *BoundArguments) Positional() []any {
	out := make([]any, len(a.params))
	for i, p := range a.params {
		out[i] = a.values[p.Name]
	}
	return out
}

// bindArguments reconciles positional and keyword arguments against the
// signature's declared parameter order. A surplus positional argument, an
// unknown or duplicate keyword, or a missing parameter is a call-time
// argument error.
func bindArguments(sig *Signature, positional []any, keyword map[string]any) (*BoundArguments, error) {
	if len(positional) > len(sig.Params) {
		return nil, Errorf(CodeInvalidArgument, "%s: takes %d arguments, got %d positional",
			sig.Name, len(sig.Params), len(positional))
	}

	values := make(map[string]any, len(sig.Params))
	for i, v := range positional {
		values[sig.Params[i].Name] = v
	}
	for name, v := range keyword {
		if !sig.hasParam(name) {
			return nil, Errorf(CodeInvalidArgument, "%s: unknown argument %q", sig.Name, name)
		}
		if _, dup := values[name]; dup {
			return nil, Errorf(CodeInvalidArgument, "%s: argument %q given positionally and by name", sig.Name, name)
		}
		values[name] = v
	}
	for _, p := range sig.Params {
		if _, ok := values[p.Name]; !ok {
			return nil, Errorf(CodeInvalidArgument, "%s: missing argument %q", sig.Name, p.Name)
		}
	}

	return &BoundArguments{params: sig.Params, values: values}, nil
}

func (s *Signature) hasParam(name string) bool {
	for _, p := range s.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Build fills the backend-specific request req from the signature and the
// call arguments. Method markers run first, in declaration order, each
// seeing the full argument set; parameter markers run second, in declared
// parameter order, each seeing only its own value. Later method markers
// overwrite fields set by earlier ones.
//
// The request is exclusively owned by the in-flight call; once Build
// returns, the transport must treat it as read-only.
func Build(req any, sig *Signature, positional []any, keyword map[string]any) error {
	args, err := bindArguments(sig, positional, keyword)
	if err != nil {
		return err
	}
	return applyMarkers(req, sig, args)
}

func applyMarkers(req any, sig *Signature, args *BoundArguments) error {
	for _, m := range sig.Markers {
		if err := m.Prepare(req, args); err != nil {
			return err
		}
	}
	for _, p := range sig.Params {
		if p.Marker == nil {
			continue
		}
		v, _ := args.Value(p.Name)
		if err := p.Marker.PrepareValue(req, v); err != nil {
			var be *Error
			if errors.As(err, &be) {
				return err
			}
			return Errorf(CodeDefinition, "parameter %q: %v", p.Name, err)
		}
	}
	return nil
}
