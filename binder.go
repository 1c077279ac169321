package parley

import (
	"context"
	"reflect"
)

// Backend is an opaque transport handle that can supply a binder strategy.
// One Backend instance is shared, read-only, by every call on a bound
// service.
type Backend interface {
	Binder() Binder
}

// Binder is a backend-supplied strategy that turns a method descriptor into
// an executable dispatch callable. A Binder value must be comparable and
// stable: two backends of the same kind and configuration should return
// equal binders so their bindings share a cache entry.
type Binder interface {
	// BindMethod produces the dispatch callable for one method. The
	// callable builds the request, invokes the transport, and parses the
	// raw response into the declared return shape. Errors are definition
	// errors and fail the whole bind.
	BindMethod(sig *Signature) (CallFunc, error)

	// BinderID is a stable identifier for the strategy, used as the cache
	// key component alongside the interface identity.
	BinderID() string
}

// CallFunc is a bound method implementation: given the bound service and
// the positional argument values (context excluded), it returns the parsed
// result or an error. Wrap hooks and argument validation compose around it.
type CallFunc func(ctx context.Context, svc *BoundService, args []any) (any, error)

// BoundService carries the per-instance state of a bound interface: the
// backend handle. It is immutable after construction.
type BoundService struct {
	backend Backend
}

// Backend returns the backend handle the service was bound to.
func (s *BoundService) Backend() Backend {
	return s.backend
}

// boundMethod pairs a signature with its fully composed implementation.
type boundMethod struct {
	sig  *Signature
	call CallFunc
}

// implementation is the cached artifact of binding one interface definition
// to one binder strategy: the composed callables, shared by every service
// instance produced from the same (definition, binder) pair.
type implementation struct {
	methods []*boundMethod
	byName  map[string]*boundMethod
}

// buildImplementation runs the binder over every method descriptor and
// composes each callable: base dispatch, then Wrap hooks (first declared
// innermost), then argument validation outermost.
func buildImplementation(src descriptorSource, binder Binder) (*implementation, error) {
	sigs, err := src.signatures()
	if err != nil {
		return nil, err
	}

	impl := &implementation{byName: make(map[string]*boundMethod, len(sigs))}
	for _, sig := range sigs {
		call, err := binder.BindMethod(sig)
		if err != nil {
			return nil, Errorf(CodeDefinition, "%s.%s: %v", sig.Interface, sig.Name, err)
		}
		for _, m := range sig.Markers {
			if w, ok := m.(Wrapper); ok {
				call = w.Wrap(call)
			}
		}
		call = withArgumentValidation(sig, call)

		bm := &boundMethod{sig: sig, call: call}
		impl.methods = append(impl.methods, bm)
		impl.byName[sig.Name] = bm
	}
	return impl, nil
}

// withArgumentValidation rejects ill-typed or invalid arguments before the
// dispatch callable builds a request or touches the transport.
func withArgumentValidation(sig *Signature, next CallFunc) CallFunc {
	return func(ctx context.Context, svc *BoundService, args []any) (any, error) {
		if len(args) != len(sig.Params) {
			return nil, Errorf(CodeInvalidArgument, "%s: takes %d arguments, got %d",
				sig.Name, len(sig.Params), len(args))
		}
		for i, p := range sig.Params {
			if err := checkArgument(p, args[i]); err != nil {
				return nil, err
			}
		}
		return next(ctx, svc, args)
	}
}

// Bind creates a service instance implementing the definition's interface
// by dispatching through the given backend. Binding is idempotent: repeated
// binds of the same definition to the same binder strategy reuse the cached
// implementation, so the composed callables are referentially stable.
func Bind[T any](def *InterfaceDef[T], backend Backend) (*T, error) {
	return BindWith(defaultCache, def, backend)
}

// MustBind is Bind, panicking on definition errors. Intended for bindings
// constructed at program start.
func MustBind[T any](def *InterfaceDef[T], backend Backend) *T {
	svc, err := Bind(def, backend)
	if err != nil {
		panic("parley: " + err.Error())
	}
	return svc
}

// BindWith is Bind with an explicit binding cache.
func BindWith[T any](cache *Cache, def *InterfaceDef[T], backend Backend) (*T, error) {
	impl, err := cache.bindClass(def, backend.Binder())
	if err != nil {
		return nil, err
	}

	svc := new(T)
	bound := &BoundService{backend: backend}
	v := reflect.ValueOf(svc).Elem()
	for _, m := range impl.methods {
		v.Field(m.sig.fieldIndex).Set(makeMethodFunc(m, bound))
	}
	return svc, nil
}

// makeMethodFunc adapts a composed CallFunc to the method's concrete func
// field type.
func makeMethodFunc(m *boundMethod, svc *BoundService) reflect.Value {
	ft := m.sig.funcType
	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		ctx, _ := in[0].Interface().(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}
		args := make([]any, len(in)-1)
		for i, v := range in[1:] {
			args[i] = v.Interface()
		}

		res, err := m.call(ctx, svc, args)
		return methodResults(ft, res, err)
	})
}

func methodResults(ft reflect.Type, res any, err error) []reflect.Value {
	out := make([]reflect.Value, ft.NumOut())

	errVal := reflect.Zero(errorType)
	if err != nil {
		errVal = reflect.ValueOf(err)
	}
	out[ft.NumOut()-1] = errVal

	if ft.NumOut() == 2 {
		rt := ft.Out(0)
		rv := reflect.Zero(rt)
		if err == nil && res != nil {
			got := reflect.ValueOf(res)
			if !got.Type().AssignableTo(rt) {
				out[1] = reflect.ValueOf(error(Errorf(CodeInternal,
					"binder produced %T, method returns %s", res, rt)))
				out[0] = rv
				return out
			}
			rv = got
		}
		out[0] = rv
	}
	return out
}

// Caller is a dynamic handle over a bound implementation: methods are
// addressed by name and arguments by keyword, reconciled against the
// declared parameter order. It shares the binding cache with Bind.
type Caller struct {
	impl *implementation
	svc  *BoundService
}

// NewCaller binds the definition to the backend for dynamic invocation.
func NewCaller[T any](def *InterfaceDef[T], backend Backend) (*Caller, error) {
	impl, err := defaultCache.bindClass(def, backend.Binder())
	if err != nil {
		return nil, err
	}
	return &Caller{impl: impl, svc: &BoundService{backend: backend}}, nil
}

// Call invokes the named method with keyword arguments. Unknown methods and
// unreconcilable arguments are call-time argument errors; the underlying
// callable is the same validated, wrapped implementation Bind attaches to
// func fields.
func (c *Caller) Call(ctx context.Context, method string, kwargs map[string]any) (any, error) {
	m, ok := c.impl.byName[method]
	if !ok {
		return nil, Errorf(CodeInvalidArgument, "unknown method %q", method)
	}
	args, err := bindArguments(m.sig, nil, kwargs)
	if err != nil {
		return nil, err
	}
	return m.call(ctx, c.svc, args.Positional())
}
