// Package envelope is the operation-style backend for parley: requests
// address a remote operation by name and carry a single body document, the
// shape used by SOAP-like and message-bus transports. The transport itself
// is pluggable; faults are modeled as an alternate reply payload and parsed
// into the declared fault shape rather than surfaced as Go errors.
package envelope

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/parley-rpc/parley"
)

// Request is the mutable request shape of the envelope backend family.
type Request struct {
	Operation string
	Fields    map[string]any

	body    any
	hasBody bool
}

func (r *Request) SetOperation(name string) { r.Operation = name }

func (r *Request) SetBodyField(name string, value any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = value
}

func (r *Request) SetBody(value any) {
	r.body = value
	r.hasBody = true
}

// Body returns the request body: the whole-body value if one was set,
// otherwise the assembled field document.
func (r *Request) Body() any {
	if r.hasBody {
		return r.body
	}
	if r.Fields == nil {
		return map[string]any{}
	}
	return r.Fields
}

// Reply is a transport outcome: exactly one of Payload and Fault is
// meaningful. A non-nil Fault selects the declared fault shape during
// parsing.
type Reply struct {
	Payload json.RawMessage
	Fault   json.RawMessage
}

// Transport performs one blocking operation call. Cancellation and
// timeouts are owned by the transport via ctx; the backend adds none of
// its own.
type Transport interface {
	Call(ctx context.Context, operation string, body any) (Reply, error)
}

// Result delivers an asynchronous transport outcome.
type Result struct {
	Reply Reply
	Err   error
}

// AsyncTransport begins an operation call and delivers its outcome on the
// returned channel. The channel must receive exactly one Result.
type AsyncTransport interface {
	Begin(ctx context.Context, operation string, body any) <-chan Result
}

// Backend dispatches bound services through a blocking Transport.
type Backend struct {
	transport Transport
	logger    *slog.Logger
}

// New creates a backend over the given transport.
func New(transport Transport) *Backend {
	return &Backend{transport: transport}
}

// WithLogger sets a custom logger. If not set, slog.Default() will be used.
func (b *Backend) WithLogger(logger *slog.Logger) *Backend {
	b.logger = logger
	return b
}

// Binder returns the blocking envelope binder strategy.
func (b *Backend) Binder() parley.Binder {
	return syncBinder{}
}

// AsyncBackend dispatches bound services through an AsyncTransport. The
// generated callable suspends on the transport's result channel instead of
// blocking inside the transport; composition is otherwise identical to the
// blocking strategy.
type AsyncBackend struct {
	transport AsyncTransport
	logger    *slog.Logger
}

// NewAsync creates a backend over the given asynchronous transport.
func NewAsync(transport AsyncTransport) *AsyncBackend {
	return &AsyncBackend{transport: transport}
}

// WithLogger sets a custom logger. If not set, slog.Default() will be used.
func (b *AsyncBackend) WithLogger(logger *slog.Logger) *AsyncBackend {
	b.logger = logger
	return b
}

// Binder returns the suspending envelope binder strategy.
func (b *AsyncBackend) Binder() parley.Binder {
	return asyncBinder{}
}

// dispatch executes one already-built operation call; the two binder
// strategies differ only here.
type dispatch func(ctx context.Context, operation string, body any) (Reply, error)

type syncBinder struct{}

func (syncBinder) BinderID() string { return "envelope" }

func (syncBinder) BindMethod(sig *parley.Signature) (parley.CallFunc, error) {
	return bindMethod(sig, func(svc *parley.BoundService) (dispatch, *slog.Logger, error) {
		backend, ok := svc.Backend().(*Backend)
		if !ok {
			return nil, nil, parley.Errorf(parley.CodeInternal, "envelope binder bound to %T", svc.Backend())
		}
		return backend.transport.Call, backend.logger, nil
	})
}

type asyncBinder struct{}

func (asyncBinder) BinderID() string { return "envelope-async" }

func (asyncBinder) BindMethod(sig *parley.Signature) (parley.CallFunc, error) {
	return bindMethod(sig, func(svc *parley.BoundService) (dispatch, *slog.Logger, error) {
		backend, ok := svc.Backend().(*AsyncBackend)
		if !ok {
			return nil, nil, parley.Errorf(parley.CodeInternal, "envelope binder bound to %T", svc.Backend())
		}
		return backend.suspend, backend.logger, nil
	})
}

// suspend issues the call through the async transport and waits on the
// result channel, honoring ctx cancellation while suspended.
func (b *AsyncBackend) suspend(ctx context.Context, operation string, body any) (Reply, error) {
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case res := <-b.transport.Begin(ctx, operation, body):
		return res.Reply, res.Err
	}
}

// bindMethod is the composition path shared by both strategies: request
// build, transport dispatch, fault selection, response parsing.
func bindMethod(sig *parley.Signature, resolve func(svc *parley.BoundService) (dispatch, *slog.Logger, error)) (parley.CallFunc, error) {
	if err := parley.CheckMarkers(sig, &Request{}); err != nil {
		return nil, err
	}
	shape := parley.ShapeOf(sig.Return)

	return func(ctx context.Context, svc *parley.BoundService, args []any) (any, error) {
		run, logger, err := resolve(svc)
		if err != nil {
			return nil, err
		}

		req := &Request{}
		if err := parley.Build(req, sig, args, nil); err != nil {
			return nil, err
		}
		if req.Operation == "" {
			return nil, parley.Errorf(parley.CodeDefinition, "%s: request has no operation name; add an Operation marker", sig.Name)
		}

		start := time.Now()
		reply, err := run(ctx, req.Operation, req.Body())
		if err != nil {
			return nil, parley.WrapError(parley.CodeTransport, err, "operation failed")
		}

		if logger == nil {
			logger = slog.Default()
		}
		logger.Debug("envelope call",
			slog.String("method", sig.Name),
			slog.String("operation", req.Operation),
			slog.Bool("fault", reply.Fault != nil),
			slog.Duration("elapsed", time.Since(start)))

		if reply.Fault != nil {
			return shape.ParseFault(reply.Fault)
		}
		return shape.ParseSuccess(reply.Payload)
	}, nil
}
