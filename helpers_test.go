package parley

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
)

// fakeRequest implements every request capability so markers of any family
// can be exercised against it.
type fakeRequest struct {
	verb   string
	path   string
	op     string
	query  url.Values
	header http.Header
	fields map[string]any

	body    any
	hasBody bool
}

func newFakeRequest() *fakeRequest {
	return &fakeRequest{
		query:  make(url.Values),
		header: make(http.Header),
		fields: make(map[string]any),
	}
}

func (r *fakeRequest) SetVerb(verb string)      { r.verb = verb }
func (r *fakeRequest) SetPath(path string)      { r.path = path }
func (r *fakeRequest) SetOperation(name string) { r.op = name }
func (r *fakeRequest) AddHeader(name, v string) { r.header.Add(name, v) }

func (r *fakeRequest) AddQuery(name string, v any) {
	r.query.Add(name, fmt.Sprint(v))
}

func (r *fakeRequest) AddQueryValues(values url.Values) {
	for name, vs := range values {
		for _, v := range vs {
			r.query.Add(name, v)
		}
	}
}

func (r *fakeRequest) SetBodyField(name string, v any) { r.fields[name] = v }

func (r *fakeRequest) SetBody(v any) {
	r.body = v
	r.hasBody = true
}

// fakeBinder counts BindMethod invocations so tests can assert that cached
// implementations are reused.
type fakeBinder struct {
	id    string
	binds atomic.Int32
}

func (b *fakeBinder) BinderID() string { return b.id }

func (b *fakeBinder) BindMethod(sig *Signature) (CallFunc, error) {
	b.binds.Add(1)
	if err := CheckMarkers(sig, &fakeRequest{}); err != nil {
		return nil, err
	}
	shape := ShapeOf(sig.Return)

	return func(ctx context.Context, svc *BoundService, args []any) (any, error) {
		backend := svc.Backend().(*fakeBackend)
		req := newFakeRequest()
		if err := Build(req, sig, args, nil); err != nil {
			return nil, err
		}
		backend.record(req)
		switch {
		case backend.fail != nil:
			return nil, WrapError(CodeTransport, backend.fail, "transport")
		case backend.fault != nil:
			return shape.ParseFault(backend.fault)
		default:
			return shape.ParseSuccess(backend.payload)
		}
	}, nil
}

// fakeBackend records built requests and serves canned payloads.
type fakeBackend struct {
	binder Binder

	mu       sync.Mutex
	requests []*fakeRequest

	payload []byte
	fault   []byte
	fail    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{binder: &fakeBinder{id: "fake"}}
}

func (b *fakeBackend) Binder() Binder { return b.binder }

func (b *fakeBackend) record(req *fakeRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *fakeBackend) lastRequest() *fakeRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return nil
	}
	return b.requests[len(b.requests)-1]
}
