// Package stub provides in-memory envelope transports for tests: canned
// replies per operation, recorded calls, and a blocking mode for
// cancellation scenarios.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/parley-rpc/parley/envelope"
)

// Call records one dispatched operation.
type Call struct {
	Operation string
	Body      any
}

// Transport is a recording envelope.Transport with canned replies.
type Transport struct {
	mu      sync.Mutex
	replies map[string]envelope.Reply
	err     error
	calls   []Call
}

// NewTransport creates an empty stub transport.
func NewTransport() *Transport {
	return &Transport{replies: make(map[string]envelope.Reply)}
}

// Reply cans a success payload for the operation.
func (t *Transport) Reply(operation string, payload any) *Transport {
	data, err := json.Marshal(payload)
	if err != nil {
		panic("stub: cannot marshal canned payload: " + err.Error())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[operation] = envelope.Reply{Payload: data}
	return t
}

// Fault cans a fault payload for the operation.
func (t *Transport) Fault(operation string, fault any) *Transport {
	data, err := json.Marshal(fault)
	if err != nil {
		panic("stub: cannot marshal canned fault: " + err.Error())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[operation] = envelope.Reply{Fault: data}
	return t
}

// Fail makes every call return err.
func (t *Transport) Fail(err error) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
	return t
}

// Call implements envelope.Transport.
func (t *Transport) Call(_ context.Context, operation string, body any) (envelope.Reply, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, Call{Operation: operation, Body: body})
	if t.err != nil {
		return envelope.Reply{}, t.err
	}
	reply, ok := t.replies[operation]
	if !ok {
		return envelope.Reply{}, fmt.Errorf("stub: no canned reply for operation %q", operation)
	}
	return reply, nil
}

// Calls returns the recorded calls.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// AsyncTransport adapts Transport to envelope.AsyncTransport. In blocked
// mode the result channel never delivers, which exercises caller-side
// cancellation.
type AsyncTransport struct {
	*Transport
	mu      sync.Mutex
	blocked bool
}

// NewAsyncTransport creates an empty async stub transport.
func NewAsyncTransport() *AsyncTransport {
	return &AsyncTransport{Transport: NewTransport()}
}

// Block makes subsequent Begin calls never deliver a result.
func (t *AsyncTransport) Block() *AsyncTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocked = true
	return t
}

// Begin implements envelope.AsyncTransport.
func (t *AsyncTransport) Begin(ctx context.Context, operation string, body any) <-chan envelope.Result {
	ch := make(chan envelope.Result, 1)
	t.mu.Lock()
	blocked := t.blocked
	t.mu.Unlock()
	if blocked {
		return ch
	}
	reply, err := t.Call(ctx, operation, body)
	ch <- envelope.Result{Reply: reply, Err: err}
	return ch
}
