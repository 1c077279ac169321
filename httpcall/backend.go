// Package httpcall is the REST-style backend for parley: it translates
// built requests into net/http calls against a base URL and parses JSON
// responses into declared return shapes, selecting the fault shape on
// non-success status codes.
package httpcall

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/parley-rpc/parley"
)

// defaultMaxResponseSize caps how much of a response body is read. Protects
// against a misbehaving service streaming an unbounded payload into memory.
const defaultMaxResponseSize = 1 << 20 // 1MB

// Backend performs HTTP transport for bound services. All configuration
// happens before the first call; a Backend is then shared read-only by
// every call on services bound to it.
type Backend struct {
	baseURL         string
	client          *http.Client
	logger          *slog.Logger
	header          http.Header
	maxResponseSize int64
}

// New creates a backend calling the service rooted at baseURL with
// http.DefaultClient.
func New(baseURL string) *Backend {
	return &Backend{
		baseURL:         strings.TrimRight(baseURL, "/"),
		client:          http.DefaultClient,
		header:          make(http.Header),
		maxResponseSize: defaultMaxResponseSize,
	}
}

// WithClient sets a custom HTTP client. Timeouts and retries belong to the
// client; the backend adds none of its own.
func (b *Backend) WithClient(client *http.Client) *Backend {
	b.client = client
	return b
}

// WithLogger sets a custom logger. If not set, slog.Default() will be used.
func (b *Backend) WithLogger(logger *slog.Logger) *Backend {
	b.logger = logger
	return b
}

// WithHeader adds a header sent with every request (authorization,
// user-agent). Request-level headers from markers take precedence.
func (b *Backend) WithHeader(name, value string) *Backend {
	b.header.Add(name, value)
	return b
}

// WithMaxResponseSize sets the response body read limit. A value of 0 means
// no limit. Default is 1MB.
func (b *Backend) WithMaxResponseSize(size int64) *Backend {
	b.maxResponseSize = size
	return b
}

// Binder returns the HTTP binder strategy. The strategy is stateless; every
// Backend of this family shares one cache identity.
func (b *Backend) Binder() parley.Binder {
	return httpBinder{}
}

func (b *Backend) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}

type httpBinder struct{}

func (httpBinder) BinderID() string { return "httpcall" }

func (httpBinder) BindMethod(sig *parley.Signature) (parley.CallFunc, error) {
	if err := parley.CheckMarkers(sig, &Request{}); err != nil {
		return nil, err
	}
	shape := parley.ShapeOf(sig.Return)

	return func(ctx context.Context, svc *parley.BoundService, args []any) (any, error) {
		backend, ok := svc.Backend().(*Backend)
		if !ok {
			return nil, parley.Errorf(parley.CodeInternal, "httpcall binder bound to %T", svc.Backend())
		}
		req := NewRequest()
		if err := parley.Build(req, sig, args, nil); err != nil {
			return nil, err
		}
		return backend.do(ctx, sig, req, shape)
	}, nil
}

func (b *Backend) do(ctx context.Context, sig *parley.Signature, req *Request, shape parley.ReturnShape) (any, error) {
	if req.Verb == "" {
		return nil, parley.Errorf(parley.CodeDefinition, "%s: request has no verb; add a Route or Verb marker", sig.Name)
	}

	body, err := req.encodeBody()
	if err != nil {
		return nil, parley.WrapError(parley.CodeInternal, err, "cannot encode request body")
	}

	u := b.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Verb, u, reader)
	if err != nil {
		return nil, parley.WrapError(parley.CodeTransport, err, "cannot create request")
	}
	for name, vs := range b.header {
		httpReq.Header[name] = append([]string(nil), vs...)
	}
	for name, vs := range req.Header {
		httpReq.Header[name] = append([]string(nil), vs...)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, parley.WrapError(parley.CodeTransport, err, "request failed")
	}
	defer resp.Body.Close()

	payload, err := b.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	b.log().Debug("http call",
		slog.String("method", sig.Name),
		slog.String("verb", req.Verb),
		slog.String("path", req.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 {
		if shape.Polymorphic() {
			return shape.ParseFault(payload)
		}
		return nil, parley.Errorf(parley.CodeTransport, "%s: unexpected status %d", sig.Name, resp.StatusCode).
			WithDetail("status", resp.StatusCode)
	}
	return shape.ParseSuccess(payload)
}

func (b *Backend) readBody(r io.Reader) ([]byte, error) {
	if b.maxResponseSize <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, parley.WrapError(parley.CodeTransport, err, "cannot read response")
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, b.maxResponseSize+1))
	if err != nil {
		return nil, parley.WrapError(parley.CodeTransport, err, "cannot read response")
	}
	if int64(len(data)) > b.maxResponseSize {
		return nil, parley.Errorf(parley.CodeResponseInvalid, "response body exceeds %d bytes", b.maxResponseSize)
	}
	return data, nil
}
