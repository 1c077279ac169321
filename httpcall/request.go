package httpcall

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request is the mutable request shape of the HTTP backend family. It is
// created fresh for every call, built up by marker applications, and
// treated as read-only once handed to the transport.
type Request struct {
	Verb   string
	Path   string
	Query  url.Values
	Header http.Header

	// Fields is the keyed JSON body document, assembled by JSONField
	// markers. Ignored when a whole-body value is set.
	Fields map[string]any

	body    any
	hasBody bool
}

// NewRequest creates an empty request.
func NewRequest() *Request {
	return &Request{
		Query:  make(url.Values),
		Header: make(http.Header),
	}
}

func (r *Request) SetVerb(verb string) { r.Verb = verb }

func (r *Request) SetPath(path string) { r.Path = path }

func (r *Request) AddQuery(name string, value any) {
	r.Query.Add(name, fmt.Sprint(value))
}

func (r *Request) AddQueryValues(values url.Values) {
	for name, vs := range values {
		for _, v := range vs {
			r.Query.Add(name, v)
		}
	}
}

func (r *Request) AddHeader(name, value string) {
	r.Header.Add(name, value)
}

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

// encodeBody serializes the request body, preferring a whole-body value
// over assembled fields. A request with neither has no body.
func (r *Request) encodeBody() ([]byte, error) {
	switch {
	case r.hasBody:
		return json.Marshal(r.body)
	case len(r.Fields) > 0:
		return json.Marshal(r.Fields)
	default:
		return nil, nil
	}
}
