package parley

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/gorilla/schema"

	"github.com/parley-rpc/parley/internal/pathtemplate"
)

var queryEncoder = schema.NewEncoder()

// Route is a method marker combining the request verb and a path template
// in one mux-style pattern:
//
//	parley.Route("GET /continents/{lang}")
//
// Placeholders reference parameters by name; an unknown name is a
// definition error at bind time.
func Route(pattern string) MethodMarker {
	verb, path, ok := strings.Cut(pattern, " ")
	if !ok || verb == "" || path == "" {
		return routeMarker{err: Errorf(CodeDefinition, "route %q must look like %q", pattern, "GET /path")}
	}
	return routeMarker{verb: verb, template: path}
}

type routeMarker struct {
	verb     string
	template string
	err      error
}

func (m routeMarker) Prepare(req any, args *BoundArguments) error {
	if m.err != nil {
		return m.err
	}
	if err := (verbMarker{verb: m.verb}).Prepare(req, args); err != nil {
		return err
	}
	return (pathMarker{template: m.template}).Prepare(req, args)
}

func (m routeMarker) CheckRequest(req any) error {
	if m.err != nil {
		return m.err
	}
	if err := (verbMarker{verb: m.verb}).CheckRequest(req); err != nil {
		return err
	}
	return (pathMarker{template: m.template}).CheckRequest(req)
}

func (m routeMarker) CheckSignature(sig *Signature) error {
	if m.err != nil {
		return m.err
	}
	return (pathMarker{template: m.template}).CheckSignature(sig)
}

// Verb is a method marker setting the request verb.
func Verb(verb string) MethodMarker {
	return verbMarker{verb: verb}
}

type verbMarker struct {
	verb string
}

func (m verbMarker) Prepare(req any, _ *BoundArguments) error {
	r, ok := req.(SupportsVerb)
	if !ok {
		return unsupported(req, "a request verb")
	}
	r.SetVerb(m.verb)
	return nil
}

func (m verbMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsVerb); !ok {
		return unsupported(req, "a request verb")
	}
	return nil
}

// Path is a method marker setting the URL path from a template that may
// reference parameters by name.
func Path(template string) MethodMarker {
	return pathMarker{template: template}
}

type pathMarker struct {
	template string
}

func (m pathMarker) Prepare(req any, args *BoundArguments) error {
	r, ok := req.(SupportsPath)
	if !ok {
		return unsupported(req, "a URL path")
	}
	path, err := pathtemplate.Expand(m.template, args.Value)
	if err != nil {
		return Errorf(CodeDefinition, "path template: %v", err)
	}
	r.SetPath(path)
	return nil
}

func (m pathMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsPath); !ok {
		return unsupported(req, "a URL path")
	}
	return nil
}

func (m pathMarker) CheckSignature(sig *Signature) error {
	names, err := pathtemplate.Names(m.template)
	if err != nil {
		return Errorf(CodeDefinition, "%s: path template: %v", sig.Name, err)
	}
	for _, name := range names {
		if !sig.hasParam(name) {
			return Errorf(CodeDefinition, "%s: path template references undeclared parameter %q", sig.Name, name)
		}
	}
	return nil
}

// PathFunc is a method marker deriving the URL path from the full bound
// argument set.
func PathFunc(fn func(args *BoundArguments) (string, error)) MethodMarker {
	return pathFuncMarker{fn: fn}
}

type pathFuncMarker struct {
	fn func(args *BoundArguments) (string, error)
}

func (m pathFuncMarker) Prepare(req any, args *BoundArguments) error {
	r, ok := req.(SupportsPath)
	if !ok {
		return unsupported(req, "a URL path")
	}
	path, err := m.fn(args)
	if err != nil {
		return err
	}
	r.SetPath(path)
	return nil
}

func (m pathFuncMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsPath); !ok {
		return unsupported(req, "a URL path")
	}
	return nil
}

// StaticHeader is a method marker adding a fixed header to every request.
func StaticHeader(name, value string) MethodMarker {
	return staticHeaderMarker{name: name, value: value}
}

type staticHeaderMarker struct {
	name, value string
}

func (m staticHeaderMarker) Prepare(req any, _ *BoundArguments) error {
	r, ok := req.(SupportsHeaders)
	if !ok {
		return unsupported(req, "headers")
	}
	r.AddHeader(m.name, m.value)
	return nil
}

func (m staticHeaderMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsHeaders); !ok {
		return unsupported(req, "headers")
	}
	return nil
}

// Operation is a method marker addressing a remote operation by name, for
// envelope-style transports.
func Operation(name string) MethodMarker {
	return operationMarker{name: name}
}

type operationMarker struct {
	name string
}

func (m operationMarker) Prepare(req any, _ *BoundArguments) error {
	r, ok := req.(SupportsOperation)
	if !ok {
		return unsupported(req, "an operation name")
	}
	r.SetOperation(m.name)
	return nil
}

func (m operationMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsOperation); !ok {
		return unsupported(req, "an operation name")
	}
	return nil
}

// WrapWith is a method marker whose only effect is wrapping the generated
// bound method at bind time. Use it for cross-cutting behavior such as
// caching or call logging that needs no backend awareness.
func WrapWith(decorator func(next CallFunc) CallFunc) MethodMarker {
	return wrapWithMarker{decorator: decorator}
}

type wrapWithMarker struct {
	decorator func(next CallFunc) CallFunc
}

func (m wrapWithMarker) Prepare(any, *BoundArguments) error { return nil }

func (m wrapWithMarker) Wrap(next CallFunc) CallFunc { return m.decorator(next) }

// Query is a parameter marker placing the value into the query string under
// the given name. Nil values are omitted.
func Query(name string) ParameterMarker {
	return queryMarker{name: name}
}

type queryMarker struct {
	name string
}

func (m queryMarker) PrepareValue(req any, value any) error {
	r, ok := req.(SupportsQuery)
	if !ok {
		return unsupported(req, "query parameters")
	}
	if value == nil {
		return nil
	}
	r.AddQuery(m.name, value)
	return nil
}

func (m queryMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsQuery); !ok {
		return unsupported(req, "query parameters")
	}
	return nil
}

// QueryStruct is a parameter marker flattening a struct value into query
// parameters, encoded with gorilla/schema (`schema:"name"` tags).
func QueryStruct() ParameterMarker {
	return queryStructMarker{}
}

type queryStructMarker struct{}

func (queryStructMarker) PrepareValue(req any, value any) error {
	r, ok := req.(SupportsQueryValues)
	if !ok {
		return unsupported(req, "query parameters")
	}
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Errorf(CodeInvalidArgument, "query struct: %T is not a struct", value)
	}
	vals := make(url.Values)
	if err := queryEncoder.Encode(rv.Interface(), vals); err != nil {
		return WrapError(CodeInvalidArgument, err, "query struct")
	}
	r.AddQueryValues(vals)
	return nil
}

func (queryStructMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsQueryValues); !ok {
		return unsupported(req, "query parameters")
	}
	return nil
}

// HeaderParam is a parameter marker placing the value into a named header.
// Nil values are omitted.
func HeaderParam(name string) ParameterMarker {
	return headerParamMarker{name: name}
}

type headerParamMarker struct {
	name string
}

func (m headerParamMarker) PrepareValue(req any, value any) error {
	r, ok := req.(SupportsHeaders)
	if !ok {
		return unsupported(req, "headers")
	}
	if value == nil {
		return nil
	}
	r.AddHeader(m.name, fmt.Sprint(value))
	return nil
}

func (m headerParamMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsHeaders); !ok {
		return unsupported(req, "headers")
	}
	return nil
}

// JSONField is a parameter marker placing the value into the request body
// document under the given key.
func JSONField(name string) ParameterMarker {
	return jsonFieldMarker{name: name}
}

type jsonFieldMarker struct {
	name string
}

func (m jsonFieldMarker) PrepareValue(req any, value any) error {
	r, ok := req.(SupportsBodyField)
	if !ok {
		return unsupported(req, "a keyed body")
	}
	r.SetBodyField(m.name, value)
	return nil
}

func (m jsonFieldMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsBodyField); !ok {
		return unsupported(req, "a keyed body")
	}
	return nil
}

// Body is a parameter marker replacing the whole request body with the
// value.
func Body() ParameterMarker {
	return bodyMarker{}
}

type bodyMarker struct{}

func (bodyMarker) PrepareValue(req any, value any) error {
	r, ok := req.(SupportsBody)
	if !ok {
		return unsupported(req, "a body")
	}
	r.SetBody(value)
	return nil
}

func (bodyMarker) CheckRequest(req any) error {
	if _, ok := req.(SupportsBody); !ok {
		return unsupported(req, "a body")
	}
	return nil
}

func unsupported(req any, what string) *Error {
	return Errorf(CodeDefinition, "request shape %T does not support %s", req, what)
}
