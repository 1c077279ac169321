package parley

import (
	"context"
	"reflect"
	"testing"
)

func prepare(t *testing.T, m MethodMarker, req any, sig *Signature, positional ...any) {
	t.Helper()
	s := sig
	if s == nil {
		s = &Signature{Name: "Probe"}
	}
	s2 := *s
	s2.Markers = []MethodMarker{m}
	if err := Build(req, &s2, positional, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRouteMarker(t *testing.T) {
	sig := &Signature{
		Name:   "Probe",
		Params: []Parameter{{Name: "id", Type: reflect.TypeFor[string]()}},
	}
	req := newFakeRequest()
	prepare(t, Route("GET /widgets/{id}"), req, sig, "w-1")
	if req.verb != "GET" {
		t.Errorf("expected verb GET, got %q", req.verb)
	}
	if req.path != "/widgets/w-1" {
		t.Errorf("expected expanded path, got %q", req.path)
	}
}

func TestRouteMarker_PathEscapes(t *testing.T) {
	sig := &Signature{
		Name:   "Probe",
		Params: []Parameter{{Name: "id", Type: reflect.TypeFor[string]()}},
	}
	req := newFakeRequest()
	prepare(t, Route("GET /widgets/{id}"), req, sig, "a/b c")
	if req.path != "/widgets/a%2Fb%20c" {
		t.Errorf("expected escaped path, got %q", req.path)
	}
}

func TestRouteMarker_BadPattern(t *testing.T) {
	m := Route("no-verb-here")
	c, ok := m.(SignatureChecker)
	if !ok {
		t.Fatal("route marker should check its signature")
	}
	if err := c.CheckSignature(&Signature{Name: "Probe"}); CodeOf(err) != CodeDefinition {
		t.Fatalf("expected definition error, got %v", err)
	}
}

func TestPathMarker_UndeclaredParameter(t *testing.T) {
	m := Path("/widgets/{nope}")
	c := m.(SignatureChecker)
	sig := &Signature{
		Name:   "Probe",
		Params: []Parameter{{Name: "id", Type: reflect.TypeFor[string]()}},
	}
	if err := c.CheckSignature(sig); CodeOf(err) != CodeDefinition {
		t.Fatalf("expected definition error, got %v", err)
	}
}

func TestPathFuncMarker(t *testing.T) {
	sig := &Signature{
		Name:   "Probe",
		Params: []Parameter{{Name: "id", Type: reflect.TypeFor[string]()}},
	}
	m := PathFunc(func(args *BoundArguments) (string, error) {
		id, _ := args.Value("id")
		return "/v2/widgets/" + id.(string), nil
	})
	req := newFakeRequest()
	prepare(t, m, req, sig, "w-9")
	if req.path != "/v2/widgets/w-9" {
		t.Errorf("unexpected path %q", req.path)
	}
}

func TestStaticHeaderAndHeaderParam(t *testing.T) {
	sig := &Signature{
		Name:   "Probe",
		Params: []Parameter{{Name: "tenant", Type: reflect.TypeFor[string](), Marker: HeaderParam("X-Tenant")}},
	}
	s2 := *sig
	s2.Markers = []MethodMarker{StaticHeader("X-Client", "parley")}
	req := newFakeRequest()
	if err := Build(req, &s2, []any{"acme"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.header.Get("X-Client") != "parley" {
		t.Errorf("missing static header: %v", req.header)
	}
	if req.header.Get("X-Tenant") != "acme" {
		t.Errorf("missing header param: %v", req.header)
	}
}

func TestJSONFieldAndBodyMarkers(t *testing.T) {
	sig := &Signature{
		Name: "Probe",
		Params: []Parameter{
			{Name: "name", Type: reflect.TypeFor[string](), Marker: JSONField("name")},
		},
	}
	req := newFakeRequest()
	if err := Build(req, sig, []any{"gopher"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.fields["name"] != "gopher" {
		t.Errorf("expected body field, got %v", req.fields)
	}

	whole := &Signature{
		Name: "Probe",
		Params: []Parameter{
			{Name: "payload", Type: reflect.TypeFor[widget](), Marker: Body()},
		},
	}
	req = newFakeRequest()
	w := widget{ID: "w-1", Name: "sprocket"}
	if err := Build(req, whole, []any{w}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.hasBody || req.body.(widget) != w {
		t.Errorf("expected whole body, got %v", req.body)
	}
}

func TestQueryStructMarker(t *testing.T) {
	type filter struct {
		Name string `schema:"name"`
		Page int    `schema:"page"`
	}
	sig := &Signature{
		Name: "Probe",
		Params: []Parameter{
			{Name: "filter", Type: reflect.TypeFor[filter](), Marker: QueryStruct()},
		},
	}
	req := newFakeRequest()
	if err := Build(req, sig, []any{filter{Name: "gopher", Page: 2}}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.query.Get("name") != "gopher" || req.query.Get("page") != "2" {
		t.Errorf("unexpected query: %v", req.query)
	}
}

func TestQueryStructMarker_NonStruct(t *testing.T) {
	sig := &Signature{
		Name: "Probe",
		Params: []Parameter{
			{Name: "filter", Type: reflect.TypeFor[int](), Marker: QueryStruct()},
		},
	}
	err := Build(newFakeRequest(), sig, []any{42}, nil)
	if CodeOf(err) != CodeInvalidArgument {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
}

func TestQueryMarker_NilOmitted(t *testing.T) {
	sig := &Signature{
		Name: "Probe",
		Params: []Parameter{
			{Name: "page", Type: reflect.TypeFor[*int](), Marker: Query("page")},
		},
	}
	req := newFakeRequest()
	if err := Build(req, sig, []any{nil}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.query) != 0 {
		t.Errorf("nil value should be omitted, got %v", req.query)
	}
}

func TestOperationMarker(t *testing.T) {
	req := newFakeRequest()
	prepare(t, Operation("ListOfContinentsByName"), req, nil)
	if req.op != "ListOfContinentsByName" {
		t.Errorf("unexpected operation %q", req.op)
	}
}

func TestCheckMarkers_UnsupportedCapability(t *testing.T) {
	// A request shape with no capabilities at all.
	type bare struct{}
	sig := &Signature{
		Name:    "Probe",
		Markers: []MethodMarker{Verb("GET")},
	}
	if err := CheckMarkers(sig, &bare{}); CodeOf(err) != CodeDefinition {
		t.Fatalf("expected definition error, got %v", err)
	}

	sig = &Signature{
		Name:   "Probe",
		Params: []Parameter{{Name: "q", Type: reflect.TypeFor[string](), Marker: Query("q")}},
	}
	if err := CheckMarkers(sig, &bare{}); CodeOf(err) != CodeDefinition {
		t.Fatalf("expected definition error for parameter marker, got %v", err)
	}
}

func TestWrapWith_Ordering(t *testing.T) {
	var order []string
	mark := func(label string) MethodMarker {
		return WrapWith(func(next CallFunc) CallFunc {
			return func(ctx context.Context, svc *BoundService, args []any) (any, error) {
				order = append(order, "before-"+label)
				res, err := next(ctx, svc, args)
				order = append(order, "after-"+label)
				return res, err
			}
		})
	}

	base := CallFunc(func(ctx context.Context, svc *BoundService, args []any) (any, error) {
		order = append(order, "base")
		return nil, nil
	})

	sig := &Signature{Name: "Probe", Markers: []MethodMarker{mark("1"), mark("2")}}
	call := base
	for _, m := range sig.Markers {
		if w, ok := m.(Wrapper); ok {
			call = w.Wrap(call)
		}
	}

	if _, err := call(context.Background(), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"before-2", "before-1", "base", "after-1", "after-2"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}
