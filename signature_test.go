package parley

import (
	"context"
	"reflect"
	"testing"
)

type widget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type widgetAPI struct {
	Get    func(ctx context.Context, id string) (widget, error)
	Delete func(ctx context.Context, id string) error

	// None of these match the callable shape; extraction must skip them.
	Label    string
	NoCtx    func(id string) (widget, error)
	NoErr    func(ctx context.Context, id string) widget
	internal func(ctx context.Context) error
}

func widgetDef(t *testing.T) *InterfaceDef[widgetAPI] {
	t.Helper()
	def := Define[widgetAPI]("widgets")
	def.Method("Get", Route("GET /widgets/{id}")).
		Param("id", nil)
	def.Method("Delete", Route("DELETE /widgets/{id}")).
		Param("id", nil)
	return def
}

func TestExtractSignatures(t *testing.T) {
	def := widgetDef(t)
	sigs, err := def.signatures()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}

	get := sigs[0]
	if get.Name != "Get" {
		t.Errorf("expected Get first, got %s", get.Name)
	}
	if len(get.Params) != 1 || get.Params[0].Name != "id" {
		t.Fatalf("unexpected params: %+v", get.Params)
	}
	if get.Params[0].Type != reflect.TypeFor[string]() {
		t.Errorf("expected string param, got %s", get.Params[0].Type)
	}
	if get.Return != reflect.TypeFor[widget]() {
		t.Errorf("expected widget return, got %v", get.Return)
	}

	del := sigs[1]
	if del.Return != nil {
		t.Errorf("error-only method should have nil return, got %v", del.Return)
	}
}

func TestExtractSignatures_CachedOnce(t *testing.T) {
	def := widgetDef(t)
	first, err := def.signatures()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := def.signatures()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Error("expected descriptor extraction to be memoized")
	}
}

func TestExtractSignatures_MissingDefinition(t *testing.T) {
	def := Define[widgetAPI]("widgets")
	def.Method("Get", Route("GET /widgets/{id}")).Param("id", nil)
	// Delete left undefined.
	if _, err := def.signatures(); CodeOf(err) != CodeDefinition {
		t.Fatalf("expected definition error, got %v", err)
	}
}

func TestExtractSignatures_DefinitionForSkippedMember(t *testing.T) {
	def := widgetDef(t)
	def.Method("NoCtx", Verb("GET")).Param("id", nil)
	if _, err := def.signatures(); CodeOf(err) != CodeDefinition {
		t.Fatal("expected definition error for a definition naming a non-callable member")
	}
}

func TestExtractSignatures_ParamCountMismatch(t *testing.T) {
	def := Define[widgetAPI]("widgets")
	def.Method("Get", Route("GET /widgets"))
	def.Method("Delete", Route("DELETE /widgets/{id}")).Param("id", nil)
	if _, err := def.signatures(); CodeOf(err) != CodeDefinition {
		t.Fatal("expected definition error for parameter count mismatch")
	}
}

func TestExtractSignatures_DuplicateParam(t *testing.T) {
	type api struct {
		Find func(ctx context.Context, a, b string) (widget, error)
	}
	def := Define[api]("dup")
	def.Method("Find", Verb("GET")).
		Param("a", nil).
		Param("a", nil)
	if _, err := def.signatures(); CodeOf(err) != CodeDefinition {
		t.Fatal("expected definition error for duplicate parameter name")
	}
}

func TestExtractSignatures_Variadic(t *testing.T) {
	type api struct {
		Sum func(ctx context.Context, ns ...int) (int, error)
	}
	def := Define[api]("variadic")
	def.Method("Sum", Verb("POST")).Param("ns", nil)
	if _, err := def.signatures(); CodeOf(err) != CodeDefinition {
		t.Fatal("expected definition error for variadic method")
	}
}

func TestExtractSignatures_NonStruct(t *testing.T) {
	def := Define[int]("bogus")
	if _, err := def.signatures(); CodeOf(err) != CodeDefinition {
		t.Fatal("expected definition error for non-struct interface type")
	}
}
