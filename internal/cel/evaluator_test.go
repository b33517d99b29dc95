package cel

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/oakwood-commons/cmtui/internal/errs"
)

func TestEvaluate_SimpleExpressions(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	tests := []struct {
		name     string
		expr     string
		data     any
		expected any
	}{
		{"access field", "_.name", map[string]any{"name": "test"}, "test"},
		{"access number", "_.count", map[string]any{"count": 42}, int64(42)},
		{"array index", "_[0]", []any{"first", "second"}, "first"},
		{"boolean", "_.active", map[string]any{"active": true}, true},
		{"nested field", "_.user.email", map[string]any{"user": map[string]any{"email": "a@b.c"}}, "a@b.c"},
		{"string extension", "_.name.upperAscii()", map[string]any{"name": "web"}, "WEB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.Evaluate(tt.expr, tt.data)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Evaluate(%q) = %v (%T), want %v (%T)", tt.expr, result, result, tt.expected, tt.expected)
			}
		})
	}
}

func TestEvaluate_Collections(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	data := map[string]any{"items": []any{
		map[string]any{"name": "a", "ready": true},
		map[string]any{"name": "b", "ready": false},
	}}

	got, err := eval.Evaluate("_.items.filter(x, x.ready).map(x, x.name)", data)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if want := []any{"a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}

	got, err = eval.Evaluate(`{"k": 1}`, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if want := map[string]any{"k": int64(1)}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	eval, _ := NewEvaluator()
	if _, err := eval.Evaluate("_.(", nil); err == nil || !strings.Contains(err.Error(), "compilation error") {
		t.Errorf("expected compilation error, got %v", err)
	}
	if _, err := eval.Evaluate("_.missing", map[string]any{}); err == nil {
		t.Error("expected eval error for missing key")
	}
}

func TestFilter(t *testing.T) {
	eval, _ := NewEvaluator()
	f, err := eval.CompileFilter(`row.phase == "Running" && row.restarts < 5`)
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}

	rows := []map[string]any{
		{"name": "a", "phase": "Running", "restarts": 0},
		{"name": "b", "phase": "Pending", "restarts": 0},
		{"name": "c", "phase": "Running", "restarts": 9},
		{"name": "d"},
	}
	kept, failures := f.Apply(rows)
	if len(kept) != 1 || kept[0]["name"] != "a" {
		t.Errorf("kept = %v, want only a", kept)
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1 (row without phase)", failures)
	}

	var none *Filter
	if kept, _ := none.Apply(rows); len(kept) != len(rows) {
		t.Error("nil filter should keep every row")
	}
}

func TestCompileFilterRejects(t *testing.T) {
	eval, _ := NewEvaluator()
	for _, expr := range []string{"row.name +", `"text"`, "1 + 2"} {
		_, err := eval.CompileFilter(expr)
		var ce *errs.ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("CompileFilter(%q) error = %v, want ConfigError", expr, err)
			continue
		}
		if ce.Identifier != expr {
			t.Errorf("Identifier = %q, want %q", ce.Identifier, expr)
		}
	}
}

func TestFilterObjects(t *testing.T) {
	eval, _ := NewEvaluator()
	f, err := eval.CompileFilter(`row.name != "b"`)
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}
	objs := []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
		"not a mapping",
		map[string]any{"other": 1},
	}
	kept, failures := f.Objects(objs)
	if len(kept) != 1 || kept[0].(map[string]any)["name"] != "a" {
		t.Errorf("kept = %v, want only a", kept)
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}
