// Package cel evaluates CEL expressions against decoded documents and list rows. A row filter
// sees the record as `row` (and `_`); document expressions see the document as `_`.
package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/cmtui/internal/errs"
)

func newEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	all := []cel.EnvOption{
		cel.Variable("_", cel.DynType),
		cel.Variable("row", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	}
	return cel.NewEnv(append(all, opts...)...)
}

// Evaluator compiles and evaluates document expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with the string, encoder, list and math extensions.
func NewEvaluator(opts ...cel.EnvOption) (*Evaluator, error) {
	env, err := newEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

func (e *Evaluator) compile(expr string) (cel.Program, *cel.Ast, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, nil, fmt.Errorf("program error: %w", err)
	}
	return prg, ast, nil
}

// Evaluate runs expr with data bound to `_`, e.g. "_.items.filter(x, x.ready)".
func (e *Evaluator) Evaluate(expr string, data any) (any, error) {
	prg, _, err := e.compile(expr)
	if err != nil {
		return nil, err
	}
	out, _, err := prg.Eval(map[string]any{"_": data, "row": data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(out), nil
}

// Filter is a compiled boolean row predicate.
type Filter struct {
	expr string
	prg  cel.Program
}

// CompileFilter checks that expr is valid and yields a bool. A bad filter given on the
// command line is a configuration error.
func (e *Evaluator) CompileFilter(expr string) (*Filter, error) {
	prg, ast, err := e.compile(expr)
	if err != nil {
		return nil, errs.Configf("invalid filter", expr, "%v", err)
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, errs.Configf("invalid filter", expr, "must produce a bool, not %s", t)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match evaluates the filter against one record. Evaluation errors, such as a missing key,
// count as no match and are returned for logging.
func (f *Filter) Match(row map[string]any) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{"_": row, "row": row})
	if err != nil {
		return false, err
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("filter %q produced %s, not bool", f.expr, out.Type())
	}
	return bool(b), nil
}

// Apply keeps the records the filter matches. A nil filter keeps everything.
func (f *Filter) Apply(rows []map[string]any) (kept []map[string]any, failures int) {
	if f == nil {
		return rows, 0
	}
	for _, r := range rows {
		ok, err := f.Match(r)
		if err != nil {
			failures++
		}
		if ok {
			kept = append(kept, r)
		}
	}
	return kept, failures
}

// Objects keeps the decoded objects the filter matches. Objects that are not string-keyed
// mappings never match.
func (f *Filter) Objects(objs []any) (kept []any, failures int) {
	if f == nil {
		return objs, 0
	}
	kept = make([]any, 0, len(objs))
	for _, obj := range objs {
		r, ok := obj.(map[string]any)
		if !ok {
			continue
		}
		match, err := f.Match(r)
		if err != nil {
			failures++
		}
		if match {
			kept = append(kept, obj)
		}
	}
	return kept, failures
}

// ToGo converts CEL values to plain Go values recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}
	inner := val.Value()
	switch t := inner.(type) {
	case []ref.Val:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToGo(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprintf("%v", k.Value())] = ToGo(e)
		}
		return out
	}
	return inner
}

func plain(v any) any {
	switch t := v.(type) {
	case ref.Val:
		return ToGo(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	}
	return v
}
