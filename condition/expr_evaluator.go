package condition

import (
	"reflect"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprEvaluator evaluates dynamic-conditions predicates with expr-lang/expr,
// a pure-Go, sandboxed expression language with no filesystem or network
// access — the closest ecosystem match to the spec's "embedded predicate
// interpreter" that answers yes/no/number questions against a read-only
// view of this/root/this_index.
//
// Compiled programs are cached per predicate string since a schema reuses
// the same handful of predicates across many encode/decode calls.
type ExprEvaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

var _ Evaluator = (*ExprEvaluator)(nil)

// NewExprEvaluator returns a ready-to-use ExprEvaluator.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{programs: make(map[string]*vm.Program)}
}

func (e *ExprEvaluator) compile(predicate string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.programs[predicate]; ok {
		return p, nil
	}

	p, err := expr.Compile(predicate)
	if err != nil {
		return nil, err
	}
	e.programs[predicate] = p

	return p, nil
}

func (e *ExprEvaluator) eval(this, root reflect.Value, index int, predicate string) (any, error) {
	if predicate == "" {
		return nil, nil
	}

	prog, err := e.compile(predicate)
	if err != nil {
		return nil, err
	}

	env := map[string]any{
		"this":       valueOrNil(this),
		"root":       valueOrNil(root),
		"this_index": index,
	}

	return expr.Run(prog, env)
}

func valueOrNil(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	}
	return v.Interface()
}

func (e *ExprEvaluator) RequiredIf(this, root reflect.Value, index int, predicate string) bool {
	v, err := e.eval(this, root, index, predicate)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (e *ExprEvaluator) OmitIf(this, root reflect.Value, index int, predicate string) bool {
	v, err := e.eval(this, root, index, predicate)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (e *ExprEvaluator) OnlyIf(this, root reflect.Value, index int, predicate string) bool {
	if predicate == "" {
		return true
	}
	v, err := e.eval(this, root, index, predicate)
	if err != nil {
		return true
	}
	b, ok := v.(bool)
	if !ok {
		return true
	}
	return b
}

func (e *ExprEvaluator) Min(this, root reflect.Value, index int, predicate string, staticMin float64) float64 {
	v, err := e.eval(this, root, index, predicate)
	if err != nil || v == nil {
		return staticMin
	}
	return numberOr(v, staticMin)
}

func (e *ExprEvaluator) Max(this, root reflect.Value, index int, predicate string, staticMax float64) float64 {
	v, err := e.eval(this, root, index, predicate)
	if err != nil || v == nil {
		return staticMax
	}
	return numberOr(v, staticMax)
}

func numberOr(v any, fallback float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case uint:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return fallback
	}
}
