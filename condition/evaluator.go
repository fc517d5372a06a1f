// Package condition evaluates the dynamic-conditions predicate strings a
// field's schema tag may carry (required_if, omit_if, only_if, min_if, max_if).
// It mirrors the C++ engine's treatment of its embedded predicate
// interpreter as a thin, swappable collaborator: the core only ever calls
// Evaluator, never a concrete expression language.
package condition

import "reflect"

// Evaluator answers the dynamic-conditions questions spec.md §4.9 names:
// required?, omit?, only?, min, max. Each question is its own method taking
// its own predicate string, since a field's required_if/omit_if/only_if/
// min_if/max_if expressions are independent and must never be conflated.
// This is invoked only for the predicates a field actually carries;
// otherwise callers use the field's static option-bag bounds directly.
type Evaluator interface {
	RequiredIf(this, root reflect.Value, index int, predicate string) bool
	OmitIf(this, root reflect.Value, index int, predicate string) bool
	OnlyIf(this, root reflect.Value, index int, predicate string) bool
	Min(this, root reflect.Value, index int, predicate string, staticMin float64) float64
	Max(this, root reflect.Value, index int, predicate string, staticMax float64) float64
}

// StaticEvaluator is the default, no-op Evaluator: every predicate is
// treated as absent, so fields fall back to their static option-bag
// bounds unchanged.
type StaticEvaluator struct{}

var _ Evaluator = StaticEvaluator{}

func (StaticEvaluator) RequiredIf(_, _ reflect.Value, _ int, _ string) bool { return false }
func (StaticEvaluator) OmitIf(_, _ reflect.Value, _ int, _ string) bool     { return false }
func (StaticEvaluator) OnlyIf(_, _ reflect.Value, _ int, _ string) bool     { return true }

func (StaticEvaluator) Min(_, _ reflect.Value, _ int, _ string, staticMin float64) float64 {
	return staticMin
}

func (StaticEvaluator) Max(_, _ reflect.Value, _ int, _ string, staticMax float64) float64 {
	return staticMax
}
