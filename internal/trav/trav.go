// Package trav implements the per-encode/decode traversal state shared by
// every codec invoked during a single Driver.Encode/Decode call: the
// current wire part (head/body), the descriptor/field stack, and scratch
// storage keyed by codec type (e.g. the arithmetic coder's frequency
// tables).
package trav

import (
	"reflect"

	"github.com/dcclgo/dccl/schema"
)

// Part identifies which half of the wire format a field belongs to.
type Part int

const (
	Unknown Part = iota
	Head
	Body
)

// ConditionEvaluator is the narrow view of condition.Evaluator that trav
// needs; declared locally to avoid an import cycle between trav and the
// condition package, which conforms to this interface structurally.
type ConditionEvaluator interface {
	RequiredIf(this, root reflect.Value, index int, predicate string) bool
	OmitIf(this, root reflect.Value, index int, predicate string) bool
	OnlyIf(this, root reflect.Value, index int, predicate string) bool
	Min(this, root reflect.Value, index int, predicate string, staticMin float64) float64
	Max(this, root reflect.Value, index int, predicate string, staticMax float64) float64
}

type frame struct {
	descriptor *schema.Descriptor
	field      *schema.FieldDescriptor
	part       Part
	message    reflect.Value
}

// Context is the per-call traversal state. It is logically reset (Part =
// Unknown, stacks empty) before each public Driver entry point and torn
// down on return, matching the teacher's per-call buffer checkout/return
// discipline.
type Context struct {
	Part   Part
	Strict bool

	Root           reflect.Value
	RootDescriptor *schema.Descriptor

	Conditions ConditionEvaluator

	stack   []frame
	scratch map[string]any
}

// NewContext returns a freshly reset Context for a single encode/decode call.
func NewContext(root reflect.Value, rd *schema.Descriptor, strict bool, cond ConditionEvaluator) *Context {
	return &Context{
		Part:           Unknown,
		Strict:         strict,
		Root:           root,
		RootDescriptor: rd,
		Conditions:     cond,
		scratch:        make(map[string]any),
	}
}

// Push enters a sub-field during traversal, recording the active
// descriptor/field/part/message so Pop can restore the caller's state.
func (c *Context) Push(d *schema.Descriptor, fd *schema.FieldDescriptor, msg reflect.Value) {
	c.stack = append(c.stack, frame{descriptor: d, field: fd, part: c.Part, message: msg})
}

// Pop restores the traversal state saved by the matching Push.
func (c *Context) Pop() {
	n := len(c.stack)
	f := c.stack[n-1]
	c.stack = c.stack[:n-1]
	c.Part = f.part
}

// Depth returns the current stack depth.
func (c *Context) Depth() int {
	return len(c.stack)
}

// CurrentMessage returns the message value at the top of the stack, or the
// root if the stack is empty.
func (c *Context) CurrentMessage() reflect.Value {
	if len(c.stack) == 0 {
		return c.Root
	}
	return c.stack[len(c.stack)-1].message
}

// Scratch returns the opaque per-codec-type scratch value registered under
// key, and whether it was present.
func (c *Context) Scratch(key string) (any, bool) {
	v, ok := c.scratch[key]
	return v, ok
}

// SetScratch stores an opaque per-codec-type scratch value under key (e.g.
// an arithmetic coder's frequency model, keyed by field name).
func (c *Context) SetScratch(key string, v any) {
	c.scratch[key] = v
}
