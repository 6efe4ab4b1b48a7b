// Package value implements the runtime Value representation shared by
// internal/compiler and internal/vm: a small tagged union for the unboxed
// primitives (Nil/Bool/Int/Float) plus a pointer to a heap Object for
// everything else, with manual reference counting instead of relying on
// Go's GC to model SwiftScript's deterministic deinit semantics.
package value

import "fmt"

// Kind discriminates the tag of a Value.
type Kind uint8

const (
	KNil Kind = iota
	KBool
	KInt
	KFloat
	KObject
)

func (k Kind) String() string {
	switch k {
	case KNil:
		return "Nil"
	case KBool:
		return "Bool"
	case KInt:
		return "Int"
	case KFloat:
		return "Float"
	case KObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// Value is passed by value on the VM's operand stack. Obj is nil unless
// Kind == KObject.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Obj   Object
}

var Nil = Value{Kind: KNil}

func Bool(b bool) Value    { return Value{Kind: KBool, Bool: b} }
func Int(i int64) Value    { return Value{Kind: KInt, Int: i} }
func Float(f float64) Value { return Value{Kind: KFloat, Float: f} }

func FromObject(o Object) Value {
	return Value{Kind: KObject, Obj: o}
}

func (v Value) IsNil() bool  { return v.Kind == KNil }
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KNil:
		return false
	case KBool:
		return v.Bool
	default:
		return true
	}
}

// Retain increments the refcount of v's heap object, if any.
func (v Value) Retain() {
	if v.Kind == KObject && v.Obj != nil {
		v.Obj.retain()
	}
}

// Release decrements the refcount of v's heap object and reports whether
// that drove it to zero (the caller is then responsible for finalizing it,
// typically via a deferred release queue rather than recursing in place).
func (v Value) Release() bool {
	if v.Kind == KObject && v.Obj != nil {
		return v.Obj.release()
	}
	return false
}

// Equal implements SwiftScript's == for primitives and structurally for
// heap objects (spec: tuples/enum cases/structs compare by structural
// equality; classes compare by identity).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		if (a.Kind == KInt && b.Kind == KFloat) || (a.Kind == KFloat && b.Kind == KInt) {
			return asFloat(a) == asFloat(b)
		}
		return false
	}
	switch a.Kind {
	case KNil:
		return true
	case KBool:
		return a.Bool == b.Bool
	case KInt:
		return a.Int == b.Int
	case KFloat:
		return a.Float == b.Float
	case KObject:
		if a.Obj == nil || b.Obj == nil {
			return a.Obj == b.Obj
		}
		return a.Obj.Equal(b.Obj)
	}
	return false
}

func asFloat(v Value) float64 {
	if v.Kind == KInt {
		return float64(v.Int)
	}
	return v.Float
}

// String renders a Value the way SwiftScript's `print`/string interpolation
// does (spec §4.1: interpolation stringifies via the same rules as print).
func (v Value) String() string {
	switch v.Kind {
	case KNil:
		return "nil"
	case KBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KInt:
		return fmt.Sprintf("%d", v.Int)
	case KFloat:
		return fmt.Sprintf("%g", v.Float)
	case KObject:
		if v.Obj == nil {
			return "nil"
		}
		return v.Obj.Inspect()
	default:
		return "<invalid>"
	}
}
