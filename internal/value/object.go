package value

import (
	"strings"
	"sync/atomic"
)

// ObjKind discriminates the concrete heap object behind a KObject Value.
type ObjKind uint8

const (
	OString ObjKind = iota
	OArray
	ODict
	OTuple
	ORange
	OClosure
	ONativeFunction
	OClass
	OStruct
	OInstance
	OStructValue
	OEnum
	OEnumCase
	OProtocol
	OBoundMethod
)

// Object is any heap-allocated SwiftScript value. Concrete types embed
// RefCounted to get retain/release bookkeeping; the VM drains objects whose
// count reaches zero through a deferred release queue rather than freeing
// inline, so a long chain of nested releases cannot blow the Go call stack.
type Object interface {
	Type() ObjKind
	Inspect() string
	Equal(other Object) bool

	retain()
	release() bool
}

// RefCounted is embedded by every concrete Object implementation.
type RefCounted struct {
	count int32
}

func (r *RefCounted) retain() { atomic.AddInt32(&r.count, 1) }

// release decrements the count and reports whether it reached zero.
func (r *RefCounted) release() bool {
	return atomic.AddInt32(&r.count, -1) == 0
}

func (r *RefCounted) RefCount() int32 { return atomic.LoadInt32(&r.count) }

// ---- Strings ----

type StringObject struct {
	RefCounted
	Str string
}

func NewString(s string) *StringObject { return &StringObject{Str: s} }

func (*StringObject) Type() ObjKind     { return OString }
func (s *StringObject) Inspect() string { return s.Str }
func (s *StringObject) Equal(o Object) bool {
	other, ok := o.(*StringObject)
	return ok && other.Str == s.Str
}

// ---- Arrays ----

type ArrayObject struct {
	RefCounted
	Elements []Value
}

func (*ArrayObject) Type() ObjKind { return OArray }
func (a *ArrayObject) Inspect() string {
	parts := make([]string, len(a.Elements))
	for i, v := range a.Elements {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (a *ArrayObject) Equal(o Object) bool {
	other, ok := o.(*ArrayObject)
	if !ok || len(other.Elements) != len(a.Elements) {
		return false
	}
	for i := range a.Elements {
		if !Equal(a.Elements[i], other.Elements[i]) {
			return false
		}
	}
	return true
}

// ---- Dictionaries ----
//
// Keys/Vals are parallel slices rather than a Go map so arbitrary Value keys
// (including tuples and enum cases) work without a custom Hashable scheme;
// lookup is linear, which is adequate for a scripting VM's dictionary sizes.
type DictObject struct {
	RefCounted
	Keys []Value
	Vals []Value
}

func (*DictObject) Type() ObjKind { return ODict }
func (d *DictObject) Inspect() string {
	parts := make([]string, len(d.Keys))
	for i := range d.Keys {
		parts[i] = d.Keys[i].String() + ": " + d.Vals[i].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (d *DictObject) Equal(o Object) bool {
	other, ok := o.(*DictObject)
	if !ok || len(other.Keys) != len(d.Keys) {
		return false
	}
	for i := range d.Keys {
		idx := other.IndexOf(d.Keys[i])
		if idx < 0 || !Equal(d.Vals[i], other.Vals[idx]) {
			return false
		}
	}
	return true
}

func (d *DictObject) IndexOf(key Value) int {
	for i, k := range d.Keys {
		if Equal(k, key) {
			return i
		}
	}
	return -1
}

func (d *DictObject) Get(key Value) (Value, bool) {
	if idx := d.IndexOf(key); idx >= 0 {
		return d.Vals[idx], true
	}
	return Nil, false
}

func (d *DictObject) Set(key, val Value) {
	if idx := d.IndexOf(key); idx >= 0 {
		d.Vals[idx] = val
		return
	}
	d.Keys = append(d.Keys, key)
	d.Vals = append(d.Vals, val)
}

// ---- Tuples ----

type TupleObject struct {
	RefCounted
	Elements []Value
	Labels   []string // parallel; "" when unlabeled
}

func (*TupleObject) Type() ObjKind { return OTuple }
func (t *TupleObject) Inspect() string {
	parts := make([]string, len(t.Elements))
	for i, v := range t.Elements {
		if i < len(t.Labels) && t.Labels[i] != "" {
			parts[i] = t.Labels[i] + ": " + v.String()
		} else {
			parts[i] = v.String()
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *TupleObject) Equal(o Object) bool {
	other, ok := o.(*TupleObject)
	if !ok || len(other.Elements) != len(t.Elements) {
		return false
	}
	for i := range t.Elements {
		if !Equal(t.Elements[i], other.Elements[i]) {
			return false
		}
	}
	return true
}

// ---- Ranges ----

type RangeObject struct {
	RefCounted
	Low, High int64
	Inclusive bool
}

func (*RangeObject) Type() ObjKind { return ORange }
func (r *RangeObject) Inspect() string {
	if r.Inclusive {
		return itoa(r.Low) + "..." + itoa(r.High)
	}
	return itoa(r.Low) + "..<" + itoa(r.High)
}
func (r *RangeObject) Equal(o Object) bool {
	other, ok := o.(*RangeObject)
	return ok && other.Low == r.Low && other.High == r.High && other.Inclusive == r.Inclusive
}

func itoa(i int64) string {
	v := Int(i)
	return v.String()
}

// ---- Closures ----

// ClosureObject wraps a compiled function prototype (opaque here to avoid
// an import cycle with internal/bytecode, which itself stores Value
// constants) together with the Upvalues it captured at creation time.
type ClosureObject struct {
	RefCounted
	Name     string
	Proto    any // *bytecode.FunctionPrototype
	Upvalues []*Upvalue
}

func (*ClosureObject) Type() ObjKind     { return OClosure }
func (c *ClosureObject) Inspect() string { return "<func " + c.Name + ">" }
func (c *ClosureObject) Equal(o Object) bool {
	other, ok := o.(*ClosureObject)
	return ok && other == c
}

// NativeFunctionObject wraps a host function registered via pkg/script's
// embedding surface.
type NativeFunctionObject struct {
	RefCounted
	Name string
	Fn   func(args []Value) (Value, error)
}

func (*NativeFunctionObject) Type() ObjKind     { return ONativeFunction }
func (n *NativeFunctionObject) Inspect() string { return "<native " + n.Name + ">" }
func (n *NativeFunctionObject) Equal(o Object) bool {
	other, ok := o.(*NativeFunctionObject)
	return ok && other == n
}

// ---- Bound methods ----

type BoundMethodObject struct {
	RefCounted
	Receiver Value
	Method   *ClosureObject
}

func (*BoundMethodObject) Type() ObjKind     { return OBoundMethod }
func (b *BoundMethodObject) Inspect() string { return "<bound " + b.Method.Name + ">" }
func (b *BoundMethodObject) Equal(o Object) bool {
	other, ok := o.(*BoundMethodObject)
	return ok && other == b
}

// ---- Property descriptors shared by classes, structs and extensions ----

type PropertyDescriptor struct {
	Name          string
	IsComputed    bool
	Getter        *ClosureObject
	Setter        *ClosureObject
	SetterParam   string
	WillSet       *ClosureObject
	DidSet        *ClosureObject
	ObserverParam string
	IsLazy        bool
	IsStatic      bool
	IsWeak        bool
	IsUnowned     bool
	Access        string
	Default       Value
	HasDefault    bool
}

// ---- Classes (reference semantics) ----

type ClassObject struct {
	Name          string
	Super         *ClassObject
	Protocols     []string
	Properties    []*PropertyDescriptor
	Methods       map[string]*ClosureObject
	StaticMethods map[string]*ClosureObject
	StaticProps   map[string]Value
	Initializers  []*ClosureObject
}

func (*ClassObject) Type() ObjKind     { return OClass }
func (c *ClassObject) Inspect() string { return "<class " + c.Name + ">" }
func (c *ClassObject) Equal(o Object) bool {
	other, ok := o.(*ClassObject)
	return ok && other == c
}
func (c *ClassObject) retain()       {}
func (c *ClassObject) release() bool { return false }

// LookupMethod walks the superclass chain (spec: override discipline —
// a subclass's own entry always wins).
func (c *ClassObject) LookupMethod(name string) (*ClosureObject, *ClassObject) {
	for cls := c; cls != nil; cls = cls.Super {
		if m, ok := cls.Methods[name]; ok {
			return m, cls
		}
	}
	return nil, nil
}

func (c *ClassObject) LookupProperty(name string) *PropertyDescriptor {
	for cls := c; cls != nil; cls = cls.Super {
		for _, p := range cls.Properties {
			if p.Name == name {
				return p
			}
		}
	}
	return nil
}

// InstanceObject is a class instance: reference semantics, retained/released
// like any other heap object, and never copied by OP_COPY_VALUE.
type InstanceObject struct {
	RefCounted
	Class      *ClassObject
	Fields     map[string]Value
	FieldOrder []string
	// settingObserver guards against willSet/didSet re-entering on the same
	// field while the observer body itself assigns to it.
	settingObserver map[string]bool
}

func (*InstanceObject) Type() ObjKind     { return OInstance }
func (i *InstanceObject) Inspect() string { return "<" + i.Class.Name + " instance>" }
func (i *InstanceObject) Equal(o Object) bool {
	other, ok := o.(*InstanceObject)
	return ok && other == i // class instances compare by identity
}

func (i *InstanceObject) IsObservingField(name string) bool {
	return i.settingObserver != nil && i.settingObserver[name]
}

func (i *InstanceObject) SetObservingField(name string, v bool) {
	if i.settingObserver == nil {
		i.settingObserver = make(map[string]bool)
	}
	i.settingObserver[name] = v
}

// ---- Structs (value semantics) ----

type StructTypeObject struct {
	Name       string
	Protocols  []string
	Properties []*PropertyDescriptor
	Methods    map[string]*ClosureObject
	Initializers []*ClosureObject
}

func (*StructTypeObject) Type() ObjKind     { return OStruct }
func (s *StructTypeObject) Inspect() string { return "<struct " + s.Name + ">" }
func (s *StructTypeObject) Equal(o Object) bool {
	other, ok := o.(*StructTypeObject)
	return ok && other == s
}
func (s *StructTypeObject) retain()       {}
func (s *StructTypeObject) release() bool { return false }

func (s *StructTypeObject) LookupProperty(name string) *PropertyDescriptor {
	for _, p := range s.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// StructValueObject is a struct instance. It participates in refcounting
// like any Object so it can live on the heap (e.g. boxed inside an Array),
// but OP_COPY_VALUE deep-copies it on assignment/pass, giving it Swift's
// value semantics rather than InstanceObject's reference semantics.
type StructValueObject struct {
	RefCounted
	StructType      *StructTypeObject
	Fields          map[string]Value
	FieldOrder      []string
	settingObserver map[string]bool
}

func (*StructValueObject) Type() ObjKind     { return OStructValue }
func (s *StructValueObject) Inspect() string { return "<" + s.StructType.Name + " value>" }
func (s *StructValueObject) Equal(o Object) bool {
	other, ok := o.(*StructValueObject)
	if !ok || other.StructType != s.StructType {
		return false
	}
	for _, name := range s.FieldOrder {
		if !Equal(s.Fields[name], other.Fields[name]) {
			return false
		}
	}
	return true
}

func (s *StructValueObject) IsObservingField(name string) bool {
	return s.settingObserver != nil && s.settingObserver[name]
}

func (s *StructValueObject) SetObservingField(name string, v bool) {
	if s.settingObserver == nil {
		s.settingObserver = make(map[string]bool)
	}
	s.settingObserver[name] = v
}

// ---- Enums ----

type EnumCaseDescriptor struct {
	Name       string
	ParamNames []string // "" entries for unlabeled associated values
	HasRaw     bool
	RawValue   Value
}

type EnumTypeObject struct {
	Name       string
	RawType    string // "" if no raw-value backing
	Cases      []EnumCaseDescriptor
	Methods    map[string]*ClosureObject
	Properties []*PropertyDescriptor
}

func (*EnumTypeObject) Type() ObjKind     { return OEnum }
func (e *EnumTypeObject) Inspect() string { return "<enum " + e.Name + ">" }
func (e *EnumTypeObject) Equal(o Object) bool {
	other, ok := o.(*EnumTypeObject)
	return ok && other == e
}
func (e *EnumTypeObject) retain()       {}
func (e *EnumTypeObject) release() bool { return false }

func (e *EnumTypeObject) CaseDescriptor(name string) (EnumCaseDescriptor, bool) {
	for _, c := range e.Cases {
		if c.Name == name {
			return c, true
		}
	}
	return EnumCaseDescriptor{}, false
}

// EnumCaseObject is an instantiated enum value — a case name plus any
// associated values bound at construction (spec: structural equality by
// case name and associated values).
type EnumCaseObject struct {
	RefCounted
	Enum       *EnumTypeObject
	CaseName   string
	Associated []Value
}

func (*EnumCaseObject) Type() ObjKind     { return OEnumCase }
func (e *EnumCaseObject) Inspect() string { return "." + e.CaseName }
func (e *EnumCaseObject) Equal(o Object) bool {
	other, ok := o.(*EnumCaseObject)
	if !ok || other.Enum != e.Enum || other.CaseName != e.CaseName || len(other.Associated) != len(e.Associated) {
		return false
	}
	for i := range e.Associated {
		if !Equal(e.Associated[i], other.Associated[i]) {
			return false
		}
	}
	return true
}

// ---- Protocols ----

type ProtocolMethodReq struct {
	Name       string
	ParamNames []string
	IsMutating bool
}

type ProtocolPropertyReq struct {
	Name      string
	HasGetter bool
	HasSetter bool
}

type ProtocolObject struct {
	Name                 string
	InheritedProtocols   []string
	MethodRequirements   []ProtocolMethodReq
	PropertyRequirements []ProtocolPropertyReq
}

func (*ProtocolObject) Type() ObjKind     { return OProtocol }
func (p *ProtocolObject) Inspect() string { return "<protocol " + p.Name + ">" }
func (p *ProtocolObject) Equal(o Object) bool {
	other, ok := o.(*ProtocolObject)
	return ok && other == p
}
func (p *ProtocolObject) retain()       {}
func (p *ProtocolObject) release() bool { return false }

// CopyValue implements OP_COPY_VALUE: structs, tuples, arrays and
// dictionaries copy by value recursively; classes, closures and every other
// heap object keep reference semantics and are returned unchanged.
func CopyValue(v Value) Value {
	if v.Kind != KObject || v.Obj == nil {
		return v
	}
	switch o := v.Obj.(type) {
	case *StructValueObject:
		fields := make(map[string]Value, len(o.Fields))
		for k, fv := range o.Fields {
			fields[k] = CopyValue(fv)
		}
		return FromObject(&StructValueObject{StructType: o.StructType, Fields: fields, FieldOrder: append([]string(nil), o.FieldOrder...)})
	case *TupleObject:
		elems := make([]Value, len(o.Elements))
		for i, e := range o.Elements {
			elems[i] = CopyValue(e)
		}
		return FromObject(&TupleObject{Elements: elems, Labels: append([]string(nil), o.Labels...)})
	case *ArrayObject:
		elems := make([]Value, len(o.Elements))
		for i, e := range o.Elements {
			elems[i] = CopyValue(e)
		}
		return FromObject(&ArrayObject{Elements: elems})
	case *DictObject:
		keys := append([]Value(nil), o.Keys...)
		vals := make([]Value, len(o.Vals))
		for i, dv := range o.Vals {
			vals[i] = CopyValue(dv)
		}
		return FromObject(&DictObject{Keys: keys, Vals: vals})
	default:
		return v
	}
}
