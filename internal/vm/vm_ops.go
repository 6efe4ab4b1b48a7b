package vm

import (
	"strings"

	"github.com/29thnight/SwiftScript/internal/value"
)

// arith applies one of the built-in arithmetic rules (Int op Int, Float op
// Float with Int promoted to Float, String + String for "+" alone) or
// falls back to a user-defined operator method on the left operand's type.
func (vm *VM) arith(symbol string, a, b value.Value) (value.Value, error) {
	if a.Kind == value.KInt && b.Kind == value.KInt {
		switch symbol {
		case "+":
			return value.Int(a.Int + b.Int), nil
		case "-":
			return value.Int(a.Int - b.Int), nil
		case "*":
			return value.Int(a.Int * b.Int), nil
		case "/":
			if b.Int == 0 {
				return value.Nil, vm.runtimeErr("division by zero")
			}
			return value.Int(a.Int / b.Int), nil
		case "%":
			if b.Int == 0 {
				return value.Nil, vm.runtimeErr("division by zero")
			}
			return value.Int(a.Int % b.Int), nil
		}
	}
	if isNumeric(a) && isNumeric(b) {
		x, y := asFloat(a), asFloat(b)
		switch symbol {
		case "+":
			return value.Float(x + y), nil
		case "-":
			return value.Float(x - y), nil
		case "*":
			return value.Float(x * y), nil
		case "/":
			return value.Float(x / y), nil
		case "%":
			return value.Nil, vm.runtimeErr("operator %% is not defined for Float operands")
		}
	}
	if symbol == "+" {
		if as, ok := stringOf(a); ok {
			if bs, ok := stringOf(b); ok {
				return value.FromObject(value.NewString(as + bs)), nil
			}
		}
	}
	return vm.operatorOverload(symbol, a, b)
}

func isNumeric(v value.Value) bool { return v.Kind == value.KInt || v.Kind == value.KFloat }

func asFloat(v value.Value) float64 {
	if v.Kind == value.KInt {
		return float64(v.Int)
	}
	return v.Float
}

func stringOf(v value.Value) (string, bool) {
	if v.Kind != value.KObject {
		return "", false
	}
	s, ok := v.Obj.(*value.StringObject)
	if !ok {
		return "", false
	}
	return s.Str, true
}

// operatorOverload looks up a method named after symbol on a's type and
// invokes it with b as the sole argument.
func (vm *VM) operatorOverload(symbol string, a, b value.Value) (value.Value, error) {
	closure, self, ok := vm.lookupOperatorMethod(symbol, a)
	if !ok {
		return value.Nil, vm.runtimeErr("operator %q is not defined for operands of type %s and %s", symbol, typeName(a), typeName(b))
	}
	return vm.callAndReturn(closure, self, []value.Value{b})
}

func (vm *VM) lookupOperatorMethod(symbol string, a value.Value) (*value.ClosureObject, value.Value, bool) {
	if a.Kind != value.KObject || a.Obj == nil {
		return nil, value.Nil, false
	}
	switch o := a.Obj.(type) {
	case *value.InstanceObject:
		if m, _ := o.Class.LookupMethod(symbol); m != nil {
			return m, a, true
		}
	case *value.StructValueObject:
		if m, ok := o.StructType.Methods[symbol]; ok {
			return m, a, true
		}
	case *value.EnumCaseObject:
		if m, ok := o.Enum.Methods[symbol]; ok {
			return m, a, true
		}
	}
	return nil, value.Nil, false
}

func typeName(v value.Value) string {
	if v.Kind != value.KObject || v.Obj == nil {
		return v.Kind.String()
	}
	switch o := v.Obj.(type) {
	case *value.InstanceObject:
		return o.Class.Name
	case *value.StructValueObject:
		return o.StructType.Name
	case *value.EnumCaseObject:
		return o.Enum.Name
	default:
		return v.Obj.Inspect()
	}
}

// bitwise applies the integer-only bitwise/shift operators; these
// have no operator-overload fallback in this VM since only numeric types
// sensibly support them.
func (vm *VM) bitwise(symbol string, a, b value.Value) (value.Value, error) {
	if a.Kind != value.KInt || b.Kind != value.KInt {
		return value.Nil, vm.runtimeErr("operator %q requires Int operands, got %s and %s", symbol, a.Kind, b.Kind)
	}
	switch symbol {
	case "&":
		return value.Int(a.Int & b.Int), nil
	case "|":
		return value.Int(a.Int | b.Int), nil
	case "^":
		return value.Int(a.Int ^ b.Int), nil
	case "<<":
		return value.Int(a.Int << uint(b.Int)), nil
	case ">>":
		return value.Int(a.Int >> uint(b.Int)), nil
	}
	return value.Nil, vm.runtimeErr("unknown bitwise operator %q", symbol)
}

// compare implements <, >, <=, >= for Int/Float (with promotion) and
// falls back to an operator method otherwise.
func (vm *VM) compare(symbol string, a, b value.Value) (value.Value, error) {
	if isNumeric(a) && isNumeric(b) {
		x, y := asFloat(a), asFloat(b)
		var r bool
		switch symbol {
		case "<":
			r = x < y
		case ">":
			r = x > y
		case "<=":
			r = x <= y
		case ">=":
			r = x >= y
		}
		return value.Bool(r), nil
	}
	if as, ok := stringOf(a); ok {
		if bs, ok := stringOf(b); ok {
			var r bool
			switch symbol {
			case "<":
				r = as < bs
			case ">":
				r = as > bs
			case "<=":
				r = as <= bs
			case ">=":
				r = as >= bs
			}
			return value.Bool(r), nil
		}
	}
	return vm.operatorOverload(symbol, a, b)
}

// ---- property access ----

// getProperty implements member-access method dispatch per spec.md §4.6:
// instance field, then method table (walking the class chain), then
// computed-property getter, then static members via the type object
// itself. A nil receiver always yields nil (optional chaining).
func (vm *VM) getProperty(target value.Value, name string) (value.Value, error) {
	if target.Kind != value.KObject || target.Obj == nil {
		return value.Nil, nil
	}
	switch o := target.Obj.(type) {
	case *superRef:
		return vm.getPropertyOnSuper(o, name)

	case *value.InstanceObject:
		if v, ok := o.Fields[name]; ok {
			return v, nil
		}
		if m, _ := o.Class.LookupMethod(name); m != nil {
			return value.FromObject(&value.BoundMethodObject{Receiver: target, Method: m}), nil
		}
		if p := o.Class.LookupProperty(name); p != nil && p.IsComputed {
			return vm.callAndReturn(p.Getter, target, nil)
		}
		return value.Nil, vm.runtimeErr("value of type %q has no member %q", o.Class.Name, name)

	case *value.StructValueObject:
		if v, ok := o.Fields[name]; ok {
			return v, nil
		}
		if m, ok := o.StructType.Methods[name]; ok {
			return value.FromObject(&value.BoundMethodObject{Receiver: target, Method: m}), nil
		}
		if p := o.StructType.LookupProperty(name); p != nil && p.IsComputed {
			return vm.callAndReturn(p.Getter, target, nil)
		}
		return value.Nil, vm.runtimeErr("value of type %q has no member %q", o.StructType.Name, name)

	case *value.EnumCaseObject:
		if name == "rawValue" {
			if desc, ok := o.Enum.CaseDescriptor(o.CaseName); ok && desc.HasRaw {
				return desc.RawValue, nil
			}
		}
		if m, ok := o.Enum.Methods[name]; ok {
			return value.FromObject(&value.BoundMethodObject{Receiver: target, Method: m}), nil
		}
		for _, p := range o.Enum.Properties {
			if p.Name == name && p.IsComputed {
				return vm.callAndReturn(p.Getter, target, nil)
			}
		}
		return value.Nil, vm.runtimeErr("enum %q has no member %q", o.Enum.Name, name)

	case *value.ClassObject:
		if v, ok := o.StaticProps[name]; ok {
			return v, nil
		}
		for cls := o; cls != nil; cls = cls.Super {
			if m, ok := cls.StaticMethods[name]; ok {
				return value.FromObject(&value.BoundMethodObject{Receiver: target, Method: m}), nil
			}
		}
		return value.Nil, vm.runtimeErr("type %q has no static member %q", o.Name, name)

	case *value.EnumTypeObject:
		if desc, ok := o.CaseDescriptor(name); ok {
			if len(desc.ParamNames) == 0 {
				return value.FromObject(&value.EnumCaseObject{Enum: o, CaseName: name}), nil
			}
			return value.FromObject(&enumCaseCtor{Enum: o, CaseName: name}), nil
		}
		return value.Nil, vm.runtimeErr("enum %q has no case %q", o.Name, name)

	case *value.StructTypeObject:
		return value.Nil, vm.runtimeErr("type %q has no static member %q", o.Name, name)

	case *value.TupleObject:
		for i, label := range o.Labels {
			if label == name {
				return o.Elements[i], nil
			}
		}
		return value.Nil, vm.runtimeErr("tuple has no member %q", name)

	default:
		return value.Nil, vm.runtimeErr("value of type %v has no member %q", target.Obj.Type(), name)
	}
}

func (vm *VM) getPropertyOnSuper(ref *superRef, name string) (value.Value, error) {
	for cls := ref.Start; cls != nil; cls = cls.Super {
		if m, ok := cls.Methods[name]; ok {
			return value.FromObject(&value.BoundMethodObject{Receiver: ref.Self, Method: m}), nil
		}
		for _, p := range cls.Properties {
			if p.Name == name && p.IsComputed {
				return vm.callAndReturn(p.Getter, ref.Self, nil)
			}
		}
	}
	if inst, ok := ref.Self.Obj.(*value.InstanceObject); ok {
		if v, ok := inst.Fields[name]; ok {
			return v, nil
		}
	}
	return value.Nil, vm.runtimeErr("no superclass member %q", name)
}

// setProperty implements property assignment, including the willSet/didSet
// observer protocol (spec.md §4.6 "Property observers"): invoke willSet
// with the incoming value, write it, then invoke didSet with the prior
// value, guarded by a per-object per-field reentry flag so an observer
// assigning to its own field doesn't recurse.
func (vm *VM) setProperty(target value.Value, name string, newVal value.Value) error {
	if target.Kind != value.KObject || target.Obj == nil {
		return vm.runtimeErr("cannot set member %q on nil", name)
	}
	switch o := target.Obj.(type) {
	case *value.InstanceObject:
		if p := o.Class.LookupProperty(name); p != nil {
			if p.IsComputed {
				if p.Setter == nil {
					return vm.runtimeErr("property %q has no setter", name)
				}
				_, err := vm.callAndReturn(p.Setter, target, []value.Value{newVal})
				return err
			}
			if (p.WillSet != nil || p.DidSet != nil) && !o.IsObservingField(name) {
				return vm.setObservedField(o, o.Fields, name, newVal, p, target)
			}
		}
		old, existed := o.Fields[name]
		if existed {
			vm.release(old)
		}
		vm.retain(newVal)
		o.Fields[name] = newVal
		return nil

	case *value.StructValueObject:
		if p := o.StructType.LookupProperty(name); p != nil {
			if p.IsComputed {
				if p.Setter == nil {
					return vm.runtimeErr("property %q has no setter", name)
				}
				_, err := vm.callAndReturn(p.Setter, target, []value.Value{newVal})
				return err
			}
			if (p.WillSet != nil || p.DidSet != nil) && !o.IsObservingField(name) {
				return vm.setObservedFieldStruct(o, name, newVal, p, target)
			}
		}
		old, existed := o.Fields[name]
		if existed {
			vm.release(old)
		}
		vm.retain(newVal)
		o.Fields[name] = newVal
		return nil

	default:
		return vm.runtimeErr("value of type %v has no settable member %q", target.Obj.Type(), name)
	}
}

func (vm *VM) setObservedField(o *value.InstanceObject, fields map[string]value.Value, name string, newVal value.Value, p *value.PropertyDescriptor, self value.Value) error {
	o.SetObservingField(name, true)
	defer o.SetObservingField(name, false)
	old := fields[name]
	if p.WillSet != nil {
		if _, err := vm.callAndReturn(p.WillSet, self, []value.Value{newVal}); err != nil {
			return err
		}
	}
	vm.retain(newVal)
	vm.release(old)
	fields[name] = newVal
	if p.DidSet != nil {
		if _, err := vm.callAndReturn(p.DidSet, self, []value.Value{old}); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) setObservedFieldStruct(o *value.StructValueObject, name string, newVal value.Value, p *value.PropertyDescriptor, self value.Value) error {
	o.SetObservingField(name, true)
	defer o.SetObservingField(name, false)
	old := o.Fields[name]
	if p.WillSet != nil {
		if _, err := vm.callAndReturn(p.WillSet, self, []value.Value{newVal}); err != nil {
			return err
		}
	}
	vm.retain(newVal)
	vm.release(old)
	o.Fields[name] = newVal
	if p.DidSet != nil {
		if _, err := vm.callAndReturn(p.DidSet, self, []value.Value{old}); err != nil {
			return err
		}
	}
	return nil
}

// ---- subscripts ----

func (vm *VM) getSubscript(target, index value.Value) (value.Value, error) {
	if target.Kind != value.KObject || target.Obj == nil {
		return value.Nil, vm.runtimeErr("cannot subscript nil")
	}
	switch o := target.Obj.(type) {
	case *value.ArrayObject:
		if index.Kind != value.KInt {
			return value.Nil, vm.runtimeErr("array subscript requires an Int index")
		}
		i := index.Int
		if i < 0 || i >= int64(len(o.Elements)) {
			return value.Nil, vm.runtimeErr("array index %d out of range (count %d)", i, len(o.Elements))
		}
		return o.Elements[i], nil
	case *value.DictObject:
		if v, ok := o.Get(index); ok {
			return v, nil
		}
		return value.Nil, nil
	default:
		return vm.getOperatorSubscript(target, index)
	}
}

func (vm *VM) getOperatorSubscript(target, index value.Value) (value.Value, error) {
	closure, self, ok := vm.lookupOperatorMethod("subscript", target)
	if !ok {
		return value.Nil, vm.runtimeErr("value of type %s is not subscriptable", typeName(target))
	}
	return vm.callAndReturn(closure, self, []value.Value{index})
}

func (vm *VM) setSubscript(target, index, newVal value.Value) error {
	if target.Kind != value.KObject || target.Obj == nil {
		return vm.runtimeErr("cannot subscript nil")
	}
	switch o := target.Obj.(type) {
	case *value.ArrayObject:
		if index.Kind != value.KInt {
			return vm.runtimeErr("array subscript requires an Int index")
		}
		i := index.Int
		if i < 0 || i >= int64(len(o.Elements)) {
			return vm.runtimeErr("array index %d out of range (count %d)", i, len(o.Elements))
		}
		vm.release(o.Elements[i])
		vm.retain(newVal)
		o.Elements[i] = newVal
		return nil
	case *value.DictObject:
		if old, ok := o.Get(index); ok {
			vm.release(old)
		}
		vm.retain(newVal)
		o.Set(index, newVal)
		return nil
	default:
		return vm.runtimeErr("value of type %s is not subscript-assignable", typeName(target))
	}
}

// ---- type operators ----

func (vm *VM) typeCheck(v value.Value, typeName string) bool {
	return matchesType(v, typeName)
}

func matchesType(v value.Value, typeName string) bool {
	switch typeName {
	case "Int":
		return v.Kind == value.KInt
	case "Float":
		return v.Kind == value.KFloat
	case "Bool":
		return v.Kind == value.KBool
	case "String":
		_, ok := stringOf(v)
		return ok
	case "Nil", "Void":
		return v.Kind == value.KNil
	}
	if v.Kind != value.KObject || v.Obj == nil {
		return false
	}
	switch o := v.Obj.(type) {
	case *value.ArrayObject:
		return typeName == "Array" || strings.HasPrefix(typeName, "[")
	case *value.DictObject:
		return typeName == "Dictionary" || typeName == "Dict"
	case *value.InstanceObject:
		for cls := o.Class; cls != nil; cls = cls.Super {
			if cls.Name == typeName {
				return true
			}
			for _, p := range cls.Protocols {
				if p == typeName {
					return true
				}
			}
		}
		return false
	case *value.StructValueObject:
		if o.StructType.Name == typeName {
			return true
		}
		for _, p := range o.StructType.Protocols {
			if p == typeName {
				return true
			}
		}
		return false
	case *value.EnumCaseObject:
		return o.Enum.Name == typeName
	}
	return false
}
