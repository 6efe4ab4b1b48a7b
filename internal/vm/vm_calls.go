package vm

import (
	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/value"
)

// pushFrame binds orderedArgs (already reordered/defaulted to match the
// closure's declared parameters, with self prepended when needed) as the
// new frame's locals and begins executing it. The caller is responsible for
// having already popped the callee and raw arguments off the stack.
func (vm *VM) pushFrame(closure *value.ClosureObject, orderedArgs []value.Value) error {
	if err := vm.ensureFrameRoom(); err != nil {
		return err
	}
	proto, _ := closure.Proto.(*bytecode.FunctionPrototype)
	base := len(vm.stack)
	for _, a := range orderedArgs {
		vm.push(a)
	}
	vm.frames = append(vm.frames, CallFrame{closure: closure, chunk: proto.Chunk, ip: 0, base: base})
	vm.frameCount++
	return nil
}

// pushCtorFrame is pushFrame plus a marker telling OP_RETURN to discard
// whatever the initializer body returns and push result instead, so `self`
// (not init's usually-void return) becomes the construction expression's
// value.
func (vm *VM) pushCtorFrame(closure *value.ClosureObject, orderedArgs []value.Value, result value.Value) error {
	if err := vm.pushFrame(closure, orderedArgs); err != nil {
		return err
	}
	f := vm.currentFrame()
	f.isCtor = true
	f.ctorResult = result
	return nil
}

// callSync runs closure to completion from outside the main dispatch loop
// (property observers, deinit, operator-overload fallback) and returns its
// result without disturbing the caller's place in the outer loop.
func (vm *VM) callSync(closure *value.ClosureObject, orderedArgs []value.Value) (value.Value, error) {
	target := vm.frameCount
	if err := vm.pushFrame(closure, orderedArgs); err != nil {
		return value.Nil, err
	}
	return vm.run(target)
}

func (vm *VM) callAndReturn(closure *value.ClosureObject, self value.Value, args []value.Value) (value.Value, error) {
	ordered := append([]value.Value{self}, args...)
	return vm.callSync(closure, ordered)
}

// evalChunk runs a standalone chunk (a compiled default-parameter
// expression) to completion and returns its single OP_RETURN value.
func (vm *VM) evalChunk(chunk *bytecode.Chunk) (value.Value, error) {
	target := vm.frameCount
	if err := vm.ensureFrameRoom(); err != nil {
		return value.Nil, err
	}
	base := len(vm.stack)
	vm.frames = append(vm.frames, CallFrame{closure: nil, chunk: chunk, ip: 0, base: base})
	vm.frameCount++
	return vm.run(target)
}

// orderArgs reorders rawArgs (parallel to labels, "" for a positional slot;
// labels itself nil means a wholly positional call) into proto's declared
// parameter order, filling omitted optional parameters from ParamDefaults
// and collecting trailing positional args into the last parameter when it
// is variadic (spec.md §4.6 "Call protocol").
func (vm *VM) orderArgs(proto *bytecode.FunctionPrototype, rawArgs []value.Value, labels []string) ([]value.Value, error) {
	n := len(proto.Params)
	final := make([]value.Value, n)
	matched := make([]bool, n)
	var variadic []value.Value

	assignPositional := func(v value.Value, nextFrom *int) error {
		for *nextFrom < n && matched[*nextFrom] {
			*nextFrom++
		}
		if proto.HasVariadic && *nextFrom == n-1 {
			variadic = append(variadic, v)
			return nil
		}
		if *nextFrom >= n {
			return vm.runtimeErr("too many arguments to %q", proto.Name)
		}
		final[*nextFrom] = v
		matched[*nextFrom] = true
		*nextFrom++
		return nil
	}

	nextPositional := 0
	for i, a := range rawArgs {
		var lbl string
		if labels != nil {
			lbl = labels[i]
		}
		if lbl == "" {
			if err := assignPositional(a, &nextPositional); err != nil {
				return nil, err
			}
			continue
		}
		idx := -1
		for pi, pl := range proto.ParamLabels {
			if pl == lbl {
				idx = pi
				break
			}
		}
		if idx == -1 {
			return nil, vm.runtimeErr("unknown argument label %q in call to %q", lbl, proto.Name)
		}
		final[idx] = a
		matched[idx] = true
	}

	for i := 0; i < n; i++ {
		if matched[i] {
			continue
		}
		if proto.HasVariadic && i == n-1 {
			continue
		}
		if i < len(proto.ParamDefaults) && proto.ParamDefaults[i].HasDefault {
			v, err := vm.evalDefault(proto.ParamDefaults[i])
			if err != nil {
				return nil, err
			}
			final[i] = v
			continue
		}
		return nil, vm.runtimeErr("missing argument for parameter %q in call to %q", proto.Params[i], proto.Name)
	}
	if proto.HasVariadic {
		final[n-1] = value.FromObject(&value.ArrayObject{Elements: variadic})
	}
	return final, nil
}

func (vm *VM) evalDefault(pd bytecode.ParamDefault) (value.Value, error) {
	if pd.Expr == nil {
		return pd.Value, nil
	}
	return vm.evalChunk(pd.Expr)
}

// doCall dispatches CALL/CALL_NAMED once the callee and its raw arguments
// (and, for CALL_NAMED, parallel labels) have been popped off the stack.
// It either pushes a new frame (continuing the main loop) or, for
// immediately-producible results (native functions, no-argument
// constructors, enum case constructors), pushes the result itself.
func (vm *VM) doCall(callee value.Value, rawArgs []value.Value, labels []string) error {
	if callee.Kind != value.KObject || callee.Obj == nil {
		return vm.runtimeErr("value of type %s is not callable", callee.Kind)
	}

	switch fn := callee.Obj.(type) {
	case *value.ClosureObject:
		proto := fn.Proto.(*bytecode.FunctionPrototype)
		ordered, err := vm.orderArgs(proto, rawArgs, labels)
		if err != nil {
			return err
		}
		return vm.pushFrame(fn, ordered)

	case *value.BoundMethodObject:
		proto := fn.Method.Proto.(*bytecode.FunctionPrototype)
		ordered, err := vm.orderArgs(proto, rawArgs, labels)
		if err != nil {
			return err
		}
		return vm.pushFrame(fn.Method, append([]value.Value{fn.Receiver}, ordered...))

	case *value.NativeFunctionObject:
		result, err := fn.Fn(rawArgs)
		if err != nil {
			return err
		}
		vm.push(result)
		return nil

	case *enumCaseCtor:
		desc, ok := fn.Enum.CaseDescriptor(fn.CaseName)
		if !ok {
			return vm.runtimeErr("unknown case %q on enum %q", fn.CaseName, fn.Enum.Name)
		}
		ordered, err := vm.orderEnumArgs(desc.ParamNames, rawArgs, labels)
		if err != nil {
			return err
		}
		vm.push(value.FromObject(&value.EnumCaseObject{Enum: fn.Enum, CaseName: fn.CaseName, Associated: ordered}))
		return nil

	case *value.ClassObject:
		return vm.construct(fn, nil, rawArgs, labels)

	case *value.StructTypeObject:
		return vm.constructStruct(fn, rawArgs, labels)

	default:
		return vm.runtimeErr("value of type %v is not callable", callee.Obj.Type())
	}
}

// orderEnumArgs mirrors orderArgs for an enum case's associated-value list,
// which has names but no defaults or variadic slot.
func (vm *VM) orderEnumArgs(paramNames []string, rawArgs []value.Value, labels []string) ([]value.Value, error) {
	n := len(paramNames)
	final := make([]value.Value, n)
	matched := make([]bool, n)
	nextPositional := 0
	for i, a := range rawArgs {
		var lbl string
		if labels != nil {
			lbl = labels[i]
		}
		if lbl == "" {
			for nextPositional < n && matched[nextPositional] {
				nextPositional++
			}
			if nextPositional >= n {
				return nil, vm.runtimeErr("too many associated values")
			}
			final[nextPositional] = a
			matched[nextPositional] = true
			nextPositional++
			continue
		}
		idx := -1
		for pi, pn := range paramNames {
			if pn == lbl {
				idx = pi
				break
			}
		}
		if idx == -1 {
			return nil, vm.runtimeErr("unknown associated value label %q", lbl)
		}
		final[idx] = a
		matched[idx] = true
	}
	return final, nil
}

// collectProperties walks a class's superclass chain base-first so a
// subclass's own property entries (same name) override an ancestor's.
func collectProperties(cls *value.ClassObject) []*value.PropertyDescriptor {
	var chain []*value.ClassObject
	for c := cls; c != nil; c = c.Super {
		chain = append(chain, c)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	seen := map[string]int{}
	var result []*value.PropertyDescriptor
	for _, c := range chain {
		for _, p := range c.Properties {
			if idx, ok := seen[p.Name]; ok {
				result[idx] = p
			} else {
				seen[p.Name] = len(result)
				result = append(result, p)
			}
		}
	}
	return result
}

func (vm *VM) defaultFieldsFor(props []*value.PropertyDescriptor) (map[string]value.Value, []string) {
	fields := make(map[string]value.Value, len(props))
	order := make([]string, 0, len(props))
	for _, p := range props {
		if p.IsComputed {
			continue
		}
		v := value.Nil
		if p.HasDefault {
			v = value.CopyValue(p.Default)
		}
		vm.retain(v)
		fields[p.Name] = v
		order = append(order, p.Name)
	}
	return fields, order
}

// construct builds a new class instance and, if the class declares an
// "init" method, pushes a frame to run it with self bound; an undeclared
// initializer falls back to accepting zero arguments and leaving stored
// properties at their declared defaults (spec.md §4.4 "Initialization").
func (vm *VM) construct(cls *value.ClassObject, _ *value.ClassObject, rawArgs []value.Value, labels []string) error {
	fields, order := vm.defaultFieldsFor(collectProperties(cls))
	inst := &value.InstanceObject{Class: cls, Fields: fields, FieldOrder: order}
	result := value.FromObject(inst)

	initMethod, _ := cls.LookupMethod("init")
	if initMethod == nil {
		if len(rawArgs) != 0 {
			return vm.runtimeErr("class %q has no declared initializer accepting arguments", cls.Name)
		}
		vm.push(result)
		return nil
	}
	proto := initMethod.Proto.(*bytecode.FunctionPrototype)
	ordered, err := vm.orderArgs(proto, rawArgs, labels)
	if err != nil {
		return err
	}
	return vm.pushCtorFrame(initMethod, append([]value.Value{result}, ordered...), result)
}

func (vm *VM) constructStruct(st *value.StructTypeObject, rawArgs []value.Value, labels []string) error {
	fields, order := vm.defaultFieldsFor(st.Properties)
	sv := &value.StructValueObject{StructType: st, Fields: fields, FieldOrder: order}
	result := value.FromObject(sv)

	initMethod, ok := st.Methods["init"]
	if !ok {
		if len(rawArgs) == 0 {
			vm.push(result)
			return nil
		}
		if err := vm.applyMemberwiseInit(sv, order, rawArgs, labels); err != nil {
			return err
		}
		vm.push(result)
		return nil
	}
	proto := initMethod.Proto.(*bytecode.FunctionPrototype)
	ordered, err := vm.orderArgs(proto, rawArgs, labels)
	if err != nil {
		return err
	}
	return vm.pushCtorFrame(initMethod, append([]value.Value{result}, ordered...), result)
}

// applyMemberwiseInit assigns rawArgs into sv's stored properties in
// declaration order (or by label, matching a property name), synthesizing
// the memberwise initializer a struct gets for free when it declares no
// "init" of its own (spec.md §8 scenario 3's `P(10, 20)` with no declared
// initializer).
func (vm *VM) applyMemberwiseInit(sv *value.StructValueObject, order []string, rawArgs []value.Value, labels []string) error {
	if len(rawArgs) != len(order) {
		return vm.runtimeErr("struct %q's memberwise initializer expects %d argument(s), got %d", sv.StructType.Name, len(order), len(rawArgs))
	}
	for i, a := range rawArgs {
		name := order[i]
		if labels != nil && labels[i] != "" {
			name = labels[i]
			if _, ok := sv.Fields[name]; !ok {
				return vm.runtimeErr("struct %q has no property %q", sv.StructType.Name, name)
			}
		}
		vm.release(sv.Fields[name])
		vm.retain(a)
		sv.Fields[name] = a
	}
	return nil
}
