package vm

import (
	"fmt"

	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/sserr"
	"github.com/29thnight/SwiftScript/internal/value"
)

// run is the single dispatch loop shared by the top-level Run entry and
// every VM-internal synchronous call (callSync/evalChunk). It executes
// until the frame at depth targetDepth returns, then yields that frame's
// result to its caller without disturbing any frame below it.
//
// Ordinary script-to-script calls (OP_CALL/OP_CALL_NAMED) just push a new
// frame and continue this same loop; there is no native Go recursion for
// them. Only callSync/evalChunk re-enter run with a deeper targetDepth to
// get a synchronous nested call from outside the loop (property observers,
// deinit, operator-overload dispatch, default-parameter evaluation).
func (vm *VM) run(targetDepth int) (value.Value, error) {
	var lastValue value.Value

	for {
		frame := vm.currentFrame()
		vm.pumpDebugger(frame.chunk, frame.ip)

		code := frame.chunk.Code
		if frame.ip >= len(code) {
			return lastValue, nil
		}
		op := bytecode.OpCode(code[frame.ip])
		frame.ip++

		switch op {
		case bytecode.OpConstant:
			idx := vm.readShort(frame)
			vm.push(frame.chunk.Constants[idx])

		case bytecode.OpString:
			idx := vm.readShort(frame)
			vm.push(value.FromObject(value.NewString(frame.chunk.Strings[idx])))

		case bytecode.OpNil:
			vm.push(value.Nil)
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))
		case bytecode.OpPop:
			vm.pop()
		case bytecode.OpDup:
			vm.push(vm.peek(0))

		case bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide, bytecode.OpModulo:
			b := vm.pop()
			a := vm.pop()
			r, err := vm.arith(arithSymbol(op), a, b)
			if err != nil {
				return value.Nil, err
			}
			vm.push(r)

		case bytecode.OpNegate:
			a := vm.pop()
			switch a.Kind {
			case value.KInt:
				vm.push(value.Int(-a.Int))
			case value.KFloat:
				vm.push(value.Float(-a.Float))
			default:
				return value.Nil, vm.runtimeErr("cannot negate a value of type %s", a.Kind)
			}

		case bytecode.OpBitwiseNot:
			a := vm.pop()
			if a.Kind != value.KInt {
				return value.Nil, vm.runtimeErr("operator ~ requires an Int operand")
			}
			vm.push(value.Int(^a.Int))

		case bytecode.OpBitwiseAnd, bytecode.OpBitwiseOr, bytecode.OpBitwiseXor, bytecode.OpLeftShift, bytecode.OpRightShift:
			b := vm.pop()
			a := vm.pop()
			r, err := vm.bitwise(bitwiseSymbol(op), a, b)
			if err != nil {
				return value.Nil, err
			}
			vm.push(r)

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpNotEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(!value.Equal(a, b)))

		case bytecode.OpLess, bytecode.OpGreater, bytecode.OpLessEqual, bytecode.OpGreaterEqual:
			b := vm.pop()
			a := vm.pop()
			r, err := vm.compare(compareSymbol(op), a, b)
			if err != nil {
				return value.Nil, err
			}
			vm.push(r)

		case bytecode.OpNot:
			a := vm.pop()
			vm.push(value.Bool(!a.IsTruthy()))

		case bytecode.OpGetGlobal:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			v, ok := vm.globals[name]
			if !ok {
				return value.Nil, vm.runtimeErr("undefined global %q", name)
			}
			vm.push(v)

		case bytecode.OpSetGlobal:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			if _, ok := vm.globals[name]; !ok {
				return value.Nil, vm.runtimeErr("undefined global %q", name)
			}
			v := vm.peek(0)
			vm.retain(v)
			vm.release(vm.globals[name])
			vm.globals[name] = v

		case bytecode.OpDefineGlobal:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			v := vm.pop()
			vm.retain(v)
			vm.globals[name] = v

		case bytecode.OpGetLocal:
			slot := int(vm.readShort(frame))
			vm.push(vm.stack[frame.base+slot])

		case bytecode.OpSetLocal:
			slot := int(vm.readShort(frame))
			v := vm.peek(0)
			vm.retain(v)
			vm.release(vm.stack[frame.base+slot])
			vm.stack[frame.base+slot] = v

		case bytecode.OpJump:
			offset := int(frame.chunk.ReadShort(frame.ip))
			frame.ip += 2 + offset

		case bytecode.OpJumpIfFalse:
			offset := int(frame.chunk.ReadShort(frame.ip))
			frame.ip += 2
			if !vm.peek(0).IsTruthy() {
				frame.ip += offset
			}

		case bytecode.OpJumpIfNil:
			offset := int(frame.chunk.ReadShort(frame.ip))
			frame.ip += 2
			if vm.peek(0).IsNil() {
				frame.ip += offset
			}

		case bytecode.OpLoop:
			offset := int(frame.chunk.ReadShort(frame.ip))
			frame.ip += 2 - offset

		case bytecode.OpClosure:
			idx := vm.readShort(frame)
			proto := frame.chunk.Functions[idx]
			closure := &value.ClosureObject{Name: proto.Name, Proto: proto}
			for range proto.Upvalues {
				isLocal := code[frame.ip] == 1
				index := int(frame.chunk.ReadShort(frame.ip + 1))
				frame.ip += 3
				if isLocal {
					closure.Upvalues = append(closure.Upvalues, vm.captureUpvalue(frame.base+index))
				} else {
					closure.Upvalues = append(closure.Upvalues, frame.closure.Upvalues[index])
				}
			}
			vm.push(value.FromObject(closure))

		case bytecode.OpGetUpvalue:
			idx := vm.readShort(frame)
			vm.push(*frame.closure.Upvalues[idx].Location)

		case bytecode.OpSetUpvalue:
			idx := vm.readShort(frame)
			v := vm.peek(0)
			uv := frame.closure.Upvalues[idx]
			vm.retain(v)
			vm.release(*uv.Location)
			*uv.Location = v

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case bytecode.OpCall:
			argc := int(vm.readShort(frame))
			args := vm.popN(argc)
			callee := vm.pop()
			if err := vm.doCall(callee, args, nil); err != nil {
				return value.Nil, err
			}

		case bytecode.OpCallNamed:
			argc := int(code[frame.ip])
			frame.ip++
			labels := make([]string, argc)
			for i := 0; i < argc; i++ {
				idx := frame.chunk.ReadShort(frame.ip)
				frame.ip += 2
				labels[i] = frame.chunk.Strings[idx]
			}
			args := vm.popN(argc)
			callee := vm.pop()
			if err := vm.doCall(callee, args, labels); err != nil {
				return value.Nil, err
			}

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.stack = vm.stack[:frame.base]
			isCtor, ctorResult := frame.isCtor, frame.ctorResult
			vm.frames = vm.frames[:vm.frameCount-1]
			vm.frameCount--
			if isCtor {
				result = ctorResult
			}
			if vm.frameCount == targetDepth {
				return result, nil
			}
			vm.push(result)
			lastValue = result

		case bytecode.OpGetProperty:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			target := vm.pop()
			v, err := vm.getProperty(target, name)
			if err != nil {
				return value.Nil, err
			}
			vm.push(v)

		case bytecode.OpSetProperty:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			v := vm.pop()
			target := vm.pop()
			if err := vm.setProperty(target, name, v); err != nil {
				return value.Nil, err
			}
			vm.push(v)

		case bytecode.OpSuper:
			// self is always bound at local slot 0 for methods (compiler's
			// compileFunctionPrototype), so OP_SUPER reads it directly rather
			// than popping an operand — `super` carries no expression of its
			// own to evaluate.
			self := vm.stack[frame.base]
			inst, ok := self.Obj.(*value.InstanceObject)
			if !ok {
				return value.Nil, vm.runtimeErr("super used outside an instance method")
			}
			vm.push(value.FromObject(&superRef{Self: self, Start: inst.Class.Super}))

		case bytecode.OpOptionalChain:
			// runtime no-op: OP_GET_PROPERTY already yields Nil for a nil
			// receiver, which alone implements chaining short-circuit.

		case bytecode.OpUnwrap:
			v := vm.pop()
			if v.IsNil() {
				return value.Nil, vm.runtimeErr("unexpectedly found nil while unwrapping an Optional value")
			}
			vm.push(v)

		case bytecode.OpNilCoalesce:
			fallback := vm.pop()
			v := vm.pop()
			if v.IsNil() {
				vm.push(fallback)
			} else {
				vm.push(v)
			}

		case bytecode.OpRangeInclusive, bytecode.OpRangeExclusive:
			high := vm.pop()
			low := vm.pop()
			if low.Kind != value.KInt || high.Kind != value.KInt {
				return value.Nil, vm.runtimeErr("range bounds must be Int")
			}
			vm.push(value.FromObject(&value.RangeObject{Low: low.Int, High: high.Int, Inclusive: op == bytecode.OpRangeInclusive}))

		case bytecode.OpArray:
			n := int(vm.readShort(frame))
			elems := vm.popN(n)
			for _, e := range elems {
				vm.retain(e)
			}
			vm.push(value.FromObject(&value.ArrayObject{Elements: elems}))

		case bytecode.OpDict:
			n := int(vm.readShort(frame))
			entries := vm.popN(n * 2)
			d := &value.DictObject{}
			for i := 0; i < n; i++ {
				k := entries[i*2]
				v := entries[i*2+1]
				vm.retain(k)
				vm.retain(v)
				d.Set(k, v)
			}
			vm.push(value.FromObject(d))

		case bytecode.OpGetSubscript:
			index := vm.pop()
			target := vm.pop()
			v, err := vm.getSubscript(target, index)
			if err != nil {
				return value.Nil, err
			}
			vm.push(v)

		case bytecode.OpSetSubscript:
			v := vm.pop()
			index := vm.pop()
			target := vm.pop()
			if err := vm.setSubscript(target, index, v); err != nil {
				return value.Nil, err
			}
			vm.push(v)

		case bytecode.OpTuple:
			count := int(code[frame.ip])
			frame.ip++
			labels := make([]string, count)
			for i := 0; i < count; i++ {
				idx := frame.chunk.ReadShort(frame.ip)
				frame.ip += 2
				labels[i] = frame.chunk.Strings[idx]
			}
			elems := vm.popN(count)
			for _, e := range elems {
				vm.retain(e)
			}
			vm.push(value.FromObject(&value.TupleObject{Elements: elems, Labels: labels}))

		case bytecode.OpGetTupleIndex:
			i := int(code[frame.ip])
			frame.ip++
			target := vm.pop()
			tup, ok := target.Obj.(*value.TupleObject)
			if !ok || i >= len(tup.Elements) {
				return value.Nil, vm.runtimeErr("invalid tuple index %d", i)
			}
			vm.push(tup.Elements[i])

		case bytecode.OpGetTupleLabel:
			idx := vm.readShort(frame)
			label := frame.chunk.Strings[idx]
			target := vm.pop()
			tup, ok := target.Obj.(*value.TupleObject)
			if !ok {
				return value.Nil, vm.runtimeErr("value is not a tuple")
			}
			found := false
			for i, l := range tup.Labels {
				if l == label {
					vm.push(tup.Elements[i])
					found = true
					break
				}
			}
			if !found {
				return value.Nil, vm.runtimeErr("tuple has no label %q", label)
			}

		case bytecode.OpClass:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			vm.push(value.FromObject(&value.ClassObject{
				Name:          name,
				Methods:       map[string]*value.ClosureObject{},
				StaticMethods: map[string]*value.ClosureObject{},
				StaticProps:   map[string]value.Value{},
			}))

		case bytecode.OpStruct:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			vm.push(value.FromObject(&value.StructTypeObject{
				Name:    name,
				Methods: map[string]*value.ClosureObject{},
			}))

		case bytecode.OpInherit:
			super := vm.pop()
			sub := vm.peek(0)
			if po, ok := super.Obj.(*value.ProtocolObject); ok {
				// `class C: P` with no superclass: the first name is a protocol.
				subCls := sub.Obj.(*value.ClassObject)
				subCls.Protocols = append(subCls.Protocols, po.Name)
				break
			}
			superCls, ok := super.Obj.(*value.ClassObject)
			if !ok {
				return value.Nil, vm.runtimeErr("superclass is not a class")
			}
			subCls := sub.Obj.(*value.ClassObject)
			subCls.Super = superCls

		case bytecode.OpMethod:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			closure := vm.pop()
			target := vm.peek(0)
			fn := closure.Obj.(*value.ClosureObject)
			switch o := target.Obj.(type) {
			case *value.ClassObject:
				proto := fn.Proto.(*bytecode.FunctionPrototype)
				if proto.IsStatic {
					o.StaticMethods[name] = fn
				} else {
					o.Methods[name] = fn
				}
			case *value.StructTypeObject:
				o.Methods[name] = fn
			case *value.EnumTypeObject:
				o.Methods[name] = fn
			default:
				return value.Nil, vm.runtimeErr("cannot attach method to value of type %v", target.Obj.Type())
			}

		case bytecode.OpStructMethod:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			closure := vm.pop()
			target := vm.peek(0)
			fn := closure.Obj.(*value.ClosureObject)
			st := target.Obj.(*value.StructTypeObject)
			st.Methods[name] = fn

		case bytecode.OpDefineProperty:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			v := vm.pop()
			target := vm.peek(0)
			pd := &value.PropertyDescriptor{Name: name, Default: v, HasDefault: true}
			addProperty(target, pd)

		case bytecode.OpDefineComputedProperty:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			setterV := vm.pop()
			getterV := vm.pop()
			target := vm.peek(0)
			pd := &value.PropertyDescriptor{Name: name, IsComputed: true}
			if getterV.Obj != nil {
				pd.Getter = getterV.Obj.(*value.ClosureObject)
			}
			if setterV.Obj != nil {
				pd.Setter = setterV.Obj.(*value.ClosureObject)
			}
			addProperty(target, pd)

		case bytecode.OpDefinePropertyWithObservers:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			didSetV := vm.pop()
			willSetV := vm.pop()
			initV := vm.pop()
			target := vm.peek(0)
			pd := &value.PropertyDescriptor{Name: name, Default: initV, HasDefault: true}
			if willSetV.Obj != nil {
				pd.WillSet = willSetV.Obj.(*value.ClosureObject)
			}
			if didSetV.Obj != nil {
				pd.DidSet = didSetV.Obj.(*value.ClosureObject)
			}
			addProperty(target, pd)

		case bytecode.OpCopyValue:
			v := vm.pop()
			vm.push(value.CopyValue(v))

		case bytecode.OpEnum:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			vm.push(value.FromObject(&value.EnumTypeObject{
				Name:    name,
				Methods: map[string]*value.ClosureObject{},
			}))

		case bytecode.OpEnumCase:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			arity := int(code[frame.ip])
			frame.ip++
			rawV := vm.pop()
			target := vm.peek(0)
			en := target.Obj.(*value.EnumTypeObject)
			desc := value.EnumCaseDescriptor{Name: name, ParamNames: make([]string, arity)}
			if !rawV.IsNil() {
				desc.HasRaw = true
				desc.RawValue = rawV
			}
			en.Cases = append(en.Cases, desc)

		case bytecode.OpMatchEnumCase:
			caseName := vm.pop()
			subject := vm.pop()
			cn, _ := stringOf(caseName)
			ec, ok := subject.Obj.(*value.EnumCaseObject)
			vm.push(value.Bool(ok && ec.CaseName == cn))

		case bytecode.OpGetAssociated:
			i := int(code[frame.ip])
			frame.ip++
			subject := vm.pop()
			ec, ok := subject.Obj.(*value.EnumCaseObject)
			if !ok || i >= len(ec.Associated) {
				return value.Nil, vm.runtimeErr("invalid associated-value index %d", i)
			}
			vm.push(ec.Associated[i])

		case bytecode.OpProtocol:
			protoIdx := frame.chunk.ReadShort(frame.ip)
			nameIdx := frame.chunk.ReadShort(frame.ip + 2)
			frame.ip += 4
			proto := frame.chunk.Protocols[protoIdx]
			name := frame.chunk.Strings[nameIdx]
			po := &value.ProtocolObject{
				Name:               name,
				InheritedProtocols: proto.InheritedProtocols,
			}
			for _, m := range proto.MethodRequirements {
				po.MethodRequirements = append(po.MethodRequirements, value.ProtocolMethodReq{
					Name: m.Name, ParamNames: m.ParamNames, IsMutating: m.IsMutating,
				})
			}
			for _, p := range proto.PropertyRequirements {
				po.PropertyRequirements = append(po.PropertyRequirements, value.ProtocolPropertyReq{
					Name: p.Name, HasGetter: p.HasGetter, HasSetter: p.HasSetter,
				})
			}
			vm.globals[name] = value.FromObject(po)

		case bytecode.OpTypeCheck:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			v := vm.pop()
			vm.push(value.Bool(vm.typeCheck(v, name)))

		case bytecode.OpTypeCast, bytecode.OpTypeCastOptional:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			v := vm.pop()
			if vm.typeCheck(v, name) {
				vm.push(v)
			} else {
				vm.push(value.Nil)
			}

		case bytecode.OpTypeCastForced:
			idx := vm.readShort(frame)
			name := frame.chunk.Strings[idx]
			v := vm.pop()
			if !vm.typeCheck(v, name) {
				return value.Nil, vm.runtimeErr("could not cast value of type %s to %q", typeName(v), name)
			}
			vm.push(v)

		case bytecode.OpThrow:
			payload := vm.pop()
			return value.Nil, &sserr.ScriptThrow{Payload: payload, Line: frame.chunk.LineAt(frame.ip - 1)}

		case bytecode.OpReadLine:
			line, err := vm.readLine()
			if err != nil {
				vm.push(value.Nil)
			} else {
				vm.push(value.FromObject(value.NewString(line)))
			}

		case bytecode.OpPrint:
			v := vm.pop()
			fmt.Fprintln(vm.out, v.String())
			// print is an expression (compileBuiltinCall), so it leaves a
			// Void placeholder the way any other call result would, for the
			// enclosing ExpressionStatement's OP_POP to consume.
			vm.push(value.Nil)

		case bytecode.OpHalt:
			// A trailing top-level expression statement (compiler.Compile)
			// leaves its value on the stack instead of popping it; hand that
			// back as the program's result when present.
			if len(vm.stack) > frame.base {
				return vm.pop(), nil
			}
			return lastValue, nil

		default:
			return value.Nil, vm.runtimeErr("unimplemented opcode %s", op)
		}
	}
}

func (vm *VM) readShort(frame *CallFrame) uint16 {
	v := frame.chunk.ReadShort(frame.ip)
	frame.ip += 2
	return v
}

// popN pops n values off the stack, returning them in original push order.
func (vm *VM) popN(n int) []value.Value {
	if n == 0 {
		return nil
	}
	start := len(vm.stack) - n
	out := make([]value.Value, n)
	copy(out, vm.stack[start:])
	vm.stack = vm.stack[:start]
	return out
}

func addProperty(target value.Value, pd *value.PropertyDescriptor) {
	switch o := target.Obj.(type) {
	case *value.ClassObject:
		o.Properties = append(o.Properties, pd)
	case *value.StructTypeObject:
		o.Properties = append(o.Properties, pd)
	case *value.EnumTypeObject:
		o.Properties = append(o.Properties, pd)
	}
}

func arithSymbol(op bytecode.OpCode) string {
	switch op {
	case bytecode.OpAdd:
		return "+"
	case bytecode.OpSubtract:
		return "-"
	case bytecode.OpMultiply:
		return "*"
	case bytecode.OpDivide:
		return "/"
	case bytecode.OpModulo:
		return "%"
	}
	return "?"
}

func bitwiseSymbol(op bytecode.OpCode) string {
	switch op {
	case bytecode.OpBitwiseAnd:
		return "&"
	case bytecode.OpBitwiseOr:
		return "|"
	case bytecode.OpBitwiseXor:
		return "^"
	case bytecode.OpLeftShift:
		return "<<"
	case bytecode.OpRightShift:
		return ">>"
	}
	return "?"
}

func compareSymbol(op bytecode.OpCode) string {
	switch op {
	case bytecode.OpLess:
		return "<"
	case bytecode.OpGreater:
		return ">"
	case bytecode.OpLessEqual:
		return "<="
	case bytecode.OpGreaterEqual:
		return ">="
	}
	return "?"
}
