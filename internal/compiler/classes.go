package compiler

import (
	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/bytecode"
)

// compileClassDecl emits OP_CLASS followed by OP_INHERIT (if any) and one
// OP_METHOD/OP_DEFINE_PROPERTY* per member, matching spec.md §4.4's
// description of classes/structs/enums being built at runtime by a sequence
// of opcodes rather than a static Assembly table.
func (c *Compiler) compileClassDecl(s *ast.ClassDeclStatement) error {
	line := s.Line()
	c.emit(bytecode.OpClass, line)
	c.emitStringRef(s.Name, line)

	if s.Superclass != "" {
		c.emit(bytecode.OpGetGlobal, line)
		c.emitStringRef(s.Superclass, line)
		c.emit(bytecode.OpInherit, line)
	}

	savedType, savedSuper := c.currentType, c.superType
	c.currentType, c.superType = s.Name, s.Superclass
	for _, prop := range s.Properties {
		if err := c.compileTypeProperty(prop); err != nil {
			return err
		}
	}
	for _, method := range s.Methods {
		if err := c.compileMethod(method, kindMethod); err != nil {
			return err
		}
	}
	if s.DeinitBody != nil {
		if err := c.compileDeinit(s.DeinitBody, line); err != nil {
			return err
		}
	}
	c.currentType, c.superType = savedType, savedSuper

	if c.scopeDepth == 0 {
		c.emit(bytecode.OpDefineGlobal, line)
		c.emitStringRef(s.Name, line)
	} else {
		c.addLocal(s.Name, true)
	}
	return nil
}

// compileStructDecl mirrors compileClassDecl but has no inheritance. Its
// mutating methods are emitted with OP_STRUCT_METHOD and the others with
// OP_METHOD; the VM stores both in the struct type's method table the same
// way.
func (c *Compiler) compileStructDecl(s *ast.StructDeclStatement) error {
	line := s.Line()
	c.emit(bytecode.OpStruct, line)
	c.emitStringRef(s.Name, line)

	savedType := c.currentType
	c.currentType = s.Name
	for _, prop := range s.Properties {
		if err := c.compileTypeProperty(prop); err != nil {
			return err
		}
	}
	for _, method := range s.Methods {
		if err := c.compileMethod(method, kindMethod); err != nil {
			return err
		}
	}
	c.currentType = savedType

	if c.scopeDepth == 0 {
		c.emit(bytecode.OpDefineGlobal, line)
		c.emitStringRef(s.Name, line)
	} else {
		c.addLocal(s.Name, true)
	}
	return nil
}

// compileEnumDecl emits one OP_ENUM_CASE per declared case (simple, raw-value
// backed, or carrying associated values) after the OP_ENUM that opens the
// type, per spec.md §4.4 "Enum cases".
func (c *Compiler) compileEnumDecl(s *ast.EnumDeclStatement) error {
	line := s.Line()
	c.emit(bytecode.OpEnum, line)
	c.emitStringRef(s.Name, line)

	for _, ec := range s.Cases {
		if ec.RawValue != nil {
			if err := c.compileExpression(ec.RawValue); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.OpNil, line)
		}
		c.emit(bytecode.OpEnumCase, line)
		c.emitStringRef(ec.Name, line)
		c.emitByte(byte(len(ec.Params)), line)
	}

	savedType := c.currentType
	c.currentType = s.Name
	for _, prop := range s.Properties {
		if err := c.compileTypeProperty(prop); err != nil {
			return err
		}
	}
	for _, method := range s.Methods {
		if err := c.compileMethod(method, kindMethod); err != nil {
			return err
		}
	}
	c.currentType = savedType

	if c.scopeDepth == 0 {
		c.emit(bytecode.OpDefineGlobal, line)
		c.emitStringRef(s.Name, line)
	} else {
		c.addLocal(s.Name, true)
	}
	return nil
}

// compileProtocolDecl compiles requirements into the Chunk's Protocol table;
// there is no runtime value produced besides the registration used by the
// type checker and the VM's conformance checks.
func (c *Compiler) compileProtocolDecl(s *ast.ProtocolDeclStatement) error {
	line := s.Line()
	proto := &bytecode.Protocol{Name: s.Name, InheritedProtocols: s.InheritedProtocols}
	for _, m := range s.MethodRequirements {
		proto.MethodRequirements = append(proto.MethodRequirements, bytecode.ProtocolMethodReq{
			Name: m.Name, ParamNames: m.ParamNames, IsMutating: m.IsMutating,
		})
	}
	for _, p := range s.PropertyRequirements {
		proto.PropertyRequirements = append(proto.PropertyRequirements, bytecode.ProtocolPropertyReq{
			Name: p.Name, HasGetter: p.HasGetter, HasSetter: p.HasSetter,
		})
	}
	idx := c.chunk.AddProtocol(proto)
	c.emit(bytecode.OpProtocol, line)
	c.emitShort(idx, line)
	c.emitStringRef(s.Name, line)
	return nil
}

// compileExtensionDecl re-opens TypeName and appends methods/computed
// properties to it, looked up by name at runtime. The extension's declared
// conformances are not recorded on the runtime type; only the compiler's
// extraProtocols table sees them
// (spec.md §4.4's extension support has no separate AST representation at
// the bytecode level: it reuses OP_METHOD/OP_DEFINE_* against the existing
// global).
func (c *Compiler) compileExtensionDecl(s *ast.ExtensionDeclStatement) error {
	line := s.Line()
	c.emit(bytecode.OpGetGlobal, line)
	c.emitStringRef(s.TypeName, line)

	savedType := c.currentType
	c.currentType = s.TypeName
	for _, prop := range s.Properties {
		if err := c.compileTypeProperty(prop); err != nil {
			return err
		}
	}
	for _, method := range s.Methods {
		if err := c.compileMethod(method, kindMethod); err != nil {
			return err
		}
	}
	c.currentType = savedType
	c.emit(bytecode.OpPop, line)
	return nil
}

// compileMethod compiles one member function of a class/struct/enum body and
// emits the opcode that registers it on the type currently atop the stack.
func (c *Compiler) compileMethod(m *ast.FuncDeclStatement, kind funcKind) error {
	line := m.Line()
	if m.IsInitializer {
		kind = kindInitializer
	}
	proto, err := c.compileFunctionPrototype(m, kind)
	if err != nil {
		return err
	}
	idx := c.chunk.AddFunction(proto)
	c.emit(bytecode.OpClosure, line)
	c.emitShort(idx, line)
	for _, up := range proto.Upvalues {
		if up.IsLocal {
			c.emitByte(1, line)
		} else {
			c.emitByte(0, line)
		}
		c.emitShort(up.Index, line)
	}
	if m.IsMutating {
		c.emit(bytecode.OpStructMethod, line)
	} else {
		c.emit(bytecode.OpMethod, line)
	}
	c.emitStringRef(m.Name, line)
	return nil
}

// compileDeinit compiles a class's deinitializer as an ordinary zero-arity
// method named "deinit", invoked by the VM when an object's refcount hits
// zero (spec.md's ownership/cycle-leak design note).
func (c *Compiler) compileDeinit(body *ast.BlockStatement, line int) error {
	fn := &ast.FuncDeclStatement{Base: ast.NewBase(body.Tok), Name: "deinit", Body: body}
	return c.compileMethod(fn, kindMethod)
}

// compileTypeProperty handles one property declaration inside a class,
// struct, enum, or extension body: a stored property with optional
// willSet/didSet observers, or a computed (getter/setter) property.
func (c *Compiler) compileTypeProperty(s *ast.VarDeclStatement) error {
	line := s.Line()

	if s.Computed != nil {
		getterProto, err := c.compileAccessorBody(s.Computed.Getter, nil, line)
		if err != nil {
			return err
		}
		getterIdx := c.chunk.AddFunction(getterProto)
		c.emit(bytecode.OpClosure, line)
		c.emitShort(getterIdx, line)
		for _, up := range getterProto.Upvalues {
			emitUpvalueRef(c, up, line)
		}
		if s.Computed.Setter != nil {
			setterProto, err := c.compileAccessorBody(s.Computed.Setter, []string{orDefault(s.Computed.SetterParamName, "newValue")}, line)
			if err != nil {
				return err
			}
			setterIdx := c.chunk.AddFunction(setterProto)
			c.emit(bytecode.OpClosure, line)
			c.emitShort(setterIdx, line)
			for _, up := range setterProto.Upvalues {
				emitUpvalueRef(c, up, line)
			}
		} else {
			c.emit(bytecode.OpNil, line)
		}
		c.emit(bytecode.OpDefineComputedProperty, line)
		c.emitStringRef(s.Name, line)
		return nil
	}

	if s.Observers != nil && (s.Observers.WillSet != nil || s.Observers.DidSet != nil) {
		if s.Value != nil {
			if err := c.compileExpression(s.Value); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.OpNil, line)
		}
		if s.Observers.WillSet != nil {
			proto, err := c.compileAccessorBody(s.Observers.WillSet.Body, []string{orDefault(s.Observers.WillSet.ParamName, "newValue")}, line)
			if err != nil {
				return err
			}
			idx := c.chunk.AddFunction(proto)
			c.emit(bytecode.OpClosure, line)
			c.emitShort(idx, line)
			for _, up := range proto.Upvalues {
				emitUpvalueRef(c, up, line)
			}
		} else {
			c.emit(bytecode.OpNil, line)
		}
		if s.Observers.DidSet != nil {
			proto, err := c.compileAccessorBody(s.Observers.DidSet.Body, []string{orDefault(s.Observers.DidSet.ParamName, "oldValue")}, line)
			if err != nil {
				return err
			}
			idx := c.chunk.AddFunction(proto)
			c.emit(bytecode.OpClosure, line)
			c.emitShort(idx, line)
			for _, up := range proto.Upvalues {
				emitUpvalueRef(c, up, line)
			}
		} else {
			c.emit(bytecode.OpNil, line)
		}
		c.emit(bytecode.OpDefinePropertyWithObservers, line)
		c.emitStringRef(s.Name, line)
		return nil
	}

	if s.Value != nil {
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
	} else {
		c.emit(bytecode.OpNil, line)
	}
	c.emit(bytecode.OpCopyValue, line)
	c.emit(bytecode.OpDefineProperty, line)
	c.emitStringRef(s.Name, line)
	return nil
}

// compileAccessorBody compiles a getter/setter/observer block as a standalone
// method prototype bound to the enclosing type, with `self` at slot 0
// followed by any named accessor parameter (newValue/oldValue).
func (c *Compiler) compileAccessorBody(body *ast.BlockStatement, params []string, line int) (*bytecode.FunctionPrototype, error) {
	child := newChild(c, kindMethod)
	child.addLocal("self", false)
	for _, p := range params {
		child.addLocal(p, false)
	}
	if err := child.compileFunctionBody(body); err != nil {
		return nil, err
	}
	proto := &bytecode.FunctionPrototype{Chunk: child.chunk, Arity: len(params)}
	for i := 0; i < child.upvalueCount; i++ {
		proto.Upvalues = append(proto.Upvalues, bytecode.UpvalueInfo{
			Index: child.upvalues[i].Index, IsLocal: child.upvalues[i].IsLocal,
		})
	}
	return proto, nil
}

func emitUpvalueRef(c *Compiler, up bytecode.UpvalueInfo, line int) {
	if up.IsLocal {
		c.emitByte(1, line)
	} else {
		c.emitByte(0, line)
	}
	c.emitShort(up.Index, line)
}

func orDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
