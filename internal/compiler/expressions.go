package compiler

import (
	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/config"
	"github.com/29thnight/SwiftScript/internal/value"
)

// compileExpression compiles expr so that it leaves exactly one Value on the
// stack when it returns.
func (c *Compiler) compileExpression(expr ast.Expression) error {
	line := expr.Line()
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		c.emitConstant(value.Int(e.Value), line)
	case *ast.FloatLiteral:
		c.emitConstant(value.Float(e.Value), line)
	case *ast.BoolLiteral:
		if e.Value {
			c.emit(bytecode.OpTrue, line)
		} else {
			c.emit(bytecode.OpFalse, line)
		}
	case *ast.NilLiteral:
		c.emit(bytecode.OpNil, line)
	case *ast.StringLiteral:
		c.emitString(e.Value, line)
	case *ast.InterpolatedStringExpr:
		return c.compileInterpolatedString(e)
	case *ast.Identifier:
		return c.compileIdentifier(e)
	case *ast.SelfExpr:
		return c.compileNamedLoad("self", line)
	case *ast.SuperExpr:
		c.emit(bytecode.OpSuper, line)
	case *ast.PrefixExpr:
		return c.compilePrefix(e)
	case *ast.InfixExpr:
		return c.compileInfix(e)
	case *ast.RangeExpr:
		return c.compileRange(e)
	case *ast.TernaryExpr:
		return c.compileTernary(e)
	case *ast.AssignExpr:
		return c.compileAssign(e)
	case *ast.CallExpr:
		return c.compileCall(e)
	case *ast.MemberExpr:
		return c.compileMember(e)
	case *ast.TupleIndexExpr:
		if err := c.compileExpression(e.Target); err != nil {
			return err
		}
		c.emit(bytecode.OpGetTupleIndex, line)
		c.emitByte(byte(e.Index), line)
	case *ast.SubscriptExpr:
		if err := c.compileExpression(e.Target); err != nil {
			return err
		}
		if err := c.compileExpression(e.Index); err != nil {
			return err
		}
		c.emit(bytecode.OpGetSubscript, line)
	case *ast.ForceUnwrapExpr:
		if err := c.compileExpression(e.Target); err != nil {
			return err
		}
		c.emit(bytecode.OpUnwrap, line)
	case *ast.NilCoalesceExpr:
		// OP_JUMP_IF_NIL only peeks (like OP_JUMP_IF_FALSE elsewhere in this
		// compiler), so the Dup'd test copy is popped explicitly on the
		// non-nil path, and both the test copy and the original nil value
		// are popped before falling back to Right.
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		c.emit(bytecode.OpDup, line)
		nilJump := c.emitJump(bytecode.OpJumpIfNil, line)
		c.emit(bytecode.OpPop, line)
		endJump := c.emitJump(bytecode.OpJump, line)
		c.patchJump(nilJump)
		c.emit(bytecode.OpPop, line)
		c.emit(bytecode.OpPop, line)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.patchJump(endJump)
	case *ast.ArrayLiteral:
		for _, elem := range e.Elements {
			if err := c.compileExpression(elem); err != nil {
				return err
			}
		}
		c.emit(bytecode.OpArray, line)
		c.emitShort(uint16(len(e.Elements)), line)
	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			if err := c.compileExpression(entry.Key); err != nil {
				return err
			}
			if err := c.compileExpression(entry.Value); err != nil {
				return err
			}
		}
		c.emit(bytecode.OpDict, line)
		c.emitShort(uint16(len(e.Entries)), line)
	case *ast.TupleExpr:
		for _, elem := range e.Elements {
			if err := c.compileExpression(elem); err != nil {
				return err
			}
		}
		c.emit(bytecode.OpTuple, line)
		c.emitByte(byte(len(e.Elements)), line)
		for _, label := range e.Labels {
			c.emitStringRef(label, line)
		}
	case *ast.TypeCheckExpr:
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		c.emit(bytecode.OpTypeCheck, line)
		c.emitStringRef(e.Type.String(), line)
	case *ast.TypeCastExpr:
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		switch e.Kind {
		case ast.CastOptional:
			c.emit(bytecode.OpTypeCastOptional, line)
		case ast.CastForced:
			c.emit(bytecode.OpTypeCastForced, line)
		default:
			c.emit(bytecode.OpTypeCast, line)
		}
		c.emitStringRef(e.Type.String(), line)
	case *ast.ClosureExpr:
		return c.compileClosureExpr(e)
	case *ast.EnumCaseConstructorExpr:
		return c.compileEnumCaseConstructor(e)
	default:
		return c.errf(line, "unsupported expression node %T", expr)
	}
	return nil
}

func (c *Compiler) compileInterpolatedString(e *ast.InterpolatedStringExpr) error {
	line := e.Line()
	if len(e.Segments) == 0 {
		c.emitString("", line)
		return nil
	}
	if err := c.compileExpression(e.Segments[0]); err != nil {
		return err
	}
	for _, seg := range e.Segments[1:] {
		if err := c.compileExpression(seg); err != nil {
			return err
		}
		c.emit(bytecode.OpAdd, line)
	}
	return nil
}

// compileIdentifier resolves name against locals, upvalues, then globals.
func (c *Compiler) compileIdentifier(id *ast.Identifier) error {
	return c.compileNamedLoad(id.Name, id.Line())
}

func (c *Compiler) compileNamedLoad(name string, line int) error {
	if slot, _, ok := c.resolveLocal(name); ok {
		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(slot), line)
		return nil
	}
	if up := c.resolveUpvalue(name); up != -1 {
		c.emit(bytecode.OpGetUpvalue, line)
		c.emitShort(uint16(up), line)
		return nil
	}
	c.emit(bytecode.OpGetGlobal, line)
	c.emitStringRef(name, line)
	return nil
}

func (c *Compiler) compilePrefix(e *ast.PrefixExpr) error {
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	line := e.Line()
	switch e.Operator {
	case "-":
		c.emit(bytecode.OpNegate, line)
	case "!":
		c.emit(bytecode.OpNot, line)
	case "~":
		c.emit(bytecode.OpBitwiseNot, line)
	default:
		return c.errf(line, "unknown prefix operator %q", e.Operator)
	}
	return nil
}

var infixOps = map[string]bytecode.OpCode{
	"+": bytecode.OpAdd, "-": bytecode.OpSubtract, "*": bytecode.OpMultiply,
	"/": bytecode.OpDivide, "%": bytecode.OpModulo,
	"&": bytecode.OpBitwiseAnd, "|": bytecode.OpBitwiseOr, "^": bytecode.OpBitwiseXor,
	"<<": bytecode.OpLeftShift, ">>": bytecode.OpRightShift,
	"==": bytecode.OpEqual, "!=": bytecode.OpNotEqual,
	"<": bytecode.OpLess, ">": bytecode.OpGreater,
	"<=": bytecode.OpLessEqual, ">=": bytecode.OpGreaterEqual,
}

func (c *Compiler) compileInfix(e *ast.InfixExpr) error {
	line := e.Line()
	switch e.Operator {
	case "&&":
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		jump := c.emitJump(bytecode.OpJumpIfFalse, line)
		c.emit(bytecode.OpPop, line)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.patchJump(jump)
		return nil
	case "||":
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		elseJump := c.emitJump(bytecode.OpJumpIfFalse, line)
		endJump := c.emitJump(bytecode.OpJump, line)
		c.patchJump(elseJump)
		c.emit(bytecode.OpPop, line)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.patchJump(endJump)
		return nil
	}

	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	op, ok := infixOps[e.Operator]
	if !ok {
		return c.errf(line, "unknown infix operator %q", e.Operator)
	}
	c.emit(op, line)
	return nil
}

func (c *Compiler) compileRange(e *ast.RangeExpr) error {
	if err := c.compileExpression(e.Low); err != nil {
		return err
	}
	if err := c.compileExpression(e.High); err != nil {
		return err
	}
	if e.Inclusive {
		c.emit(bytecode.OpRangeInclusive, e.Line())
	} else {
		c.emit(bytecode.OpRangeExclusive, e.Line())
	}
	return nil
}

func (c *Compiler) compileTernary(e *ast.TernaryExpr) error {
	line := e.Line()
	if err := c.compileExpression(e.Cond); err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	c.emit(bytecode.OpPop, line)
	if err := c.compileExpression(e.Then); err != nil {
		return err
	}
	endJump := c.emitJump(bytecode.OpJump, line)
	c.patchJump(elseJump)
	c.emit(bytecode.OpPop, line)
	if err := c.compileExpression(e.Else); err != nil {
		return err
	}
	c.patchJump(endJump)
	return nil
}

// compileAssign handles `=` and compound assignment to an Identifier,
// MemberExpr, or SubscriptExpr target (spec.md §4.2's l-value node kinds).
func (c *Compiler) compileAssign(e *ast.AssignExpr) error {
	line := e.Line()

	valueExpr := e.Value
	if e.Operator != "=" {
		valueExpr = &ast.InfixExpr{
			Base:     ast.NewBase(e.GetToken()),
			Left:     e.Target,
			Operator: e.Operator[:len(e.Operator)-1],
			Right:    e.Value,
		}
	}

	switch t := e.Target.(type) {
	case *ast.Identifier:
		if err := c.compileExpression(valueExpr); err != nil {
			return err
		}
		c.emit(bytecode.OpCopyValue, line)
		if slot, isLet, ok := c.resolveLocal(t.Name); ok {
			if isLet {
				return c.errf(line, "cannot assign to value: %q is a 'let' constant", t.Name)
			}
			c.emit(bytecode.OpSetLocal, line)
			c.emitShort(uint16(slot), line)
			return nil
		}
		if up := c.resolveUpvalue(t.Name); up != -1 {
			c.emit(bytecode.OpSetUpvalue, line)
			c.emitShort(uint16(up), line)
			return nil
		}
		c.emit(bytecode.OpSetGlobal, line)
		c.emitStringRef(t.Name, line)
		return nil

	case *ast.MemberExpr:
		if err := c.compileExpression(t.Target); err != nil {
			return err
		}
		if err := c.compileExpression(valueExpr); err != nil {
			return err
		}
		c.emit(bytecode.OpCopyValue, line)
		c.emit(bytecode.OpSetProperty, line)
		c.emitStringRef(t.Name, line)
		return nil

	case *ast.SubscriptExpr:
		if err := c.compileExpression(t.Target); err != nil {
			return err
		}
		if err := c.compileExpression(t.Index); err != nil {
			return err
		}
		if err := c.compileExpression(valueExpr); err != nil {
			return err
		}
		c.emit(bytecode.OpCopyValue, line)
		c.emit(bytecode.OpSetSubscript, line)
		return nil

	default:
		return c.errf(line, "invalid assignment target %T", e.Target)
	}
}

// compileCall lowers a call site. Any labeled argument switches emission to
// CALL_NAMED, which carries one string-pool label index per argument
// (empty string for a positional slot) so the VM can reorder into the
// callee's declared parameter order (spec.md §4.6 "Call protocol").
func (c *Compiler) compileCall(e *ast.CallExpr) error {
	if handled, err := c.compileBuiltinCall(e); handled || err != nil {
		return err
	}
	if handled, err := c.specializeGenericCall(e); handled || err != nil {
		return err
	}

	line := e.Line()
	if err := c.compileExpression(e.Callee); err != nil {
		return err
	}
	named := false
	for _, arg := range e.Args {
		if arg.Label != "" {
			named = true
		}
	}
	for _, arg := range e.Args {
		if err := c.compileExpression(arg.Value); err != nil {
			return err
		}
	}
	if !named {
		c.emit(bytecode.OpCall, line)
		c.emitShort(uint16(len(e.Args)), line)
		return nil
	}
	c.emit(bytecode.OpCallNamed, line)
	c.emitByte(byte(len(e.Args)), line)
	for _, arg := range e.Args {
		c.emitStringRef(arg.Label, line)
	}
	return nil
}

// compileBuiltinCall lowers a call to `print`/`readLine` directly to its
// dedicated opcode (spec.md §4.5's "Errors & I/O" group already lists
// OP_PRINT/OP_READ_LINE as named instructions, not calls through a
// registered global). Both opcodes leave exactly one Value on the stack so
// they satisfy the same "every expression leaves one value" contract an
// ordinary call result would.
func (c *Compiler) compileBuiltinCall(e *ast.CallExpr) (handled bool, err error) {
	id, ok := e.Callee.(*ast.Identifier)
	if !ok {
		return false, nil
	}
	line := e.Line()
	switch id.Name {
	case config.PrintFuncName:
		if len(e.Args) != 1 {
			return true, c.errf(line, "print expects exactly one argument")
		}
		if err := c.compileExpression(e.Args[0].Value); err != nil {
			return true, err
		}
		c.emit(bytecode.OpPrint, line)
		return true, nil
	case config.ReadLineFuncName:
		if len(e.Args) != 0 {
			return true, c.errf(line, "readLine takes no arguments")
		}
		c.emit(bytecode.OpReadLine, line)
		return true, nil
	default:
		return false, nil
	}
}

func (c *Compiler) compileMember(e *ast.MemberExpr) error {
	if err := c.compileExpression(e.Target); err != nil {
		return err
	}
	line := e.Line()
	if e.Optional {
		c.emit(bytecode.OpOptionalChain, line)
	}
	c.emit(bytecode.OpGetProperty, line)
	c.emitStringRef(e.Name, line)
	return nil
}

func (c *Compiler) compileEnumCaseConstructor(e *ast.EnumCaseConstructorExpr) error {
	line := e.Line()
	c.emit(bytecode.OpGetGlobal, line)
	c.emitStringRef(e.EnumName, line)
	c.emit(bytecode.OpGetProperty, line)
	c.emitStringRef(e.CaseName, line)
	return nil
}

// compileClosureExpr compiles a `{ params in body }` literal into a
// FunctionPrototype, emitting CLOSURE followed by the packed upvalue
// descriptor list the VM's closure-creation handler reads inline.
func (c *Compiler) compileClosureExpr(e *ast.ClosureExpr) error {
	line := e.Line()
	child := newChild(c, kindFunction)

	for _, p := range e.Params {
		child.addLocal(p.Name, false)
	}

	if err := child.compileFunctionBody(e.Body); err != nil {
		return err
	}

	proto := &bytecode.FunctionPrototype{
		Name:  "<closure>",
		Arity: len(e.Params),
		Chunk: child.chunk,
	}
	for _, p := range e.Params {
		proto.Params = append(proto.Params, p.Name)
		proto.ParamLabels = append(proto.ParamLabels, p.Name)
		proto.ParamDefaults = append(proto.ParamDefaults, bytecode.ParamDefault{})
	}
	for i := 0; i < child.upvalueCount; i++ {
		proto.Upvalues = append(proto.Upvalues, bytecode.UpvalueInfo{
			Index: child.upvalues[i].Index, IsLocal: child.upvalues[i].IsLocal,
		})
	}

	idx := c.chunk.AddFunction(proto)
	c.emit(bytecode.OpClosure, line)
	c.emitShort(idx, line)
	for i := 0; i < child.upvalueCount; i++ {
		if child.upvalues[i].IsLocal {
			c.emitByte(1, line)
		} else {
			c.emitByte(0, line)
		}
		c.emitShort(child.upvalues[i].Index, line)
	}
	return nil
}

// compileFunctionBody compiles a function/closure body, appending an
// implicit `return nil` if control falls off the end.
func (c *Compiler) compileFunctionBody(body *ast.BlockStatement) error {
	for _, stmt := range body.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	line := body.Line()
	c.emit(bytecode.OpNil, line)
	c.emit(bytecode.OpReturn, line)
	return nil
}
