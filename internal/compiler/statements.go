package compiler

import (
	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/value"
)

// compileStatement compiles one statement, leaving nothing lasting on the
// stack: an ExpressionStatement's result is popped here. Compile handles a
// program's trailing expression statement itself, without this pop, so its
// value stays on the stack for OP_HALT.
func (c *Compiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.BlockStatement:
		c.beginScope()
		for _, inner := range s.Statements {
			if err := c.compileStatement(inner); err != nil {
				return err
			}
		}
		c.endScope(s.Line())
		return nil
	case *ast.ExpressionStatement:
		if err := c.compileExpression(s.Expr); err != nil {
			return err
		}
		c.emit(bytecode.OpPop, s.Line())
		return nil
	case *ast.VarDeclStatement:
		return c.compileVarDecl(s)
	case *ast.FuncDeclStatement:
		return c.compileFuncDecl(s)
	case *ast.ClassDeclStatement:
		return c.compileClassDecl(s)
	case *ast.StructDeclStatement:
		return c.compileStructDecl(s)
	case *ast.EnumDeclStatement:
		return c.compileEnumDecl(s)
	case *ast.ProtocolDeclStatement:
		return c.compileProtocolDecl(s)
	case *ast.ExtensionDeclStatement:
		return c.compileExtensionDecl(s)
	case *ast.ImportStatement:
		return c.compileImport(s)
	case *ast.SwitchStatement:
		return c.compileSwitch(s)
	case *ast.ForInStatement:
		return c.compileForIn(s)
	case *ast.WhileStatement:
		return c.compileWhile(s)
	case *ast.RepeatWhileStatement:
		return c.compileRepeatWhile(s)
	case *ast.IfStatement:
		return c.compileIf(s)
	case *ast.GuardStatement:
		return c.compileGuard(s)
	case *ast.ReturnStatement:
		return c.compileReturn(s)
	case *ast.BreakStatement:
		return c.compileBreak(s)
	case *ast.ContinueStatement:
		return c.compileContinue(s)
	case *ast.ThrowStatement:
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		c.emit(bytecode.OpThrow, s.Line())
		return nil
	default:
		return c.errf(stmt.Line(), "unsupported statement node %T", stmt)
	}
}

// compileVarDecl handles both `var`/`let name = expr` and `let (a, b) = expr`
// tuple destructuring, plus computed properties and observers when
// encountered at type-body scope (currentType != "").
func (c *Compiler) compileVarDecl(s *ast.VarDeclStatement) error {
	line := s.Line()

	if c.currentType != "" && c.scopeDepth == 0 {
		return c.compileTypeProperty(s)
	}

	if s.Pattern != nil {
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		return c.bindPattern(s.Pattern, s.IsLet, line)
	}

	if s.Value != nil {
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
	} else {
		c.emit(bytecode.OpNil, line)
	}
	c.emit(bytecode.OpCopyValue, line)

	if c.scopeDepth == 0 && c.kind == kindScript {
		c.emit(bytecode.OpDefineGlobal, line)
		c.emitStringRef(s.Name, line)
		return nil
	}
	c.addLocal(s.Name, s.IsLet)
	return nil
}

// bindPattern destructures a tuple value on top of the stack into a set of
// new local (or global, at script scope) bindings.
func (c *Compiler) bindPattern(pat ast.Pattern, isLet bool, line int) error {
	tp, ok := pat.(*ast.TuplePattern)
	if !ok {
		return c.errf(line, "unsupported destructuring pattern %T", pat)
	}
	tupleSlot := c.slotCount
	c.addLocal("<destructure>", true)
	for i, elemPat := range tp.Elements {
		idp, ok := elemPat.(*ast.IdentifierPattern)
		if !ok {
			if _, isWild := elemPat.(*ast.WildcardPattern); isWild {
				continue
			}
			return c.errf(line, "unsupported nested destructuring element %T", elemPat)
		}
		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(tupleSlot), line)
		c.emit(bytecode.OpGetTupleIndex, line)
		c.emitByte(byte(i), line)
		c.emit(bytecode.OpCopyValue, line)
		if c.scopeDepth == 0 && c.kind == kindScript {
			c.emit(bytecode.OpDefineGlobal, line)
			c.emitStringRef(idp.Name, line)
		} else {
			c.addLocal(idp.Name, isLet || idp.IsLet)
		}
	}
	return nil
}

// compileFuncDecl compiles a free-function (or specializable generic)
// declaration at script/global scope.
func (c *Compiler) compileFuncDecl(s *ast.FuncDeclStatement) error {
	if len(s.GenericParams) > 0 {
		c.root().genericFuncs[s.Name] = s
		return nil
	}
	proto, err := c.compileFunctionPrototype(s, kindFunction)
	if err != nil {
		return err
	}
	line := s.Line()
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
	if c.scopeDepth == 0 {
		c.emit(bytecode.OpDefineGlobal, line)
		c.emitStringRef(s.Name, line)
	} else {
		c.addLocal(s.Name, true)
	}
	return nil
}

// compileFunctionPrototype compiles the body of a func/method declaration
// into a FunctionPrototype without emitting anything into c's own chunk.
func (c *Compiler) compileFunctionPrototype(s *ast.FuncDeclStatement, kind funcKind) (*bytecode.FunctionPrototype, error) {
	child := newChild(c, kind)

	// Local slot 0 is always `self`/callee for methods and initializers,
	// matching spec.md §3's call-frame base convention.
	if kind == kindMethod || kind == kindInitializer {
		child.addLocal("self", false)
	}
	for _, p := range s.Params {
		child.addLocal(p.Name, false)
	}

	if err := child.compileFunctionBody(s.Body); err != nil {
		return nil, err
	}

	proto := &bytecode.FunctionPrototype{
		Name:          s.Name,
		Chunk:         child.chunk,
		IsInitializer: s.IsInitializer,
		IsOverride:    s.IsOverride,
		IsMutating:    s.IsMutating,
		IsStatic:      s.IsStatic,
		Arity:         len(s.Params),
	}
	for _, p := range s.Params {
		label := p.ExternalLabel
		if label == "" {
			label = p.Name
		}
		proto.Params = append(proto.Params, p.Name)
		proto.ParamLabels = append(proto.ParamLabels, label)
		if p.IsVariadic {
			proto.HasVariadic = true
		}
		pd := bytecode.ParamDefault{}
		if p.Default != nil {
			pd.HasDefault = true
			// Defaults are compiled as their own tiny chunk rather than folded
			// to a constant, since a default may reference globals or earlier
			// parameters and the VM re-evaluates it fresh at each call site.
			defChild := newChild(c, kindFunction)
			if err := defChild.compileExpression(p.Default); err != nil {
				return nil, err
			}
			defChild.emit(bytecode.OpReturn, p.Default.Line())
			pd.Expr = defChild.chunk
		}
		proto.ParamDefaults = append(proto.ParamDefaults, pd)
	}
	for i := 0; i < child.upvalueCount; i++ {
		proto.Upvalues = append(proto.Upvalues, bytecode.UpvalueInfo{
			Index: child.upvalues[i].Index, IsLocal: child.upvalues[i].IsLocal,
		})
	}
	return proto, nil
}

func (c *Compiler) compileImport(s *ast.ImportStatement) error {
	if c.resolver == nil {
		return c.errf(s.Line(), "import %q: no module resolver configured", s.Name)
	}
	if _, err := c.resolver.Resolve(s.Name); err != nil {
		return c.errf(s.Line(), "cannot resolve import %q: %v", s.Name, err)
	}
	return nil
}

func (c *Compiler) compileReturn(s *ast.ReturnStatement) error {
	line := s.Line()
	if s.Value != nil {
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
	} else {
		c.emit(bytecode.OpNil, line)
	}
	c.emit(bytecode.OpReturn, line)
	return nil
}

func (c *Compiler) compileBreak(s *ast.BreakStatement) error {
	lc := c.currentLoop()
	if lc == nil {
		return c.errf(s.Line(), "'break' outside of a loop")
	}
	jump := c.emitJump(bytecode.OpJump, s.Line())
	lc.breakJumps = append(lc.breakJumps, jump)
	return nil
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) error {
	lc := c.currentLoop()
	if lc == nil {
		return c.errf(s.Line(), "'continue' outside of a loop")
	}
	c.emitLoop(lc.continueTarget, s.Line())
	return nil
}

func (c *Compiler) compileWhile(s *ast.WhileStatement) error {
	line := s.Line()
	loopStart := c.chunk.Len()
	c.pushLoop(loopStart)
	if err := c.compileExpression(s.Cond); err != nil {
		return err
	}
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	c.emit(bytecode.OpPop, line)
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	c.emitLoop(loopStart, line)
	c.patchJump(exitJump)
	c.emit(bytecode.OpPop, line)
	lc := c.popLoop()
	for _, j := range lc.breakJumps {
		c.patchJump(j)
	}
	return nil
}

func (c *Compiler) compileRepeatWhile(s *ast.RepeatWhileStatement) error {
	line := s.Line()
	loopStart := c.chunk.Len()
	c.pushLoop(loopStart)
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	if err := c.compileExpression(s.Cond); err != nil {
		return err
	}
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	c.emitLoop(loopStart, line)
	c.patchJump(exitJump)
	c.emit(bytecode.OpPop, line)
	lc := c.popLoop()
	for _, j := range lc.breakJumps {
		c.patchJump(j)
	}
	return nil
}

// compileForIn lowers `for x in a...b where cond { body }` without
// materializing a collection for the range case (spec.md §4.4).
func (c *Compiler) compileForIn(s *ast.ForInStatement) error {
	line := s.Line()
	c.beginScope()

	if rangeExpr, ok := s.Iterable.(*ast.RangeExpr); ok {
		if err := c.compileExpression(rangeExpr.Low); err != nil {
			return err
		}
		cursorSlot := c.addLocal(s.VarName, false)
		if err := c.compileExpression(rangeExpr.High); err != nil {
			return err
		}
		endSlot := c.addLocal("<end>", true)

		loopStart := c.chunk.Len()
		c.pushLoop(loopStart)

		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(cursorSlot), line)
		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(endSlot), line)
		if rangeExpr.Inclusive {
			c.emit(bytecode.OpGreater, line)
		} else {
			c.emit(bytecode.OpGreaterEqual, line)
		}
		// Cursor-exceeds-bound peeks true when the range is exhausted; the
		// false (still-in-range) path falls through into the body below.
		exceededJump := c.emitJump(bytecode.OpJumpIfFalse, line)
		c.emit(bytecode.OpPop, line)
		breakJump := c.emitJump(bytecode.OpJump, line)
		c.patchJump(exceededJump)
		c.emit(bytecode.OpPop, line)

		if s.Where != nil {
			if err := c.compileExpression(s.Where); err != nil {
				return err
			}
			skipJump := c.emitJump(bytecode.OpJumpIfFalse, line)
			c.emit(bytecode.OpPop, line)
			if err := c.compileStatement(s.Body); err != nil {
				return err
			}
			incJump := c.emitJump(bytecode.OpJump, line)
			c.patchJump(skipJump)
			c.emit(bytecode.OpPop, line)
			c.patchJump(incJump)
		} else {
			if err := c.compileStatement(s.Body); err != nil {
				return err
			}
		}

		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(cursorSlot), line)
		c.emitConstant(value.Int(1), line)
		c.emit(bytecode.OpAdd, line)
		c.emit(bytecode.OpSetLocal, line)
		c.emitShort(uint16(cursorSlot), line)
		c.emit(bytecode.OpPop, line)

		c.emitLoop(loopStart, line)
		c.patchJump(breakJump)

		lc := c.popLoop()
		for _, j := range lc.breakJumps {
			c.patchJump(j)
		}
		c.endScope(line)
		return nil
	}

	return c.errf(line, "for-in over a non-range iterable is not yet supported by this compiler")
}

func (c *Compiler) compileIf(s *ast.IfStatement) error {
	line := s.Line()
	c.beginScope()
	if s.OptBindingName != "" {
		// Bind the local directly to the slot Cond's value already occupies
		// (same trick as the for-in range cursor), then re-fetch a throwaway
		// copy via GET_LOCAL purely to test it for nil; JUMP_IF_NIL peeks, so
		// both branches pop that test copy explicitly before continuing.
		if err := c.compileExpression(s.Cond); err != nil {
			return err
		}
		slot := c.addLocal(s.OptBindingName, s.OptBindingLet)
		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(slot), line)
		jump := c.emitJump(bytecode.OpJumpIfNil, line)
		c.emit(bytecode.OpPop, line)
		if err := c.compileStatement(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			elseEnd := c.emitJump(bytecode.OpJump, line)
			c.patchJump(jump)
			c.emit(bytecode.OpPop, line)
			if err := c.compileStatement(s.Else); err != nil {
				return err
			}
			c.patchJump(elseEnd)
		} else {
			c.patchJump(jump)
			c.emit(bytecode.OpPop, line)
		}
		c.endScope(line)
		return nil
	}

	if err := c.compileExpression(s.Cond); err != nil {
		return err
	}
	thenJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	c.emit(bytecode.OpPop, line)
	if err := c.compileStatement(s.Then); err != nil {
		return err
	}
	if s.Else != nil {
		elseEnd := c.emitJump(bytecode.OpJump, line)
		c.patchJump(thenJump)
		c.emit(bytecode.OpPop, line)
		if err := c.compileStatement(s.Else); err != nil {
			return err
		}
		c.patchJump(elseEnd)
	} else {
		c.patchJump(thenJump)
		c.emit(bytecode.OpPop, line)
	}
	c.endScope(line)
	return nil
}

// compileGuard lowers `guard cond else { ... }` / `guard let x = expr else`:
// the else branch must diverge (return/break/continue/throw), so control
// only ever falls through when the condition holds / the optional is
// non-nil, with the binding available in the enclosing scope afterward.
func (c *Compiler) compileGuard(s *ast.GuardStatement) error {
	line := s.Line()
	if s.OptBindingName != "" {
		// Same slot-reuse trick as compileIf's if-let: the bound local
		// already sits where Cond's value was pushed, and GET_LOCAL fetches
		// a disposable copy purely to test it for nil.
		if err := c.compileExpression(s.Cond); err != nil {
			return err
		}
		slot := c.addLocal(s.OptBindingName, s.OptBindingLet)
		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(slot), line)
		nilJump := c.emitJump(bytecode.OpJumpIfNil, line)
		c.emit(bytecode.OpPop, line)
		skipElse := c.emitJump(bytecode.OpJump, line)
		c.patchJump(nilJump)
		c.emit(bytecode.OpPop, line)
		if err := c.compileStatement(s.ElseBody); err != nil {
			return err
		}
		c.patchJump(skipElse)
		return nil
	}

	if err := c.compileExpression(s.Cond); err != nil {
		return err
	}
	falseJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	c.emit(bytecode.OpPop, line)
	skipElse := c.emitJump(bytecode.OpJump, line)
	c.patchJump(falseJump)
	c.emit(bytecode.OpPop, line)
	if err := c.compileStatement(s.ElseBody); err != nil {
		return err
	}
	c.patchJump(skipElse)
	return nil
}
