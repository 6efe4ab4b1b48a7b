package compiler

import (
	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/bytecode"
)

// compileSwitch lowers a switch statement to a chain of pattern tests against
// the subject value, evaluated top to bottom so the first matching case wins
// deterministically (spec.md §4.4 "Switch", §8 Testable Property #8).
func (c *Compiler) compileSwitch(s *ast.SwitchStatement) error {
	line := s.Line()
	c.beginScope()
	if err := c.compileExpression(s.Subject); err != nil {
		return err
	}
	subjectSlot := c.addLocal("<switch-subject>", true)

	var endJumps []int
	var pendingCaseFail []int

	for _, cs := range s.Cases {
		for _, j := range pendingCaseFail {
			c.patchJump(j)
		}
		pendingCaseFail = nil

		c.beginScope()

		if cs.IsDefault {
			for _, stmt := range cs.Body {
				if err := c.compileStatement(stmt); err != nil {
					return err
				}
			}
			c.endScope(line)
			endJumps = append(endJumps, c.emitJump(bytecode.OpJump, line))
			continue
		}

		// Each comma-separated pattern is tried in turn; the first that
		// matches jumps straight to the body. If every one fails, control
		// falls through to caseFail, which the next case's test patches.
		var bodyJumps []int
		for _, pat := range cs.Patterns {
			f, err := c.compilePatternTest(pat, subjectSlot, line)
			if err != nil {
				return err
			}
			bodyJumps = append(bodyJumps, c.emitJump(bytecode.OpJump, line))
			if f != -1 {
				c.patchJump(f) // a failed pattern falls through to the next one
			}
		}
		caseFail := c.emitJump(bytecode.OpJump, line)
		for _, b := range bodyJumps {
			c.patchJump(b)
		}

		if cs.Guard != nil {
			if err := c.compileExpression(cs.Guard); err != nil {
				return err
			}
			guardFail := c.emitJump(bytecode.OpJumpIfFalse, line)
			c.emit(bytecode.OpPop, line)
			for _, stmt := range cs.Body {
				if err := c.compileStatement(stmt); err != nil {
					return err
				}
			}
			// The match-success path leaves the case scope here; the
			// guard-fail path below leaves it too. Both need the bound
			// patterns popped, but endScope's bookkeeping only runs once,
			// on whichever path is emitted last.
			c.emitScopeCleanup(line)
			endJumps = append(endJumps, c.emitJump(bytecode.OpJump, line))
			c.patchJump(guardFail)
			c.emit(bytecode.OpPop, line)
			c.endScope(line)
			pendingCaseFail = append(pendingCaseFail, caseFail, c.emitJump(bytecode.OpJump, line))
		} else {
			for _, stmt := range cs.Body {
				if err := c.compileStatement(stmt); err != nil {
					return err
				}
			}
			c.endScope(line)
			endJumps = append(endJumps, c.emitJump(bytecode.OpJump, line))
			pendingCaseFail = append(pendingCaseFail, caseFail)
		}
	}

	for _, j := range pendingCaseFail {
		c.patchJump(j)
	}
	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.endScope(line)
	return nil
}

// compilePatternTest emits code that leaves no value on the stack: on match
// it falls through having bound any pattern variables as locals; on failure
// it jumps to the offset the caller patches. Returns -1 for a pattern that
// always matches (bare identifier/wildcard binding), so no jump needs
// patching.
func (c *Compiler) compilePatternTest(pat ast.Pattern, subjectSlot int, line int) (failJump int, err error) {
	switch p := pat.(type) {
	case *ast.WildcardPattern, *ast.DefaultPattern:
		return -1, nil

	case *ast.IdentifierPattern:
		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(subjectSlot), line)
		c.emit(bytecode.OpCopyValue, line)
		c.addLocal(p.Name, p.IsLet)
		return -1, nil

	case *ast.LiteralPattern:
		// JUMP_IF_FALSE peeks; both the match and no-match path pop their own
		// copy so the stack is exactly as it was on entry either way, which
		// is the contract every failJump caller relies on.
		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(subjectSlot), line)
		if err := c.compileExpression(p.Value); err != nil {
			return -1, err
		}
		c.emit(bytecode.OpEqual, line)
		notEqual := c.emitJump(bytecode.OpJumpIfFalse, line)
		c.emit(bytecode.OpPop, line)
		matched := c.emitJump(bytecode.OpJump, line)
		c.patchJump(notEqual)
		c.emit(bytecode.OpPop, line)
		fail := c.emitJump(bytecode.OpJump, line)
		c.patchJump(matched)
		return fail, nil

	case *ast.RangePattern:
		// Each comparison's JUMP_IF_FALSE only peeks, so the true path pops
		// its own peeked value; both false paths converge on one shared Pop
		// before the caller's failJump, since at most one of them ever runs.
		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(subjectSlot), line)
		if err := c.compileExpression(p.Low); err != nil {
			return -1, err
		}
		c.emit(bytecode.OpGreaterEqual, line)
		lowFail := c.emitJump(bytecode.OpJumpIfFalse, line)
		c.emit(bytecode.OpPop, line)

		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(subjectSlot), line)
		if err := c.compileExpression(p.High); err != nil {
			return -1, err
		}
		if p.Inclusive {
			c.emit(bytecode.OpLessEqual, line)
		} else {
			c.emit(bytecode.OpLess, line)
		}
		highFail := c.emitJump(bytecode.OpJumpIfFalse, line)
		c.emit(bytecode.OpPop, line)
		okJump := c.emitJump(bytecode.OpJump, line)
		c.patchJump(lowFail)
		c.patchJump(highFail)
		c.emit(bytecode.OpPop, line)
		fail := c.emitJump(bytecode.OpJump, line)
		c.patchJump(okJump)
		return fail, nil

	case *ast.EnumCasePattern:
		// MATCH_ENUM_CASE pops (subject, caseName) and pushes a bool; as with
		// every other leaf test here, both outcomes pop their own peeked copy
		// before falling through/jumping so the stack stays balanced.
		c.emit(bytecode.OpGetLocal, line)
		c.emitShort(uint16(subjectSlot), line)
		c.emitString(p.CaseName, line)
		c.emit(bytecode.OpMatchEnumCase, line)
		notMatched := c.emitJump(bytecode.OpJumpIfFalse, line)
		c.emit(bytecode.OpPop, line)
		for i, b := range p.Bindings {
			if b.Name == "" {
				continue
			}
			c.emit(bytecode.OpGetLocal, line)
			c.emitShort(uint16(subjectSlot), line)
			c.emit(bytecode.OpGetAssociated, line)
			c.emitByte(byte(i), line)
			c.emit(bytecode.OpCopyValue, line)
			c.addLocal(b.Name, b.IsLet)
		}
		matched := c.emitJump(bytecode.OpJump, line)
		c.patchJump(notMatched)
		c.emit(bytecode.OpPop, line)
		fail := c.emitJump(bytecode.OpJump, line)
		c.patchJump(matched)
		return fail, nil

	case *ast.TuplePattern:
		var jumps []int
		for i, elemPat := range p.Elements {
			c.emit(bytecode.OpGetLocal, line)
			c.emitShort(uint16(subjectSlot), line)
			c.emit(bytecode.OpGetTupleIndex, line)
			c.emitByte(byte(i), line)
			elemSlot := c.addLocal("<tuple-elem>", true)
			j, err := c.compilePatternTest(elemPat, elemSlot, line)
			if err != nil {
				return -1, err
			}
			if j != -1 {
				jumps = append(jumps, j)
			}
		}
		if len(jumps) == 0 {
			return -1, nil
		}
		ok := c.emitJump(bytecode.OpJump, line)
		for _, j := range jumps {
			c.patchJump(j)
		}
		fail := c.emitJump(bytecode.OpJump, line)
		c.patchJump(ok)
		return fail, nil

	default:
		return -1, c.errf(line, "unsupported switch pattern %T", pat)
	}
}
