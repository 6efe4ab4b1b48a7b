// Package compiler lowers internal/ast into internal/bytecode's Assembly: a
// single walk that resolves locals/upvalues, emits struct value-copy
// instructions, and monomorphizes generic functions by mangled name, per
// spec.md §4.4. Generic class/struct/enum declarations are not specialized.
package compiler

import (
	"fmt"

	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/sserr"
	"github.com/29thnight/SwiftScript/internal/value"
)

// Local mirrors one compile-time local variable slot.
type Local struct {
	Name       string
	Depth      int
	Slot       int
	IsCaptured bool
	IsLet      bool
	TypeName   string
}

// Upvalue is the compile-time twin of bytecode.UpvalueInfo.
type Upvalue struct {
	Index   uint16
	IsLocal bool
}

// funcKind distinguishes top-level script code from a function/method body,
// mirroring the teacher's TYPE_SCRIPT/TYPE_FUNCTION split.
type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

// loopContext tracks the information needed to patch break/continue jumps.
type loopContext struct {
	continueTarget int
	breakJumps     []int
	scopeDepth     int
}

// Compiler walks one function body (or the top-level script) and writes into
// its own Chunk; nested functions get their own Compiler chained through
// enclosing, exactly like the teacher's per-function compiler instances.
type Compiler struct {
	chunk    *bytecode.Chunk
	kind     funcKind
	enclosing *Compiler

	locals     []Local
	localCount int
	scopeDepth int
	slotCount  int

	upvalues     []Upvalue
	upvalueCount int

	loopStack []loopContext

	// currentType names the enclosing class/struct/enum while compiling one
	// of its members, so `self`/`super` and private-field access resolve.
	currentType string
	// superType names currentType's declared superclass, if any.
	superType string

	// genericFuncs/specialized let nested compilers share the
	// whole-Assembly specialization state; only the root Compiler's maps are
	// consulted (mirrors the teacher's functionRegistry on the root).
	genericFuncs map[string]*ast.FuncDeclStatement
	specialized  map[string]bool

	// classDecls/structDecls/knownTypes/extraProtocols record every
	// class/struct/enum declaration and extension-granted conformance seen in
	// the program's top-level pass, so specializeGenericCall can check a
	// `<T: Proto>` constraint against a concrete argument's declared
	// conformance (spec.md §4.4, "Generic monomorphization").
	classDecls     map[string]*ast.ClassDeclStatement
	structDecls    map[string]*ast.StructDeclStatement
	knownTypes     map[string]bool
	extraProtocols map[string][]string

	// specializeDepth counts nested specialize() calls on the root compiler,
	// guarding against runaway recursive generic instantiation (e.g. a
	// generic function that calls itself with a wrapped argument type).
	specializeDepth int

	resolver ModuleResolver
}

// maxSpecializeDepth bounds how many generic instantiations can nest before
// the compiler gives up, mirroring the teacher's recursion guard.
const maxSpecializeDepth = 8

// ModuleResolver is the compiler's injected collaborator for `import`
// statements (spec.md §6, "module resolver (injected)").
type ModuleResolver interface {
	Resolve(importName string) (absPath string, err error)
}

// New creates a root compiler for top-level script code.
func New(resolver ModuleResolver) *Compiler {
	return &Compiler{
		chunk:        bytecode.NewChunk(),
		kind:         kindScript,
		locals:       make([]Local, 256),
		upvalues:     make([]Upvalue, 256),
		genericFuncs:   make(map[string]*ast.FuncDeclStatement),
		specialized:    make(map[string]bool),
		classDecls:     make(map[string]*ast.ClassDeclStatement),
		structDecls:    make(map[string]*ast.StructDeclStatement),
		knownTypes:     make(map[string]bool),
		extraProtocols: make(map[string][]string),
		resolver:       resolver,
	}
}

func newChild(enclosing *Compiler, kind funcKind) *Compiler {
	return &Compiler{
		chunk:        bytecode.NewChunk(),
		kind:         kind,
		locals:       make([]Local, 256),
		upvalues:     make([]Upvalue, 256),
		scopeDepth:   1,
		enclosing:    enclosing,
		currentType:  enclosing.currentType,
		superType:    enclosing.superType,
		genericFuncs:   enclosing.root().genericFuncs,
		specialized:    enclosing.root().specialized,
		classDecls:     enclosing.root().classDecls,
		structDecls:    enclosing.root().structDecls,
		knownTypes:     enclosing.root().knownTypes,
		extraProtocols: enclosing.root().extraProtocols,
		resolver:       enclosing.resolver,
	}
}

func (c *Compiler) root() *Compiler {
	r := c
	for r.enclosing != nil {
		r = r.enclosing
	}
	return r
}

// Compile lowers a parsed program into a complete Assembly.
func Compile(sourceFile string, program *ast.Program, resolver ModuleResolver) (*bytecode.Assembly, error) {
	c := New(resolver)

	// First pass: register every top-level generic function, and every
	// type's declared/extended protocol conformance, so a forward reference
	// to a not-yet-declared generic or type can still specialize/verify.
	for _, stmt := range program.Statements {
		switch s := stmt.(type) {
		case *ast.FuncDeclStatement:
			if len(s.GenericParams) > 0 {
				c.genericFuncs[s.Name] = s
			}
		case *ast.ClassDeclStatement:
			c.classDecls[s.Name] = s
			c.knownTypes[s.Name] = true
		case *ast.StructDeclStatement:
			c.structDecls[s.Name] = s
			c.knownTypes[s.Name] = true
		case *ast.EnumDeclStatement:
			c.knownTypes[s.Name] = true
		case *ast.ExtensionDeclStatement:
			if len(s.Protocols) > 0 {
				c.extraProtocols[s.TypeName] = append(c.extraProtocols[s.TypeName], s.Protocols...)
			}
		}
	}

	for i, stmt := range program.Statements {
		// The program's trailing expression statement, if any, leaves its
		// value on the stack instead of popping it — the way a REPL's last
		// entry does — so OP_HALT can hand it back as the script's result.
		if i == len(program.Statements)-1 {
			if es, ok := stmt.(*ast.ExpressionStatement); ok {
				if err := c.compileExpression(es.Expr); err != nil {
					return nil, err
				}
				continue
			}
		}
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(bytecode.OpHalt, program.Line())

	asm := bytecode.NewAssembly(sourceFile)
	asm.Main = c.chunk
	return asm, nil
}

func (c *Compiler) currentChunk() *bytecode.Chunk { return c.chunk }

func (c *Compiler) errf(line int, format string, args ...any) error {
	return &sserr.CompileError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// ---- emit helpers ----

func (c *Compiler) emit(op bytecode.OpCode, line int) { c.chunk.WriteOp(op, line) }

func (c *Compiler) emitByte(b byte, line int) { c.chunk.Write(b, line) }

func (c *Compiler) emitShort(v uint16, line int) { c.chunk.WriteShort(v, line) }

func (c *Compiler) emitConstant(v value.Value, line int) { c.chunk.WriteConstant(v, line) }

func (c *Compiler) emitString(s string, line int) uint16 {
	idx := c.chunk.AddString(s)
	c.emit(bytecode.OpString, line)
	c.emitShort(idx, line)
	return idx
}

// emitStringRef writes just a string-pool index, for opcodes whose operand
// is a name (GET_PROPERTY, METHOD, ...) rather than a pushed STRING value.
func (c *Compiler) emitStringRef(s string, line int) {
	idx := c.chunk.AddString(s)
	c.emitShort(idx, line)
}

func (c *Compiler) emitJump(op bytecode.OpCode, line int) int { return c.chunk.EmitJump(op, line) }

func (c *Compiler) patchJump(offset int) { c.chunk.PatchJump(offset) }

func (c *Compiler) emitLoop(start int, line int) { c.chunk.EmitLoop(start, line) }

// ---- scope & locals ----

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope(line int) {
	c.scopeDepth--
	for c.localCount > 0 && c.locals[c.localCount-1].Depth > c.scopeDepth {
		if c.locals[c.localCount-1].IsCaptured {
			c.emit(bytecode.OpCloseUpvalue, line)
		} else {
			c.emit(bytecode.OpPop, line)
		}
		c.slotCount--
		c.localCount--
	}
}

// emitScopeCleanup emits the same Pop/CloseUpvalue sequence endScope would
// for the current scope's locals, but leaves scopeDepth/localCount/slotCount
// untouched. Used when a scope has more than one runtime exit path: each
// earlier exit calls this to pop its copy of the bindings, and the final
// exit calls the real endScope once to fold the bookkeeping.
func (c *Compiler) emitScopeCleanup(line int) {
	for i := c.localCount - 1; i >= 0 && c.locals[i].Depth > c.scopeDepth; i-- {
		if c.locals[i].IsCaptured {
			c.emit(bytecode.OpCloseUpvalue, line)
		} else {
			c.emit(bytecode.OpPop, line)
		}
	}
}

func (c *Compiler) addLocal(name string, isLet bool) int {
	slot := c.slotCount
	c.locals[c.localCount] = Local{Name: name, Depth: c.scopeDepth, Slot: slot, IsLet: isLet}
	c.localCount++
	c.slotCount++
	return slot
}

func (c *Compiler) resolveLocal(name string) (slot int, isLet bool, found bool) {
	for i := c.localCount - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot, c.locals[i].IsLet, true
		}
	}
	return -1, false, false
}

func (c *Compiler) resolveUpvalue(name string) int {
	if c.enclosing == nil {
		return -1
	}
	if slot, _, ok := c.enclosing.resolveLocal(name); ok {
		for i := 0; i < c.enclosing.localCount; i++ {
			if c.enclosing.locals[i].Slot == slot {
				c.enclosing.locals[i].IsCaptured = true
			}
		}
		return c.addUpvalue(uint16(slot), true)
	}
	if up := c.enclosing.resolveUpvalue(name); up != -1 {
		return c.addUpvalue(uint16(up), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(index uint16, isLocal bool) int {
	for i := 0; i < c.upvalueCount; i++ {
		if c.upvalues[i].Index == index && c.upvalues[i].IsLocal == isLocal {
			return i
		}
	}
	c.upvalues[c.upvalueCount] = Upvalue{Index: index, IsLocal: isLocal}
	c.upvalueCount++
	return c.upvalueCount - 1
}

// ---- loops ----

func (c *Compiler) pushLoop(continueTarget int) {
	c.loopStack = append(c.loopStack, loopContext{continueTarget: continueTarget, scopeDepth: c.scopeDepth})
}

func (c *Compiler) popLoop() loopContext {
	lc := c.loopStack[len(c.loopStack)-1]
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	return lc
}

func (c *Compiler) currentLoop() *loopContext {
	if len(c.loopStack) == 0 {
		return nil
	}
	return &c.loopStack[len(c.loopStack)-1]
}
