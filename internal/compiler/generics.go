package compiler

import (
	"strings"

	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/bytecode"
)

// specializeGenericCall, when e.Callee names a registered generic function,
// compiles (once per distinct argument-shape mangled name) a monomorphic
// FunctionPrototype and emits a call to it, per spec.md §4.4 "Generic
// monomorphization": there is no runtime type-parameter dispatch, each
// distinct instantiation gets its own compiled body.
//
// Returns handled=false when e.Callee does not name a generic function, so
// compileCall falls back to its ordinary path.
func (c *Compiler) specializeGenericCall(e *ast.CallExpr) (handled bool, err error) {
	id, ok := e.Callee.(*ast.Identifier)
	if !ok {
		return false, nil
	}
	root := c.root()
	decl, ok := root.genericFuncs[id.Name]
	if !ok {
		return false, nil
	}

	argTypes := make([]string, len(e.Args))
	for i, arg := range e.Args {
		argTypes[i] = mangleArgType(arg.Value)
	}
	mangled := mangleTypeName(id.Name, argTypes)

	if !root.specialized[mangled] {
		if root.specializeDepth >= maxSpecializeDepth {
			return false, c.errf(e.Line(), "generic function %q exceeded maximum specialization depth (%d)", id.Name, maxSpecializeDepth)
		}
		if err := c.checkGenericConstraints(decl, argTypes, e.Line()); err != nil {
			return false, err
		}
		root.specialized[mangled] = true
		root.specializeDepth++
		proto, err := c.compileFunctionPrototype(decl, kindFunction)
		root.specializeDepth--
		if err != nil {
			return false, err
		}
		proto.Name = mangled
		idx := root.chunk.AddFunction(proto)
		line := e.Line()
		root.emit(bytecode.OpClosure, line)
		root.emitShort(idx, line)
		for _, up := range proto.Upvalues {
			emitUpvalueRef(root, up, line)
		}
		root.emit(bytecode.OpDefineGlobal, line)
		root.emitStringRef(mangled, line)
	}

	line := e.Line()
	c.emit(bytecode.OpGetGlobal, line)
	c.emitStringRef(mangled, line)
	for _, arg := range e.Args {
		if err := c.compileExpression(arg.Value); err != nil {
			return false, err
		}
	}
	c.emit(bytecode.OpCall, line)
	c.emitShort(uint16(len(e.Args)), line)
	return true, nil
}

// checkGenericConstraints verifies, for each of decl's generic parameters
// declared with a `<T: Proto>` constraint, that the concrete argument bound
// to T declares conformance to Proto (spec.md §4.4: "A type constraint
// <T: Proto> causes the compiler to verify, at specialization time, that the
// concrete type declares conformance to Proto"). A parameter's type is
// matched to a generic name by simple identifier equality (`x: T`); only
// direct, unparameterized references are checked, mirroring how
// mangleArgType itself only resolves a type tag for argument shapes it can
// see directly.
func (c *Compiler) checkGenericConstraints(decl *ast.FuncDeclStatement, argTypes []string, line int) error {
	constraints := make(map[string]string, len(decl.GenericParams))
	for _, gp := range decl.GenericParams {
		if gp.Constraint != "" {
			constraints[gp.Name] = gp.Constraint
		}
	}
	if len(constraints) == 0 {
		return nil
	}
	for i, param := range decl.Params {
		if i >= len(argTypes) {
			break
		}
		nt, ok := param.Type.(*ast.NamedType)
		if !ok {
			continue
		}
		proto, constrained := constraints[nt.Name]
		if !constrained {
			continue
		}
		if !c.typeConformsTo(argTypes[i], proto) {
			return c.errf(line, "argument %d of type %q does not conform to protocol %q required by generic parameter %q", i+1, argTypes[i], proto, nt.Name)
		}
	}
	return nil
}

// typeConformsTo reports whether typeName declares conformance to protoName,
// walking a class's superclass chain and any conformance added by
// `extension TypeName: Proto`. Types outside the declared registry (builtin
// shapes like "Int"/"Array", or the "Any" fallback mangleArgType returns for
// an argument whose static type it can't narrow) are treated as
// unverifiable rather than non-conforming, since rejecting them would be a
// false positive, not an enforced constraint.
func (c *Compiler) typeConformsTo(typeName, protoName string) bool {
	root := c.root()
	if !root.knownTypes[typeName] {
		return true
	}
	for _, p := range root.extraProtocols[typeName] {
		if p == protoName {
			return true
		}
	}
	if cls, ok := root.classDecls[typeName]; ok {
		for cur := cls; ; {
			for _, p := range cur.Protocols {
				if p == protoName {
					return true
				}
			}
			if cur.Superclass == "" {
				return false
			}
			next, ok := root.classDecls[cur.Superclass]
			if !ok {
				return false
			}
			cur = next
		}
	}
	if st, ok := root.structDecls[typeName]; ok {
		for _, p := range st.Protocols {
			if p == protoName {
				return true
			}
		}
	}
	return false
}

// mangleArgType derives a coarse static type tag from an argument's AST
// shape. This is necessarily approximate without a full type-checked AST,
// but is enough to give distinct instantiations of a generic distinct
// mangled names (spec.md never requires cross-module generic sharing).
func mangleArgType(e ast.Expression) string {
	switch v := e.(type) {
	case *ast.IntegerLiteral:
		return "Int"
	case *ast.FloatLiteral:
		return "Float"
	case *ast.BoolLiteral:
		return "Bool"
	case *ast.StringLiteral, *ast.InterpolatedStringExpr:
		return "String"
	case *ast.ArrayLiteral:
		return "Array"
	case *ast.DictLiteral:
		return "Dictionary"
	case *ast.TupleExpr:
		return "Tuple"
	case *ast.ClosureExpr:
		return "Closure"
	case *ast.TypeCastExpr:
		return sanitizeTypeName(v.Type.String())
	default:
		return "Any"
	}
}

func mangleTypeName(base string, argTypes []string) string {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteByte('$')
	sb.WriteString(strings.Join(argTypes, "_"))
	return sb.String()
}

func sanitizeTypeName(s string) string {
	return strings.NewReplacer("<", "_", ">", "_", ",", "_", " ", "", "?", "Opt", "[", "_", "]", "_").Replace(s)
}
