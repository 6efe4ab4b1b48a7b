package typecheck

import (
	"fmt"

	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/sserr"
)

// Checker holds the state of one type-checking run: the registry of
// declared nominal types, the current scope chain, and the accumulated
// diagnostic list. A Checker is single-use — call Check once per Program.
type Checker struct {
	types       map[string]*TypeInfo
	globals     *Scope
	scope       *Scope
	diagnostics []sserr.Diagnostic

	currentType *TypeInfo // enclosing class/struct/enum/extension, nil at top level
}

// Check runs the full pass over prog and returns a *sserr.TypeError when any
// diagnostic was raised (errors or warnings); ok reports whether compilation
// should proceed (true unless a SeverityError diagnostic was recorded),
// matching spec.md §4.3's "the caller decides whether to proceed".
func Check(prog *ast.Program) (*sserr.TypeError, bool) {
	c := &Checker{
		types:   map[string]*TypeInfo{},
		globals: newScope(nil),
	}
	c.scope = c.globals
	c.registerBuiltins()

	c.declarePass(prog.Statements)
	c.overridePass()
	for _, stmt := range prog.Statements {
		c.checkStatement(stmt)
	}

	if len(c.diagnostics) == 0 {
		return nil, true
	}
	te := &sserr.TypeError{Diagnostics: c.diagnostics}
	return te, !te.HasErrors()
}

func (c *Checker) errorf(line int, format string, args ...any) {
	c.diagnostics = append(c.diagnostics, sserr.Diagnostic{
		Line: line, Message: fmt.Sprintf(format, args...), Severity: sserr.SeverityError,
	})
}

func (c *Checker) warnf(line int, format string, args ...any) {
	c.diagnostics = append(c.diagnostics, sserr.Diagnostic{
		Line: line, Message: fmt.Sprintf(format, args...), Severity: sserr.SeverityWarning,
	})
}

func (c *Checker) pushScope() { c.scope = newScope(c.scope) }
func (c *Checker) popScope()  { c.scope = c.scope.parent }

func (c *Checker) registerBuiltins() {
	c.globals.define(&Symbol{Name: "print", Type: &Type{Params: []*Type{AnyUnknown}, Result: VoidType}})
	c.globals.define(&Symbol{Name: "readLine", Type: &Type{Result: optional(StringType)}})
	c.globals.define(&Symbol{Name: "typeOf", Type: &Type{Params: []*Type{AnyUnknown}, Result: StringType}})
}

// resolveType converts a parsed ast.Type into the checker's own Type,
// returning AnyUnknown for a shape it cannot reason about (a generic
// parameter, an unrecognized protocol existential) rather than raising
// false-positive diagnostics for constructs spec.md §4.3 doesn't fully spec.
func (c *Checker) resolveType(t ast.Type) *Type {
	if t == nil {
		return nil
	}
	switch n := t.(type) {
	case *ast.NamedType:
		var r *Type
		switch n.Name {
		case "List":
			elem := AnyUnknown
			if len(n.Args) == 1 {
				elem = c.resolveType(n.Args[0])
			}
			r = arrayOf(elem)
		case "Map":
			k, v := AnyUnknown, AnyUnknown
			if len(n.Args) == 2 {
				k, v = c.resolveType(n.Args[0]), c.resolveType(n.Args[1])
			}
			r = dictOf(k, v)
		default:
			r = &Type{Name: n.Name}
		}
		if n.IsOptional {
			r = optional(r)
		}
		return r
	case *ast.TupleType:
		elems := make([]*Type, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = c.resolveType(e)
		}
		return &Type{Tuple: elems}
	case *ast.FunctionType:
		params := make([]*Type, len(n.Params))
		for i, p := range n.Params {
			params[i] = c.resolveType(p)
		}
		return &Type{Params: params, Result: c.resolveType(n.Return)}
	default:
		return AnyUnknown
	}
}

// isSubtype reports whether a value of type want can be assigned from a
// value of type got, applying spec.md §4.3's Int→Float widening and
// protocol-conformance subtyping (a concrete type conforming to a declared
// protocol satisfies a parameter/variable typed as that protocol).
func (c *Checker) isSubtype(got, want *Type) bool {
	if got == nil || want == nil || got.Unknown || want.Unknown {
		return true
	}
	if want.IsOptional {
		if got.Name == "Nil" {
			return true
		}
		return c.isSubtype(unwrapOptional(got), unwrapOptional(want))
	}
	if got.IsOptional {
		return false // a T? cannot flow into a plain T without unwrapping
	}
	if got.Name == want.Name {
		return c.compoundMatches(got, want)
	}
	if want.Name == "Float" && got.Name == "Int" {
		return true
	}
	if ti, ok := c.types[got.Name]; ok {
		for _, p := range ti.Protocols {
			if p == want.Name {
				return true
			}
		}
		if ti.Kind == KindClass && ti.Super != "" {
			return c.isSubtype(&Type{Name: ti.Super}, want)
		}
	}
	return false
}

func (c *Checker) compoundMatches(got, want *Type) bool {
	switch got.Name {
	case "Array":
		return c.isSubtype(got.Element, want.Element)
	case "Dictionary":
		return c.isSubtype(got.Key, want.Key) && c.isSubtype(got.Value, want.Value)
	default:
		return true
	}
}
