package typecheck

import "github.com/29thnight/SwiftScript/internal/ast"

// inferExpr computes (and where relevant, validates) the type of expr,
// returning AnyUnknown for anything the checker cannot reason about rather
// than failing — spec.md §4.3 calls this an optional pass, so an
// under-modeled construct should never itself produce a false diagnostic.
func (c *Checker) inferExpr(expr ast.Expression) *Type {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return IntType
	case *ast.FloatLiteral:
		return FloatType
	case *ast.BoolLiteral:
		return BoolType
	case *ast.StringLiteral:
		return StringType
	case *ast.InterpolatedStringExpr:
		for _, seg := range e.Segments {
			c.inferExpr(seg)
		}
		return StringType
	case *ast.NilLiteral:
		return NilType
	case *ast.SelfExpr:
		if sym, _ := c.scope.lookup("self"); sym != nil {
			return sym.Type
		}
		return AnyUnknown
	case *ast.SuperExpr:
		if c.currentType != nil && c.currentType.Super != "" {
			return &Type{Name: c.currentType.Super}
		}
		return AnyUnknown
	case *ast.Identifier:
		if sym, _ := c.scope.lookup(e.Name); sym != nil {
			return sym.Type
		}
		if _, ok := c.types[e.Name]; ok {
			return &Type{Name: e.Name}
		}
		c.errorf(e.Line(), "use of undeclared identifier %q", e.Name)
		return AnyUnknown
	case *ast.PrefixExpr:
		return c.inferExpr(e.Right)
	case *ast.InfixExpr:
		return c.checkInfix(e)
	case *ast.RangeExpr:
		c.inferExpr(e.Low)
		c.inferExpr(e.High)
		return &Type{Name: "Range"}
	case *ast.TernaryExpr:
		c.inferExpr(e.Cond)
		thenT := c.inferExpr(e.Then)
		elseT := c.inferExpr(e.Else)
		if c.isSubtype(elseT, thenT) {
			return thenT
		}
		return AnyUnknown
	case *ast.AssignExpr:
		return c.checkAssign(e)
	case *ast.CallExpr:
		return c.checkCall(e)
	case *ast.MemberExpr:
		return c.checkMember(e)
	case *ast.TupleIndexExpr:
		t := c.inferExpr(e.Target)
		if t != nil && t.Tuple != nil && e.Index < len(t.Tuple) {
			return t.Tuple[e.Index]
		}
		return AnyUnknown
	case *ast.SubscriptExpr:
		target := c.inferExpr(e.Target)
		c.inferExpr(e.Index)
		switch {
		case target != nil && target.Name == "Array":
			return optional(target.Element)
		case target != nil && target.Name == "Dictionary":
			return optional(target.Value)
		default:
			return AnyUnknown
		}
	case *ast.ForceUnwrapExpr:
		t := c.inferExpr(e.Target)
		return unwrapOptional(t)
	case *ast.NilCoalesceExpr:
		c.inferExpr(e.Left)
		return c.inferExpr(e.Right)
	case *ast.ArrayLiteral:
		var elem *Type
		for _, el := range e.Elements {
			t := c.inferExpr(el)
			if elem == nil {
				elem = t
			}
		}
		if elem == nil {
			elem = AnyUnknown
		}
		return arrayOf(elem)
	case *ast.DictLiteral:
		var k, v *Type
		for _, entry := range e.Entries {
			kt := c.inferExpr(entry.Key)
			vt := c.inferExpr(entry.Value)
			if k == nil {
				k, v = kt, vt
			}
		}
		if k == nil {
			k, v = AnyUnknown, AnyUnknown
		}
		return dictOf(k, v)
	case *ast.TupleExpr:
		elems := make([]*Type, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = c.inferExpr(el)
		}
		return &Type{Tuple: elems}
	case *ast.TypeCheckExpr:
		c.inferExpr(e.Value)
		return BoolType
	case *ast.TypeCastExpr:
		c.inferExpr(e.Value)
		target := c.resolveType(e.Type)
		if e.Kind != ast.CastPlain {
			return optional(target)
		}
		return target
	case *ast.ClosureExpr:
		return c.checkClosure(e)
	case *ast.EnumCaseConstructorExpr:
		if e.EnumName != "" {
			return &Type{Name: e.EnumName}
		}
		return AnyUnknown
	default:
		return AnyUnknown
	}
}

func (c *Checker) checkInfix(e *ast.InfixExpr) *Type {
	left := c.inferExpr(e.Left)
	right := c.inferExpr(e.Right)
	switch e.Operator {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return BoolType
	}
	if isNumeric(left) && isNumeric(right) {
		if left.Name == "Float" || right.Name == "Float" {
			return FloatType
		}
		return IntType
	}
	if e.Operator == "+" && left != nil && left.Name == "String" {
		return StringType
	}
	// Anything else (operator overload dispatch, Optional arithmetic) is
	// resolved at runtime by internal/vm's operatorOverload fallback; the
	// checker stays silent rather than guessing wrong.
	return AnyUnknown
}

// checkAssign enforces spec.md §4.3's immutability rule: assigning to a
// name bound by `let` anywhere in the current scope chain is an error.
func (c *Checker) checkAssign(e *ast.AssignExpr) *Type {
	valueT := c.inferExpr(e.Value)
	switch target := e.Target.(type) {
	case *ast.Identifier:
		sym, _ := c.scope.lookup(target.Name)
		if sym != nil {
			if sym.IsLet {
				c.errorf(e.Line(), "cannot assign to %q: it was declared with \"let\"", target.Name)
			} else if e.Operator == "=" && !c.isSubtype(valueT, sym.Type) {
				c.errorf(e.Line(), "cannot assign value of type %s to %q of type %s", valueT, target.Name, sym.Type)
			}
		}
		return sym.typeOrUnknown()
	case *ast.MemberExpr:
		return c.checkMember(target)
	default:
		c.inferExpr(e.Target)
		return AnyUnknown
	}
}

func (s *Symbol) typeOrUnknown() *Type {
	if s == nil {
		return AnyUnknown
	}
	return s.Type
}

// checkCall validates argument count and label/positional agreement against
// a resolved function or method signature, and subtype-checks each
// argument's value against its parameter type.
func (c *Checker) checkCall(e *ast.CallExpr) *Type {
	var params []*Type
	var labels []string
	var result *Type = AnyUnknown

	switch callee := e.Callee.(type) {
	case *ast.Identifier:
		if sym, _ := c.scope.lookup(callee.Name); sym != nil && sym.Type != nil {
			params, labels, result = sym.Type.Params, sym.Type.ParamLabels, sym.Type.Result
		} else if ti, ok := c.types[callee.Name]; ok {
			// Constructor call: check against the matching initializer, if any.
			if ctor, _ := c.lookupMethod(ti, "init"); ctor != nil {
				params, labels = ctor.Params, ctor.ParamLabels
			}
			result = &Type{Name: ti.Name}
		}
	case *ast.MemberExpr:
		recv := c.inferExpr(callee.Target)
		if mi := c.resolveMethod(recv, callee.Name, callee.Line()); mi != nil {
			params, labels, result = mi.Params, mi.ParamLabels, mi.Result
			if mi.IsMutating {
				c.checkMutatingReceiver(callee.Target, callee.Line())
			}
		}
	default:
		c.inferExpr(e.Callee)
	}

	if params != nil {
		c.checkArgs(e, params, labels)
	} else {
		for _, a := range e.Args {
			c.inferExpr(a.Value)
		}
	}
	if result == nil {
		result = AnyUnknown
	}
	return result
}

// checkArgs validates fixed arity; a variadic trailing parameter's arity is
// left to internal/compiler, which already enforces it at the call site.
func (c *Checker) checkArgs(e *ast.CallExpr, params []*Type, labels []string) {
	if len(e.Args) != len(params) {
		c.errorf(e.Line(), "call to %s expects %d argument(s), got %d", calleeName(e.Callee), len(params), len(e.Args))
	}
	for i, a := range e.Args {
		argT := c.inferExpr(a.Value)
		if i >= len(params) {
			continue
		}
		if labels != nil && i < len(labels) && labels[i] != "" && labels[i] != "_" && a.Label != "" && a.Label != labels[i] {
			c.errorf(e.Line(), "argument %d: expected label %q, got %q", i+1, labels[i], a.Label)
		}
		if !c.isSubtype(argT, params[i]) {
			c.errorf(e.Line(), "argument %d: cannot convert value of type %s to expected type %s", i+1, argT, params[i])
		}
	}
}

func calleeName(e ast.Expression) string {
	switch callee := e.(type) {
	case *ast.Identifier:
		return callee.Name
	case *ast.MemberExpr:
		return callee.Name
	default:
		return "<expr>"
	}
}

// resolveMethod looks up name on recv's declared type, recording a
// diagnostic for an unknown member but returning nil (rather than
// AnyUnknown's method info) so the caller skips argument checking.
func (c *Checker) resolveMethod(recv *Type, name string, line int) *MethodInfo {
	if recv == nil || recv.Unknown {
		return nil
	}
	ti, ok := c.types[recv.Name]
	if !ok {
		return nil
	}
	m, _ := c.lookupMethod(ti, name)
	return m
}

// checkMutatingReceiver enforces spec.md §4.3's second immutability clause:
// calling a mutating method on a value-type receiver bound by `let` is an
// error. Reference types (classes) are unaffected, since a class instance's
// fields are mutable through any binding.
func (c *Checker) checkMutatingReceiver(target ast.Expression, line int) {
	ident, ok := target.(*ast.Identifier)
	if !ok {
		return
	}
	sym, _ := c.scope.lookup(ident.Name)
	if sym == nil || !sym.IsLet {
		return
	}
	ti, ok := c.types[sym.Type.Name]
	if !ok || ti.Kind == KindClass {
		return
	}
	c.errorf(line, "cannot call a mutating method on %q: it is a \"let\" constant", ident.Name)
}

// checkMember validates access control (spec.md §4.3: `private` only inside
// the declaring type, extensions of the same type counted as inside since
// declarePass already merged their members into the same TypeInfo) and
// returns the member's type.
func (c *Checker) checkMember(e *ast.MemberExpr) *Type {
	recv := c.inferExpr(e.Target)
	if recv == nil || recv.Unknown {
		return AnyUnknown
	}
	base := unwrapOptional(recv)
	ti, ok := c.types[base.Name]
	if !ok {
		return AnyUnknown
	}
	if p, ok := ti.Properties[e.Name]; ok {
		c.checkAccess(p.Access, ti, e.Line(), e.Name)
		t := p.Type
		if recv.IsOptional || e.Optional {
			t = optional(t)
		}
		return t
	}
	if m, declType := c.lookupMethod(ti, e.Name); m != nil {
		c.checkAccess(m.Access, declType, e.Line(), e.Name)
		return &Type{Params: m.Params, Result: m.Result}
	}
	if ti.Kind == KindEnum && ti.Cases[e.Name] {
		return &Type{Name: ti.Name}
	}
	c.errorf(e.Line(), "value of type %q has no member %q", ti.Name, e.Name)
	return AnyUnknown
}

func (c *Checker) checkAccess(access ast.AccessLevel, declType *TypeInfo, line int, name string) {
	if access != ast.AccessPrivate {
		return // internal/public unrestricted; fileprivate declared but not enforced (spec.md §9)
	}
	if c.currentType == nil || c.currentType.Name != declType.Name {
		c.errorf(line, "%q is private; it is only accessible inside %q", name, declType.Name)
	}
}

func (c *Checker) checkClosure(e *ast.ClosureExpr) *Type {
	c.pushScope()
	params := make([]*Type, len(e.Params))
	for i, p := range e.Params {
		t := c.resolveType(p.Type)
		if t == nil {
			t = AnyUnknown
		}
		params[i] = t
		c.scope.define(&Symbol{Name: p.Name, Type: t})
	}
	for _, st := range e.Body.Statements {
		c.checkStatement(st)
	}
	c.popScope()
	result := c.resolveType(e.ReturnType)
	if result == nil {
		result = AnyUnknown
	}
	return &Type{Params: params, Result: result}
}
