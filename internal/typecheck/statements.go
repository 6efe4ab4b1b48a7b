package typecheck

import "github.com/29thnight/SwiftScript/internal/ast"

// checkStatement dispatches on the concrete statement kind, per ast.go's
// "type switch rather than a Visitor" convention.
func (c *Checker) checkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclStatement:
		c.checkVarDecl(s)
	case *ast.ExpressionStatement:
		c.inferExpr(s.Expr)
	case *ast.FuncDeclStatement:
		c.checkFuncBody(s, nil)
	case *ast.ClassDeclStatement:
		c.checkTypeBody(s.Name, s.Properties, s.Methods)
	case *ast.StructDeclStatement:
		c.checkTypeBody(s.Name, s.Properties, s.Methods)
	case *ast.EnumDeclStatement:
		c.checkTypeBody(s.Name, s.Properties, s.Methods)
	case *ast.ExtensionDeclStatement:
		c.checkTypeBody(s.TypeName, s.Properties, s.Methods)
	case *ast.ProtocolDeclStatement, *ast.ImportStatement:
		// nothing to check: protocol requirements carry no bodies, imports
		// are resolved by internal/modresolve.
	case *ast.BlockStatement:
		c.pushScope()
		for _, st := range s.Statements {
			c.checkStatement(st)
		}
		c.popScope()
	case *ast.IfStatement:
		c.checkIf(s)
	case *ast.GuardStatement:
		c.checkGuard(s)
	case *ast.WhileStatement:
		c.inferExpr(s.Cond)
		c.checkStatement(s.Body)
	case *ast.RepeatWhileStatement:
		c.checkStatement(s.Body)
		c.inferExpr(s.Cond)
	case *ast.ForInStatement:
		iterT := c.inferExpr(s.Iterable)
		c.pushScope()
		elem := AnyUnknown
		if iterT != nil && iterT.Name == "Array" {
			elem = iterT.Element
		}
		c.scope.define(&Symbol{Name: s.VarName, Type: elem})
		if s.Where != nil {
			c.inferExpr(s.Where)
		}
		for _, st := range s.Body.Statements {
			c.checkStatement(st)
		}
		c.popScope()
	case *ast.SwitchStatement:
		c.checkSwitch(s)
	case *ast.ReturnStatement:
		if s.Value != nil {
			c.inferExpr(s.Value)
		}
	case *ast.ThrowStatement:
		c.inferExpr(s.Value)
	case *ast.BreakStatement, *ast.ContinueStatement:
		// nothing to check
	}
}

func (c *Checker) checkVarDecl(s *ast.VarDeclStatement) {
	declared := c.resolveType(s.TypeAnnotation)
	var actual *Type
	if s.Value != nil {
		actual = c.inferExpr(s.Value)
	}
	if s.Computed != nil {
		c.pushScope()
		for _, st := range s.Computed.Getter.Statements {
			c.checkStatement(st)
		}
		if s.Computed.Setter != nil {
			param := s.Computed.SetterParamName
			if param == "" {
				param = "newValue"
			}
			c.scope.define(&Symbol{Name: param, Type: declared})
			for _, st := range s.Computed.Setter.Statements {
				c.checkStatement(st)
			}
		}
		c.popScope()
	}
	if s.Observers != nil {
		c.checkObserver(s.Observers.WillSet, "newValue", declared)
		c.checkObserver(s.Observers.DidSet, "oldValue", declared)
	}

	switch {
	case declared != nil && actual != nil:
		if !c.isSubtype(actual, declared) {
			c.errorf(s.Line(), "cannot assign value of type %s to %q declared as %s", actual, s.Name, declared)
		}
	case declared == nil && actual != nil:
		declared = actual
	case declared == nil && actual == nil:
		declared = AnyUnknown
	}
	c.scope.define(&Symbol{Name: s.Name, Type: declared, IsLet: s.IsLet})
}

func (c *Checker) checkObserver(o *ast.PropertyObserverDecl, defaultParam string, paramType *Type) {
	if o == nil {
		return
	}
	c.pushScope()
	param := o.ParamName
	if param == "" {
		param = defaultParam
	}
	c.scope.define(&Symbol{Name: param, Type: paramType})
	for _, st := range o.Body.Statements {
		c.checkStatement(st)
	}
	c.popScope()
}

func (c *Checker) checkIf(s *ast.IfStatement) {
	c.inferExpr(s.Cond)
	c.pushScope()
	if s.OptBindingName != "" {
		c.scope.define(&Symbol{Name: s.OptBindingName, Type: AnyUnknown, IsLet: s.OptBindingLet})
	}
	for _, st := range s.Then.Statements {
		c.checkStatement(st)
	}
	c.popScope()
	if s.Else != nil {
		c.checkStatement(s.Else)
	}
}

func (c *Checker) checkGuard(s *ast.GuardStatement) {
	c.inferExpr(s.Cond)
	c.pushScope()
	for _, st := range s.ElseBody.Statements {
		c.checkStatement(st)
	}
	c.popScope()
	if s.OptBindingName != "" {
		c.scope.define(&Symbol{Name: s.OptBindingName, Type: AnyUnknown, IsLet: s.OptBindingLet})
	}
}

func (c *Checker) checkSwitch(s *ast.SwitchStatement) {
	c.inferExpr(s.Subject)
	for _, cs := range s.Cases {
		c.pushScope()
		for _, pat := range cs.Patterns {
			c.bindPattern(pat)
		}
		if cs.Guard != nil {
			c.inferExpr(cs.Guard)
		}
		for _, st := range cs.Body {
			c.checkStatement(st)
		}
		c.popScope()
	}
}

// bindPattern introduces the `let`/named bindings a switch-case pattern
// brings into its arm's scope; it does not re-validate the pattern's shape
// (internal/compiler already rejects a malformed pattern).
func (c *Checker) bindPattern(pat ast.Pattern) {
	switch p := pat.(type) {
	case *ast.IdentifierPattern:
		c.scope.define(&Symbol{Name: p.Name, Type: AnyUnknown, IsLet: p.IsLet})
	case *ast.EnumCasePattern:
		for _, b := range p.Bindings {
			if b.Name == "" {
				continue
			}
			c.scope.define(&Symbol{Name: b.Name, Type: AnyUnknown, IsLet: b.IsLet})
		}
	case *ast.TuplePattern:
		for _, e := range p.Elements {
			c.bindPattern(e)
		}
	case *ast.MultiPattern:
		for _, e := range p.Patterns {
			c.bindPattern(e)
		}
	}
}

// checkTypeBody checks every property initializer and method body of a
// class/struct/enum/extension, with currentType set so access-control and
// mutating-method-on-let checks know what "inside the declaring type" means.
func (c *Checker) checkTypeBody(name string, props []*ast.VarDeclStatement, methods []*ast.FuncDeclStatement) {
	ti, ok := c.types[name]
	if !ok {
		return
	}
	prevType := c.currentType
	c.currentType = ti
	defer func() { c.currentType = prevType }()

	c.pushScope()
	c.scope.define(&Symbol{Name: "self", Type: &Type{Name: name}})
	for _, p := range props {
		if p.Value == nil && p.Computed == nil && p.Observers == nil {
			continue
		}
		c.checkVarDecl(p)
	}
	for _, m := range methods {
		c.checkFuncBody(m, ti)
	}
	c.popScope()
}

func (c *Checker) checkFuncBody(decl *ast.FuncDeclStatement, owner *TypeInfo) {
	if decl.Body == nil {
		return // protocol requirement or extern declaration
	}
	c.pushScope()
	if owner != nil {
		c.scope.define(&Symbol{Name: "self", Type: &Type{Name: owner.Name}})
	}
	for _, p := range decl.Params {
		c.scope.define(&Symbol{Name: p.Name, Type: c.resolveType(p.Type)})
	}
	for _, st := range decl.Body.Statements {
		c.checkStatement(st)
	}
	c.popScope()
}
