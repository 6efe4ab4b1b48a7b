package typecheck

import "github.com/29thnight/SwiftScript/internal/ast"

// declarePass registers every class/struct/enum/protocol (and folds in
// extensions) before any body is checked, so a method body can reference a
// type declared later in the file — mirroring funxy/internal/analyzer's
// declarations.go running fully before inference.go.
func (c *Checker) declarePass(stmts []ast.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FuncDeclStatement:
			params := make([]*Type, len(s.Params))
			labels := make([]string, len(s.Params))
			for i, p := range s.Params {
				params[i] = c.resolveType(p.Type)
				label := p.ExternalLabel
				if label == "" {
					label = p.Name
				}
				labels[i] = label
			}
			result := c.resolveType(s.ReturnType)
			if result == nil {
				result = VoidType
			}
			c.globals.define(&Symbol{Name: s.Name, Type: &Type{Params: params, ParamLabels: labels, Result: result}})
		case *ast.ClassDeclStatement:
			ti := newTypeInfo(s.Name, KindClass)
			ti.Super = s.Superclass
			ti.Protocols = s.Protocols
			ti.Access = s.Access
			c.declareMethods(ti, s.Methods)
			c.declareProperties(ti, s.Properties)
			c.types[s.Name] = ti
		case *ast.StructDeclStatement:
			ti := newTypeInfo(s.Name, KindStruct)
			ti.Protocols = s.Protocols
			ti.Access = s.Access
			c.declareMethods(ti, s.Methods)
			c.declareProperties(ti, s.Properties)
			c.types[s.Name] = ti
		case *ast.EnumDeclStatement:
			ti := newTypeInfo(s.Name, KindEnum)
			ti.Access = s.Access
			for _, cs := range s.Cases {
				ti.Cases[cs.Name] = true
			}
			c.declareMethods(ti, s.Methods)
			c.declareProperties(ti, s.Properties)
			c.types[s.Name] = ti
		case *ast.ProtocolDeclStatement:
			ti := newTypeInfo(s.Name, KindProtocol)
			ti.Protocols = s.InheritedProtocols
			for _, m := range s.MethodRequirements {
				ti.Methods[m.Name] = &MethodInfo{DeclaringType: s.Name, IsMutating: m.IsMutating}
			}
			for _, p := range s.PropertyRequirements {
				ti.Properties[p.Name] = &PropertyInfo{Type: AnyUnknown}
			}
			c.types[s.Name] = ti
		}
	}
	// Extensions are folded in after every primary declaration exists, the
	// way compiler/classes.go merges extension methods into a type's method
	// table at compile time.
	for _, stmt := range stmts {
		if ext, ok := stmt.(*ast.ExtensionDeclStatement); ok {
			ti, ok := c.types[ext.TypeName]
			if !ok {
				c.errorf(ext.Line(), "extension of undeclared type %q", ext.TypeName)
				continue
			}
			ti.Protocols = append(ti.Protocols, ext.Protocols...)
			c.declareMethods(ti, ext.Methods)
			c.declareProperties(ti, ext.Properties)
		}
	}
}

func (c *Checker) declareMethods(ti *TypeInfo, decls []*ast.FuncDeclStatement) {
	for _, m := range decls {
		info := &MethodInfo{
			Decl:          m,
			DeclaringType: ti.Name,
			IsMutating:    m.IsMutating,
			IsStatic:      m.IsStatic,
			IsOverride:    m.IsOverride,
			IsInitializer: m.IsInitializer,
			Access:        m.Access,
			Result:        c.resolveType(m.ReturnType),
		}
		for _, p := range m.Params {
			info.Params = append(info.Params, c.resolveType(p.Type))
			label := p.ExternalLabel
			if label == "" {
				label = p.Name
			}
			info.ParamLabels = append(info.ParamLabels, label)
		}
		ti.Methods[m.Name] = info
	}
}

func (c *Checker) declareProperties(ti *TypeInfo, decls []*ast.VarDeclStatement) {
	for _, p := range decls {
		pt := c.resolveType(p.TypeAnnotation)
		if pt == nil && p.Value != nil {
			pt = c.inferExpr(p.Value)
		}
		if pt == nil {
			pt = AnyUnknown
		}
		ti.Properties[p.Name] = &PropertyInfo{Decl: p, Type: pt, IsLet: p.IsLet, Access: p.Access}
	}
}
