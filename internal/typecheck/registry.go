package typecheck

import "github.com/29thnight/SwiftScript/internal/ast"

// TypeKind distinguishes the four nominal declaration forms spec.md §4
// supports.
type TypeKind int

const (
	KindClass TypeKind = iota
	KindStruct
	KindEnum
	KindProtocol
)

// MethodInfo is one method/initializer signature recorded against a
// TypeInfo, enough to check call-site argument agreement and override
// discipline without re-walking the AST each time.
type MethodInfo struct {
	Decl          *ast.FuncDeclStatement
	DeclaringType string
	IsMutating    bool
	IsStatic      bool
	IsOverride    bool
	IsInitializer bool
	Access        ast.AccessLevel
	Params        []*Type
	ParamLabels   []string
	Result        *Type
}

// PropertyInfo is one property (stored or computed) recorded against a
// TypeInfo.
type PropertyInfo struct {
	Decl   *ast.VarDeclStatement
	Type   *Type
	IsLet  bool
	Access ast.AccessLevel
}

// TypeInfo is one declared class/struct/enum/protocol, gathered by a first
// registration pass before the checking pass runs — funxy's analyzer does
// the same two-pass split (declarations.go populates symbols.Table before
// inference.go type-checks bodies) so forward references between types
// resolve regardless of declaration order.
type TypeInfo struct {
	Name       string
	Kind       TypeKind
	Super      string   // class superclass name, "" if none
	Protocols  []string // declared conformances (class/struct) or inherited protocols (protocol)
	Methods    map[string]*MethodInfo
	Properties map[string]*PropertyInfo
	Cases      map[string]bool // enum case names
	Access     ast.AccessLevel
}

func newTypeInfo(name string, kind TypeKind) *TypeInfo {
	return &TypeInfo{
		Name:       name,
		Kind:       kind,
		Methods:    map[string]*MethodInfo{},
		Properties: map[string]*PropertyInfo{},
		Cases:      map[string]bool{},
	}
}

// lookupMethod walks a class's Super chain, matching internal/value's
// LookupMethod runtime dispatch so the checker's override rule mirrors what
// actually runs.
func (c *Checker) lookupMethod(t *TypeInfo, name string) (*MethodInfo, *TypeInfo) {
	for cur := t; cur != nil; {
		if m, ok := cur.Methods[name]; ok {
			return m, cur
		}
		if cur.Super == "" {
			return nil, nil
		}
		cur = c.types[cur.Super]
	}
	return nil, nil
}
