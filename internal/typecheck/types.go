// Package typecheck implements spec.md §4.3's optional static-checking pass:
// per-scope symbol tables, declared/initializer type agreement, call-site
// argument checking, access control, `let` immutability, and override
// discipline. Grounded on funxy/internal/analyzer's processor-plus-passes
// shape and funxy/internal/symbols' Symbol/Scope model, trimmed to the much
// smaller nominal (non-unifying) type system spec.md §4.3 actually asks for
// — dispatch stays a type switch over internal/ast nodes rather than a
// visitor, matching ast.go's own stated design.
package typecheck

// Type is the checker's own lightweight type representation: a named
// nominal type (primitive, class, struct, enum, or protocol), optionally
// wrapped as an array, dictionary, optional, or function type. Unlike
// funxy's typesystem.Type this never unifies or carries type variables —
// spec.md §4.3 only asks for declared-vs-actual agreement, not inference.
type Type struct {
	Name       string // "Int", "String", "Point", "" for compound kinds below
	IsOptional bool
	Element    *Type   // non-nil for Array
	Key, Value *Type    // non-nil for Dictionary
	Params      []*Type // non-nil for Function
	ParamLabels []string // parallel to Params; "" means positional
	Result      *Type    // non-nil for Function
	Tuple      []*Type // non-nil for Tuple
	Unknown    bool    // checker could not determine a type; suppresses further diagnostics
}

var (
	IntType    = &Type{Name: "Int"}
	FloatType  = &Type{Name: "Float"}
	BoolType   = &Type{Name: "Bool"}
	StringType = &Type{Name: "String"}
	VoidType   = &Type{Name: "Void"}
	NilType    = &Type{Name: "Nil"}
	AnyUnknown = &Type{Unknown: true}
)

func arrayOf(e *Type) *Type             { return &Type{Name: "Array", Element: e} }
func dictOf(k, v *Type) *Type           { return &Type{Name: "Dictionary", Key: k, Value: v} }
func optional(t *Type) *Type {
	if t == nil {
		return nil
	}
	cp := *t
	cp.IsOptional = true
	return &cp
}

// String renders t for diagnostic messages.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Unknown {
		return "_"
	}
	suffix := ""
	if t.IsOptional {
		suffix = "?"
	}
	switch {
	case t.Name == "Array":
		return "[" + t.Element.String() + "]" + suffix
	case t.Name == "Dictionary":
		return "[" + t.Key.String() + ": " + t.Value.String() + "]" + suffix
	case t.Params != nil || t.Result != nil:
		return "(function)" + suffix
	case t.Tuple != nil:
		return "(tuple)" + suffix
	default:
		return t.Name + suffix
	}
}

// unwrapOptional returns the non-optional form of t.
func unwrapOptional(t *Type) *Type {
	if t == nil || !t.IsOptional {
		return t
	}
	cp := *t
	cp.IsOptional = false
	return &cp
}

// isNumeric reports whether t is Int or Float.
func isNumeric(t *Type) bool {
	return t != nil && (t.Name == "Int" || t.Name == "Float")
}
