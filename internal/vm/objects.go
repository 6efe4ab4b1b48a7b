package vm

import "github.com/29thnight/SwiftScript/internal/value"

// enumCaseCtorKind is a reserved ObjKind for enumCaseCtor, the callable
// produced by GET_PROPERTY when a case carries associated values (spec.md
// §4.4 "Enum cases"); it never appears as a case value itself, only as the
// transient callee of the CALL that follows it, mirroring how
// value.Upvalue reserves its own out-of-band kind for the same reason.
const enumCaseCtorKind value.ObjKind = 0xFE

// enumCaseCtor is what GET_PROPERTY pushes for `EnumName.caseName` when the
// case declares associated values: a callable that CALL turns into a
// value.EnumCaseObject once its arguments are evaluated.
type enumCaseCtor struct {
	value.RefCounted
	Enum     *value.EnumTypeObject
	CaseName string
}

func (*enumCaseCtor) Type() value.ObjKind { return enumCaseCtorKind }
func (e *enumCaseCtor) Inspect() string   { return "<case constructor ." + e.CaseName + ">" }
func (e *enumCaseCtor) Equal(o value.Object) bool {
	other, ok := o.(*enumCaseCtor)
	return ok && other == e
}

// superRefKind is another reserved, never-a-real-value ObjKind: OP_SUPER
// pushes a superRef so the GET_PROPERTY/CALL that follows resolves against
// self's superclass chain instead of self's own (possibly overriding) class.
const superRefKind value.ObjKind = 0xFD

type superRef struct {
	value.RefCounted
	Self  value.Value
	Start *value.ClassObject
}

func (*superRef) Type() value.ObjKind { return superRefKind }
func (*superRef) Inspect() string     { return "<super>" }
func (s *superRef) Equal(o value.Object) bool {
	other, ok := o.(*superRef)
	return ok && other == s
}
