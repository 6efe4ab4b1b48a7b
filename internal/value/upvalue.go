package value

// Upvalue is a closure's captured-variable slot. While open, Location points
// at the live stack slot of the enclosing frame so sibling closures observe
// each other's writes; when the enclosing scope exits, the VM closes it by
// copying the value into Closed and repointing Location there.
type Upvalue struct {
	RefCounted
	Location *Value
	Closed   Value
	IsClosed bool
}

func NewOpenUpvalue(slot *Value) *Upvalue {
	return &Upvalue{Location: slot}
}

func (u *Upvalue) Close() {
	if u.IsClosed {
		return
	}
	u.Closed = *u.Location
	u.Location = &u.Closed
	u.IsClosed = true
}

func (u *Upvalue) Get() Value  { return *u.Location }
func (u *Upvalue) Set(v Value) { *u.Location = v }

func (*Upvalue) Type() ObjKind     { return objUpvalue }
func (u *Upvalue) Inspect() string { return "<upvalue>" }
func (u *Upvalue) Equal(o Object) bool {
	other, ok := o.(*Upvalue)
	return ok && other == u
}

// objUpvalue is not part of the public ObjKind enum (upvalues never appear
// as a first-class Value; they are only reachable from a ClosureObject), but
// Upvalue still implements Object so it can share RefCounted bookkeeping.
const objUpvalue ObjKind = 0xFF
