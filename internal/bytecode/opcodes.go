// Package bytecode defines the compiled form SwiftScript source is lowered
// to by internal/compiler and executed by internal/vm: opcodes, the
// per-function Chunk, and the Assembly container that bundles every Chunk,
// string, constant and protocol produced from one compilation into a single
// serializable unit.
package bytecode

// OpCode is a single VM instruction.
type OpCode byte

const (
	// Constants & stack
	OpConstant OpCode = iota
	OpString
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpDup

	// Arithmetic
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpNegate

	// Bitwise
	OpBitwiseNot
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpLeftShift
	OpRightShift

	// Comparison
	OpEqual
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual

	// Logic
	OpNot

	// Variables
	OpGetGlobal
	OpSetGlobal
	OpDefineGlobal
	OpGetLocal
	OpSetLocal

	// Control flow
	OpJump
	OpJumpIfFalse
	OpJumpIfNil
	OpLoop

	// Functions / types
	OpClosure
	OpClass
	OpMethod
	OpDefineProperty
	OpDefineComputedProperty
	OpDefinePropertyWithObservers
	OpInherit
	OpCall
	OpCallNamed
	OpReturn

	// Upvalues
	OpGetUpvalue
	OpSetUpvalue
	OpCloseUpvalue

	// Objects & members
	OpGetProperty
	OpSetProperty
	OpSuper
	OpOptionalChain

	// Optionals
	OpUnwrap
	OpNilCoalesce

	// Ranges
	OpRangeInclusive
	OpRangeExclusive

	// Collections
	OpArray
	OpDict
	OpGetSubscript
	OpSetSubscript

	// Tuples
	OpTuple
	OpGetTupleIndex
	OpGetTupleLabel

	// Structs
	OpStruct
	OpStructMethod
	OpCopyValue

	// Enums
	OpEnum
	OpEnumCase
	OpMatchEnumCase
	OpGetAssociated

	// Protocols
	OpProtocol

	// Type operators
	OpTypeCheck
	OpTypeCast
	OpTypeCastOptional
	OpTypeCastForced

	// Errors
	OpThrow

	// Misc
	OpReadLine
	OpPrint
	OpHalt
)

var opcodeNames = map[OpCode]string{
	OpConstant: "CONSTANT", OpString: "STRING", OpNil: "NIL", OpTrue: "TRUE", OpFalse: "FALSE",
	OpPop: "POP", OpDup: "DUP",
	OpAdd: "ADD", OpSubtract: "SUBTRACT", OpMultiply: "MULTIPLY", OpDivide: "DIVIDE",
	OpModulo: "MODULO", OpNegate: "NEGATE",
	OpBitwiseNot: "BITWISE_NOT", OpBitwiseAnd: "BITWISE_AND", OpBitwiseOr: "BITWISE_OR",
	OpBitwiseXor: "BITWISE_XOR", OpLeftShift: "LEFT_SHIFT", OpRightShift: "RIGHT_SHIFT",
	OpEqual: "EQUAL", OpNotEqual: "NOT_EQUAL", OpLess: "LESS", OpGreater: "GREATER",
	OpLessEqual: "LESS_EQUAL", OpGreaterEqual: "GREATER_EQUAL",
	OpNot: "NOT",
	OpGetGlobal: "GET_GLOBAL", OpSetGlobal: "SET_GLOBAL", OpDefineGlobal: "DEFINE_GLOBAL",
	OpGetLocal: "GET_LOCAL", OpSetLocal: "SET_LOCAL",
	OpJump: "JUMP", OpJumpIfFalse: "JUMP_IF_FALSE", OpJumpIfNil: "JUMP_IF_NIL", OpLoop: "LOOP",
	OpClosure: "CLOSURE", OpClass: "CLASS", OpMethod: "METHOD",
	OpDefineProperty: "DEFINE_PROPERTY", OpDefineComputedProperty: "DEFINE_COMPUTED_PROPERTY",
	OpDefinePropertyWithObservers: "DEFINE_PROPERTY_WITH_OBSERVERS",
	OpInherit:                     "INHERIT", OpCall: "CALL", OpCallNamed: "CALL_NAMED", OpReturn: "RETURN",
	OpGetUpvalue: "GET_UPVALUE", OpSetUpvalue: "SET_UPVALUE", OpCloseUpvalue: "CLOSE_UPVALUE",
	OpGetProperty: "GET_PROPERTY", OpSetProperty: "SET_PROPERTY", OpSuper: "SUPER",
	OpOptionalChain: "OPTIONAL_CHAIN",
	OpUnwrap:        "UNWRAP", OpNilCoalesce: "NIL_COALESCE",
	OpRangeInclusive: "RANGE_INCLUSIVE", OpRangeExclusive: "RANGE_EXCLUSIVE",
	OpArray: "ARRAY", OpDict: "DICT", OpGetSubscript: "GET_SUBSCRIPT", OpSetSubscript: "SET_SUBSCRIPT",
	OpTuple: "TUPLE", OpGetTupleIndex: "GET_TUPLE_INDEX", OpGetTupleLabel: "GET_TUPLE_LABEL",
	OpStruct: "STRUCT", OpStructMethod: "STRUCT_METHOD", OpCopyValue: "COPY_VALUE",
	OpEnum: "ENUM", OpEnumCase: "ENUM_CASE", OpMatchEnumCase: "MATCH_ENUM_CASE",
	OpGetAssociated: "GET_ASSOCIATED",
	OpProtocol:      "PROTOCOL",
	OpTypeCheck:     "TYPE_CHECK", OpTypeCast: "TYPE_CAST", OpTypeCastOptional: "TYPE_CAST_OPTIONAL",
	OpTypeCastForced: "TYPE_CAST_FORCED",
	OpThrow:          "THROW",
	OpReadLine:       "READ_LINE", OpPrint: "PRINT", OpHalt: "HALT",
}

func (op OpCode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "UNKNOWN"
}
