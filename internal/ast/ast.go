// Package ast defines the typed AST produced by internal/parser and consumed
// by internal/typecheck and internal/compiler.
//
// Node kinds are plain Go types grouped behind the Statement/Expression
// interfaces; the compiler dispatches on them with a type switch rather than
// a Visitor, per spec.md §9's "sum type ... visited by a dispatch function"
// guidance.
package ast

import "github.com/29thnight/SwiftScript/internal/token"

// Node is the Base interface implemented by every AST node.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
	Line() int
}

// Statement is a Node appearing in a statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node appearing in an expression position.
type Expression interface {
	Node
	expressionNode()
}

// Type is a parsed type annotation.
type Type interface {
	Node
	typeNode()
	String() string
}

// Pattern is a switch/case or destructuring pattern.
type Pattern interface {
	Node
	patternNode()
}

type Base struct {
	Tok token.Token
}

func (b Base) TokenLiteral() string   { return b.Tok.Lexeme }
func (b Base) GetToken() token.Token  { return b.Tok }
func (b Base) Line() int              { return b.Tok.Line }

// Program is the root of every parsed file.
type Program struct {
	Base
	File       string
	Imports    []*ImportStatement
	Statements []Statement
}

// ---- Types ----

// NamedType is a simple or generic-instantiated type name: Int, [Int],
// Pair<Int, String>.
type NamedType struct {
	Base
	Name        string
	Args        []Type // generic type arguments, if any
	IsOptional  bool    // trailing `?`
}

func (t *NamedType) typeNode()      {}
func (t *NamedType) String() string { return t.Name }

// TupleType is `(T1, T2, ...)`.
type TupleType struct {
	Base
	Elements []Type
	Labels   []string // parallel; "" when unlabeled
}

func (t *TupleType) typeNode()      {}
func (t *TupleType) String() string { return "(tuple)" }

// FunctionType is `(T1, T2) -> R`.
type FunctionType struct {
	Base
	Params []Type
	Return Type
}

func (t *FunctionType) typeNode()      {}
func (t *FunctionType) String() string { return "(function)" }

// ---- Expressions ----

type Identifier struct {
	Base
	Name string
}

func (*Identifier) expressionNode() {}

type IntegerLiteral struct {
	Base
	Value int64
}

func (*IntegerLiteral) expressionNode() {}

type FloatLiteral struct {
	Base
	Value float64
}

func (*FloatLiteral) expressionNode() {}

type BoolLiteral struct {
	Base
	Value bool
}

func (*BoolLiteral) expressionNode() {}

type NilLiteral struct{ Base }

func (*NilLiteral) expressionNode() {}

type StringLiteral struct {
	Base
	Value string
}

func (*StringLiteral) expressionNode() {}

// InterpolatedStringExpr is the left-folded concatenation the parser lowers
// interpolated string literals into (spec.md §4.1): a sequence of literal
// segments and embedded expressions, evaluated left to right and
// concatenated into a single String.
type InterpolatedStringExpr struct {
	Base
	Segments []Expression // StringLiteral segments and arbitrary sub-expressions, in order
}

func (*InterpolatedStringExpr) expressionNode() {}

type SelfExpr struct{ Base }

func (*SelfExpr) expressionNode() {}

type SuperExpr struct{ Base }

func (*SuperExpr) expressionNode() {}

// PrefixExpr is a unary operator expression: -x, !x, ~x.
type PrefixExpr struct {
	Base
	Operator string
	Right    Expression
}

func (*PrefixExpr) expressionNode() {}

// InfixExpr is a binary operator expression.
type InfixExpr struct {
	Base
	Left     Expression
	Operator string
	Right    Expression
}

func (*InfixExpr) expressionNode() {}

// RangeExpr is `a...b` or `a..<b`.
type RangeExpr struct {
	Base
	Low, High Expression
	Inclusive bool
}

func (*RangeExpr) expressionNode() {}

// TernaryExpr is `cond ? then : else`.
type TernaryExpr struct {
	Base
	Cond, Then, Else Expression
}

func (*TernaryExpr) expressionNode() {}

// AssignExpr is an l-value assignment; Target is itself an Expression so the
// compiler can distinguish Identifier/MemberExpr/SubscriptExpr/TupleExpr
// targets without post-hoc analysis (spec.md §4.2).
type AssignExpr struct {
	Base
	Target   Expression
	Operator string // "=", "+=", "-=", "*=", "/="
	Value    Expression
}

func (*AssignExpr) expressionNode() {}

// Argument is one call argument, optionally labeled.
type Argument struct {
	Label string // "" when positional
	Value Expression
}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	Base
	Callee Expression
	Args   []Argument
}

func (*CallExpr) expressionNode() {}

// MemberExpr is `target.name` or `target?.name`.
type MemberExpr struct {
	Base
	Target   Expression
	Name     string
	Optional bool // `?.`
}

func (*MemberExpr) expressionNode() {}

// TupleIndexExpr is `target.0`, `target.1`.
type TupleIndexExpr struct {
	Base
	Target Expression
	Index  int
}

func (*TupleIndexExpr) expressionNode() {}

// SubscriptExpr is `target[index]`.
type SubscriptExpr struct {
	Base
	Target Expression
	Index  Expression
}

func (*SubscriptExpr) expressionNode() {}

// ForceUnwrapExpr is `target!`.
type ForceUnwrapExpr struct {
	Base
	Target Expression
}

func (*ForceUnwrapExpr) expressionNode() {}

// NilCoalesceExpr is `lhs ?? rhs`.
type NilCoalesceExpr struct {
	Base
	Left, Right Expression
}

func (*NilCoalesceExpr) expressionNode() {}

// ArrayLiteral is `[e1, e2, ...]`.
type ArrayLiteral struct {
	Base
	Elements []Expression
}

func (*ArrayLiteral) expressionNode() {}

// DictEntry is one `key: value` pair of a dictionary literal.
type DictEntry struct {
	Key, Value Expression
}

// DictLiteral is `[k1: v1, k2: v2]`.
type DictLiteral struct {
	Base
	Entries []DictEntry
}

func (*DictLiteral) expressionNode() {}

// TupleExpr is `(e1, e2, ...)`, optionally labeled `(x: 1, y: 2)`.
type TupleExpr struct {
	Base
	Elements []Expression
	Labels   []string // parallel; "" when unlabeled
}

func (*TupleExpr) expressionNode() {}

// TypeCheckExpr is `value is Type`.
type TypeCheckExpr struct {
	Base
	Value Expression
	Type  Type
}

func (*TypeCheckExpr) expressionNode() {}

// TypeCastKind distinguishes `as`, `as?`, `as!`.
type TypeCastKind int

const (
	CastPlain TypeCastKind = iota
	CastOptional
	CastForced
)

type TypeCastExpr struct {
	Base
	Value Expression
	Type  Type
	Kind  TypeCastKind
}

func (*TypeCastExpr) expressionNode() {}

// ClosureParam is one parameter of a closure literal.
type ClosureParam struct {
	Name string
	Type Type // may be nil (inferred)
}

// ClosureExpr is a `{ params in body }` or `func`-literal closure value.
type ClosureExpr struct {
	Base
	Params     []ClosureParam
	ReturnType Type
	Body       *BlockStatement
}

func (*ClosureExpr) expressionNode() {}

// EnumCaseConstructorExpr is a reference to an enum case used as a value,
// e.g. `.ok` in `switch v { case .ok: ... }` or a bare case constructor.
type EnumCaseConstructorExpr struct {
	Base
	EnumName string // "" if inferred from context (leading-dot shorthand)
	CaseName string
}

func (*EnumCaseConstructorExpr) expressionNode() {}

// ---- Patterns (switch/case, tuple destructuring) ----

type LiteralPattern struct {
	Base
	Value Expression
}

func (*LiteralPattern) patternNode() {}

type RangePattern struct {
	Base
	Low, High Expression
	Inclusive bool
}

func (*RangePattern) patternNode() {}

// MultiPattern is `case a, b, c:`.
type MultiPattern struct {
	Base
	Patterns []Pattern
}

func (*MultiPattern) patternNode() {}

// EnumCasePattern is `case .ok(let n):` with per-argument bindings.
type EnumCasePattern struct {
	Base
	EnumName string
	CaseName string
	Bindings []EnumCaseBinding
}

// EnumCaseBinding is one associated-value binding inside an enum-case pattern.
type EnumCaseBinding struct {
	Label   string // external label, "" if positional
	Name    string // "" for a wildcard `_`
	IsLet   bool
}

func (*EnumCasePattern) patternNode() {}

type IdentifierPattern struct {
	Base
	Name  string
	IsLet bool
}

func (*IdentifierPattern) patternNode() {}

// TuplePattern is `(a, b)` destructuring, or a tuple-shaped switch pattern.
type TuplePattern struct {
	Base
	Elements []Pattern
}

func (*TuplePattern) patternNode() {}

type WildcardPattern struct{ Base }

func (*WildcardPattern) patternNode() {}

type DefaultPattern struct{ Base }

func (*DefaultPattern) patternNode() {}

// ---- Statements ----

type BlockStatement struct {
	Base
	Statements []Statement
}

func (*BlockStatement) statementNode() {}

type ExpressionStatement struct {
	Base
	Expr Expression
}

func (*ExpressionStatement) statementNode() {}

// PropertyObserverDecl holds a willSet/didSet closure body.
type PropertyObserverDecl struct {
	ParamName string // defaults to "newValue"/"oldValue" when omitted
	Body      *BlockStatement
}

// ComputedPropertyDecl holds get/set closures for a computed property.
type ComputedPropertyDecl struct {
	Getter *BlockStatement
	Setter *BlockStatement // nil for read-only
	SetterParamName string // defaults to "newValue"
}

// AccessLevel enumerates spec.md §4.3 access modifiers.
type AccessLevel int

const (
	AccessInternal AccessLevel = iota
	AccessPrivate
	AccessPublic
	AccessFileprivate
)

// VarDeclStatement is `var`/`let name: Type = init` with all its optional
// modifiers (spec.md §4.2).
type VarDeclStatement struct {
	Base
	IsLet          bool
	Name           string
	Pattern        Pattern // non-nil for `let (a, b) = expr` destructuring
	TypeAnnotation Type
	Value          Expression
	Computed       *ComputedPropertyDecl
	Observers      *PropertyObserverDecl2
	IsLazy         bool
	IsStatic       bool
	IsWeak         bool
	IsUnowned      bool
	Access         AccessLevel
}

func (*VarDeclStatement) statementNode() {}

// PropertyObserverDecl2 bundles optional willSet/didSet bodies.
type PropertyObserverDecl2 struct {
	WillSet *PropertyObserverDecl
	DidSet  *PropertyObserverDecl
}

// Param is one function/method parameter.
type Param struct {
	ExternalLabel string // "" means same as Name; "_" means no label required
	Name          string
	Type          Type
	Default       Expression
	IsVariadic    bool
}

// FuncDeclStatement is a `func` declaration (free function or method).
type FuncDeclStatement struct {
	Base
	Name          string
	GenericParams []GenericParam
	Params        []Param
	ReturnType    Type
	ExpectedError Type // `expected <ErrorType>` clause, nil if absent
	Body          *BlockStatement
	IsMutating    bool
	IsStatic      bool
	IsOverride    bool
	IsInitializer bool
	Access        AccessLevel
}

func (*FuncDeclStatement) statementNode() {}

// GenericParam is `<T: Proto>` or a bare `<T>`.
type GenericParam struct {
	Name       string
	Constraint string // protocol name required, "" if unconstrained
}

// ClassDeclStatement is a `class` declaration.
type ClassDeclStatement struct {
	Base
	Name          string
	GenericParams []GenericParam
	Superclass    string
	Protocols     []string
	Properties    []*VarDeclStatement
	Methods       []*FuncDeclStatement
	DeinitBody    *BlockStatement
	Access        AccessLevel
}

func (*ClassDeclStatement) statementNode() {}

// StructDeclStatement is a `struct` declaration.
type StructDeclStatement struct {
	Base
	Name          string
	GenericParams []GenericParam
	Protocols     []string
	Properties    []*VarDeclStatement
	Methods       []*FuncDeclStatement
	Access        AccessLevel
}

func (*StructDeclStatement) statementNode() {}

// EnumCaseDecl is one `case` line of an enum; either a simple case with an
// optional raw value, or a case with associated-value parameters.
type EnumCaseDecl struct {
	Name        string
	RawValue    Expression  // nil if absent
	Params      []Param     // non-nil means this case has associated values
}

// EnumDeclStatement is an `enum` declaration.
type EnumDeclStatement struct {
	Base
	Name       string
	RawType    Type // nil if this enum has no raw-value backing
	Cases      []EnumCaseDecl
	Methods    []*FuncDeclStatement
	Properties []*VarDeclStatement
	Access     AccessLevel
}

func (*EnumDeclStatement) statementNode() {}

// ProtocolMethodReq is one method requirement of a protocol.
type ProtocolMethodReq struct {
	Name       string
	ParamNames []string
	IsMutating bool
}

// ProtocolPropertyReq is one property requirement of a protocol.
type ProtocolPropertyReq struct {
	Name      string
	HasGetter bool
	HasSetter bool
}

// ProtocolDeclStatement is a `protocol` declaration.
type ProtocolDeclStatement struct {
	Base
	Name                string
	InheritedProtocols  []string
	MethodRequirements  []ProtocolMethodReq
	PropertyRequirements []ProtocolPropertyReq
}

func (*ProtocolDeclStatement) statementNode() {}

// ExtensionDeclStatement is an `extension` adding members/conformance to an
// existing named type.
type ExtensionDeclStatement struct {
	Base
	TypeName   string
	Protocols  []string
	Methods    []*FuncDeclStatement
	Properties []*VarDeclStatement
}

func (*ExtensionDeclStatement) statementNode() {}

// ImportStatement is `import Name`.
type ImportStatement struct {
	Base
	Name  string
	Alias string // "" if none
}

func (*ImportStatement) statementNode() {}

// SwitchCase is one `case pattern[, pattern...] [where guard]:` arm, or the
// `default:` arm when Patterns is nil.
type SwitchCase struct {
	Patterns []Pattern
	Guard    Expression // nil if no `where` clause
	Body     []Statement
	IsDefault bool
}

type SwitchStatement struct {
	Base
	Subject Expression
	Cases   []SwitchCase
}

func (*SwitchStatement) statementNode() {}

// ForInStatement is `for name in iterable where cond { body }`.
type ForInStatement struct {
	Base
	VarName  string
	Iterable Expression
	Where    Expression // nil if absent
	Body     *BlockStatement
}

func (*ForInStatement) statementNode() {}

type WhileStatement struct {
	Base
	Cond Expression
	Body *BlockStatement
}

func (*WhileStatement) statementNode() {}

// RepeatWhileStatement is `repeat { body } while cond`.
type RepeatWhileStatement struct {
	Base
	Body *BlockStatement
	Cond Expression
}

func (*RepeatWhileStatement) statementNode() {}

type IfStatement struct {
	Base
	Cond   Expression
	OptBindingLet bool        // true for `if let name = expr`
	OptBindingName string
	Then   *BlockStatement
	Else   Statement // *BlockStatement or *IfStatement, nil if absent
}

func (*IfStatement) statementNode() {}

// GuardStatement is `guard cond else { ... }` or `guard let x = expr else { ... }`.
type GuardStatement struct {
	Base
	Cond           Expression
	OptBindingLet  bool
	OptBindingName string
	ElseBody       *BlockStatement
}

func (*GuardStatement) statementNode() {}

type ReturnStatement struct {
	Base
	Value Expression // nil for bare `return`
}

func (*ReturnStatement) statementNode() {}

type BreakStatement struct{ Base }

func (*BreakStatement) statementNode() {}

type ContinueStatement struct{ Base }

func (*ContinueStatement) statementNode() {}

type ThrowStatement struct {
	Base
	Value Expression
}

func (*ThrowStatement) statementNode() {}

// NewBase constructs the embeddable Base for hand-built nodes in tests.
func NewBase(tok token.Token) Base { return Base{Tok: tok} }
