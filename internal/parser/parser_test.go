package parser_test

import (
	"testing"

	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/parser"
)

// parse is a test helper: parses input and fails the test on any error.
func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := parser.New(input, "test.sws", false)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v\ninput: %s", err, input)
	}
	return prog
}

// stmtExpr extracts the expression from the nth ExpressionStatement.
func stmtExpr(t *testing.T, prog *ast.Program, idx int) ast.Expression {
	t.Helper()
	if idx >= len(prog.Statements) {
		t.Fatalf("expected at least %d statements, got %d", idx+1, len(prog.Statements))
	}
	es, ok := prog.Statements[idx].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("statement %d: expected ExpressionStatement, got %T", idx, prog.Statements[idx])
	}
	return es.Expr
}

// ---------- Pratt precedence table (spec.md §4.2) ----------

func TestPrecedence_MultiplicationBindsTighterThanAddition(t *testing.T) {
	prog := parse(t, `1 + 2 * 3`)
	top, ok := stmtExpr(t, prog, 0).(*ast.InfixExpr)
	if !ok {
		t.Fatalf("expected top-level InfixExpr, got %T", stmtExpr(t, prog, 0))
	}
	if top.Operator != "+" {
		t.Fatalf("top operator = %q, want %q", top.Operator, "+")
	}
	right, ok := top.Right.(*ast.InfixExpr)
	if !ok || right.Operator != "*" {
		t.Fatalf("right side = %#v, want a * InfixExpr", top.Right)
	}
}

func TestPrecedence_ParensOverrideDefault(t *testing.T) {
	prog := parse(t, `(1 + 2) * 3`)
	top, ok := stmtExpr(t, prog, 0).(*ast.InfixExpr)
	if !ok || top.Operator != "*" {
		t.Fatalf("top = %#v, want * InfixExpr", stmtExpr(t, prog, 0))
	}
	left, ok := top.Left.(*ast.InfixExpr)
	if !ok || left.Operator != "+" {
		t.Fatalf("left side = %#v, want + InfixExpr", top.Left)
	}
}

func TestPrecedence_UnaryBindsTighterThanBinary(t *testing.T) {
	prog := parse(t, `-a + b`)
	top, ok := stmtExpr(t, prog, 0).(*ast.InfixExpr)
	if !ok || top.Operator != "+" {
		t.Fatalf("top = %#v, want + InfixExpr", stmtExpr(t, prog, 0))
	}
	if _, ok := top.Left.(*ast.PrefixExpr); !ok {
		t.Fatalf("left side = %#v, want PrefixExpr", top.Left)
	}
}

func TestPrecedence_LogicalAndBindsTighterThanOr(t *testing.T) {
	prog := parse(t, `a || b && c`)
	top, ok := stmtExpr(t, prog, 0).(*ast.InfixExpr)
	if !ok || top.Operator != "||" {
		t.Fatalf("top = %#v, want || InfixExpr", stmtExpr(t, prog, 0))
	}
	if right, ok := top.Right.(*ast.InfixExpr); !ok || right.Operator != "&&" {
		t.Fatalf("right side = %#v, want && InfixExpr", top.Right)
	}
}

func TestPrecedence_TernaryBindsLooserThanComparison(t *testing.T) {
	prog := parse(t, `a < b ? 1 : 2`)
	top, ok := stmtExpr(t, prog, 0).(*ast.TernaryExpr)
	if !ok {
		t.Fatalf("top = %#v, want TernaryExpr", stmtExpr(t, prog, 0))
	}
	if _, ok := top.Cond.(*ast.InfixExpr); !ok {
		t.Fatalf("cond = %#v, want InfixExpr", top.Cond)
	}
}

func TestPrecedence_AssignmentIsRightAssociative(t *testing.T) {
	prog := parse(t, `a = b = 1`)
	top, ok := stmtExpr(t, prog, 0).(*ast.AssignExpr)
	if !ok {
		t.Fatalf("top = %#v, want AssignExpr", stmtExpr(t, prog, 0))
	}
	if _, ok := top.Value.(*ast.AssignExpr); !ok {
		t.Fatalf("value = %#v, want nested AssignExpr", top.Value)
	}
}

func TestPrecedence_MemberAccessBindsTighterThanCall(t *testing.T) {
	prog := parse(t, `a.b(1)`)
	call, ok := stmtExpr(t, prog, 0).(*ast.CallExpr)
	if !ok {
		t.Fatalf("top = %#v, want CallExpr", stmtExpr(t, prog, 0))
	}
	if _, ok := call.Callee.(*ast.MemberExpr); !ok {
		t.Fatalf("callee = %#v, want MemberExpr", call.Callee)
	}
}

func TestPrecedence_RangeBindsLooserThanAdditive(t *testing.T) {
	prog := parse(t, `1...2 + 3`)
	rangeExpr, ok := stmtExpr(t, prog, 0).(*ast.RangeExpr)
	if !ok {
		t.Fatalf("top = %#v, want RangeExpr", stmtExpr(t, prog, 0))
	}
	if _, ok := rangeExpr.High.(*ast.InfixExpr); !ok {
		t.Fatalf("high = %#v, want InfixExpr", rangeExpr.High)
	}
}

// ---------- tuples ----------

func TestTupleLiteral_Labeled(t *testing.T) {
	prog := parse(t, `(x: 1, y: 2)`)
	tup, ok := stmtExpr(t, prog, 0).(*ast.TupleExpr)
	if !ok {
		t.Fatalf("top = %#v, want TupleExpr", stmtExpr(t, prog, 0))
	}
	if len(tup.Elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(tup.Elements))
	}
}

func TestTupleIndex_And_MemberAccess(t *testing.T) {
	prog := parse(t, "t.1\nt.x")
	if _, ok := stmtExpr(t, prog, 0).(*ast.TupleIndexExpr); !ok {
		t.Fatalf("statement 0 = %#v, want TupleIndexExpr", stmtExpr(t, prog, 0))
	}
	if _, ok := stmtExpr(t, prog, 1).(*ast.MemberExpr); !ok {
		t.Fatalf("statement 1 = %#v, want MemberExpr", stmtExpr(t, prog, 1))
	}
}

// ---------- declarations (spec.md §4.2) ----------

func TestDeclaration_VarWithTypeAndInitializer(t *testing.T) {
	prog := parse(t, `var x: Int = 5`)
	decl, ok := prog.Statements[0].(*ast.VarDeclStatement)
	if !ok {
		t.Fatalf("statement 0 = %#v, want VarDeclStatement", prog.Statements[0])
	}
	if decl.IsLet || decl.Name != "x" || decl.TypeAnnotation == nil {
		t.Fatalf("decl = %+v, want mutable x: Int = 5", decl)
	}
}

func TestDeclaration_LetIsImmutable(t *testing.T) {
	prog := parse(t, `let y = 10`)
	decl, ok := prog.Statements[0].(*ast.VarDeclStatement)
	if !ok || !decl.IsLet {
		t.Fatalf("decl = %#v, want a let declaration", prog.Statements[0])
	}
}

func TestDeclaration_FunctionWithLabeledParams(t *testing.T) {
	prog := parse(t, `
func greet(_ name: String, from city: String) -> String {
    return name
}
`)
	decl, ok := prog.Statements[0].(*ast.FuncDeclStatement)
	if !ok {
		t.Fatalf("statement 0 = %#v, want FuncDeclStatement", prog.Statements[0])
	}
	if decl.Name != "greet" || len(decl.Params) != 2 {
		t.Fatalf("decl = %+v, want greet/2 params", decl)
	}
	if decl.Params[0].ExternalLabel != "_" || decl.Params[1].ExternalLabel != "from" {
		t.Fatalf("params = %+v, want [_ from]", decl.Params)
	}
}

func TestDeclaration_GenericFunction(t *testing.T) {
	prog := parse(t, `
func identity<T>(_ x: T) -> T {
    return x
}
`)
	decl, ok := prog.Statements[0].(*ast.FuncDeclStatement)
	if !ok {
		t.Fatalf("statement 0 = %#v, want FuncDeclStatement", prog.Statements[0])
	}
	if len(decl.GenericParams) != 1 || decl.GenericParams[0].Name != "T" {
		t.Fatalf("generic params = %+v, want [T]", decl.GenericParams)
	}
}

func TestDeclaration_ClassWithSuperclassAndProtocol(t *testing.T) {
	prog := parse(t, `
class Dog: Animal, Named {
    var name: String = ""
}
`)
	decl, ok := prog.Statements[0].(*ast.ClassDeclStatement)
	if !ok {
		t.Fatalf("statement 0 = %#v, want ClassDeclStatement", prog.Statements[0])
	}
	if decl.Superclass != "Animal" {
		t.Fatalf("superclass = %q, want %q", decl.Superclass, "Animal")
	}
	if len(decl.Protocols) != 1 || decl.Protocols[0] != "Named" {
		t.Fatalf("protocols = %+v, want [Named]", decl.Protocols)
	}
}

func TestDeclaration_StructWithMultipleProperties(t *testing.T) {
	prog := parse(t, `
struct Point {
    var x: Int = 0
    var y: Int = 0
}
`)
	decl, ok := prog.Statements[0].(*ast.StructDeclStatement)
	if !ok {
		t.Fatalf("statement 0 = %#v, want StructDeclStatement", prog.Statements[0])
	}
	if decl.Name != "Point" || len(decl.Properties) != 2 {
		t.Fatalf("decl = %+v, want Point/2 properties", decl)
	}
}

func TestDeclaration_EnumWithAssociatedValues(t *testing.T) {
	prog := parse(t, `
enum Result {
    case ok(Int)
    case err(String)
}
`)
	decl, ok := prog.Statements[0].(*ast.EnumDeclStatement)
	if !ok {
		t.Fatalf("statement 0 = %#v, want EnumDeclStatement", prog.Statements[0])
	}
	if decl.Name != "Result" || len(decl.Cases) != 2 {
		t.Fatalf("decl = %+v, want Result/2 cases", decl)
	}
}

// ---------- patterns (switch/case, spec.md §4.2) ----------

func TestPattern_EnumCaseWithLetBinding(t *testing.T) {
	prog := parse(t, `
switch v {
case .ok(let n):
    print(n)
default:
    print(0)
}
`)
	sw, ok := prog.Statements[0].(*ast.SwitchStatement)
	if !ok {
		t.Fatalf("statement 0 = %#v, want SwitchStatement", prog.Statements[0])
	}
	if len(sw.Cases) != 2 {
		t.Fatalf("cases = %d, want 2", len(sw.Cases))
	}
	casePattern, ok := sw.Cases[0].Patterns[0].(*ast.EnumCasePattern)
	if !ok {
		t.Fatalf("pattern 0 = %#v, want EnumCasePattern", sw.Cases[0].Patterns[0])
	}
	if casePattern.CaseName != "ok" || len(casePattern.Bindings) != 1 || casePattern.Bindings[0].Name != "n" {
		t.Fatalf("pattern = %+v, want ok(let n)", casePattern)
	}
	if !sw.Cases[1].IsDefault {
		t.Fatalf("case 1 = %+v, want the default arm", sw.Cases[1])
	}
}

func TestPattern_TuplePattern(t *testing.T) {
	prog := parse(t, `
switch t {
case (1, let b):
    print(b)
default:
    print(0)
}
`)
	sw := prog.Statements[0].(*ast.SwitchStatement)
	tp, ok := sw.Cases[0].Patterns[0].(*ast.TuplePattern)
	if !ok {
		t.Fatalf("pattern 0 = %#v, want TuplePattern", sw.Cases[0].Patterns[0])
	}
	if len(tp.Elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(tp.Elements))
	}
}

func TestPattern_RangePattern(t *testing.T) {
	prog := parse(t, `
switch n {
case 1...5:
    print(1)
default:
    print(0)
}
`)
	sw := prog.Statements[0].(*ast.SwitchStatement)
	if _, ok := sw.Cases[0].Patterns[0].(*ast.RangePattern); !ok {
		t.Fatalf("pattern 0 = %#v, want RangePattern", sw.Cases[0].Patterns[0])
	}
}

// ---------- error recovery ----------

func TestParseError_MissingBraceAfterIf(t *testing.T) {
	p := parser.New(`if true print(1)`, "test.sws", false)
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected a parse error for an if condition missing its opening brace")
	}
}

func TestParseError_MissingParenInCall(t *testing.T) {
	p := parser.New(`print("hi"`, "test.sws", false)
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected a parse error for an unclosed call")
	}
}

func TestParseError_RecoverModeCollectsMultipleErrors(t *testing.T) {
	p := parser.New("if true print(1)\nif false print(2)", "test.sws", true)
	p.Parse()
	if len(p.Errors()) < 2 {
		t.Fatalf("expected at least 2 collected errors in recover mode, got %d", len(p.Errors()))
	}
}
