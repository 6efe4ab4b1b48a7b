package typecheck

import (
	"strings"
	"testing"

	"github.com/29thnight/SwiftScript/internal/parser"
	"github.com/29thnight/SwiftScript/internal/sserr"
)

func checkSource(t *testing.T, src string) ([]sserr.Diagnostic, bool) {
	t.Helper()
	p := parser.New(src, "test.sws", false)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	te, ok := Check(prog)
	if te == nil {
		return nil, ok
	}
	return te.Diagnostics, ok
}

func expectNoErrors(t *testing.T, src string) {
	t.Helper()
	diags, ok := checkSource(t, src)
	if !ok {
		var msgs []string
		for _, d := range diags {
			if d.Severity == sserr.SeverityError {
				msgs = append(msgs, d.Error())
			}
		}
		t.Fatalf("expected no errors, got:\n%s", strings.Join(msgs, "\n"))
	}
}

func expectErrorContaining(t *testing.T, src, substr string) {
	t.Helper()
	diags, ok := checkSource(t, src)
	if ok {
		t.Fatalf("expected a type error, got none")
	}
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.Message)
	}
	t.Fatalf("expected an error containing %q, got:\n%s", substr, strings.Join(msgs, "\n"))
}

func TestLetReassignmentIsError(t *testing.T) {
	expectErrorContaining(t, `
let x = 1
x = 2
`, "cannot assign")
}

func TestVarReassignmentIsFine(t *testing.T) {
	expectNoErrors(t, `
var x = 1
x = 2
`)
}

func TestIntWidensToFloatDeclaration(t *testing.T) {
	expectNoErrors(t, `
let x: Float = 1
`)
}

func TestDeclaredTypeMismatchIsError(t *testing.T) {
	expectErrorContaining(t, `
let x: String = 1
`, "cannot assign")
}

func TestUndeclaredIdentifierIsError(t *testing.T) {
	expectErrorContaining(t, `
print(doesNotExist)
`, "undeclared identifier")
}

func TestCallArgumentCountMismatch(t *testing.T) {
	expectErrorContaining(t, `
func add(a: Int, b: Int) -> Int {
    return a + b
}
add(1)
`, "expects 2 argument")
}

func TestOverrideMissingKeywordIsError(t *testing.T) {
	expectErrorContaining(t, `
class Animal {
    func speak() {
    }
}
class Dog: Animal {
    func speak() {
    }
}
`, "missing the \"override\" keyword")
}

func TestOverrideWithoutAncestorIsError(t *testing.T) {
	expectErrorContaining(t, `
class Animal {
}
class Dog: Animal {
    override func speak() {
    }
}
`, "no such ancestor method")
}

func TestOverrideWithKeywordIsFine(t *testing.T) {
	expectNoErrors(t, `
class Animal {
    func speak() {
    }
}
class Dog: Animal {
    override func speak() {
    }
}
`)
}

func TestPrivateMemberOutsideTypeIsError(t *testing.T) {
	expectErrorContaining(t, `
class Box {
    private var secret: Int = 1
}
let b = Box()
print(b.secret)
`, "is private")
}

func TestMutatingMethodOnLetStructIsError(t *testing.T) {
	expectErrorContaining(t, `
struct Counter {
    var count: Int = 0
    mutating func increment() {
        count = count + 1
    }
}
let c = Counter()
c.increment()
`, "let")
}

func TestMutatingMethodOnVarStructIsFine(t *testing.T) {
	expectNoErrors(t, `
struct Counter {
    var count: Int = 0
    mutating func increment() {
        count = count + 1
    }
}
var c = Counter()
c.increment()
`)
}

func TestInitializerOverrideIsExempt(t *testing.T) {
	expectNoErrors(t, `
class Base {
    init() {
    }
}
class Derived: Base {
    init() {
    }
}
`)
}
