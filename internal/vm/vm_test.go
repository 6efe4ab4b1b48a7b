package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/29thnight/SwiftScript/internal/compiler"
	"github.com/29thnight/SwiftScript/internal/parser"
	"github.com/29thnight/SwiftScript/internal/value"
	"github.com/29thnight/SwiftScript/internal/vm"
)

func run(t *testing.T, src string) (value.Value, string) {
	t.Helper()
	p := parser.New(src, "test.sws", false)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	asm, err := compiler.Compile("test.sws", prog, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	machine := vm.New()
	var out bytes.Buffer
	machine.SetOutput(&out)
	result, err := machine.Run(asm)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return result, out.String()
}

func TestArithmeticReturnsLastExpression(t *testing.T) {
	result, _ := run(t, `1 + 2 * 3`)
	if result.Kind != value.KInt || result.Int != 7 {
		t.Errorf("result = %+v, want Int(7)", result)
	}
}

func TestPrintWritesToConfiguredOutput(t *testing.T) {
	_, out := run(t, `print("hello")`)
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("output = %q, want %q", out, "hello")
	}
}

func TestFunctionCallReturnsValue(t *testing.T) {
	result, _ := run(t, `
func add(_ a: Int, _ b: Int) -> Int {
    return a + b
}
add(1, 2)
`)
	if result.Kind != value.KInt || result.Int != 3 {
		t.Errorf("result = %+v, want Int(3)", result)
	}
}

func TestLetVarAssignment(t *testing.T) {
	result, _ := run(t, `
var x = 1
x = x + 41
x
`)
	if result.Kind != value.KInt || result.Int != 42 {
		t.Errorf("result = %+v, want Int(42)", result)
	}
}

func TestClosureCapturesEnclosingVariable(t *testing.T) {
	result, _ := run(t, `
func makeCounter() -> () -> Int {
    var count = 0
    return {
        count = count + 1
        return count
    }
}
let counter = makeCounter()
counter()
counter()
counter()
`)
	if result.Kind != value.KInt || result.Int != 3 {
		t.Errorf("result = %+v, want Int(3)", result)
	}
}

func TestIfElseBranches(t *testing.T) {
	result, _ := run(t, `
func classify(_ n: Int) -> String {
    if n < 0 {
        return "negative"
    } else {
        return "nonnegative"
    }
}
classify(-5)
`)
	if result.Kind != value.KObject || result.Obj == nil {
		t.Fatalf("result = %+v, want a String object", result)
	}
	s, ok := result.Obj.(*value.StringObject)
	if !ok || s.Str != "negative" {
		t.Errorf("result = %+v, want String(\"negative\")", result)
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	result, _ := run(t, `
var i = 0
var sum = 0
while i < 5 {
    sum = sum + i
    i = i + 1
}
sum
`)
	if result.Kind != value.KInt || result.Int != 10 {
		t.Errorf("result = %+v, want Int(10)", result)
	}
}

func TestClassInstantiationAndMethodCall(t *testing.T) {
	result, _ := run(t, `
class Counter {
    var value: Int = 0
    func increment() -> Int {
        value = value + 1
        return value
    }
}
let c = Counter()
c.increment()
c.increment()
`)
	if result.Kind != value.KInt || result.Int != 2 {
		t.Errorf("result = %+v, want Int(2)", result)
	}
}

// TestLiteralScenarios runs the six end-to-end input/output pairs.
func TestLiteralScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"for loop accumulates into a var",
			`
var x = 0
for i in 1...3 {
    x = x + i
}
print(x)
`,
			"6\n",
		},
		{
			"closure keeps its own counter across calls",
			`
func make() -> () -> Int {
    var c = 0
    return {
        c = c + 1
        return c
    }
}
let f = make()
print(f())
print(f())
print(f())
`,
			"1\n2\n3\n",
		},
		{
			"struct assignment copies by value",
			`
struct P {
    var x: Int = 0
    var y: Int = 0
}
var a = P(10, 20)
var b = a
b.x = 99
print(a.x)
print(b.x)
`,
			"10\n99\n",
		},
		{
			"enum switch binds an associated value",
			`
enum R {
    case ok(Int)
    case err(String)
}
let v = R.ok(42)
switch v {
case .ok(let n):
    print(n)
case .err(let s):
    print(s)
}
`,
			"42\n",
		},
		{
			"override calls through super before its own body",
			`
class A {
    func speak() {
        print("a")
    }
}
class B: A {
    override func speak() {
        super.speak()
        print("b")
    }
}
B().speak()
`,
			"a\nb\n",
		},
		{
			"tuple elements reach by label and by index",
			`
let t = (x: 1, y: 2)
print(t.x)
print(t.1)
`,
			"1\n2\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := run(t, tt.src)
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestPropertyObserverFiresOnAssignment(t *testing.T) {
	_, out := run(t, `
class Box {
    var value: Int = 0 {
        didSet {
            print("changed")
        }
    }
}
let b = Box()
b.value = 5
print(b.value)
`)
	if out != "changed\n5\n" {
		t.Errorf("output = %q, want %q", out, "changed\n5\n")
	}
}

func TestProtocolConformanceCheckAndDispatch(t *testing.T) {
	_, out := run(t, `
protocol Greetable {
    func greet() -> String
}
class Person: Greetable {
    func greet() -> String {
        return "hi"
    }
}
let p = Person()
print(p is Greetable)
print(p.greet())
`)
	if out != "true\nhi\n" {
		t.Errorf("output = %q, want %q", out, "true\nhi\n")
	}
}

func TestGenericFunctionMonomorphizesPerArgumentType(t *testing.T) {
	_, out := run(t, `
func identity<T>(_ x: T) -> T {
    return x
}
print(identity(1))
print(identity("a"))
`)
	if out != "1\na\n" {
		t.Errorf("output = %q, want %q", out, "1\na\n")
	}
}
