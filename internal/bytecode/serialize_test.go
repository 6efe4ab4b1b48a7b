package bytecode_test

import (
	"bytes"
	"testing"

	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/compiler"
	"github.com/29thnight/SwiftScript/internal/parser"
	"github.com/29thnight/SwiftScript/internal/vm"
)

// compileAssembly runs a source string through the parser and compiler,
// the same pipeline cmd/swiftscript's build command drives.
func compileAssembly(t *testing.T, src string) *bytecode.Assembly {
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
	return asm
}

func runAssembly(t *testing.T, asm *bytecode.Assembly) string {
	t.Helper()
	machine := vm.New()
	var out bytes.Buffer
	machine.SetOutput(&out)
	if _, err := machine.Run(asm); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

// TestSerializeDeserializeRoundtrip exercises spec.md §8's Testable Property
// #1: Serialize then Deserialize must reproduce an Assembly whose execution
// is indistinguishable from the original, and re-serializing the restored
// Assembly must produce the identical byte stream.
func TestSerializeDeserializeRoundtrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"arithmetic and print",
			`print(1 + 2 * 3)`,
			"7\n",
		},
		{
			"closures and control flow",
			`
func makeCounter() -> () -> Int {
    var count = 0
    return {
        count = count + 1
        return count
    }
}
let counter = makeCounter()
print(counter())
print(counter())
`,
			"1\n2\n",
		},
		{
			"classes and structs",
			`
class Counter {
    var value: Int = 0
    func increment() -> Int {
        value = value + 1
        return value
    }
}
struct P {
    var x: Int = 0
}
let c = Counter()
print(c.increment())
print(P(5).x)
`,
			"1\n5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asm := compileAssembly(t, tt.src)

			data, err := asm.Serialize()
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}

			restored, err := bytecode.Deserialize(data)
			if err != nil {
				t.Fatalf("Deserialize: %v", err)
			}

			originalOut := runAssembly(t, asm)
			if originalOut != tt.want {
				t.Fatalf("original run output = %q, want %q", originalOut, tt.want)
			}
			restoredOut := runAssembly(t, restored)
			if restoredOut != tt.want {
				t.Errorf("restored run output = %q, want %q", restoredOut, tt.want)
			}

			roundTripped, err := restored.Serialize()
			if err != nil {
				t.Fatalf("re-Serialize: %v", err)
			}
			if !bytes.Equal(data, roundTripped) {
				t.Errorf("re-serialized bytes differ from the original Serialize output")
			}
		})
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	_, err := bytecode.Deserialize([]byte("XXXX\x01garbage"))
	if err == nil {
		t.Fatal("expected an error for an invalid magic number")
	}
}

func TestDeserializeRejectsUnsupportedVersion(t *testing.T) {
	asm := compileAssembly(t, `print(1)`)
	data, err := asm.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	data[4] = 0xFF
	_, err = bytecode.Deserialize(data)
	if err == nil {
		t.Fatal("expected an error for an unsupported format version")
	}
}

func TestDeserializeRejectsShortInput(t *testing.T) {
	_, err := bytecode.Deserialize([]byte{'S', 'W'})
	if err == nil {
		t.Fatal("expected an error for data shorter than the header")
	}
}
