package compiler_test

import (
	"testing"

	"github.com/29thnight/SwiftScript/internal/compiler"
	"github.com/29thnight/SwiftScript/internal/parser"
)

func compileSource(t *testing.T, src string) error {
	t.Helper()
	p := parser.New(src, "test.sws", false)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = compiler.Compile("test.sws", prog, nil)
	return err
}

func TestCompileValidProgramSucceeds(t *testing.T) {
	if err := compileSource(t, `let x = 1 + 2`); err != nil {
		t.Fatalf("Compile: %v", err)
	}
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	err := compileSource(t, `break`)
	if err == nil {
		t.Fatal("expected a compile error for break outside a loop")
	}
}

func TestContinueOutsideLoopIsCompileError(t *testing.T) {
	err := compileSource(t, `continue`)
	if err == nil {
		t.Fatal("expected a compile error for continue outside a loop")
	}
}

func TestPrintWrongArityIsCompileError(t *testing.T) {
	err := compileSource(t, `print("a", "b")`)
	if err == nil {
		t.Fatal("expected a compile error for print called with two arguments")
	}
}

func TestAssignToLetIsCompileError(t *testing.T) {
	err := compileSource(t, `
let x = 1
x = 2
`)
	if err == nil {
		t.Fatal("expected a compile error assigning to a let constant")
	}
}

func TestImportWithoutResolverIsCompileError(t *testing.T) {
	err := compileSource(t, `import Foo`)
	if err == nil {
		t.Fatal("expected a compile error importing with no resolver configured")
	}
}
