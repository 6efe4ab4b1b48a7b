package script

import (
	"bytes"
	"strings"
	"testing"

	"github.com/29thnight/SwiftScript/internal/value"
)

func TestEvalPrintsToRedirectedOutput(t *testing.T) {
	v := New()
	var out bytes.Buffer
	v.SetOutput(&out)

	if _, err := v.Eval(`print("hello")`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "hello" {
		t.Errorf("output = %q, want %q", got, "hello")
	}
}

func TestEvalReturnsLastExpressionValue(t *testing.T) {
	v := New()
	v.SetOutput(&bytes.Buffer{})

	result, err := v.Eval(`1 + 2`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if result.Kind != value.KInt || result.Int != 3 {
		t.Errorf("result = %+v, want Int(3)", result)
	}
}

func TestEvalCompileErrorPropagates(t *testing.T) {
	v := New()
	v.SetOutput(&bytes.Buffer{})

	if _, err := v.Eval(`let x: String = 1`); err == nil {
		t.Fatal("expected a type error from an Int-to-String let binding")
	}
}

func TestRegisterFunctionIsCallable(t *testing.T) {
	v := New()
	v.SetOutput(&bytes.Buffer{})

	called := false
	v.RegisterFunction("hostGreet", func(args []value.Value) (value.Value, error) {
		called = true
		return value.Nil, nil
	})

	if _, err := v.Eval(`hostGreet()`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !called {
		t.Error("expected the registered host function to run")
	}
}
