package lexer_test

import (
	"testing"

	"github.com/29thnight/SwiftScript/internal/lexer"
	"github.com/29thnight/SwiftScript/internal/token"
)

func typesOf(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestNextTokenOperators(t *testing.T) {
	input := `== != <= >= -> ?? ?. ... ..< << >> &= |=`
	want := []token.Type{
		token.EQ, token.NOT_EQ, token.LTE, token.GTE, token.ARROW,
		token.QUESTION_QUESTION, token.QUESTION_DOT, token.ELLIPSIS, token.HALF_OPEN_RANGE,
		token.LSHIFT, token.RSHIFT, token.AMP_ASSIGN, token.PIPE_ASSIGN, token.EOF,
	}
	got := typesOf(lexer.AllTokens(input))
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestKeywords(t *testing.T) {
	input := "var let func class struct enum protocol extension mutating override"
	toks := lexer.AllTokens(input)
	want := []token.Type{
		token.VAR, token.LET, token.FUNC, token.CLASS, token.STRUCT,
		token.ENUM, token.PROTOCOL, token.EXTENSION, token.MUTATING, token.OVERRIDE, token.EOF,
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestInterpolatedString(t *testing.T) {
	toks := lexer.AllTokens(`"a\(e)b"`)
	wantTypes := []token.Type{token.INTERP_STRING_START, token.IDENT, token.INTERP_STRING_END, token.EOF}
	if len(toks) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d: %#v", len(toks), len(wantTypes), toks)
	}
	for i, w := range wantTypes {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
	if toks[0].Literal != "a" {
		t.Errorf("prefix literal = %q, want %q", toks[0].Literal, "a")
	}
	if toks[2].Literal != "b" {
		t.Errorf("suffix literal = %q, want %q", toks[2].Literal, "b")
	}
}

func TestMultiSegmentInterpolation(t *testing.T) {
	toks := lexer.AllTokens(`"x\(a)y\(b)z"`)
	wantTypes := []token.Type{
		token.INTERP_STRING_START, token.IDENT,
		token.INTERP_STRING_MID, token.IDENT,
		token.INTERP_STRING_END, token.EOF,
	}
	if len(toks) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d: %#v", len(toks), len(wantTypes), toks)
	}
	for i, w := range wantTypes {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestNumbers(t *testing.T) {
	toks := lexer.AllTokens("42 3.14 1e10")
	if toks[0].Type != token.INT || toks[0].Literal != "42" {
		t.Errorf("got %v", toks[0])
	}
	if toks[1].Type != token.FLOAT || toks[1].Literal != "3.14" {
		t.Errorf("got %v", toks[1])
	}
	if toks[2].Type != token.FLOAT {
		t.Errorf("got %v", toks[2])
	}
}

func TestIllegalCharacterProducesErrorToken(t *testing.T) {
	toks := lexer.AllTokens("$")
	if toks[0].Type != token.ILLEGAL {
		t.Errorf("got %s, want ILLEGAL", toks[0].Type)
	}
	if toks[0].Literal == "" {
		t.Error("expected a diagnostic message in Literal")
	}
}
