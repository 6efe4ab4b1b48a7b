// Package sserr defines the error taxonomy of spec.md §7: typed errors for
// each pipeline stage, all implementing the standard error interface so
// callers can use errors.As/errors.Is in the usual Go way.
package sserr

import "fmt"

// Severity distinguishes a hard failure from an advisory diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// LexError is produced by internal/lexer (surfaced via token.ERROR tokens;
// this type wraps one for callers that want a typed error rather than a
// token).
type LexError struct {
	Line, Column int
	Message      string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// ParseError is raised by internal/parser.
type ParseError struct {
	Line, Column int
	Message      string
	Token        string // lexeme of the offending token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s (at %q)", e.Line, e.Column, e.Message, e.Token)
}

// Diagnostic is one entry produced by the type checker (spec.md §4.3); a
// diagnostic list is aggregated and returned rather than aborting eagerly.
type Diagnostic struct {
	Line, Column int
	Message      string
	Severity     Severity
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
}

// TypeError aggregates every Diagnostic produced by a type-check pass.
type TypeError struct {
	Diagnostics []Diagnostic
}

func (e *TypeError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "type error"
	}
	return fmt.Sprintf("%d type diagnostic(s), first: %s", len(e.Diagnostics), e.Diagnostics[0].Error())
}

// HasErrors reports whether any diagnostic is SeverityError (as opposed to
// only warnings).
func (e *TypeError) HasErrors() bool {
	for _, d := range e.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CompileError is raised by internal/compiler; the partially-built Assembly
// is discarded by the caller when this is returned.
type CompileError struct {
	Line    int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at line %d: %s", e.Line, e.Message)
}

// RuntimeError is raised by internal/vm. File/Function are populated from
// debug info when present (spec.md §7).
type RuntimeError struct {
	Message  string
	Line     int
	File     string
	Function string
}

func (e *RuntimeError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("runtime error: %s (at %s:%d in %s)", e.Message, e.File, e.Line, e.Function)
	}
	return fmt.Sprintf("runtime error: %s (line %d)", e.Message, e.Line)
}

// ScriptThrow wraps a first-class thrown Value that escaped the nearest
// catch; Payload is an `any` to avoid an import cycle with internal/value
// (callers type-assert it back to *value.Value).
type ScriptThrow struct {
	Payload any
	Line    int
}

func (e *ScriptThrow) Error() string {
	return fmt.Sprintf("uncaught throw at line %d", e.Line)
}
