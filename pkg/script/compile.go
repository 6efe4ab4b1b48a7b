// Package script is the embedding surface spec.md §6 describes: compile a
// source string or file to an Assembly, run it on a VM, bind host functions,
// and attach a debug controller. Grounded on funxy/pkg/embed/vm.go's
// lexer→parser→analyzer→compiler pipeline wrapper, adapted to this core's
// own bytecode-Assembly pipeline (lexer is internal to internal/parser.New
// here, rather than a separate pipeline stage).
package script

import (
	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/compiler"
	"github.com/29thnight/SwiftScript/internal/modresolve"
	"github.com/29thnight/SwiftScript/internal/parser"
	"github.com/29thnight/SwiftScript/internal/sserr"
	"github.com/29thnight/SwiftScript/internal/typecheck"
)

// CompileOptions configures one Compile call.
type CompileOptions struct {
	// Resolver resolves `import` statement names to source files. A nil
	// Resolver means the source may not contain imports.
	Resolver compiler.ModuleResolver
	// SkipTypeCheck bypasses the internal/typecheck pass entirely — the
	// pass is optional per spec.md §4.3, and a host embedding a known-good
	// script may prefer to skip its cost.
	SkipTypeCheck bool
}

// Parse runs just the lexer/parser stage, exposed for callers that want the
// AST without compiling it.
func Parse(file, source string) (*ast.Program, error) {
	p := parser.New(source, file, false)
	return p.Parse()
}

// Compile lexes, parses, optionally type-checks, and compiles source into
// an Assembly ready to run. diag is non-nil whenever the type checker
// produced at least one diagnostic (including warnings) even if err is nil.
func Compile(file, source string, opts CompileOptions) (asm *bytecode.Assembly, diag *sserr.TypeError, err error) {
	prog, err := Parse(file, source)
	if err != nil {
		return nil, nil, err
	}

	if !opts.SkipTypeCheck {
		te, ok := typecheck.Check(prog)
		diag = te
		if !ok {
			return nil, diag, te
		}
	}

	asm, err = compiler.Compile(file, prog, opts.Resolver)
	if err != nil {
		return nil, diag, err
	}
	return asm, diag, nil
}

// NewFileResolver is a convenience re-export so callers only need to import
// pkg/script for the common embedding path.
func NewFileResolver(baseDir string, roots []string) *modresolve.FileResolver {
	return modresolve.NewFileResolver(baseDir, roots)
}
