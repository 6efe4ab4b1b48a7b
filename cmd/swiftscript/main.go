// Command swiftscript is the CLI driver: build/run/exec a SwiftScript
// program, mirroring funxy/cmd/funxy/main.go's handleX()-dispatch style
// rather than the stdlib flag package.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/config"
	"github.com/29thnight/SwiftScript/internal/project"
	"github.com/29thnight/SwiftScript/internal/sserr"
	"github.com/29thnight/SwiftScript/internal/vm"
	"github.com/29thnight/SwiftScript/pkg/script"

	"github.com/mattn/go-isatty"
)

// useColor reports whether diagnostics should carry ANSI highlighting,
// following funxy's detectColorLevel: no color when stdout isn't a terminal.
func useColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(code, s string) string {
	if !useColor() {
		return s
	}
	return code + s + "\x1b[0m"
}

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		os.Exit(cmdBuild(os.Args[2:]))
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "exec":
		os.Exit(cmdExec(os.Args[2:]))
	case "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`swiftscript <command> [arguments]

Commands:
  build <file> [-c Debug|Release]   compile a source file to bytecode
  run <file> [-c Debug|Release]     compile and run a source file
  exec <file.swsc>                  run a previously built bytecode file
  help                              show this message`)
}

// parseConfig pulls a trailing "-c Debug|Release" pair out of args, defaulting
// to Debug, and returns the remaining positional arguments.
func parseConfig(args []string) (positional []string, release bool, err error) {
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" || args[i] == "--config" {
			if i+1 >= len(args) {
				return nil, false, fmt.Errorf("%s requires an argument (Debug or Release)", args[i])
			}
			switch args[i+1] {
			case "Debug":
				release = false
			case "Release":
				release = true
			default:
				return nil, false, fmt.Errorf("invalid configuration %q: want Debug or Release", args[i+1])
			}
			i++
			continue
		}
		positional = append(positional, args[i])
	}
	return positional, release, nil
}

func cmdBuild(args []string) int {
	positional, release, err := parseConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "usage: swiftscript build <file> [-c Debug|Release]")
		return 1
	}
	sourcePath := positional[0]

	asm, diag, err := compileFile(sourcePath)
	printDiagnostics(diag)
	if err != nil {
		reportErr(err, diag)
		return 1
	}

	data, err := asm.Serialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "serialization error: %s\n", err)
		return 1
	}

	outDir := config.DebugOutputDir
	if release {
		outDir = config.ReleaseOutputDir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create output directory: %s\n", err)
		return 1
	}
	base := config.TrimSourceExt(filepath.Base(sourcePath))
	outPath := filepath.Join(outDir, base+config.BytecodeFileExt)
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "cannot write %s: %s\n", outPath, err)
		return 1
	}

	fmt.Printf("built %s -> %s (%d bytes)\n", sourcePath, outPath, len(data))
	return 0
}

func cmdRun(args []string) int {
	positional, _, err := parseConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "usage: swiftscript run <file> [-c Debug|Release]")
		return 1
	}

	asm, diag, err := compileFile(positional[0])
	printDiagnostics(diag)
	if err != nil {
		reportErr(err, diag)
		return 1
	}

	machine := vm.New()
	result, err := machine.Run(asm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %s\n", err)
		return 1
	}
	if !result.IsNil() {
		fmt.Println(result.String())
	}
	return 0
}

func cmdExec(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: swiftscript exec <file.swsc>")
		return 1
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %s\n", args[0], err)
		return 1
	}
	asm, err := bytecode.Deserialize(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bytecode decode error: %s\n", err)
		return 1
	}

	machine := vm.New()
	result, err := machine.Run(asm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %s\n", err)
		return 1
	}
	if !result.IsNil() {
		fmt.Println(result.String())
	}
	return 0
}

// compileFile resolves sourcePath's surrounding project (an ssproject.yaml
// found by walking upward, or the file alone) and compiles it.
func compileFile(sourcePath string) (*bytecode.Assembly, *sserr.TypeError, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, nil, err
	}
	proj, err := project.FindProject(filepath.Dir(abs))
	if err != nil {
		return nil, nil, err
	}
	if proj == nil {
		proj, err = project.SingleFileProject(abs)
		if err != nil {
			return nil, nil, err
		}
	}

	content, err := os.ReadFile(proj.EntryFile)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read %s: %w", proj.EntryFile, err)
	}

	resolver := script.NewFileResolver(filepath.Dir(proj.EntryFile), proj.ImportRoots)
	return script.Compile(proj.EntryFile, string(content), script.CompileOptions{Resolver: resolver})
}

func printDiagnostics(diag *sserr.TypeError) {
	if diag == nil {
		return
	}
	for _, d := range diag.Diagnostics {
		prefix := "warning"
		color := ansiYellow
		if d.Severity == sserr.SeverityError {
			prefix = "error"
			color = ansiRed
		}
		fmt.Fprintln(os.Stderr, colorize(color, fmt.Sprintf("%s: %s", prefix, d.Error())))
	}
}

// reportErr prints a compile/runtime error, skipping one already rendered
// line-by-line via printDiagnostics.
func reportErr(err error, diag *sserr.TypeError) {
	if diag != nil && diag.HasErrors() {
		var asTypeErr *sserr.TypeError
		if te, ok := err.(*sserr.TypeError); ok {
			asTypeErr = te
		}
		if asTypeErr == diag {
			return
		}
	}
	fmt.Fprintln(os.Stderr, colorize(ansiRed, err.Error()))
}
