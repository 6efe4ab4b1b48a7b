package script

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/project"
	"github.com/29thnight/SwiftScript/internal/value"
	"github.com/29thnight/SwiftScript/internal/vm"
)

// VM is the embedding-facing wrapper over internal/vm.VM, the way
// funxy/pkg/embed.VM wraps internal/vm.VM with Bind/Set/Get/Call/Eval —
// trimmed here to the RegisterFunction/Execute/AttachDebugger surface
// spec.md §6 names, since this core has no reflection-based Go value
// marshalling to offer.
type VM struct {
	machine *vm.VM
	baseDir string
	roots   []string
}

// New creates an embedding VM with stdout/stdin as its default I/O.
func New() *VM {
	return &VM{machine: vm.New()}
}

// RegisterFunction installs a Go function as a callable script global.
func (v *VM) RegisterFunction(name string, fn func(args []value.Value) (value.Value, error)) {
	v.machine.RegisterFunction(name, fn)
}

// AttachDebugger wires a debug controller (internal/debugctl.Controller
// satisfies vm.Debugger) so the next Execute call observes its
// breakpoints/step commands.
func (v *VM) AttachDebugger(d vm.Debugger) {
	v.machine.AttachDebugger(d)
}

// SetOutput redirects the script's `print` destination.
func (v *VM) SetOutput(w io.Writer) { v.machine.SetOutput(w) }

// SetInput redirects the script's `readLine` source.
func (v *VM) SetInput(r io.Reader) { v.machine.SetInput(r) }

// Execute runs a previously compiled Assembly to completion.
func (v *VM) Execute(asm *bytecode.Assembly) (value.Value, error) {
	return v.machine.Run(asm)
}

// Eval compiles and runs a source string in one step, the way
// funxy/pkg/embed.VM.Eval does for REPL-style host callers. Imports resolve
// relative to baseDir, defaulting to the process's working directory.
func (v *VM) Eval(source string) (value.Value, error) {
	baseDir := v.baseDir
	if baseDir == "" {
		var err error
		baseDir, err = os.Getwd()
		if err != nil {
			return value.Nil, err
		}
	}
	resolver := NewFileResolver(baseDir, rootsOrSelf(v.roots, baseDir))
	asm, _, err := Compile("<eval>", source, CompileOptions{Resolver: resolver})
	if err != nil {
		return value.Nil, err
	}
	return v.Execute(asm)
}

// LoadFile compiles and runs path, resolving imports against its
// surrounding project (an ssproject.yaml found by walking upward) or, with
// no project file, against the file's own directory — mirroring
// funxy/pkg/embed.VM.LoadFile's SetBaseDir-then-run behavior.
func (v *VM) LoadFile(path string) (value.Value, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return value.Nil, err
	}
	proj, err := project.FindProject(filepath.Dir(abs))
	if err != nil {
		return value.Nil, err
	}
	if proj == nil {
		proj, err = project.SingleFileProject(abs)
		if err != nil {
			return value.Nil, err
		}
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return value.Nil, fmt.Errorf("cannot read %s: %w", abs, err)
	}

	v.baseDir = filepath.Dir(abs)
	v.roots = proj.ImportRoots
	resolver := NewFileResolver(v.baseDir, proj.ImportRoots)

	asm, _, err := Compile(abs, string(content), CompileOptions{Resolver: resolver})
	if err != nil {
		return value.Nil, err
	}
	return v.Execute(asm)
}

func rootsOrSelf(roots []string, baseDir string) []string {
	if len(roots) > 0 {
		return roots
	}
	return []string{baseDir}
}
