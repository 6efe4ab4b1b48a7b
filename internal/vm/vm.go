// Package vm executes the bytecode.Assembly produced by internal/compiler:
// a stack-based interpreter over value.Value, with call frames, upvalues,
// and manual reference counting for heap objects (spec.md §3-§5).
package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/29thnight/SwiftScript/internal/bytecode"
	"github.com/29thnight/SwiftScript/internal/config"
	"github.com/29thnight/SwiftScript/internal/sserr"
	"github.com/29thnight/SwiftScript/internal/value"
)

var (
	errStackOverflow = errors.New("stack overflow")
	errFrameOverflow = errors.New("call stack exceeded maximum depth")
)

// CallFrame is one ongoing call: a closure, its chunk (cached off the
// closure to avoid a pointer-chase per instruction), an instruction pointer,
// and the stack base its locals start at.
type CallFrame struct {
	closure *value.ClosureObject
	chunk   *bytecode.Chunk
	ip      int
	base    int

	// isCtor marks a frame running a class/struct initializer: OP_RETURN
	// discards whatever the body returns (usually nil, per
	// compileFunctionBody's trailing OP_NIL/OP_RETURN) and pushes
	// ctorResult instead, so a construction expression evaluates to the
	// instance rather than init's own return value.
	isCtor     bool
	ctorResult value.Value
}

type openUpvalue struct {
	slot int
	uv   *value.Upvalue
}

// VM holds all state for one run of an Assembly. It is not safe for
// concurrent use by multiple goroutines.
type VM struct {
	stack []value.Value

	frames     []CallFrame
	frameCount int

	globals map[string]value.Value

	openUpvalues []openUpvalue

	// releaseQueue holds heap objects whose refcount just reached zero,
	// drained iteratively by drainReleases so a long chain of nested
	// releases (e.g. a deep linked structure going out of scope) doesn't
	// recurse through Go's call stack.
	releaseQueue []value.Object

	out      io.Writer
	in       io.Reader
	inReader *bufio.Reader

	debugger Debugger

	currentFile string
}

// New creates a VM with an empty global environment.
func New() *VM {
	return &VM{
		stack:   make([]value.Value, 0, config.InitialStackSize),
		frames:  make([]CallFrame, 0, config.InitialFrameCount),
		globals: make(map[string]value.Value),
		out:     os.Stdout,
		in:      os.Stdin,
	}
}

// SetOutput redirects `print`/OP_PRINT output (used by embedders and tests).
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// SetInput redirects OP_READ_LINE's source.
func (vm *VM) SetInput(r io.Reader) {
	vm.in = r
	vm.inReader = nil
}

// readLine implements OP_READ_LINE, stripping the trailing newline.
func (vm *VM) readLine() (string, error) {
	if vm.inReader == nil {
		vm.inReader = bufio.NewReader(vm.in)
	}
	line, err := vm.inReader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

// RegisterFunction installs a host function as a global, per pkg/script's
// embedding surface (spec.md §6).
func (vm *VM) RegisterFunction(name string, fn func(args []value.Value) (value.Value, error)) {
	vm.globals[name] = value.FromObject(&value.NativeFunctionObject{Name: name, Fn: fn})
}

// AttachDebugger wires a debug controller so breakpoints/step modes observe
// this run (spec.md §5).
func (vm *VM) AttachDebugger(d Debugger) { vm.debugger = d }

// Run executes asm.Main to completion (OP_HALT) and returns the last
// expression-statement value left on the stack, if any statement produced
// one, or value.Nil otherwise.
func (vm *VM) Run(asm *bytecode.Assembly) (value.Value, error) {
	vm.currentFile = asm.SourceFile
	main := &value.ClosureObject{Name: "<main>", Proto: &bytecode.FunctionPrototype{Chunk: asm.Main}}
	if err := vm.pushFrame(main, nil); err != nil {
		return value.Nil, err
	}
	result, err := vm.run(0)
	vm.drainReleases()
	return result, err
}

// ---- stack management ----

func (vm *VM) push(v value.Value) {
	if len(vm.stack) == cap(vm.stack) {
		vm.growStack(len(vm.stack) + 1)
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distanceFromTop int) value.Value {
	return vm.stack[len(vm.stack)-1-distanceFromTop]
}

// growStack reallocates the stack to fit at least `needed` elements and
// repoints every open upvalue's Location at the new backing array, since
// value.Upvalue holds a raw *Value into it.
func (vm *VM) growStack(needed int) {
	newCap := cap(vm.stack)
	if newCap == 0 {
		newCap = config.InitialStackSize
	}
	for newCap < needed {
		newCap += config.StackGrowthIncrement
	}
	if newCap > config.MaxStackSize {
		newCap = config.MaxStackSize
	}
	newStack := make([]value.Value, len(vm.stack), newCap)
	copy(newStack, vm.stack)
	vm.stack = newStack
	for _, ou := range vm.openUpvalues {
		ou.uv.Location = &vm.stack[ou.slot]
	}
}

func (vm *VM) ensureFrameRoom() error {
	if vm.frameCount+1 > config.MaxFrameCount {
		return errFrameOverflow
	}
	return nil
}

func (vm *VM) currentFrame() *CallFrame { return &vm.frames[vm.frameCount-1] }

// ---- upvalues ----

func (vm *VM) captureUpvalue(slot int) *value.Upvalue {
	for _, ou := range vm.openUpvalues {
		if ou.slot == slot {
			return ou.uv
		}
	}
	uv := value.NewOpenUpvalue(&vm.stack[slot])
	vm.openUpvalues = append(vm.openUpvalues, openUpvalue{slot: slot, uv: uv})
	return uv
}

// closeUpvalues closes every open upvalue whose slot is >= fromSlot, called
// when a scope that may have been captured goes out of scope.
func (vm *VM) closeUpvalues(fromSlot int) {
	kept := vm.openUpvalues[:0]
	for _, ou := range vm.openUpvalues {
		if ou.slot >= fromSlot {
			ou.uv.Close()
		} else {
			kept = append(kept, ou)
		}
	}
	vm.openUpvalues = kept
}

// ---- reference counting ----

// retain increments v's refcount, if it has one.
func (vm *VM) retain(v value.Value) { v.Retain() }

// release decrements v's refcount and enqueues it for finalization once it
// reaches zero, rather than finalizing inline (spec.md's deterministic
// deinit design note: a long ownership chain must not blow the Go stack).
func (vm *VM) release(v value.Value) {
	if v.Release() {
		vm.releaseQueue = append(vm.releaseQueue, v.Obj)
	}
}

func (vm *VM) drainReleases() {
	for len(vm.releaseQueue) > 0 {
		obj := vm.releaseQueue[len(vm.releaseQueue)-1]
		vm.releaseQueue = vm.releaseQueue[:len(vm.releaseQueue)-1]
		vm.finalize(obj)
	}
}

// finalize runs a class instance's deinit (if any) and releases every Value
// the object holds, possibly enqueueing further drops.
func (vm *VM) finalize(obj value.Object) {
	switch o := obj.(type) {
	case *value.InstanceObject:
		if m, _ := o.Class.LookupMethod("deinit"); m != nil {
			_ = vm.invokeIgnoringResult(m, value.FromObject(o), nil)
		}
		for _, name := range o.FieldOrder {
			vm.release(o.Fields[name])
		}
	case *value.StructValueObject:
		for _, name := range o.FieldOrder {
			vm.release(o.Fields[name])
		}
	case *value.ArrayObject:
		for _, e := range o.Elements {
			vm.release(e)
		}
	case *value.DictObject:
		for _, k := range o.Keys {
			vm.release(k)
		}
		for _, val := range o.Vals {
			vm.release(val)
		}
	case *value.TupleObject:
		for _, e := range o.Elements {
			vm.release(e)
		}
	case *value.EnumCaseObject:
		for _, a := range o.Associated {
			vm.release(a)
		}
	}
}

// invokeIgnoringResult runs a zero-or-more-arg closure purely for its side
// effects (deinit bodies, observer callbacks invoked outside the main
// dispatch loop's frame bookkeeping).
func (vm *VM) invokeIgnoringResult(closure *value.ClosureObject, self value.Value, args []value.Value) error {
	_, err := vm.callAndReturn(closure, self, args)
	return err
}

func (vm *VM) runtimeErr(format string, a ...any) error {
	line := 0
	fn := ""
	if vm.frameCount > 0 {
		f := vm.currentFrame()
		line = f.chunk.LineAt(f.ip)
		if f.closure != nil {
			fn = f.closure.Name
		}
	}
	return &sserr.RuntimeError{Message: fmt.Sprintf(format, a...), Line: line, File: vm.currentFile, Function: fn}
}
