package vm

import "github.com/29thnight/SwiftScript/internal/bytecode"

// Debugger is the narrow hook the VM calls into before executing each
// source line, letting an attached debug controller (internal/debugctl)
// decide whether to pause for a breakpoint or a step command. The VM knows
// nothing about sessions, breakpoints, or the wire protocol that drives
// them — it only reports "about to run line N of file F" and blocks until
// told to proceed.
type Debugger interface {
	// BeforeLine is called once per source line change, never mid-line.
	// file is the module path the currently executing chunk belongs to.
	BeforeLine(file string, line int, frameDepth int) PauseAction

	// Paused blocks until the controller resumes execution, returning the
	// action it was resumed with.
	Paused(file string, line int, frameDepth int) PauseAction
}

// PauseAction tells the VM how to proceed after a breakpoint/step pause.
type PauseAction int

const (
	ActionContinue PauseAction = iota
	ActionStepIn
	ActionStepOver
	ActionStepOut
)

// pumpDebugger checks whether the current instruction starts a new source
// line and, if so, asks the attached Debugger whether to pause. Called once
// per dispatch-loop iteration.
func (vm *VM) pumpDebugger(chunk *bytecode.Chunk, ip int) {
	if vm.debugger == nil {
		return
	}
	line := chunk.LineAt(ip)
	if ip > 0 && chunk.LineAt(ip-1) == line {
		return
	}
	action := vm.debugger.BeforeLine(vm.currentFile, line, vm.frameCount)
	if action == ActionContinue {
		return
	}
	vm.debugger.Paused(vm.currentFile, line, vm.frameCount)
}
