// Package debugctl implements the debug controller spec.md §5 describes:
// breakpoints, step modes, and a blocking pause/resume protocol the VM's
// internal/vm.Debugger interface calls into. Grounded on
// original_source/src/debugger/dap_server.hpp's DebugController collaborator
// (OnSetBreakpoints/OnContinue/OnNext/OnStepIn/OnStepOut/OnPause), reworked
// around Go channels instead of a mutex+condition_variable pair.
package debugctl

import (
	"sync"

	"github.com/google/uuid"

	"github.com/29thnight/SwiftScript/internal/vm"
)

// Session is one attached debug client, identified by a UUID the way a DAP
// server hands a client a session id at `initialize`.
type Session struct {
	ID string
}

// Breakpoint is one set line breakpoint, with its own UUID handle so a
// client can disable/remove it individually without relying on reused
// small integers (multiple independently addressable breakpoints per spec.md
// §5, same rationale DAP's `setBreakpoints` response ids serve).
type Breakpoint struct {
	ID   string
	File string
	Line int
}

// Controller implements vm.Debugger: it tracks breakpoints and the current
// step mode, blocking the VM's goroutine at a pause point until a client
// calls Resume/StepIn/StepOver/StepOut.
type Controller struct {
	mu sync.Mutex

	session     Session
	breakpoints map[string]*Breakpoint // keyed by ID
	stepMode    vm.PauseAction
	stepDepth   int // frame depth recorded when a step command was issued

	paused   bool
	resumeCh chan vm.PauseAction

	store *Store // nil unless persistence was requested
}

// New creates a Controller for one debug session.
func New() *Controller {
	return &Controller{
		session:     Session{ID: uuid.NewString()},
		breakpoints: make(map[string]*Breakpoint),
		resumeCh:    make(chan vm.PauseAction),
	}
}

// WithStore attaches a sqlite-backed Store so breakpoints set on this
// session persist across a VM restart (spec.md §5's "breakpoints survive a
// restart" requirement).
func (c *Controller) WithStore(store *Store) *Controller {
	c.store = store
	if store != nil {
		if bps, err := store.Load(); err == nil {
			c.mu.Lock()
			for _, bp := range bps {
				c.breakpoints[bp.ID] = bp
			}
			c.mu.Unlock()
		}
	}
	return c
}

// SessionID returns this controller's session UUID.
func (c *Controller) SessionID() string { return c.session.ID }

// SetBreakpoint registers a breakpoint at file:line and returns its handle.
func (c *Controller) SetBreakpoint(file string, line int) *Breakpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	bp := &Breakpoint{ID: uuid.NewString(), File: file, Line: line}
	c.breakpoints[bp.ID] = bp
	if c.store != nil {
		_ = c.store.Save(bp)
	}
	return bp
}

// ClearBreakpoint removes a breakpoint by its handle.
func (c *Controller) ClearBreakpoint(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.breakpoints, id)
	if c.store != nil {
		_ = c.store.Delete(id)
	}
}

// Breakpoints returns every currently-set breakpoint.
func (c *Controller) Breakpoints() []*Breakpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Breakpoint, 0, len(c.breakpoints))
	for _, bp := range c.breakpoints {
		out = append(out, bp)
	}
	return out
}

func (c *Controller) hasBreakpoint(file string, line int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, bp := range c.breakpoints {
		if bp.File == file && bp.Line == line {
			return true
		}
	}
	return false
}

// BeforeLine implements vm.Debugger. It decides whether the VM should pause
// at this line: a hit breakpoint always pauses; an in-progress step command
// pauses once its condition (entering any frame / returning to a
// shallower-or-equal frame) is satisfied.
func (c *Controller) BeforeLine(file string, line int, frameDepth int) vm.PauseAction {
	c.mu.Lock()
	mode, stepDepth := c.stepMode, c.stepDepth
	c.mu.Unlock()

	if c.hasBreakpoint(file, line) {
		return vm.ActionStepIn // any non-Continue value triggers VM's pause
	}

	switch mode {
	case vm.ActionStepIn:
		return vm.ActionStepIn
	case vm.ActionStepOver:
		if frameDepth <= stepDepth {
			return vm.ActionStepOver
		}
	case vm.ActionStepOut:
		if frameDepth < stepDepth {
			return vm.ActionStepOut
		}
	}
	return vm.ActionContinue
}

// Paused implements vm.Debugger: it blocks the calling (VM) goroutine until
// a client calls Resume/StepIn/StepOver/StepOut.
func (c *Controller) Paused(file string, line int, frameDepth int) vm.PauseAction {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()

	action := <-c.resumeCh

	c.mu.Lock()
	c.paused = false
	c.stepMode = action
	c.stepDepth = frameDepth
	c.mu.Unlock()
	return action
}

// IsPaused reports whether the VM is currently blocked in Paused.
func (c *Controller) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Resume lets execution continue until the next breakpoint.
func (c *Controller) Resume() { c.resumeCh <- vm.ActionContinue }

// StepIn resumes execution, pausing again at the very next line regardless
// of call depth.
func (c *Controller) StepIn() { c.resumeCh <- vm.ActionStepIn }

// StepOver resumes execution, pausing again once control returns to the
// current frame depth or shallower (skipping over any call made from this
// line).
func (c *Controller) StepOver() { c.resumeCh <- vm.ActionStepOver }

// StepOut resumes execution, pausing once the current frame returns to its
// caller.
func (c *Controller) StepOut() { c.resumeCh <- vm.ActionStepOut }
