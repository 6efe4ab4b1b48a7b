package debugctl

import (
	"testing"
	"time"

	"github.com/29thnight/SwiftScript/internal/vm"
)

func TestBreakpointHitPauses(t *testing.T) {
	c := New()
	bp := c.SetBreakpoint("main.sws", 5)
	if bp.ID == "" {
		t.Fatal("expected a non-empty breakpoint id")
	}

	if action := c.BeforeLine("main.sws", 5, 1); action == vm.ActionContinue {
		t.Fatal("expected a pause at a breakpoint line")
	}
	if action := c.BeforeLine("main.sws", 6, 1); action != vm.ActionContinue {
		t.Fatalf("expected continue on a non-breakpoint line, got %v", action)
	}
}

func TestResumeUnblocksPaused(t *testing.T) {
	c := New()
	done := make(chan vm.PauseAction, 1)
	go func() {
		done <- c.Paused("main.sws", 1, 1)
	}()

	// give the goroutine a chance to block in Paused
	time.Sleep(10 * time.Millisecond)
	if !c.IsPaused() {
		t.Fatal("expected controller to report paused")
	}
	c.Resume()

	select {
	case action := <-done:
		if action != vm.ActionContinue {
			t.Errorf("action = %v, want ActionContinue", action)
		}
	case <-time.After(time.Second):
		t.Fatal("Paused did not unblock after Resume")
	}
	if c.IsPaused() {
		t.Fatal("expected controller to report not paused after resume")
	}
}

func TestStepOverStopsAtSameDepth(t *testing.T) {
	c := New()
	go func() { c.Paused("main.sws", 10, 2) }()
	time.Sleep(10 * time.Millisecond)
	c.StepOver()
	time.Sleep(10 * time.Millisecond)

	if action := c.BeforeLine("main.sws", 11, 3); action != vm.ActionContinue {
		t.Errorf("expected deeper frame to continue past, got %v", action)
	}
	if action := c.BeforeLine("main.sws", 12, 2); action != vm.ActionStepOver {
		t.Errorf("expected same-depth frame to pause, got %v", action)
	}
}

func TestClearBreakpoint(t *testing.T) {
	c := New()
	bp := c.SetBreakpoint("main.sws", 3)
	c.ClearBreakpoint(bp.ID)
	if action := c.BeforeLine("main.sws", 3, 1); action != vm.ActionContinue {
		t.Errorf("expected cleared breakpoint to no longer pause, got %v", action)
	}
}

