package config

import "strings"

const SourceFileExt = ".sws"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".sws", ".swiftscript"}

// BytecodeFileExt is the extension used for compiled Assembly output
// produced by `swiftscript build` and consumed by `swiftscript exec`.
const BytecodeFileExt = ".swsc"

// IsTestMode indicates if the program is running in test mode.
// No code in this repository sets it.
var IsTestMode = false

// Output directories for `swiftscript build`, mirroring debug/release
// configurations the CLI selects with -c/--config Debug|Release.
const (
	DebugOutputDir   = "build/debug"
	ReleaseOutputDir = "build/release"
)

// VM sizing constants, carried forward from the teacher's vm.go: the stack
// and call-frame slices start at these sizes and grow by the increment once
// full, up to the hard ceilings below.
const (
	InitialStackSize     = 2048
	InitialFrameCount    = 1024
	StackGrowthIncrement = 1024
	FrameGrowthIncrement = 512
	MaxFrameCount        = 4096
	MaxStackSize         = 1024 * 1024
)

// HasSourceExt reports whether path ends in one of SourceFileExtensions.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// TrimSourceExt strips a recognized source extension from path, if present.
func TrimSourceExt(path string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

// Built-in function names. The VM installs no globals for them: print and
// readLine compile to OP_PRINT and OP_READ_LINE, and typeOf is declared to
// the type checker only.
const (
	PrintFuncName    = "print"
	ReadLineFuncName = "readLine"
	TypeOfFuncName   = "typeOf"
)
