package config

// Version is the current ptclisp version.
// Set at build time via -ldflags or by writing to this file.
var Version = "0.3.0"

const SourceFileExt = ".lisp"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".lisp", ".ptc", ".clj"}

// HasSourceExt returns true if the path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// Default resource caps for a single run.
const (
	DefaultTimeoutMs    = 1000
	DefaultPmapTimeout  = 0 // 0 means inherit the run timeout
	DefaultMaxHeapBytes = 40 << 20
	DefaultLoopLimit    = 1000
	DefaultMaxSymbols   = 10000

	// EvalCheckInterval is how many eval steps pass between cancellation checks.
	EvalCheckInterval = 256

	// HeapSampleIntervalMs is the sandbox watchdog sampling period.
	HeapSampleIntervalMs = 5
)

// Rendering limits.
const (
	// PrintTruncateWidth caps a single println line in the captured prints.
	PrintTruncateWidth = 1000

	// InspectTruncateWidth caps value rendering inside feedback messages.
	InspectTruncateWidth = 120
)

// Context filtering (data-key projection).
const (
	// FilterSizeThreshold is the rendered-size floor above which an
	// unreferenced context collection is dropped.
	FilterSizeThreshold = 1000
)

// Turn-history registers: *1 *2 *3.
const MaxTurnRegisters = 3
