// Package script embeds the hook-script runtime behind a small capability
// interface, keeping the dispatch core runtime-agnostic. The shipped
// implementation is goja (ECMAScript); anything that can hold callable
// values and run a file fits.
package script

// Handle is an opaque reference to a script-defined invocable value. The
// runtime that produced it is the only thing that can call it; everyone
// else just stores and compares it.
type Handle any

// API is the host surface a runtime exposes to scripts as the `tinyhook`
// module. The runtime owns argument conversion and the invocable check on
// registration; the functions here carry the semantics.
//
// Errors returned by these functions are thrown into the script as normal,
// catchable errors.
type API struct {
	RegisterPre    func(num int, h Handle) error
	RegisterPost   func(num int, h Handle) error
	UnregisterPre  func(num int)
	UnregisterPost func(num int)

	ReadMemory  func(addr uint64, size int) ([]byte, error)
	WriteMemory func(addr uint64, data []byte) error
	ReadString  func(addr uint64) (string, error)
}

// Runtime is the embedded scripting runtime capability.
type Runtime interface {
	// Start brings the runtime up and binds the API surface. It must be
	// called exactly once, before any other method.
	Start(api API) error
	// AddModulePath prepends a directory to the search path used when a
	// script includes helper files.
	AddModulePath(dir string)
	// RunFile executes a script file top to bottom in the runtime's
	// top-level namespace.
	RunFile(path string) error
	// Call invokes a script callback positionally with integer arguments
	// and returns its result exported to plain Go values: integers become
	// int64, objects map[string]any, arrays []any. A script throw comes
	// back as the error.
	Call(h Handle, args ...int64) (any, error)
	// Close finalizes the runtime. Idempotent.
	Close()
}
