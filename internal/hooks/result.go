// Package hooks implements the syscall hook registry, the pre/post dispatch
// protocol, and the lifecycle of the embedded script runtime that serves
// them.
package hooks

// NumArgs is the number of architecture-width argument slots a syscall
// carries through dispatch.
const NumArgs = 8

// Action is a pre-hook's policy decision.
type Action int

const (
	// Continue executes the real syscall with Result.Args.
	Continue Action = iota
	// Skip suppresses the real syscall; Result.Ret is its effective
	// return value.
	Skip
)

func (a Action) String() string {
	if a == Skip {
		return "skip"
	}
	return "continue"
}

// Context is one syscall invocation as presented by the emulator core.
// Argument slots are opaque signed integers; interpreting them is the
// script's job.
type Context struct {
	Num  int
	Args [NumArgs]int64
	// CPU is the emulator's register state for this invocation. Dispatch
	// passes it through untouched; it exists so future bindings can reach
	// registers without changing the protocol.
	CPU any
}

// Result is a pre-hook decision. It is produced fully populated: Action
// defaults to Continue, Args to the original arguments, Ret to zero.
type Result struct {
	Action Action
	Args   [NumArgs]int64
	Ret    int64
}
