package hooks

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/zboralski/tinyhook/internal/guest"
	glog "github.com/zboralski/tinyhook/internal/log"
	"github.com/zboralski/tinyhook/internal/script"
)

// State is the lifecycle state of a Manager.
type State int

const (
	Uninitialized State = iota
	Initializing
	Running
	Shutdown
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Shutdown:
		return "shutdown"
	}
	return "uninitialized"
}

// Manager owns the embedded script runtime, the hook registry, and the
// memory bridge, for exactly the bracket between Init and Shutdown. The
// emulator core calls PreSyscall and PostSyscall around every guest syscall.
//
// One mutex serializes every entry into the runtime. Emulator threads may
// call concurrently; their hooks interleave but never run in parallel inside
// the runtime. There is no timeout: a hook that loops forever stalls its
// calling thread.
type Manager struct {
	mu     sync.Mutex
	state  State
	rt     script.Runtime
	reg    *Registry
	bridge *guest.Bridge
	log    *glog.Logger
}

// New creates a manager over the given address space and runtime. The
// manager is inert until Init succeeds.
func New(as guest.AddressSpace, rt script.Runtime, logger *glog.Logger) *Manager {
	if logger == nil {
		logger = glog.NewNop()
	}
	return &Manager{
		rt:     rt,
		bridge: guest.NewBridge(as),
		log:    logger,
	}
}

// Init starts the runtime, binds the script-facing API, prepends the
// script's directory to the module search path, and executes the script.
// Any failure tears everything down and leaves the manager in Shutdown; no
// partial state survives. Init is fatal to this subsystem only; the caller
// decides what a failed load means for the emulator.
func (m *Manager) Init(scriptPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Uninitialized {
		return fmt.Errorf("init from state %s", m.state)
	}
	m.state = Initializing
	m.reg = NewRegistry()

	api := script.API{
		RegisterPre: func(num int, h script.Handle) error {
			return m.reg.Register(Pre, num, h)
		},
		RegisterPost: func(num int, h script.Handle) error {
			return m.reg.Register(Post, num, h)
		},
		UnregisterPre:  func(num int) { m.reg.Unregister(Pre, num) },
		UnregisterPost: func(num int) { m.reg.Unregister(Post, num) },
		ReadMemory:     m.bridge.ReadMemory,
		WriteMemory:    m.bridge.WriteMemory,
		ReadString:     m.bridge.ReadString,
	}

	if err := m.rt.Start(api); err != nil {
		m.teardown()
		return fmt.Errorf("start runtime: %w", err)
	}
	m.rt.AddModulePath(filepath.Dir(scriptPath))
	if err := m.rt.RunFile(scriptPath); err != nil {
		m.teardown()
		return fmt.Errorf("load %s: %w", scriptPath, err)
	}

	m.state = Running
	m.log.ScriptLoaded(scriptPath, m.reg.Count(Pre), m.reg.Count(Post))
	return nil
}

// Shutdown releases the hook tables and all callback handles, then
// finalizes the runtime. Idempotent.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Shutdown {
		return
	}
	m.teardown()
}

// teardown is called with m.mu held.
func (m *Manager) teardown() {
	if m.reg != nil {
		m.reg.Clear()
	}
	m.rt.Close()
	m.state = Shutdown
}

// Enabled reports whether hooks are live: true only between a successful
// Init and Shutdown.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Running
}

// HookNumbers returns the syscall numbers currently registered in one
// table, sorted, or nil when the manager is not running.
func (m *Manager) HookNumbers(kind Kind) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Running {
		return nil
	}
	return m.reg.Numbers(kind)
}

// HasHook reports whether a hook is currently registered for num.
func (m *Manager) HasHook(kind Kind, num int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Running {
		return false
	}
	_, ok := m.reg.Lookup(kind, num)
	return ok
}

// PreSyscall runs the pre-hook for ctx, if one is registered. The second
// return reports whether a hook fired; when false the caller proceeds with
// the original arguments and the Result carries the defaults.
//
// The caller contract: Skip means the real syscall must not execute and
// Result.Ret is its effective return value; Skip also bypasses the post
// path, since no real syscall ran. Continue means execute with Result.Args.
//
// A hook that throws is logged and treated exactly as "no hook fired"; the
// failure never propagates to the emulator core.
func (m *Manager) PreSyscall(ctx *Context) (Result, bool) {
	res := Result{Args: ctx.Args}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Running {
		return res, false
	}
	h, ok := m.reg.Lookup(Pre, ctx.Num)
	if !ok {
		return res, false
	}

	args := make([]int64, 0, NumArgs+1)
	args = append(args, int64(ctx.Num))
	args = append(args, ctx.Args[:]...)

	v, err := m.rt.Call(h, args...)
	if err != nil {
		m.log.HookError(Pre.String(), ctx.Num, err)
		return Result{Args: ctx.Args}, false
	}
	decodeResult(v, &res)
	return res, true
}

// PostSyscall runs the post-hook for ctx, if one is registered, and returns
// the effective return value. With no hook, a non-running manager, or a
// throwing hook (logged), ret comes back unchanged. A hook that returns a
// plain integer replaces ret; any other shape leaves it.
func (m *Manager) PostSyscall(ctx *Context, ret int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Running {
		return ret
	}
	h, ok := m.reg.Lookup(Post, ctx.Num)
	if !ok {
		return ret
	}

	args := make([]int64, 0, NumArgs+2)
	args = append(args, int64(ctx.Num), ret)
	args = append(args, ctx.Args[:]...)

	v, err := m.rt.Call(h, args...)
	if err != nil {
		m.log.HookError(Post.String(), ctx.Num, err)
		return ret
	}
	return decodeRet(v, ret)
}
