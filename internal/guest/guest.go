// Package guest mediates access to the emulated process's virtual memory.
//
// The emulator core owns the actual address-space translation; this package
// defines the collaborator interface the hook subsystem talks to, a Unicorn
// adapter for real emulation, and an in-memory simulator used by tests and
// the replay tool.
package guest

import (
	"errors"
	"fmt"
)

// AddressSpace resolves guest virtual addresses to host-visible memory.
// Every call translates afresh; results must never be cached, since guest
// mappings can change between syscalls.
type AddressSpace interface {
	// ReadAt copies len(p) bytes of guest memory starting at addr into p.
	ReadAt(addr uint64, p []byte) error
	// WriteAt copies p verbatim into guest memory starting at addr.
	WriteAt(addr uint64, p []byte) error
	// Strlen scans for a NUL terminator starting at addr and returns the
	// string length in bytes, terminator excluded. The scan is bounded by
	// the mapped region and MaxStringLen.
	Strlen(addr uint64) (int, error)
}

// MaxStringLen bounds the Strlen terminator scan. Guest strings longer than
// this are treated as unterminated.
const MaxStringLen = 1 << 20

var (
	// ErrUnmapped reports a guest address with no current mapping.
	ErrUnmapped = errors.New("unmapped guest address")
	// ErrInvalidSize reports a non-positive size argument.
	ErrInvalidSize = errors.New("size must be positive")
	// ErrUnterminated reports a string scan that ran past MaxStringLen.
	ErrUnterminated = errors.New("unterminated guest string")
)

// MemError records a failed guest memory access.
type MemError struct {
	Op   string // "read", "write", or "strlen"
	Addr uint64
	Size int
}

func (m *MemError) Error() string {
	return fmt.Sprintf("%s of %d bytes at %#x: unmapped", m.Op, m.Size, m.Addr)
}

func (m *MemError) Unwrap() error { return ErrUnmapped }
