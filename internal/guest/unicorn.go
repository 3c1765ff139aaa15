//go:build cgo

package guest

import (
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
)

const ucPageSize = 0x1000

// Unicorn adapts a Unicorn engine handle to the AddressSpace interface, for
// embedding the hook subsystem in a Unicorn-based emulator. The handle is
// shared with the emulator core; the adapter adds no locking of its own, the
// dispatch layer already serializes all script-driven access.
type Unicorn struct {
	mu uc.Unicorn
}

// NewUnicorn wraps an existing Unicorn instance.
func NewUnicorn(mu uc.Unicorn) *Unicorn {
	return &Unicorn{mu: mu}
}

func (u *Unicorn) ReadAt(addr uint64, p []byte) error {
	data, err := u.mu.MemRead(addr, uint64(len(p)))
	if err != nil {
		return &MemError{Op: "read", Addr: addr, Size: len(p)}
	}
	copy(p, data)
	return nil
}

func (u *Unicorn) WriteAt(addr uint64, p []byte) error {
	if err := u.mu.MemWrite(addr, p); err != nil {
		return &MemError{Op: "write", Addr: addr, Size: len(p)}
	}
	return nil
}

// Strlen scans page by page so a string ending near the edge of the last
// mapped page is still found.
func (u *Unicorn) Strlen(addr uint64) (int, error) {
	length := 0
	for length <= MaxStringLen {
		chunk := ucPageSize - (addr & (ucPageSize - 1))
		data, err := u.mu.MemRead(addr, chunk)
		if err != nil {
			return 0, &MemError{Op: "strlen", Addr: addr, Size: 1}
		}
		for _, b := range data {
			if b == 0 {
				return length, nil
			}
			length++
		}
		addr += chunk
	}
	return 0, ErrUnterminated
}
