package guest

import "fmt"

// Bridge exposes the three memory primitives scripts get: read, write, and
// NUL-terminated string read. Each call resolves the address through the
// AddressSpace at the moment of the call.
//
// The bridge trusts caller-declared lengths. Only translation failures are
// detected; a length that runs past the intent of the guest mapping is the
// script's problem, exactly as it is for a native caller.
type Bridge struct {
	as AddressSpace
}

// NewBridge creates a Bridge over the given address space.
func NewBridge(as AddressSpace) *Bridge {
	return &Bridge{as: as}
}

// ReadMemory returns a copy of size bytes of guest memory at addr.
func (b *Bridge) ReadMemory(addr uint64, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("read_memory(%#x, %d): %w", addr, size, ErrInvalidSize)
	}
	buf := make([]byte, size)
	if err := b.as.ReadAt(addr, buf); err != nil {
		return nil, fmt.Errorf("read_memory: %w", err)
	}
	return buf, nil
}

// WriteMemory copies data verbatim into guest memory at addr. Writing zero
// bytes is a no-op, not an error.
func (b *Bridge) WriteMemory(addr uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := b.as.WriteAt(addr, data); err != nil {
		return fmt.Errorf("write_memory: %w", err)
	}
	return nil
}

// ReadString reads a NUL-terminated guest string at addr. The terminator is
// excluded from the result.
func (b *Bridge) ReadString(addr uint64) (string, error) {
	n, err := b.as.Strlen(addr)
	if err != nil {
		return "", fmt.Errorf("read_string: %w", err)
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if err := b.as.ReadAt(addr, buf); err != nil {
		return "", fmt.Errorf("read_string: %w", err)
	}
	return string(buf), nil
}
