package guest

import (
	"fmt"
	"sort"
)

type page struct {
	addr uint64
	data []byte
}

func (p *page) contains(addr uint64) bool {
	return addr >= p.addr && addr < p.addr+uint64(len(p.data))
}

// MemSim is an in-memory AddressSpace backed by a sorted list of mapped
// regions. It stands in for the emulator's translator in tests and in the
// replay tool; the real thing lives behind the Unicorn adapter.
type MemSim struct {
	pages []*page
}

// NewMemSim creates an empty simulated address space.
func NewMemSim() *MemSim {
	return &MemSim{}
}

// Map adds a zeroed region at addr. Overlapping an existing region is an
// error; the simulator has no use for remapping.
func (m *MemSim) Map(addr, size uint64) error {
	if size == 0 {
		return fmt.Errorf("map %#x: %w", addr, ErrInvalidSize)
	}
	for _, pg := range m.pages {
		if addr < pg.addr+uint64(len(pg.data)) && pg.addr < addr+size {
			return fmt.Errorf("map %#x+%#x: overlaps region at %#x", addr, size, pg.addr)
		}
	}
	m.pages = append(m.pages, &page{addr: addr, data: make([]byte, size)})
	sort.Slice(m.pages, func(i, j int) bool { return m.pages[i].addr < m.pages[j].addr })
	return nil
}

// Unmap removes the region that starts exactly at addr, if any.
func (m *MemSim) Unmap(addr uint64) {
	for i, pg := range m.pages {
		if pg.addr == addr {
			m.pages = append(m.pages[:i], m.pages[i+1:]...)
			return
		}
	}
}

// find returns the index of the region containing addr, or -1.
func (m *MemSim) find(addr uint64) int {
	i := sort.Search(len(m.pages), func(i int) bool {
		pg := m.pages[i]
		return addr < pg.addr+uint64(len(pg.data))
	})
	if i < len(m.pages) && m.pages[i].contains(addr) {
		return i
	}
	return -1
}

// ReadAt copies len(p) bytes starting at addr, crossing contiguous regions.
func (m *MemSim) ReadAt(addr uint64, p []byte) error {
	want := len(p)
	for len(p) > 0 {
		i := m.find(addr)
		if i < 0 {
			return &MemError{Op: "read", Addr: addr, Size: want}
		}
		pg := m.pages[i]
		n := copy(p, pg.data[addr-pg.addr:])
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

// WriteAt copies p into guest memory starting at addr, crossing contiguous
// regions.
func (m *MemSim) WriteAt(addr uint64, p []byte) error {
	want := len(p)
	for len(p) > 0 {
		i := m.find(addr)
		if i < 0 {
			return &MemError{Op: "write", Addr: addr, Size: want}
		}
		pg := m.pages[i]
		n := copy(pg.data[addr-pg.addr:], p)
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

// Strlen scans mapped memory from addr for a NUL terminator.
func (m *MemSim) Strlen(addr uint64) (int, error) {
	length := 0
	for {
		i := m.find(addr)
		if i < 0 {
			return 0, &MemError{Op: "strlen", Addr: addr, Size: 1}
		}
		pg := m.pages[i]
		chunk := pg.data[addr-pg.addr:]
		for _, b := range chunk {
			if b == 0 {
				return length, nil
			}
			length++
			if length > MaxStringLen {
				return 0, fmt.Errorf("strlen at %#x: %w", addr, ErrUnterminated)
			}
		}
		addr += uint64(len(chunk))
	}
}
