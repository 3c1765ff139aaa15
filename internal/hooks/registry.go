package hooks

import (
	"errors"
	"sort"
	"sync"

	"github.com/zboralski/tinyhook/internal/script"
)

// Kind selects one of the two hook tables.
type Kind int

const (
	Pre Kind = iota
	Post
)

func (k Kind) String() string {
	if k == Post {
		return "post"
	}
	return "pre"
}

// ErrNotCallable reports a registration whose callback is not invocable.
var ErrNotCallable = errors.New("callback is not callable")

// Registry holds the pre and post hook tables: syscall number to callback
// handle, one entry per number, last registration wins. It may be mutated at
// any time, including from inside a running hook; changes take effect for
// subsequent syscalls.
type Registry struct {
	mu     sync.RWMutex
	tables [2]map[int]script.Handle
}

// NewRegistry creates a registry with empty tables.
func NewRegistry() *Registry {
	return &Registry{
		tables: [2]map[int]script.Handle{
			Pre:  make(map[int]script.Handle),
			Post: make(map[int]script.Handle),
		},
	}
}

// Register inserts or replaces the entry for num. The runtime binding has
// already verified invocability for script values; a nil handle is rejected
// here as a backstop.
func (r *Registry) Register(kind Kind, num int, h script.Handle) error {
	if h == nil {
		return ErrNotCallable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[kind][num] = h
	return nil
}

// Unregister removes the entry for num. Absence is not an error.
func (r *Registry) Unregister(kind Kind, num int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables[kind], num)
}

// Lookup returns the handle registered for num, if any.
func (r *Registry) Lookup(kind Kind, num int) (script.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.tables[kind][num]
	return h, ok
}

// Count returns the number of entries in one table.
func (r *Registry) Count(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables[kind])
}

// Numbers returns the registered syscall numbers for one table, sorted.
func (r *Registry) Numbers(kind Kind) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nums := make([]int, 0, len(r.tables[kind]))
	for n := range r.tables[kind] {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Clear drops every entry in both tables, releasing the handles.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[Pre] = make(map[int]script.Handle)
	r.tables[Post] = make(map[int]script.Handle)
}
