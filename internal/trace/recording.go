package trace

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Recording is a recorded guest syscall trace: memory regions to seed into
// the simulated address space, then the syscalls to replay in order. The
// recorded ret is what the real syscall returned when the trace was taken;
// replay feeds it to post-dispatch unless a pre-hook skips the call.
type Recording struct {
	Name     string   `yaml:"name,omitempty"`
	Memory   []Region `yaml:"memory,omitempty"`
	Syscalls []Call   `yaml:"syscalls"`
}

// Region seeds guest memory for a replay. Size defaults to the data length;
// data shorter than size leaves the rest zeroed.
type Region struct {
	Addr uint64 `yaml:"addr"`
	Size uint64 `yaml:"size,omitempty"`
	Data string `yaml:"data,omitempty"`
}

// Call is one recorded syscall. Missing trailing args are zero.
type Call struct {
	Num  int     `yaml:"num"`
	Name string  `yaml:"name,omitempty"`
	Args []int64 `yaml:"args,omitempty"`
	Ret  int64   `yaml:"ret,omitempty"`
}

// maxArgs mirrors the dispatch protocol's eight argument slots.
const maxArgs = 8

// LoadRecording reads and validates a YAML recording.
func LoadRecording(path string) (*Recording, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	var rec Recording
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse recording %s: %w", path, err)
	}
	if len(rec.Syscalls) == 0 {
		return nil, fmt.Errorf("recording %s: no syscalls", path)
	}
	for i := range rec.Memory {
		r := &rec.Memory[i]
		if r.Size == 0 {
			r.Size = uint64(len(r.Data))
		}
		if r.Size == 0 {
			return nil, fmt.Errorf("recording %s: memory region %d is empty", path, i)
		}
		if uint64(len(r.Data)) > r.Size {
			return nil, fmt.Errorf("recording %s: memory region %d: data exceeds size", path, i)
		}
	}
	for i, c := range rec.Syscalls {
		if len(c.Args) > maxArgs {
			return nil, fmt.Errorf("recording %s: syscall %d: %d args, max %d", path, i, len(c.Args), maxArgs)
		}
	}
	return &rec, nil
}
