package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func writeRecording(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}
	return path
}

func TestLoadRecording(t *testing.T) {
	path := writeRecording(t, `
name: openat smoke
memory:
  - addr: 0x1000
    size: 0x1000
    data: "/etc/passwd"
syscalls:
  - num: 56
    name: openat
    args: [-100, 4096, 0, 0]
    ret: 3
  - num: 63
`)
	rec, err := LoadRecording(path)
	if err != nil {
		t.Fatalf("LoadRecording failed: %v", err)
	}
	if rec.Name != "openat smoke" {
		t.Errorf("Name = %q", rec.Name)
	}
	if len(rec.Memory) != 1 || rec.Memory[0].Addr != 0x1000 || rec.Memory[0].Size != 0x1000 {
		t.Errorf("Memory = %+v", rec.Memory)
	}
	if len(rec.Syscalls) != 2 {
		t.Fatalf("Syscalls = %+v", rec.Syscalls)
	}
	c := rec.Syscalls[0]
	if c.Num != 56 || c.Name != "openat" || c.Ret != 3 || len(c.Args) != 4 || c.Args[0] != -100 {
		t.Errorf("Syscalls[0] = %+v", c)
	}
	// Omitted fields default to zero
	if rec.Syscalls[1].Ret != 0 || rec.Syscalls[1].Args != nil {
		t.Errorf("Syscalls[1] = %+v", rec.Syscalls[1])
	}
}

func TestLoadRecordingSizeDefaults(t *testing.T) {
	path := writeRecording(t, `
memory:
  - addr: 0x2000
    data: "hello"
syscalls:
  - num: 64
`)
	rec, err := LoadRecording(path)
	if err != nil {
		t.Fatalf("LoadRecording failed: %v", err)
	}
	if rec.Memory[0].Size != 5 {
		t.Errorf("Size = %d, want data length 5", rec.Memory[0].Size)
	}
}

func TestLoadRecordingErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no syscalls", `name: empty`, "no syscalls"},
		{"empty region", "memory:\n  - addr: 0x1000\nsyscalls:\n  - num: 64\n", "empty"},
		{"data exceeds size", "memory:\n  - addr: 0x1000\n    size: 2\n    data: \"toolong\"\nsyscalls:\n  - num: 64\n", "exceeds"},
		{"too many args", "syscalls:\n  - num: 64\n    args: [1,2,3,4,5,6,7,8,9]\n", "max 8"},
		{"bad yaml", "syscalls: [", "parse"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRecording(writeRecording(t, tc.src))
			if err == nil {
				t.Fatal("LoadRecording should fail")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should contain %q", err, tc.want)
			}
		})
	}
}

func TestLoadRecordingMissingFile(t *testing.T) {
	if _, err := LoadRecording(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadRecording of a missing file should fail")
	}
}

func TestSessionTags(t *testing.T) {
	s := NewSession()
	if s.ID == uuid.Nil {
		t.Error("session should carry a fresh identity")
	}

	ev := NewEvent(1, 64, "write")
	ev.AddTag(PreHook)
	ev.AddTag(Skipped)
	ev.AddTag(PreHook) // duplicate, ignored
	s.Add(ev)

	ev2 := NewEvent(2, 63, "read")
	ev2.AddTag(NoHook)
	s.Add(ev2)

	if len(ev.Tags) != 2 {
		t.Errorf("Tags = %v, duplicates should collapse", ev.Tags)
	}
	if ev.PrimaryTag() != "#pre" {
		t.Errorf("PrimaryTag = %q, want #pre", ev.PrimaryTag())
	}
	if got := ev.Tags.Strings(); got[1] != "#skip" {
		t.Errorf("Strings = %v", got)
	}
	if s.Count(PreHook) != 1 || s.Count(NoHook) != 1 || s.Count(Rewrite) != 0 {
		t.Errorf("Count wrong: pre=%d nohook=%d rewrite=%d",
			s.Count(PreHook), s.Count(NoHook), s.Count(Rewrite))
	}
}
