package script

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testAPI wires the bindings to an in-process byte slice standing in for
// guest memory, with registration captured into plain maps.
func testAPI(t *testing.T) (API, map[int]Handle, []byte) {
	t.Helper()
	mem := make([]byte, 0x100)
	pre := make(map[int]Handle)

	api := API{
		RegisterPre: func(num int, h Handle) error {
			pre[num] = h
			return nil
		},
		RegisterPost:   func(num int, h Handle) error { return nil },
		UnregisterPre:  func(num int) { delete(pre, num) },
		UnregisterPost: func(num int) {},
		ReadMemory: func(addr uint64, size int) ([]byte, error) {
			if int(addr)+size > len(mem) {
				return nil, errors.New("out of range")
			}
			out := make([]byte, size)
			copy(out, mem[addr:])
			return out, nil
		},
		WriteMemory: func(addr uint64, data []byte) error {
			if int(addr)+len(data) > len(mem) {
				return errors.New("out of range")
			}
			copy(mem[addr:], data)
			return nil
		},
		ReadString: func(addr uint64) (string, error) {
			i := bytes.IndexByte(mem[addr:], 0)
			if i < 0 {
				return "", errors.New("unterminated")
			}
			return string(mem[addr : int(addr)+i]), nil
		},
	}
	return api, pre, mem
}

func startGoja(t *testing.T, api API) *Goja {
	t.Helper()
	g := NewGoja()
	if err := g.Start(api); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return g
}

func runSrc(t *testing.T, g *Goja, src string) error {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.js")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return g.RunFile(path)
}

func TestGojaDoubleStart(t *testing.T) {
	api, _, _ := testAPI(t)
	g := startGoja(t, api)
	if err := g.Start(api); err == nil {
		t.Error("second Start should fail")
	}
}

func TestGojaRunBeforeStart(t *testing.T) {
	g := NewGoja()
	if err := g.RunFile("whatever.js"); err == nil {
		t.Error("RunFile before Start should fail")
	}
	if _, err := g.Call(nil); err == nil {
		t.Error("Call before Start should fail")
	}
}

func TestGojaRegistrationHandle(t *testing.T) {
	api, pre, _ := testAPI(t)
	g := startGoja(t, api)

	err := runSrc(t, g, `tinyhook.register_pre_hook(64, function(num) { return num + 1; });`)
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	h, ok := pre[64]
	if !ok {
		t.Fatal("registration did not reach the host")
	}

	v, err := g.Call(h, 64)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if n, ok := v.(int64); !ok || n != 65 {
		t.Errorf("Call = %v (%T), want int64 65", v, v)
	}
}

func TestGojaCallExportShapes(t *testing.T) {
	api, pre, _ := testAPI(t)
	g := startGoja(t, api)

	err := runSrc(t, g, `
		tinyhook.register_pre_hook(1, function() { return { action: 1, ret: 9 }; });
		tinyhook.register_pre_hook(2, function() { return [1, 2, 3]; });
		tinyhook.register_pre_hook(3, function() {});
	`)
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}

	v, err := g.Call(pre[1])
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("object export = %T, want map[string]any", v)
	}
	if m["ret"] != int64(9) {
		t.Errorf("object export ret = %v, want int64 9", m["ret"])
	}

	v, err = g.Call(pre[2])
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if _, ok := v.([]any); !ok {
		t.Errorf("array export = %T, want []any", v)
	}

	v, err = g.Call(pre[3])
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if v != nil {
		t.Errorf("undefined export = %v, want nil", v)
	}
}

func TestGojaNonCallableThrows(t *testing.T) {
	api, _, _ := testAPI(t)
	g := startGoja(t, api)

	err := runSrc(t, g, `tinyhook.register_pre_hook(64, 42);`)
	if err == nil {
		t.Fatal("registering a non-callable should throw")
	}
	if !strings.Contains(err.Error(), "callable") {
		t.Errorf("error %q should mention callability", err)
	}

	// The throw is catchable inside the script
	err = runSrc(t, g, `
		var ok = false;
		try { tinyhook.register_pre_hook(64, 42); } catch (e) { ok = e instanceof TypeError; }
		if (!ok) throw new Error("expected a TypeError");
	`)
	if err != nil {
		t.Errorf("TypeError should be catchable in the script: %v", err)
	}
}

func TestGojaMemoryBindings(t *testing.T) {
	api, _, mem := testAPI(t)
	g := startGoja(t, api)
	copy(mem[0x10:], "hello\x00")

	err := runSrc(t, g, `
		var s = tinyhook.read_string(0x10);
		if (s !== "hello") throw new Error("read_string gave " + s);

		var buf = tinyhook.read_memory(0x10, 5);
		if (!(buf instanceof ArrayBuffer)) throw new Error("read_memory did not return an ArrayBuffer");
		var view = new Uint8Array(buf);
		if (view[0] !== 104) throw new Error("wrong first byte");

		tinyhook.write_memory(0x20, buf);
		tinyhook.write_memory(0x30, "str");
	`)
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	if string(mem[0x20:0x25]) != "hello" {
		t.Errorf("ArrayBuffer write landed %q, want %q", mem[0x20:0x25], "hello")
	}
	if string(mem[0x30:0x33]) != "str" {
		t.Errorf("string write landed %q, want %q", mem[0x30:0x33], "str")
	}
}

func TestGojaWriteMemoryBadType(t *testing.T) {
	api, _, _ := testAPI(t)
	g := startGoja(t, api)

	err := runSrc(t, g, `tinyhook.write_memory(0, { not: "bytes" });`)
	if err == nil {
		t.Fatal("write_memory with an object should throw")
	}
}

func TestGojaMemoryErrorPropagates(t *testing.T) {
	api, _, _ := testAPI(t)
	g := startGoja(t, api)

	err := runSrc(t, g, `tinyhook.read_memory(0x1000, 4);`)
	if err == nil {
		t.Fatal("out-of-range read should throw")
	}
	err = runSrc(t, g, `
		var caught = false;
		try { tinyhook.read_memory(0x1000, 4); } catch (e) { caught = true; }
		if (!caught) throw new Error("expected a throw");
	`)
	if err != nil {
		t.Errorf("host error should be catchable in the script: %v", err)
	}
}

func TestGojaIncludeSearchPath(t *testing.T) {
	api, pre, _ := testAPI(t)
	g := startGoja(t, api)

	dir := t.TempDir()
	helper := filepath.Join(dir, "util.js")
	if err := os.WriteFile(helper, []byte(`function triple(x) { return x * 3; }`), 0o644); err != nil {
		t.Fatalf("write helper: %v", err)
	}
	g.AddModulePath(dir)

	err := runSrc(t, g, `
		include("util.js");
		tinyhook.register_pre_hook(1, function(num) { return triple(num); });
	`)
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	v, err := g.Call(pre[1], 5)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if v != int64(15) {
		t.Errorf("Call = %v, want 15", v)
	}
}

func TestGojaIncludeMissing(t *testing.T) {
	api, _, _ := testAPI(t)
	g := startGoja(t, api)

	if err := runSrc(t, g, `include("no-such-file.js");`); err == nil {
		t.Error("include of a missing file should fail")
	}
}

func TestGojaForeignHandle(t *testing.T) {
	api, _, _ := testAPI(t)
	g := startGoja(t, api)

	if _, err := g.Call("not a goja value"); err == nil {
		t.Error("Call with a foreign handle should fail")
	}
}
