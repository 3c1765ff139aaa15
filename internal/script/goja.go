package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dop251/goja"
)

// Goja runs hook scripts on the goja ECMAScript runtime. Scripts see a
// global `tinyhook` object carrying the API surface plus the CONTINUE and
// SKIP action constants, and a global `include(name)` that executes helper
// files resolved against the module search path.
//
// Goja is not safe for concurrent use; the dispatch layer serializes every
// entry with one lock.
type Goja struct {
	vm    *goja.Runtime
	paths []string
}

// NewGoja creates an unstarted runtime.
func NewGoja() *Goja {
	return &Goja{}
}

func (g *Goja) Start(api API) error {
	if g.vm != nil {
		return errors.New("runtime already started")
	}
	vm := goja.New()

	mod := vm.NewObject()
	mod.Set("CONTINUE", int64(0))
	mod.Set("SKIP", int64(1))

	mod.Set("register_pre_hook", g.bindRegister(vm, api.RegisterPre))
	mod.Set("register_post_hook", g.bindRegister(vm, api.RegisterPost))
	mod.Set("unregister_pre_hook", func(call goja.FunctionCall) goja.Value {
		api.UnregisterPre(int(call.Argument(0).ToInteger()))
		return goja.Undefined()
	})
	mod.Set("unregister_post_hook", func(call goja.FunctionCall) goja.Value {
		api.UnregisterPost(int(call.Argument(0).ToInteger()))
		return goja.Undefined()
	})

	mod.Set("read_memory", func(call goja.FunctionCall) goja.Value {
		addr := uint64(call.Argument(0).ToInteger())
		size := int(call.Argument(1).ToInteger())
		data, err := api.ReadMemory(addr, size)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(vm.NewArrayBuffer(data))
	})
	mod.Set("write_memory", func(call goja.FunctionCall) goja.Value {
		addr := uint64(call.Argument(0).ToInteger())
		data, ok := exportBytes(call.Argument(1))
		if !ok {
			panic(vm.NewTypeError("data must be an ArrayBuffer or string"))
		}
		if err := api.WriteMemory(addr, data); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	mod.Set("read_string", func(call goja.FunctionCall) goja.Value {
		addr := uint64(call.Argument(0).ToInteger())
		s, err := api.ReadString(addr)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(s)
	})

	vm.Set("tinyhook", mod)
	vm.Set("include", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if err := g.runInclude(name); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})

	g.vm = vm
	return nil
}

// bindRegister wraps a registration API function with the invocable check.
// A non-function callback is a TypeError thrown into the script.
func (g *Goja) bindRegister(vm *goja.Runtime, reg func(int, Handle) error) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		num := int(call.Argument(0).ToInteger())
		cb := call.Argument(1)
		if _, ok := goja.AssertFunction(cb); !ok {
			panic(vm.NewTypeError("callback must be callable"))
		}
		if err := reg(num, cb); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}
}

func (g *Goja) AddModulePath(dir string) {
	g.paths = append([]string{dir}, g.paths...)
}

func (g *Goja) RunFile(path string) error {
	if g.vm == nil {
		return errors.New("runtime not started")
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	if _, err := g.vm.RunScript(path, string(src)); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

func (g *Goja) Call(h Handle, args ...int64) (any, error) {
	if g.vm == nil {
		return nil, errors.New("runtime not started")
	}
	v, ok := h.(goja.Value)
	if !ok {
		return nil, fmt.Errorf("handle %T does not belong to this runtime", h)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, errors.New("handle is not callable")
	}
	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = g.vm.ToValue(a)
	}
	res, err := fn(goja.Undefined(), jsArgs...)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.Export(), nil
}

func (g *Goja) Close() {
	g.vm = nil
	g.paths = nil
}

// runInclude resolves name against the module search path and executes it in
// the top-level namespace, lua dofile style.
func (g *Goja) runInclude(name string) error {
	candidates := []string{name}
	if !filepath.IsAbs(name) {
		for _, dir := range g.paths {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	for _, p := range candidates {
		src, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if _, err := g.vm.RunScript(p, string(src)); err != nil {
			return fmt.Errorf("include %s: %w", p, err)
		}
		return nil
	}
	return fmt.Errorf("include %s: not found", name)
}

// exportBytes extracts raw bytes from a script value. ArrayBuffers and
// strings are the supported shapes; typed-array views export as []byte.
func exportBytes(v goja.Value) ([]byte, bool) {
	switch data := v.Export().(type) {
	case goja.ArrayBuffer:
		return data.Bytes(), true
	case []byte:
		return data, true
	case string:
		return []byte(data), true
	}
	return nil, false
}
