//go:build linux || darwin

package plugin

import (
	"fmt"
	"runtime"
	"sync"
	"unicode/utf8"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/kk-code-lab/peek/internal/config"
)

// maxPluginOutput bounds how far a returned C string is scanned for its
// terminator.
const maxPluginOutput = 64 << 20

// Exports every plugin library must provide:
//
//	char *name(void);
//	bool  is_match(char *path);      // takes ownership of path
//	char *preview(char *path);       // takes ownership of path
//	void  free_string(char *s);      // releases strings returned above
//
// Paths are allocated with libc malloc, so plugins free them with free().
type native struct {
	name       string
	isMatch    func(uintptr) bool
	preview    func(uintptr) uintptr
	freeString func(uintptr)
}

// libcMalloc allocates the path strings handed to plugins.
var libcMalloc func(uintptr) uintptr

// dlclose releases a library that was opened but never registered.
var dlclose = purego.Dlclose

var loadLibc = sync.OnceValue(func() error {
	name := "libc.so.6"
	if runtime.GOOS == "darwin" {
		name = "/usr/lib/libSystem.B.dylib"
	}
	handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("load libc: %w", err)
	}
	purego.RegisterLibFunc(&libcMalloc, handle, "malloc")
	return nil
})

// OpenNative dlopens the library at spec.Path and resolves its exports.
// A library that loads stays loaded for the life of the process; one that
// fails validation is closed again.
func OpenNative(spec config.PluginSpec) (Plugin, error) {
	if err := loadLibc(); err != nil {
		return nil, err
	}
	handle, err := purego.Dlopen(spec.Path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}

	p := &native{}
	var nameFn func() uintptr
	symbols := []struct {
		name string
		fptr any
	}{
		{"name", &nameFn},
		{"is_match", &p.isMatch},
		{"preview", &p.preview},
		{"free_string", &p.freeString},
	}
	for _, sym := range symbols {
		addr, err := purego.Dlsym(handle, sym.name)
		if err != nil || addr == 0 {
			_ = dlclose(handle)
			return nil, fmt.Errorf("%w: %s", ErrSymbolMissing, sym.name)
		}
		purego.RegisterFunc(sym.fptr, addr)
	}

	name, err := p.takeString(nameFn())
	if err != nil {
		_ = dlclose(handle)
		return nil, fmt.Errorf("name: %w", err)
	}
	p.name = name
	return p, nil
}

func (p *native) Name() string { return p.name }

func (p *native) Matches(path string) bool {
	arg := cString(path)
	if arg == 0 {
		return false
	}
	return p.isMatch(arg)
}

func (p *native) Preview(path string) (string, error) {
	arg := cString(path)
	if arg == 0 {
		return "", fmt.Errorf("allocate path for %s", p.name)
	}
	return p.takeString(p.preview(arg))
}

// takeString copies a plugin-owned string into Go memory and hands it back
// to the plugin's allocator.
func (p *native) takeString(ptr uintptr) (string, error) {
	if ptr == 0 {
		return "", ErrInvalidOutput
	}
	defer p.freeString(ptr)
	n := 0
	for n < maxPluginOutput && *(*byte)(unsafe.Add(unsafe.Pointer(ptr), n)) != 0 {
		n++
	}
	s := string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
	if !utf8.ValidString(s) {
		return "", ErrInvalidOutput
	}
	return s, nil
}

// cString copies s into a malloc'd, NUL-terminated buffer. The callee owns
// the result.
func cString(s string) uintptr {
	ptr := libcMalloc(uintptr(len(s) + 1))
	if ptr == 0 {
		return 0
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return ptr
}
