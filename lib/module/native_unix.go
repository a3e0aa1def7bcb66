//go:build darwin || freebsd || linux || netbsd

package module

import (
	"fmt"
	"sync/atomic"

	"github.com/ebitengine/purego"
)

// sharedLibrary is a module opened with dlopen.
type sharedLibrary struct {
	path   string
	handle uintptr
	closed atomic.Bool
}

// Native returns an Opener that loads shared objects through the platform dynamic loader.
func Native() Opener {
	return OpenerFunc(openSharedLibrary)
}

func openSharedLibrary(path string) (Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	return &sharedLibrary{path: path, handle: h}, nil
}

func (so *sharedLibrary) Path() string {
	return so.path
}

func (so *sharedLibrary) Lookup(name string) (uintptr, error) {
	if so.closed.Load() {
		return 0, ErrClosed
	}
	addr, err := purego.Dlsym(so.handle, name)
	if err != nil || addr == 0 {
		return 0, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, name, so.path)
	}
	return addr, nil
}

func (so *sharedLibrary) Bind(fptr any, addr uintptr) error {
	if so.closed.Load() {
		return ErrClosed
	}
	return registerFunc(fptr, addr)
}

// Close releases the dynamically loaded library from this process.
func (so *sharedLibrary) Close() error {
	if !so.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := purego.Dlclose(so.handle); err != nil {
		return fmt.Errorf("failed to unload %s: %w", so.path, err)
	}
	return nil
}
