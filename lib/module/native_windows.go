//go:build windows

package module

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/windows"
)

// dynamicLibrary is a module opened with LoadLibrary.
type dynamicLibrary struct {
	path   string
	dll    *windows.DLL
	closed atomic.Bool
}

// Native returns an Opener that loads DLLs through LoadLibrary.
func Native() Opener {
	return OpenerFunc(openDynamicLibrary)
}

func openDynamicLibrary(path string) (Library, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	return &dynamicLibrary{path: path, dll: dll}, nil
}

func (dl *dynamicLibrary) Path() string {
	return dl.path
}

func (dl *dynamicLibrary) Lookup(name string) (uintptr, error) {
	if dl.closed.Load() {
		return 0, ErrClosed
	}
	proc, err := dl.dll.FindProc(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, name, dl.path)
	}
	return proc.Addr(), nil
}

func (dl *dynamicLibrary) Bind(fptr any, addr uintptr) error {
	if dl.closed.Load() {
		return ErrClosed
	}
	return registerFunc(fptr, addr)
}

// Close calls FreeLibrary on the module.
func (dl *dynamicLibrary) Close() error {
	if !dl.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := dl.dll.Release(); err != nil {
		return fmt.Errorf("failed to unload %s: %w", dl.path, err)
	}
	return nil
}
