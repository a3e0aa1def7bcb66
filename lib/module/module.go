// Package module provides the loadable module abstraction used by the provider delegate.
// A Library is an opened binary that can resolve symbols by name and bind them to typed Go functions.
// The mechanism behind it (dlopen, LoadLibrary, an in-process registry) is chosen through an Opener.
package module

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotFound is returned when the module at a path cannot be found or loaded.
	ErrNotFound = errors.New("module not found")
	// ErrSymbolNotFound is returned when a symbol is not exported by the module.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrClosed is returned when a library is used after Close.
	ErrClosed = errors.New("module is closed")
	// ErrUnsupported is returned by native loading on platforms without a backend.
	ErrUnsupported = errors.New("native modules are not supported on this platform")
)

// Library is an opened module.
type Library interface {
	// Path returns the concrete path the library was opened from.
	Path() string
	// Lookup resolves an exported symbol to its address.
	Lookup(name string) (uintptr, error)
	// Bind makes fptr, a pointer to a function variable, call the code at addr.
	Bind(fptr any, addr uintptr) error
	// Close unloads the library. The library must not be used afterwards.
	Close() error
}

// Opener loads a Library from a concrete path.
type Opener interface {
	Open(path string) (Library, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Library, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (Library, error) {
	return f(path)
}

// Resolve looks up name in lib and binds it to fptr.
func Resolve(lib Library, fptr any, name string) error {
	addr, err := lib.Lookup(name)
	if err != nil {
		return err
	}
	return lib.Bind(fptr, addr)
}

// checkFuncPtr verifies that fptr is a non-nil pointer to a function variable.
func checkFuncPtr(fptr any) (reflect.Value, error) {
	v := reflect.ValueOf(fptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("bind target must be a non-nil pointer, got %T", fptr)
	}
	if v.Elem().Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("bind target must point to a function, got %T", fptr)
	}
	return v.Elem(), nil
}
