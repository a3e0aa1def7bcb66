//go:build darwin || freebsd || linux || netbsd || windows

package module

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// registerFunc binds fptr to the native code at addr.
// purego panics on unsupported signatures, so the panic is turned into an error.
func registerFunc(fptr any, addr uintptr) (err error) {
	if _, err := checkFuncPtr(fptr); err != nil {
		return err
	}
	if addr == 0 {
		return fmt.Errorf("cannot bind %T to a null address", fptr)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to bind %T at %#x: %v", fptr, addr, r)
		}
	}()
	purego.RegisterFunc(fptr, addr)
	return nil
}
