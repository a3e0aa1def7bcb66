//go:build !(darwin || freebsd || linux || netbsd || windows)

package module

import "fmt"

// Native returns an Opener that always fails; this platform has no dynamic loader backend.
func Native() Opener {
	return OpenerFunc(func(path string) (Library, error) {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, ErrUnsupported)
	})
}
