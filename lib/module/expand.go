package module

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// MaxPath is the size of the expansion buffer, terminator included.
const MaxPath = 260

var (
	// ErrUnresolved is returned when a path references an unset environment variable.
	ErrUnresolved = errors.New("unresolved environment variable")
	// ErrPathTooLong is returned when the expanded path does not fit in MaxPath.
	ErrPathTooLong = errors.New("expanded path too long")
)

// LookupFunc resolves an environment variable, like os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// UnresolvedError names the first variable that could not be resolved.
type UnresolvedError struct {
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnresolved, e.Name)
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

// ExpandPath replaces %NAME% and ${NAME} markers in descriptor with values from lookup.
// A nil lookup uses os.LookupEnv. An unterminated marker is kept literally, as is "%%".
func ExpandPath(descriptor string, lookup LookupFunc) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var b strings.Builder
	b.Grow(len(descriptor))

	for i := 0; i < len(descriptor); {
		c := descriptor[i]

		switch {
		case c == '%':
			end := strings.IndexByte(descriptor[i+1:], '%')
			if end < 0 {
				b.WriteString(descriptor[i:])
				i = len(descriptor)
				continue
			}
			name := descriptor[i+1 : i+1+end]
			if name == "" {
				b.WriteString("%%")
				i += 2
				continue
			}
			value, ok := lookup(name)
			if !ok {
				return "", &UnresolvedError{Name: name}
			}
			b.WriteString(value)
			i += end + 2

		case c == '$' && strings.HasPrefix(descriptor[i:], "${"):
			end := strings.IndexByte(descriptor[i+2:], '}')
			if end <= 0 {
				b.WriteByte(c)
				i++
				continue
			}
			name := descriptor[i+2 : i+2+end]
			value, ok := lookup(name)
			if !ok {
				return "", &UnresolvedError{Name: name}
			}
			b.WriteString(value)
			i += end + 3

		default:
			b.WriteByte(c)
			i++
		}
	}

	expanded := b.String()
	if len(expanded)+1 > MaxPath {
		return "", fmt.Errorf("%w: %d bytes", ErrPathTooLong, len(expanded))
	}
	return expanded, nil
}
