package provider

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/google/uuid"
)

// Extension is an optional capability retrieved by identifier outside the procedure table.
type Extension int

const (
	ExtensionTransmitFile Extension = iota
	ExtensionAcceptEx
	ExtensionGetAcceptExSockaddrs

	extensionCount
)

var (
	// TransmitFileID is WSAID_TRANSMITFILE.
	TransmitFileID = uuid.MustParse("b5367df0-cbac-11cf-95ca-00805f48a192")
	// AcceptExID is WSAID_ACCEPTEX.
	AcceptExID = uuid.MustParse("b5367df1-cbac-11cf-95ca-00805f48a192")
	// GetAcceptExSockaddrsID is WSAID_GETACCEPTEXSOCKADDRS.
	GetAcceptExSockaddrsID = uuid.MustParse("b5367df2-cbac-11cf-95ca-00805f48a192")
)

var extensionIDs = [extensionCount]uuid.UUID{
	ExtensionTransmitFile:         TransmitFileID,
	ExtensionAcceptEx:             AcceptExID,
	ExtensionGetAcceptExSockaddrs: GetAcceptExSockaddrsID,
}

var extensionNames = [extensionCount]string{
	ExtensionTransmitFile:         "TransmitFile",
	ExtensionAcceptEx:             "AcceptEx",
	ExtensionGetAcceptExSockaddrs: "GetAcceptExSockaddrs",
}

// LookupExtension returns the extension with identifier id.
func LookupExtension(id uuid.UUID) (Extension, bool) {
	for i, known := range extensionIDs {
		if known == id {
			return Extension(i), true
		}
	}
	return 0, false
}

// ID returns the extension's identifier.
func (e Extension) ID() uuid.UUID {
	if e < 0 || e >= extensionCount {
		return uuid.Nil
	}
	return extensionIDs[e]
}

func (e Extension) String() string {
	if e < 0 || e >= extensionCount {
		return fmt.Sprintf("Extension(%d)", int(e))
	}
	return extensionNames[e]
}

// intercepted reports whether calls to e are routed through a delegate wrapper.
// GetAcceptExSockaddrs takes no socket, so it never needs to know which delegate handled it.
func (e Extension) intercepted() bool {
	return e == ExtensionTransmitFile || e == ExtensionAcceptEx
}

// Wrappers holds the delegate's own entry points for the intercepted extensions.
// Each wrapper is expected to reach the module through Delegate.Original.
type Wrappers struct {
	TransmitFile uintptr
	AcceptEx     uintptr
}

func (w Wrappers) handle(e Extension) uintptr {
	switch e {
	case ExtensionTransmitFile:
		return w.TransmitFile
	case ExtensionAcceptEx:
		return w.AcceptEx
	default:
		return 0
	}
}

// InterceptExtensions swaps the handle a module returned for an extension with the delegate's wrapper.
// For TransmitFile and AcceptEx the current *handle is saved as the original and replaced.
// GetAcceptExSockaddrs passes through untouched. Any other id fails and leaves *handle unmodified,
// as does an intercepted extension with no wrapper configured in Options.Wrappers.
//
// A repeated call saves whatever *handle holds at that moment, replacing the previous original.
func (d *Delegate) InterceptExtensions(id uuid.UUID, handle *uintptr) error {
	if d.state != StateReady {
		return fmt.Errorf("%w: %s", ErrNotReady, d.state)
	}

	ext, ok := LookupExtension(id)
	if !ok {
		d.tracef("Unsupported extension %s requested", id)
		return &UnsupportedExtensionError{ID: id}
	}
	if !ext.intercepted() {
		return nil
	}
	if handle == nil {
		return fmt.Errorf("nil handle for %s", ext)
	}
	wrapper := d.opts.Wrappers.handle(ext)
	if wrapper == 0 {
		d.tracef("No wrapper for %s, handle left unmodified", ext)
		return fmt.Errorf("%w: %s", ErrNoWrapper, ext)
	}

	d.saved[ext] = *handle
	d.captured[ext] = true
	*handle = wrapper
	d.tracef("Intercepted %s: original %#x", ext, d.saved[ext])
	return nil
}

// InterceptIoctl is InterceptExtensions over raw extension-pointer request buffers:
// in holds the GUID in its in-memory layout and out holds a native pointer-sized handle.
// out is only written when the interception succeeds.
func (d *Delegate) InterceptIoctl(in, out []byte) error {
	id, err := DecodeGUID(in)
	if err != nil {
		return fmt.Errorf("failed to decode extension id: %w", err)
	}
	if len(out) < ptrSize {
		return fmt.Errorf("extension handle needs %d bytes, got %d", ptrSize, len(out))
	}

	handle := readHandle(out)
	before := handle
	if err := d.InterceptExtensions(id, &handle); err != nil {
		return err
	}
	if handle != before {
		writeHandle(out, handle)
	}
	return nil
}

// Original returns the module's handle saved by the most recent interception of ext.
func (d *Delegate) Original(ext Extension) (uintptr, bool) {
	if !ext.intercepted() {
		return 0, false
	}
	return d.saved[ext], d.captured[ext]
}

const ptrSize = int(unsafe.Sizeof(uintptr(0)))

func readHandle(b []byte) uintptr {
	if ptrSize == 8 {
		return uintptr(binary.NativeEndian.Uint64(b))
	}
	return uintptr(binary.NativeEndian.Uint32(b))
}

func writeHandle(b []byte, h uintptr) {
	if ptrSize == 8 {
		binary.NativeEndian.PutUint64(b, uint64(h))
		return
	}
	binary.NativeEndian.PutUint32(b, uint32(h))
}
