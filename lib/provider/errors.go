package provider

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Errno is a Winsock status code.
type Errno int32

const (
	errnoSuccess             Errno = 0
	ErrnoNotEnoughMemory     Errno = 8     // WSA_NOT_ENOUGH_MEMORY
	ErrnoOpNotSupported      Errno = 10045 // WSAEOPNOTSUPP
	ErrnoVersionNotSupported Errno = 10092 // WSAVERNOTSUPPORTED
	ErrnoInvalidProcTable    Errno = 10104 // WSAEINVALIDPROCTABLE
	ErrnoInvalidProvider     Errno = 10105 // WSAEINVALIDPROVIDER
	ErrnoProviderFailedInit  Errno = 10106 // WSAEPROVIDERFAILEDINIT
	ErrnoSystemCallFailure   Errno = 10107 // WSASYSCALLFAILURE
)

// socketError is the SOCKET_ERROR return value.
const socketError int32 = -1

var errnoNames = map[Errno]string{
	ErrnoNotEnoughMemory:     "WSA_NOT_ENOUGH_MEMORY",
	ErrnoOpNotSupported:      "WSAEOPNOTSUPP",
	ErrnoVersionNotSupported: "WSAVERNOTSUPPORTED",
	ErrnoInvalidProcTable:    "WSAEINVALIDPROCTABLE",
	ErrnoInvalidProvider:     "WSAEINVALIDPROVIDER",
	ErrnoProviderFailedInit:  "WSAEPROVIDERFAILEDINIT",
	ErrnoSystemCallFailure:   "WSASYSCALLFAILURE",
}

func (e Errno) String() string {
	if name, ok := errnoNames[e]; ok {
		return name
	}
	return fmt.Sprintf("error %d", int32(e))
}

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrAllocation           = errors.New("failed to allocate provider state")
	ErrEnvironmentExpansion = errors.New("failed to expand module path")
	ErrModuleLoad           = errors.New("failed to load provider module")
	ErrEntryPointMissing    = errors.New("provider startup entry point missing")
	ErrStartup              = errors.New("provider startup failed")
	ErrIncompleteProvider   = errors.New("provider returned an incomplete procedure table")
	ErrVersionMismatch      = errors.New("provider does not support the requested version")
	ErrUnsupportedExtension = errors.New("unsupported extension")
	ErrNoWrapper            = errors.New("no wrapper configured for extension")
	ErrNotReady             = errors.New("provider delegate is not ready")
)

// sentinelCodes maps sentinels that carry no extra context to their status code.
var sentinelCodes = []struct {
	err  error
	code Errno
}{
	{ErrAllocation, ErrnoNotEnoughMemory},
	{ErrEnvironmentExpansion, ErrnoSystemCallFailure},
	{ErrModuleLoad, ErrnoProviderFailedInit},
	{ErrEntryPointMissing, ErrnoProviderFailedInit},
	{ErrIncompleteProvider, ErrnoInvalidProcTable},
	{ErrVersionMismatch, ErrnoInvalidProvider},
	{ErrUnsupportedExtension, ErrnoOpNotSupported},
	{ErrNoWrapper, ErrnoOpNotSupported},
	{ErrNotReady, ErrnoProviderFailedInit},
}

// ── Structured error types ───────────────────────────────────────────

// ExpansionError reports a path descriptor that could not be expanded.
type ExpansionError struct {
	Descriptor string
	Err        error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrEnvironmentExpansion, e.Descriptor, e.Err)
}

func (e *ExpansionError) Unwrap() []error { return []error{ErrEnvironmentExpansion, e.Err} }

// Code returns WSASYSCALLFAILURE.
func (e *ExpansionError) Code() Errno { return ErrnoSystemCallFailure }

// LoadError reports a module that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v %s: %v", ErrModuleLoad, e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrModuleLoad, e.Err} }

// Code returns WSAEPROVIDERFAILEDINIT.
func (e *LoadError) Code() Errno { return ErrnoProviderFailedInit }

// EntryPointError reports a module without a usable startup entry point.
type EntryPointError struct {
	Path   string
	Symbol string
	Err    error
}

func (e *EntryPointError) Error() string {
	return fmt.Sprintf("%v: %s in %s: %v", ErrEntryPointMissing, e.Symbol, e.Path, e.Err)
}

func (e *EntryPointError) Unwrap() []error { return []error{ErrEntryPointMissing, e.Err} }

// Code returns WSAEPROVIDERFAILEDINIT.
func (e *EntryPointError) Code() Errno { return ErrnoProviderFailedInit }

// StartupError carries the status the module's startup entry returned.
type StartupError struct {
	Path   string
	Status Errno
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrStartup, e.Path, e.Status)
}

func (e *StartupError) Unwrap() error { return ErrStartup }

// Code returns the module's own status.
func (e *StartupError) Code() Errno { return e.Status }

// IncompleteProviderError names the first required operation the module left empty.
type IncompleteProviderError struct {
	Path    string
	Missing Operation
}

func (e *IncompleteProviderError) Error() string {
	return fmt.Sprintf("%v: %s returned no %s", ErrIncompleteProvider, e.Path, e.Missing)
}

func (e *IncompleteProviderError) Unwrap() error { return ErrIncompleteProvider }

// Code returns WSAEINVALIDPROCTABLE.
func (e *IncompleteProviderError) Code() Errno { return ErrnoInvalidProcTable }

// VersionMismatchError reports a negotiated version other than the requested one.
// CleanupFailed is set when the module's own cleanup also failed; its status is then in CleanupStatus.
type VersionMismatchError struct {
	Path          string
	Requested     Version
	Negotiated    Version
	CleanupFailed bool
	CleanupStatus Errno
}

func (e *VersionMismatchError) Error() string {
	msg := fmt.Sprintf("%v: %s negotiated %s, requested %s", ErrVersionMismatch, e.Path, e.Negotiated, e.Requested)
	if e.CleanupFailed {
		msg += fmt.Sprintf(" (cleanup failed: %v)", e.CleanupStatus)
	}
	return msg
}

func (e *VersionMismatchError) Unwrap() error { return ErrVersionMismatch }

// Code returns the cleanup failure status when there is one.
// Otherwise it returns WSAEINVALIDPROVIDER.
func (e *VersionMismatchError) Code() Errno {
	if e.CleanupFailed {
		if e.CleanupStatus != errnoSuccess {
			return e.CleanupStatus
		}
		return ErrnoVersionNotSupported
	}
	return ErrnoInvalidProvider
}

// UnsupportedExtensionError reports an extension identifier the delegate does not handle.
type UnsupportedExtensionError struct {
	ID uuid.UUID
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnsupportedExtension, e.ID)
}

func (e *UnsupportedExtensionError) Unwrap() error { return ErrUnsupportedExtension }

// Code returns WSAEOPNOTSUPP.
func (e *UnsupportedExtensionError) Code() Errno { return ErrnoOpNotSupported }

// ── Classification helpers ───────────────────────────────────────────

// CodeOf returns the Winsock status carried by err, or zero for nil.
// Errors from outside this package map to WSAEPROVIDERFAILEDINIT.
func CodeOf(err error) Errno {
	if err == nil {
		return errnoSuccess
	}
	var coded interface{ Code() Errno }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}
	return ErrnoProviderFailedInit
}
