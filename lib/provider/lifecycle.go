// Package provider provides lifecycle management for provider delegates.
// This file contains the functions that load, start, validate and tear down a provider module.
package provider

import (
	"fmt"

	"github.com/snowmerak/provider.go/lib/module"
)

// Open loads the module at pathDescriptor, starts it with the requested version and validates it.
// pathDescriptor may contain %NAME% or ${NAME} environment markers.
// info is forwarded verbatim to the module's startup entry.
//
// Open either returns a ready Delegate or an error; a failed module is unloaded before Open returns.
// Nothing is retried: to try again, call Open again, possibly with another path.
func Open(pathDescriptor string, info ProtocolDescriptor, opts *Options) (*Delegate, error) {
	d := newDelegate(opts)
	if err := d.initialize(pathDescriptor, info); err != nil {
		d.state = StateFailed
		d.Close()
		return nil, err
	}
	return d, nil
}

// initialize walks the delegate from Uninitialized to Loaded to Ready.
func (d *Delegate) initialize(pathDescriptor string, info ProtocolDescriptor) error {
	d.tracef("Initializing provider %s", pathDescriptor)

	// 1. Expand the path
	path, err := module.ExpandPath(pathDescriptor, d.opts.LookupEnv)
	if err != nil {
		d.tracef("Expansion of environment variables failed: %v", err)
		return &ExpansionError{Descriptor: pathDescriptor, Err: err}
	}
	d.path = path

	// 2. Storage the module fills in
	d.raw = new(ProcTable)

	// 3. Load the module
	lib, err := d.opts.Opener.Open(path)
	if err != nil {
		d.tracef("Failed to load %s: %v", path, err)
		return &LoadError{Path: path, Err: err}
	}
	d.lib = lib
	d.state = StateLoaded

	// 4. Resolve the startup entry point
	var startup StartupFunc
	if err := module.Resolve(lib, &startup, StartupSymbol); err != nil {
		d.tracef("Could not get startup entry point for %s: %v", path, err)
		return &EntryPointError{Path: path, Symbol: StartupSymbol, Err: err}
	}

	// 5. Start the module
	status := startup(RequestedVersion, &d.data, info.pointer(), d.opts.Upcalls, d.raw)
	if status != 0 {
		d.tracef("%s for %s failed: %v", StartupSymbol, path, Errno(status))
		return &StartupError{Path: path, Status: Errno(status)}
	}

	// 6. Every required entry must be present
	table, missing, ok := newTable(d.raw)
	if !ok {
		d.tracef("Service provider %s returned an invalid procedure table: no %s", path, missing)
		return &IncompleteProviderError{Path: path, Missing: missing}
	}

	// 7. The module must have accepted exactly the requested version
	if d.data.Version != RequestedVersion {
		d.tracef("Service provider %s does not support version %s (negotiated %s)", path, RequestedVersion, d.data.Version)
		mismatch := &VersionMismatchError{
			Path:       path,
			Requested:  RequestedVersion,
			Negotiated: d.data.Version,
		}
		if failed, status := d.cleanup(); failed {
			mismatch.CleanupFailed = true
			mismatch.CleanupStatus = status
		}
		return mismatch
	}

	d.table = table
	d.state = StateReady
	d.tracef("Provider %s ready, version %s", path, d.data.Version)
	return nil
}

// cleanup calls the module's cleanup entry once, if the module provided one.
// It reports whether the call failed and the status the module set.
func (d *Delegate) cleanup() (bool, Errno) {
	if d.cleaned || d.lib == nil || d.raw == nil || d.raw[OpCleanup] == 0 {
		return false, errnoSuccess
	}
	d.cleaned = true

	var fn CleanupFunc
	if err := d.lib.Bind(&fn, d.raw[OpCleanup]); err != nil {
		d.tracef("Failed to bind %s: %v", OpCleanup, err)
		return true, ErrnoProviderFailedInit
	}

	d.tracef("Calling %s", OpCleanup)
	var errno int32
	if fn(&errno) != 0 {
		return true, Errno(errno)
	}
	return false, errnoSuccess
}

// Close runs the module's cleanup entry, unloads the module and releases the tables.
// Failures are discarded: the delegate is gone either way. Close is safe in any state
// and does nothing after the first call or on a nil delegate. It always returns nil.
func (d *Delegate) Close() error {
	if d == nil || d.state == StateClosed {
		return nil
	}

	if d.lib != nil {
		if failed, status := d.cleanup(); failed {
			d.tracef("Cleanup failed: %v", status)
		}
		if err := d.lib.Close(); err != nil {
			d.tracef("Failed to unload %s: %v", d.path, err)
		}
		d.lib = nil
	}

	d.table = nil
	d.raw = nil
	d.path = ""
	d.state = StateClosed
	d.tracef("Destroying provider")
	return nil
}

// String describes the delegate for logs.
func (d *Delegate) String() string {
	return fmt.Sprintf("provider %s (%s, %s)", d.id, d.path, d.state)
}
