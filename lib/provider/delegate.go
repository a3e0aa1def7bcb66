package provider

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/snowmerak/provider.go/lib/module"
)

// State is the lifecycle state of a Delegate.
type State int

const (
	StateUninitialized State = iota
	StateLoaded
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateLoaded:
		return "Loaded"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Options configures how a Delegate loads and starts its module.
type Options struct {
	// Opener loads the module. Defaults to module.Native().
	Opener module.Opener

	// Upcalls is the host callback table passed to the module's startup entry.
	Upcalls *UpcallTable

	// Wrappers are the handles installed by InterceptExtensions.
	Wrappers Wrappers

	// LookupEnv resolves environment markers in the module path. Defaults to os.LookupEnv.
	LookupEnv module.LookupFunc

	// Logger receives trace output. Nil discards it.
	Logger *log.Logger
}

// DefaultOptions returns options that load native modules with an empty upcall table.
func DefaultOptions() *Options {
	return &Options{
		Opener:  module.Native(),
		Upcalls: &UpcallTable{},
	}
}

// withDefaults fills the unset fields of opts from DefaultOptions without modifying opts.
func (opts *Options) withDefaults() *Options {
	merged := DefaultOptions()
	if opts == nil {
		return merged
	}
	o := *opts
	if o.Opener == nil {
		o.Opener = merged.Opener
	}
	if o.Upcalls == nil {
		o.Upcalls = merged.Upcalls
	}
	return &o
}

// Delegate is a loaded and started provider module.
//
// A Delegate is owned by one goroutine: Open, InterceptExtensions and Close must not run concurrently.
// Once ready, the capability table entries may be called from any goroutine if the module allows it.
type Delegate struct {
	id    uuid.UUID
	opts  *Options
	state State

	path string
	lib  module.Library

	// raw is the storage the module fills at startup; table is exposed only after validation.
	raw     *ProcTable
	table   *Table
	data    ProviderData
	cleaned bool

	saved    [extensionCount]uintptr
	captured [extensionCount]bool
}

func newDelegate(opts *Options) *Delegate {
	return &Delegate{
		id:    newInstanceID(),
		opts:  opts.withDefaults(),
		state: StateUninitialized,
	}
}

// ID returns the identifier used in this delegate's trace output.
func (d *Delegate) ID() uuid.UUID {
	return d.id
}

// State returns the lifecycle state.
func (d *Delegate) State() State {
	return d.state
}

// Path returns the expanded path the module was loaded from.
func (d *Delegate) Path() string {
	return d.path
}

// Version returns the negotiated version.
func (d *Delegate) Version() Version {
	return d.data.Version
}

// Data returns the provider data reported at startup.
func (d *Delegate) Data() ProviderData {
	return d.data
}

// Table returns the capability table, or nil unless the delegate is ready.
func (d *Delegate) Table() *Table {
	if d.state != StateReady {
		return nil
	}
	return d.table
}

// Bind makes fptr, a pointer to a function variable, call the module's entry for op.
func (d *Delegate) Bind(fptr any, op Operation) error {
	if d.state != StateReady {
		return fmt.Errorf("%w: %s", ErrNotReady, d.state)
	}
	if !op.Valid() {
		return fmt.Errorf("unknown operation %s", op)
	}
	if err := d.lib.Bind(fptr, d.table.Proc(op)); err != nil {
		return fmt.Errorf("failed to bind %s: %w", op, err)
	}
	return nil
}

func (d *Delegate) tracef(format string, args ...any) {
	if d.opts.Logger == nil {
		return
	}
	d.opts.Logger.Printf("provider %s: %s", d.id, fmt.Sprintf(format, args...))
}
