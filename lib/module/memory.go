package module

import (
	"fmt"
	"reflect"
	"sync"
)

// memoryBase is the first address handed out by an in-process module.
// Addresses are opaque handles; they never point at real code.
const memoryBase uintptr = 0x10000

// Memory is a module implemented in Go and served from a Registry.
// Symbols and handles are Go functions registered with Define and Export.
type Memory struct {
	mu      sync.RWMutex
	symbols map[string]uintptr
	funcs   map[uintptr]reflect.Value
	next    uintptr
	refs    int
	opens   int
}

// NewMemory creates an empty in-process module.
func NewMemory() *Memory {
	return &Memory{
		symbols: make(map[string]uintptr),
		funcs:   make(map[uintptr]reflect.Value),
		next:    memoryBase,
	}
}

// Export registers fn and returns the handle that binds back to it.
func (m *Memory) Export(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("module: Export requires a non-nil function, got %T", fn))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	addr := m.next
	m.next += 0x10
	m.funcs[addr] = v
	return addr
}

// Define exports fn under the symbol name.
func (m *Memory) Define(name string, fn any) uintptr {
	addr := m.Export(fn)

	m.mu.Lock()
	m.symbols[name] = addr
	m.mu.Unlock()

	return addr
}

// Refs returns the number of libraries currently open on this module.
func (m *Memory) Refs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refs
}

// Opens returns how many times the module has been opened.
func (m *Memory) Opens() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opens
}

func (m *Memory) lookup(name string) (uintptr, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	addr, ok := m.symbols[name]
	return addr, ok
}

func (m *Memory) function(addr uintptr) (reflect.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.funcs[addr]
	return fn, ok
}

func (m *Memory) acquire() {
	m.mu.Lock()
	m.refs++
	m.opens++
	m.mu.Unlock()
}

func (m *Memory) release() {
	m.mu.Lock()
	m.refs--
	m.mu.Unlock()
}

// Registry maps paths to in-process modules. It implements Opener.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*Memory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Memory)}
}

// Register serves m at path, replacing any module already registered there.
func (r *Registry) Register(path string, m *Memory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[path] = m
}

// Unregister removes the module at path.
func (r *Registry) Unregister(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modules, path)
}

// Open implements Opener.
func (r *Registry) Open(path string) (Library, error) {
	r.mu.RLock()
	m, ok := r.modules[path]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	m.acquire()
	return &memoryLibrary{path: path, module: m}, nil
}

// memoryLibrary is one opened reference to a Memory module.
type memoryLibrary struct {
	path   string
	module *Memory
	mu     sync.Mutex
	closed bool
}

func (l *memoryLibrary) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *memoryLibrary) Path() string {
	return l.path
}

func (l *memoryLibrary) Lookup(name string) (uintptr, error) {
	if l.isClosed() {
		return 0, ErrClosed
	}
	addr, ok := l.module.lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, name, l.path)
	}
	return addr, nil
}

func (l *memoryLibrary) Bind(fptr any, addr uintptr) error {
	if l.isClosed() {
		return ErrClosed
	}
	target, err := checkFuncPtr(fptr)
	if err != nil {
		return err
	}
	fn, ok := l.module.function(addr)
	if !ok {
		return fmt.Errorf("no function exported at %#x in %s", addr, l.path)
	}
	if !fn.Type().AssignableTo(target.Type()) {
		return fmt.Errorf("function at %#x is %s, cannot bind to %s", addr, fn.Type(), target.Type())
	}
	target.Set(fn)
	return nil
}

func (l *memoryLibrary) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	l.module.release()
	return nil
}
