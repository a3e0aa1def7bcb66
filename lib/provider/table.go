package provider

// Table is the capability table of a ready delegate.
// It is a snapshot of the module's procedure table taken once at startup and never modified.
type Table struct {
	procs ProcTable
}

// newTable validates raw and copies it. It returns the first empty entry when raw is incomplete.
func newTable(raw *ProcTable) (*Table, Operation, bool) {
	if missing, ok := firstMissing(raw); !ok {
		return nil, missing, false
	}
	return &Table{procs: *raw}, 0, true
}

// firstMissing returns the first operation, in table order, whose entry is zero.
func firstMissing(raw *ProcTable) (Operation, bool) {
	for i, addr := range raw {
		if addr == 0 {
			return Operation(i), false
		}
	}
	return 0, true
}

// Proc returns the handle for op, or zero if op is not a table entry.
func (t *Table) Proc(op Operation) uintptr {
	if !op.Valid() {
		return 0
	}
	return t.procs[op]
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.procs)
}

// Each calls fn for every entry in table order until fn returns false.
func (t *Table) Each(fn func(op Operation, proc uintptr) bool) {
	for i, addr := range t.procs {
		if !fn(Operation(i), addr) {
			return
		}
	}
}

// Raw returns a copy of the underlying procedure table.
func (t *Table) Raw() ProcTable {
	return t.procs
}
