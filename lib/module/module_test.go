package module

import (
	"errors"
	"strings"
	"testing"
)

func TestExpandPath(t *testing.T) {
	env := map[string]string{
		"SystemRoot": `C:\Windows`,
		"LIBDIR":     "/usr/lib",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	tests := []struct {
		name       string
		descriptor string
		expected   string
	}{
		{"percent marker", `%SystemRoot%\drivers\mock.dll`, `C:\Windows\drivers\mock.dll`},
		{"braced marker", "${LIBDIR}/libmock.so", "/usr/lib/libmock.so"},
		{"no markers", "/opt/mock.so", "/opt/mock.so"},
		{"unterminated percent", "mock%dll", "mock%dll"},
		{"double percent", "100%%.dll", "100%%.dll"},
		{"unterminated brace", "${LIBDIR/x", "${LIBDIR/x"},
		{"empty brace", "${}/x", "${}/x"},
		{"two markers", "%LIBDIR%/${LIBDIR}", "/usr/lib//usr/lib"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.descriptor, lookup)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestExpandPath_Unresolved(t *testing.T) {
	lookup := func(string) (string, bool) { return "", false }

	for _, descriptor := range []string{`%MISSING%\mock.dll`, "${MISSING}/mock.so"} {
		_, err := ExpandPath(descriptor, lookup)
		if !errors.Is(err, ErrUnresolved) {
			t.Fatalf("Expected ErrUnresolved for %q, got %v", descriptor, err)
		}
		var ue *UnresolvedError
		if !errors.As(err, &ue) || ue.Name != "MISSING" {
			t.Errorf("Expected unresolved name MISSING, got %v", err)
		}
	}
}

func TestExpandPath_TooLong(t *testing.T) {
	lookup := func(string) (string, bool) { return strings.Repeat("a", MaxPath), true }

	_, err := ExpandPath("%LONG%", lookup)
	if !errors.Is(err, ErrPathTooLong) {
		t.Errorf("Expected ErrPathTooLong, got %v", err)
	}

	fits := strings.Repeat("b", MaxPath-1)
	if _, err := ExpandPath(fits, lookup); err != nil {
		t.Errorf("Expected %d byte path to fit, got %v", len(fits), err)
	}
}

func TestRegistry_OpenMissing(t *testing.T) {
	r := NewRegistry()

	_, err := r.Open("/nowhere/mock.so")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_ResolveAndBind(t *testing.T) {
	m := NewMemory()
	m.Define("Add", func(a, b int32) int32 { return a + b })

	r := NewRegistry()
	r.Register("mock.so", m)

	lib, err := r.Open("mock.so")
	if err != nil {
		t.Fatalf("Failed to open module: %v", err)
	}
	if lib.Path() != "mock.so" {
		t.Errorf("Expected path mock.so, got %s", lib.Path())
	}
	if m.Refs() != 1 {
		t.Errorf("Expected 1 ref, got %d", m.Refs())
	}

	var add func(a, b int32) int32
	if err := Resolve(lib, &add, "Add"); err != nil {
		t.Fatalf("Failed to resolve Add: %v", err)
	}
	if got := add(2, 3); got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}

	if _, err := lib.Lookup("Sub"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("Expected ErrSymbolNotFound, got %v", err)
	}

	if err := lib.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if m.Refs() != 0 {
		t.Errorf("Expected 0 refs after close, got %d", m.Refs())
	}
	if err := lib.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed on second close, got %v", err)
	}
	if _, err := lib.Lookup("Add"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after close, got %v", err)
	}
}

func TestMemory_BindErrors(t *testing.T) {
	m := NewMemory()
	addr := m.Export(func() int32 { return 0 })

	r := NewRegistry()
	r.Register("mock.so", m)
	lib, err := r.Open("mock.so")
	if err != nil {
		t.Fatalf("Failed to open module: %v", err)
	}
	defer lib.Close()

	var wrongType func(int32) int32
	if err := lib.Bind(&wrongType, addr); err == nil {
		t.Error("Expected error binding mismatched signature")
	}

	var notFunc int
	if err := lib.Bind(&notFunc, addr); err == nil {
		t.Error("Expected error binding to a non-function")
	}

	var right func() int32
	if err := lib.Bind(right, addr); err == nil {
		t.Error("Expected error binding to a non-pointer")
	}

	if err := lib.Bind(&right, addr+1); err == nil {
		t.Error("Expected error binding an unknown address")
	}
}

func TestMemory_ExportDistinctHandles(t *testing.T) {
	m := NewMemory()
	a := m.Export(func() {})
	b := m.Export(func() {})

	if a == 0 || b == 0 {
		t.Fatal("Exported handles must be non-zero")
	}
	if a == b {
		t.Errorf("Expected distinct handles, got %#x twice", a)
	}
}

func TestNative_MissingModule(t *testing.T) {
	_, err := Native().Open("/definitely/not/here/mock.so")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
