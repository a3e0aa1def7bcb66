package provider

import (
	"testing"

	"github.com/snowmerak/provider.go/lib/module"
)

const (
	mockPath         = `C:\Windows\drivers\mock.dll`
	mockDescriptor   = `%SystemRoot%\drivers\mock.dll`
	wrapTransmitFile = uintptr(0xAAAA0)
	wrapAcceptEx     = uintptr(0xBBBB0)
)

// mockProvider is a provider module implemented in Go and served from a module.Registry.
type mockProvider struct {
	version       Version
	status        int32
	missing       []Operation
	cleanupStatus int32
	cleanupErrno  int32

	memory       *module.Memory
	startupCalls int
	cleanupCalls int
	gotVersion   Version
	gotInfo      *byte
	gotUpcalls   *UpcallTable
}

func newMockProvider() *mockProvider {
	return &mockProvider{version: RequestedVersion}
}

func (mp *mockProvider) isMissing(op Operation) bool {
	for _, m := range mp.missing {
		if m == op {
			return true
		}
	}
	return false
}

// build exports every table entry and the startup entry point.
func (mp *mockProvider) build(withStartup bool) *module.Memory {
	m := module.NewMemory()

	var procs ProcTable
	for _, op := range Operations() {
		if op == OpCleanup {
			procs[op] = m.Export(CleanupFunc(func(errno *int32) int32 {
				mp.cleanupCalls++
				*errno = mp.cleanupErrno
				return mp.cleanupStatus
			}))
			continue
		}
		procs[op] = m.Export(func() int32 { return 0 })
	}

	if withStartup {
		m.Define(StartupSymbol, StartupFunc(func(version Version, data *ProviderData, info *byte, upcalls *UpcallTable, table *ProcTable) int32 {
			mp.startupCalls++
			mp.gotVersion = version
			mp.gotInfo = info
			mp.gotUpcalls = upcalls
			if mp.status != 0 {
				return mp.status
			}
			data.Version = mp.version
			data.HighVersion = MakeVersion(2, 2)
			data.SetDescription("Mock Provider")
			*table = procs
			for _, op := range mp.missing {
				table[op] = 0
			}
			return 0
		}))
	}

	mp.memory = m
	return m
}

func testEnv(name string) (string, bool) {
	if name == "SystemRoot" {
		return `C:\Windows`, true
	}
	return "", false
}

// testOptions serves mp at mockPath and returns options that open from that registry.
func testOptions(t testing.TB, mp *mockProvider) (*Options, *module.Registry) {
	t.Helper()

	r := module.NewRegistry()
	if mp != nil {
		r.Register(mockPath, mp.build(true))
	}

	opts := DefaultOptions()
	opts.Opener = r
	opts.LookupEnv = testEnv
	opts.Wrappers = Wrappers{TransmitFile: wrapTransmitFile, AcceptEx: wrapAcceptEx}
	return opts, r
}

// openReady opens a delegate over a complete mock provider.
func openReady(t testing.TB) (*Delegate, *mockProvider) {
	t.Helper()

	mp := newMockProvider()
	opts, _ := testOptions(t, mp)
	d, err := Open(mockDescriptor, nil, opts)
	if err != nil {
		t.Fatalf("Failed to open provider: %v", err)
	}
	return d, mp
}
