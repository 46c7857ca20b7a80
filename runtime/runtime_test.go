package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/testopt-dev/testopt-sdk/bootstrap"
	"github.com/testopt-dev/testopt-sdk/hostfuncs"
	"github.com/testopt-dev/testopt-sdk/manifest"
)

// fakeGuest implements guestABI with an in-memory linear memory model.
type fakeGuest struct {
	exports map[string]struct{}

	mem     map[uint32][]byte
	nextPtr uint32

	// call behavior
	response   []byte
	callErr    error
	writeFails bool

	// recorded activity
	calls      []string
	lastPacked uint64
	lastReq    []byte
	nullCalls  []string
	nullErr    error
	freed      []uint32
}

func newFakeGuest(exports ...string) *fakeGuest {
	g := &fakeGuest{
		exports: make(map[string]struct{}),
		mem:     make(map[uint32][]byte),
		nextPtr: 0x1000,
	}
	for _, name := range exports {
		g.exports[name] = struct{}{}
	}
	return g
}

func (g *fakeGuest) hasExport(name string) bool {
	_, ok := g.exports[name]
	return ok
}

func (g *fakeGuest) call(ctx context.Context, name string, packed uint64) (uint64, error) {
	g.calls = append(g.calls, name)
	g.lastPacked = packed
	if packed != 0 {
		ptr, length := unpackPtrLen(packed)
		if data, ok := g.read(ptr, length); ok {
			g.lastReq = append([]byte(nil), data...)
		}
	}
	if g.callErr != nil {
		return 0, g.callErr
	}
	if g.response == nil {
		return 0, nil
	}
	ptr, _ := g.allocate(ctx, uint32(len(g.response)))
	g.write(ptr, g.response)
	return packPtrLen(ptr, uint32(len(g.response))), nil
}

func (g *fakeGuest) callNullary(_ context.Context, name string) error {
	g.nullCalls = append(g.nullCalls, name)
	return g.nullErr
}

func (g *fakeGuest) allocate(_ context.Context, size uint32) (uint32, error) {
	ptr := g.nextPtr
	g.nextPtr += size
	return ptr, nil
}

func (g *fakeGuest) free(_ context.Context, ptr, _ uint32) error {
	g.freed = append(g.freed, ptr)
	delete(g.mem, ptr)
	return nil
}

func (g *fakeGuest) read(ptr, length uint32) ([]byte, bool) {
	data, ok := g.mem[ptr]
	if !ok || uint32(len(data)) < length {
		return nil, false
	}
	return data[:length], true
}

func (g *fakeGuest) write(ptr uint32, data []byte) bool {
	if g.writeFails {
		return false
	}
	g.mem[ptr] = append([]byte(nil), data...)
	return true
}

func newTestRuntime(t *testing.T, guest guestABI, man *manifest.Manifest) *Runtime {
	t.Helper()
	return &Runtime{
		guest:  guest,
		boot:   bootstrap.NewRegistrar(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		man:    man,
		cfg:    defaultConfig(),
	}
}

func libraryManifest() *manifest.Manifest {
	return &manifest.Manifest{
		Name:    "libtestopt",
		Version: "1.0.0",
		ABI:     manifest.ABIVersion,
		Entry:   manifest.EntryInitialize,
		Exports: []string{"topt_session_create"},
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.HostModuleName != "testopt_host" {
		t.Errorf("HostModuleName = %q, want %q", cfg.HostModuleName, "testopt_host")
	}
	if cfg.MaxRequestSize != hostfuncs.DefaultMaxRequestSize {
		t.Errorf("MaxRequestSize = %d, want %d", cfg.MaxRequestSize, hostfuncs.DefaultMaxRequestSize)
	}
}

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	WithHostModuleName("custom_host")(&cfg)
	WithMaxRequestSize(2048)(&cfg)

	if cfg.HostModuleName != "custom_host" {
		t.Errorf("HostModuleName = %q, want %q", cfg.HostModuleName, "custom_host")
	}
	if cfg.MaxRequestSize != 2048 {
		t.Errorf("MaxRequestSize = %d, want 2048", cfg.MaxRequestSize)
	}
}

func TestPackUnpackPtrLen(t *testing.T) {
	tests := []struct {
		ptr    uint32
		length uint32
	}{
		{0, 0},
		{1, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
		{4096, 512},
	}

	for _, tt := range tests {
		packed := packPtrLen(tt.ptr, tt.length)
		gotPtr, gotLen := unpackPtrLen(packed)

		if gotPtr != tt.ptr {
			t.Errorf("unpackPtrLen(%x): ptr = %x, want %x", packed, gotPtr, tt.ptr)
		}
		if gotLen != tt.length {
			t.Errorf("unpackPtrLen(%x): len = %x, want %x", packed, gotLen, tt.length)
		}
	}
}

func TestCall(t *testing.T) {
	guest := newFakeGuest("topt_session_create")
	guest.response = []byte(`{"session_id":1}`)
	r := newTestRuntime(t, guest, libraryManifest())

	resp, err := r.Call(context.Background(), "topt_session_create", []byte(`{"framework":"testing"}`))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if string(resp) != `{"session_id":1}` {
		t.Errorf("response = %q, want %q", resp, `{"session_id":1}`)
	}
	if string(guest.lastReq) != `{"framework":"testing"}` {
		t.Errorf("runtime saw request %q", guest.lastReq)
	}
	if len(guest.freed) != 1 {
		t.Errorf("response memory freed %d times, want 1", len(guest.freed))
	}
}

func TestCallEmptyRequest(t *testing.T) {
	guest := newFakeGuest("topt_session_close")
	guest.response = []byte(`{}`)
	r := newTestRuntime(t, guest, libraryManifest())

	if _, err := r.Call(context.Background(), "topt_session_close", nil); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if guest.lastPacked != 0 {
		t.Errorf("empty request packed = %#x, want 0", guest.lastPacked)
	}
}

func TestCallMissingExport(t *testing.T) {
	guest := newFakeGuest()
	r := newTestRuntime(t, guest, libraryManifest())

	_, err := r.Call(context.Background(), "topt_unknown", nil)
	if err == nil {
		t.Fatal("Call() on missing export succeeded")
	}
}

func TestCallNoResponse(t *testing.T) {
	guest := newFakeGuest("topt_session_create")
	r := newTestRuntime(t, guest, libraryManifest())

	_, err := r.Call(context.Background(), "topt_session_create", nil)
	if err == nil {
		t.Fatal("Call() with no response succeeded")
	}
}

func TestCallWriteFailureFreesRequest(t *testing.T) {
	guest := newFakeGuest("topt_session_create")
	guest.writeFails = true
	r := newTestRuntime(t, guest, libraryManifest())

	_, err := r.Call(context.Background(), "topt_session_create", []byte(`{"framework":"testing"}`))
	if err == nil {
		t.Fatal("Call() with unwritable memory succeeded")
	}
	// The failed request's allocation must be handed back to the runtime.
	if len(guest.freed) != 1 {
		t.Errorf("request memory freed %d times, want 1", len(guest.freed))
	}
	if len(guest.calls) != 0 {
		t.Errorf("runtime was called %d times with an unwritable request", len(guest.calls))
	}
}

func TestCallRunsEntryExactlyOnce(t *testing.T) {
	guest := newFakeGuest("_initialize", "topt_session_create")
	guest.response = []byte(`{}`)
	r := newTestRuntime(t, guest, libraryManifest())

	if err := r.arrangeStartup(context.Background()); err != nil {
		t.Fatalf("arrangeStartup() error = %v", err)
	}
	if got := r.BootstrapState(); got != bootstrap.StateNotRun {
		t.Fatalf("state after load = %v, want %v", got, bootstrap.StateNotRun)
	}

	for i := 0; i < 3; i++ {
		if _, err := r.Call(context.Background(), "topt_session_create", nil); err != nil {
			t.Fatalf("Call() #%d error = %v", i, err)
		}
	}

	if len(guest.nullCalls) != 1 {
		t.Errorf("entry routine ran %d times, want 1", len(guest.nullCalls))
	}
	if got := r.BootstrapState(); got != bootstrap.StateComplete {
		t.Errorf("state = %v, want %v", got, bootstrap.StateComplete)
	}
}

func TestCallEntryFailureIsSticky(t *testing.T) {
	guest := newFakeGuest("_initialize", "topt_session_create")
	guest.nullErr = errors.New("runtime refused to start")
	r := newTestRuntime(t, guest, libraryManifest())

	if err := r.arrangeStartup(context.Background()); err != nil {
		t.Fatalf("arrangeStartup() error = %v", err)
	}

	_, err1 := r.Call(context.Background(), "topt_session_create", nil)
	_, err2 := r.Call(context.Background(), "topt_session_create", nil)
	if err1 == nil || err2 == nil {
		t.Fatal("Call() after failed bootstrap succeeded")
	}
	if len(guest.nullCalls) != 1 {
		t.Errorf("entry routine retried %d times, want 1 attempt", len(guest.nullCalls))
	}
	if got := r.BootstrapState(); got != bootstrap.StateFailed {
		t.Errorf("state = %v, want %v", got, bootstrap.StateFailed)
	}
}

func TestArrangeStartupCommandConvention(t *testing.T) {
	guest := newFakeGuest("_start")
	man := libraryManifest()
	man.Entry = manifest.EntryStart
	r := newTestRuntime(t, guest, man)

	if err := r.arrangeStartup(context.Background()); err != nil {
		t.Fatalf("arrangeStartup() error = %v", err)
	}

	// Command-convention artifacts start during load, not lazily.
	if len(guest.nullCalls) != 1 || guest.nullCalls[0] != "_start" {
		t.Errorf("nullCalls = %v, want [_start]", guest.nullCalls)
	}
	if got := r.BootstrapState(); got != bootstrap.StateComplete {
		t.Errorf("state = %v, want %v", got, bootstrap.StateComplete)
	}
}

func TestArrangeStartupNoEntry(t *testing.T) {
	guest := newFakeGuest("topt_session_create")
	man := libraryManifest()
	man.Entry = manifest.EntryNone
	r := newTestRuntime(t, guest, man)

	if err := r.arrangeStartup(context.Background()); err != nil {
		t.Fatalf("arrangeStartup() error = %v", err)
	}
	if len(guest.nullCalls) != 0 {
		t.Errorf("nullCalls = %v, want none", guest.nullCalls)
	}
}

func TestArrangeStartupMissingEntryExport(t *testing.T) {
	guest := newFakeGuest("topt_session_create")
	r := newTestRuntime(t, guest, libraryManifest())

	if err := r.arrangeStartup(context.Background()); err == nil {
		t.Fatal("arrangeStartup() with missing entry export succeeded")
	}
}

func TestArrangeStartupUnknownConvention(t *testing.T) {
	guest := newFakeGuest("boot")
	man := libraryManifest()
	man.Entry = "bootstrap"
	man.EntrySymbol = "boot"
	r := newTestRuntime(t, guest, man)

	if err := r.arrangeStartup(context.Background()); err == nil {
		t.Fatal("arrangeStartup() with unknown convention succeeded")
	}
}

func TestArrangeStartupEntrySymbolOverride(t *testing.T) {
	guest := newFakeGuest("topt_rt0_wasm32_wasi", "topt_session_create")
	guest.response = []byte(`{}`)
	man := libraryManifest()
	man.EntrySymbol = "topt_rt0_wasm32_wasi"
	r := newTestRuntime(t, guest, man)

	if err := r.arrangeStartup(context.Background()); err != nil {
		t.Fatalf("arrangeStartup() error = %v", err)
	}
	if _, err := r.Call(context.Background(), "topt_session_create", nil); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(guest.nullCalls) != 1 || guest.nullCalls[0] != "topt_rt0_wasm32_wasi" {
		t.Errorf("nullCalls = %v, want [topt_rt0_wasm32_wasi]", guest.nullCalls)
	}
}

func TestExplicitBootstrap(t *testing.T) {
	guest := newFakeGuest("_initialize")
	r := newTestRuntime(t, guest, libraryManifest())

	if err := r.arrangeStartup(context.Background()); err != nil {
		t.Fatalf("arrangeStartup() error = %v", err)
	}
	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}
	if len(guest.nullCalls) != 1 {
		t.Errorf("entry routine ran %d times, want 1", len(guest.nullCalls))
	}
}

// fakeFunctionDefinition implements just enough of api.FunctionDefinition to
// exercise import scanning.
type fakeFunctionDefinition struct {
	api.FunctionDefinition
	module   string
	name     string
	isImport bool
}

func (f fakeFunctionDefinition) Import() (string, string, bool) {
	return f.module, f.name, f.isImport
}

func TestImportsModule(t *testing.T) {
	imports := []api.FunctionDefinition{
		fakeFunctionDefinition{module: "wasi_snapshot_preview1", name: "fd_write", isImport: true},
		fakeFunctionDefinition{module: "testopt_host", name: "env_get", isImport: true},
	}

	if importsModule(imports, legacyWASIModule) {
		t.Error("importsModule() = true for artifact without legacy imports")
	}

	imports = append(imports, fakeFunctionDefinition{module: "wasi_unstable", name: "fd_write", isImport: true})
	if !importsModule(imports, legacyWASIModule) {
		t.Error("importsModule() = false for artifact with legacy imports")
	}
}
