package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// wazeroGuest adapts an instantiated wazero module to the guestABI surface.
type wazeroGuest struct {
	mod api.Module
}

func (g *wazeroGuest) hasExport(name string) bool {
	return g.mod.ExportedFunction(name) != nil
}

func (g *wazeroGuest) call(ctx context.Context, name string, packed uint64) (uint64, error) {
	fn := g.mod.ExportedFunction(name)
	if fn == nil {
		return 0, fmt.Errorf("export %q not found", name)
	}
	results, err := fn.Call(ctx, packed)
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("export %q returned %d results, want 1", name, len(results))
	}
	return results[0], nil
}

func (g *wazeroGuest) callNullary(ctx context.Context, name string) error {
	fn := g.mod.ExportedFunction(name)
	if fn == nil {
		return fmt.Errorf("export %q not found", name)
	}
	_, err := fn.Call(ctx)
	return err
}

func (g *wazeroGuest) allocate(ctx context.Context, size uint32) (uint32, error) {
	fn := g.mod.ExportedFunction(allocateExport)
	if fn == nil {
		return 0, fmt.Errorf("artifact missing %q export", allocateExport)
	}
	results, err := fn.Call(ctx, uint64(size))
	if err != nil {
		return 0, err
	}
	if len(results) != 1 || results[0] == 0 {
		return 0, fmt.Errorf("allocation of %d bytes failed", size)
	}
	return uint32(results[0]), nil //nolint:gosec // G115: WASM32 pointers are always 32-bit
}

func (g *wazeroGuest) free(ctx context.Context, ptr, size uint32) error {
	fn := g.mod.ExportedFunction(freeExport)
	if fn == nil {
		// Some artifacts rely on an internal arena and export no free.
		return nil
	}
	_, err := fn.Call(ctx, uint64(ptr), uint64(size))
	return err
}

func (g *wazeroGuest) read(ptr, length uint32) ([]byte, bool) {
	return g.mod.Memory().Read(ptr, length)
}

func (g *wazeroGuest) write(ptr uint32, data []byte) bool {
	return g.mod.Memory().Write(ptr, data)
}

const (
	allocateExport = "allocate"
	freeExport     = "free"
)
