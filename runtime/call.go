package runtime

import (
	"context"
	"fmt"
)

// guestABI is the narrow surface the call path needs from an instantiated
// artifact. The production implementation wraps a wazero module; tests use a
// fake.
type guestABI interface {
	// hasExport reports whether the artifact exports the named function.
	hasExport(name string) bool

	// call invokes an exported (i64)->(i64) function.
	call(ctx context.Context, name string, packed uint64) (uint64, error)

	// callNullary invokes an exported ()->() function (entry routines).
	callNullary(ctx context.Context, name string) error

	// allocate reserves size bytes in runtime linear memory.
	allocate(ctx context.Context, size uint32) (uint32, error)

	// free releases an allocation made by allocate.
	free(ctx context.Context, ptr, size uint32) error

	// read copies length bytes at ptr out of runtime linear memory.
	read(ptr, length uint32) ([]byte, bool)

	// write copies data into runtime linear memory at ptr.
	write(ptr uint32, data []byte) bool
}

// Call invokes an exported runtime function with a JSON request payload and
// returns the JSON response payload. It guarantees the runtime is bootstrapped
// before the call reaches the artifact.
func (r *Runtime) Call(ctx context.Context, name string, request []byte) ([]byte, error) {
	if err := r.boot.Run(ctx); err != nil {
		return nil, fmt.Errorf("runtime bootstrap: %w", err)
	}

	if !r.guest.hasExport(name) {
		return nil, fmt.Errorf("runtime does not export %q", name)
	}

	packedReq, err := r.writeRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	packedResp, err := r.guest.call(ctx, name, packedReq)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", name, err)
	}
	if packedResp == 0 {
		return nil, fmt.Errorf("calling %s: runtime returned no response", name)
	}

	return r.readResponse(ctx, name, packedResp)
}

// writeRequest allocates guest memory for the request and writes it.
// An empty request becomes the packed value 0, which the runtime treats as
// "no payload".
func (r *Runtime) writeRequest(ctx context.Context, request []byte) (uint64, error) {
	if len(request) == 0 {
		return 0, nil
	}

	ptr, err := r.guest.allocate(ctx, uint32(len(request)))
	if err != nil {
		return 0, fmt.Errorf("allocating request memory: %w", err)
	}
	if !r.guest.write(ptr, request) {
		// The allocation is unusable; hand it back instead of leaking it.
		if freeErr := r.guest.free(ctx, ptr, uint32(len(request))); freeErr != nil {
			r.logger.WarnContext(ctx, "failed to free unwritable request memory", "error", freeErr)
		}
		return 0, fmt.Errorf("writing request to runtime memory at %#x", ptr)
	}
	return packPtrLen(ptr, uint32(len(request))), nil
}

// readResponse copies the response out of guest memory and releases it.
func (r *Runtime) readResponse(ctx context.Context, name string, packed uint64) ([]byte, error) {
	ptr, length := unpackPtrLen(packed)
	data, ok := r.guest.read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("reading %s response from runtime memory at %#x (%d bytes)", name, ptr, length)
	}

	// Copy out before freeing; the slice aliases linear memory.
	resp := make([]byte, len(data))
	copy(resp, data)

	if err := r.guest.free(ctx, ptr, length); err != nil {
		r.logger.WarnContext(ctx, "failed to free runtime response memory", "function", name, "error", err)
	}
	return resp, nil
}

// packPtrLen packs a pointer and length into a single i64.
// Upper 32 bits: pointer, lower 32 bits: length.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

// unpackPtrLen unpacks a pointer and length from a packed i64.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}
