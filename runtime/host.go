package runtime

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/testopt-dev/testopt-sdk/hostfuncs"
)

// instantiateHostModule exports the registry handlers and the log_message
// function to the artifact under the configured host module name.
//
// Each registry handler is wrapped to:
//   - Read request bytes from runtime memory using the packed i64 ptr+len format
//   - Invoke the ByteHandler with the request payload
//   - Allocate response memory in the runtime using the "allocate" export
//   - Write response bytes to runtime memory
//   - Return packed i64 ptr+len of the response
func (r *Runtime) instantiateHostModule(ctx context.Context, registry *hostfuncs.HandlerRegistry) error {
	builder := r.wazero.NewHostModuleBuilder(r.cfg.HostModuleName)

	for _, name := range registry.Names() {
		funcName := name // capture for closure
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				r.handleRegistryCall(ctx, mod, stack, registry, funcName)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			Export(funcName)
	}

	// log_message takes a packed payload and returns nothing; a log record
	// can never fail from the runtime's point of view.
	fwd := r.forwarder()
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ptr, length := unpackPtrLen(stack[0])
			if length == 0 || length > r.cfg.MaxRequestSize {
				return
			}
			if payload, ok := mod.Memory().Read(ptr, length); ok {
				fwd.Forward(ctx, payload)
			}
		}), []api.ValueType{api.ValueTypeI64}, nil).
		Export(logMessageFunc)

	_, err := builder.Instantiate(ctx)
	return err
}

// handleRegistryCall handles a host function call from the artifact.
// It reads the request from runtime memory, invokes the handler, and writes
// the response.
func (r *Runtime) handleRegistryCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string) {
	ptr, length := unpackPtrLen(stack[0])

	if length > r.cfg.MaxRequestSize {
		r.logger.ErrorContext(ctx, "host function request exceeds size limit",
			"function", name, "size", length, "limit", r.cfg.MaxRequestSize)
		stack[0] = r.writeHostResponse(ctx, mod, hostfuncs.NewValidationError("request too large").ToJSON())
		return
	}

	var requestBytes []byte
	if length > 0 {
		var ok bool
		requestBytes, ok = mod.Memory().Read(ptr, length)
		if !ok {
			r.logger.ErrorContext(ctx, "failed to read host function request from runtime memory", "function", name)
			stack[0] = r.writeHostResponse(ctx, mod, hostfuncs.NewInternalError("unreadable request").ToJSON())
			return
		}
	}

	responseBytes, err := registry.Invoke(ctx, name, requestBytes)
	if err != nil {
		r.logger.ErrorContext(ctx, "host function invocation failed", "function", name, "error", err)
		stack[0] = r.writeHostResponse(ctx, mod, hostfuncs.NewInternalError(err.Error()).ToJSON())
		return
	}

	stack[0] = r.writeHostResponse(ctx, mod, responseBytes)
}

// writeHostResponse allocates memory in the runtime and writes the response
// bytes. Returns packed ptr+len or 0 on failure.
func (r *Runtime) writeHostResponse(ctx context.Context, mod api.Module, data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}

	allocateFn := mod.ExportedFunction(allocateExport)
	if allocateFn == nil {
		r.logger.ErrorContext(ctx, "runtime artifact missing allocate export")
		return 0
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil || len(results) != 1 {
		r.logger.ErrorContext(ctx, "failed to allocate response memory in runtime", "error", err)
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit

	if !mod.Memory().Write(ptr, data) {
		r.logger.ErrorContext(ctx, "failed to write response to runtime memory")
		return 0
	}

	return packPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: Data length is bounded by config
}
