package hostfuncs

import (
	"context"
)

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple handlers at once for common use cases.
type HostFuncBundle interface {
	// Handlers returns a map of handler names to ByteHandler functions.
	Handlers() map[string]ByteHandler
}

// staticBundle implements HostFuncBundle with a fixed set of handlers.
type staticBundle struct {
	handlers map[string]ByteHandler
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

// RuntimeSupportBundle returns the host functions the test-optimization
// runtime expects from every embedding: env_get, process_info.
func RuntimeSupportBundle() HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"env_get": NewJSONHandler(func(ctx context.Context, req EnvironmentRequest) EnvironmentResponse {
				return PerformEnvironmentProbe(ctx, req)
			}),
			"process_info": NewJSONHandler(func(ctx context.Context, req ProcessInfoRequest) ProcessInfoResponse {
				return PerformProcessInfo(ctx, req)
			}),
		},
	}
}

// WithBundle registers all handlers from one or more bundles.
func WithBundle(bundles ...HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for _, bundle := range bundles {
			for name, handler := range bundle.Handlers() {
				if err := b.addHandler(name, handler); err != nil {
					b.errors = append(b.errors, err)
				}
			}
		}
	}
}

// WithHandler registers a typed handler with automatic JSON request/response
// handling.
func WithHandler[Req any, Resp any](name string, fn HostFunc[Req, Resp]) RegistryOption {
	return func(b *registryBuilder) {
		handler := NewJSONHandler(fn)
		if err := b.addHandler(name, handler); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}
