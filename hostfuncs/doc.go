// Package hostfuncs provides pure Go implementations of the host services the
// embedded test-optimization runtime calls back into. These implementations
// have NO WASM runtime dependencies (no wazero imports); the runtime package
// adapts them onto the engine's host-module surface.
package hostfuncs
