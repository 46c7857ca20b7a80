// Package runtime embeds the compiled test-optimization runtime artifact
// under wazero and exposes its exported functions to the SDK.
//
// Call ABI: every exported operation takes a packed i64 (request pointer and
// length in runtime linear memory) and returns a packed i64 (response pointer
// and length). Payloads are JSON. The artifact exports "allocate" and "free"
// for request/response memory, mirrored by the host module it imports for
// logging and environment probes.
//
// Startup: command-convention artifacts (_start) are run by the loader during
// instantiation. Library-convention artifacts export _initialize, which the
// loader does not run; for those the package registers the entry routine with
// the bootstrap registrar, and every call runs the registrar first. See
// package bootstrap.
package runtime
