// Package bootstrap guarantees the embedded test-optimization runtime is
// initialized exactly once, before any exported SDK operation touches it.
//
// Some runtime artifacts are built as library-convention modules whose entry
// routine is not invoked by the loader. For those, the SDK registers the entry
// routine with a Registrar, and every exported operation funnels through the
// registrar's one-time run before calling into the runtime. The alternative,
// relying on loader ordering, is not expressible as a portable contract, so
// initialization is an explicit call guarded by a process-wide latch.
package bootstrap
