// Package testopt is the host-side SDK for the embedded test-optimization
// runtime. It locates and loads the runtime artifact, guarantees the
// artifact's startup routine runs exactly once before any call reaches it,
// and exposes the session/module/suite/test lifecycle as plain Go methods.
//
// Typical use:
//
//	client := testopt.NewClient()
//	if err := client.Init(ctx, testopt.DefaultInitOptions()); err != nil {
//		return err
//	}
//	defer client.Shutdown(ctx)
//
//	session, err := client.CreateSession(ctx, "go-test", goruntime.Version())
package testopt
