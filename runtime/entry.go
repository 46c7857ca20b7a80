package runtime

import (
	"context"
	"fmt"

	"github.com/testopt-dev/testopt-sdk/manifest"
)

// arrangeStartup wires the artifact's entry routine according to its
// convention.
//
// Command-convention artifacts expect the loader to run their entry during
// instantiation, so it is invoked here, synchronously, before Load returns.
// Library-convention artifacts are the case the bootstrap registrar exists
// for: their entry is registered and runs exactly once before the first
// exported call. Artifacts without an entry routine get no added code path.
func (r *Runtime) arrangeStartup(ctx context.Context) error {
	entry, ok := r.man.EntryExport()
	if !ok {
		return nil
	}

	if !r.guest.hasExport(entry) {
		return fmt.Errorf("artifact does not export entry routine %q", entry)
	}

	switch r.man.Entry {
	case manifest.EntryStart:
		// Normal path: the loader (here) starts the runtime.
		if err := r.boot.Register(entry, func(ctx context.Context) error {
			return r.guest.callNullary(ctx, entry)
		}); err != nil {
			return err
		}
		if err := r.boot.Run(ctx); err != nil {
			return fmt.Errorf("running entry routine %s: %w", entry, err)
		}
		return nil

	case manifest.EntryInitialize:
		// Deferred path: run before first use, driven by Call.
		return r.boot.Register(entry, func(ctx context.Context) error {
			r.logger.DebugContext(ctx, "bootstrapping runtime", "entry", entry)
			if err := r.guest.callNullary(ctx, entry); err != nil {
				return fmt.Errorf("entry routine %s: %w", entry, err)
			}
			return nil
		})

	default:
		return fmt.Errorf("unknown entry convention %q", r.man.Entry)
	}
}
