package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// legacyWASIModule is the module name artifacts built by older toolchains
// import their stdio from. It predates wasi_snapshot_preview1 and is long
// gone from current SDKs, but released runtime artifacts built against it
// are still in circulation.
const legacyWASIModule = "wasi_unstable"

// instantiateLegacyStdio links the legacy stdio bindings, but only for
// artifacts that actually import them. Toolchain updates can silently remove
// the need for the shim, so the dependency is verified against the compiled
// module's import table rather than asserted for every artifact.
func (r *Runtime) instantiateLegacyStdio(ctx context.Context, compiled wazero.CompiledModule) error {
	if !importsModule(compiled.ImportedFunctions(), legacyWASIModule) {
		return nil
	}

	r.logger.Debug("artifact imports legacy WASI stdio bindings, linking compatibility module",
		"module", legacyWASIModule)

	builder := r.wazero.NewHostModuleBuilder(legacyWASIModule)
	wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)
	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("linking %s compatibility module: %w", legacyWASIModule, err)
	}
	return nil
}

// importsModule reports whether any of the given imported function
// definitions come from the named module.
func importsModule(imports []api.FunctionDefinition, moduleName string) bool {
	for _, def := range imports {
		if mod, _, ok := def.Import(); ok && mod == moduleName {
			return true
		}
	}
	return false
}
