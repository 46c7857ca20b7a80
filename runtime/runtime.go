package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/testopt-dev/testopt-sdk/bootstrap"
	"github.com/testopt-dev/testopt-sdk/hostfuncs"
	"github.com/testopt-dev/testopt-sdk/log"
	"github.com/testopt-dev/testopt-sdk/manifest"
)

// DefaultHostModuleName is the module name the artifact imports host
// functions from.
const DefaultHostModuleName = "testopt_host"

// logMessageFunc is the custom host function runtime log records arrive on.
const logMessageFunc = "log_message"

// Config holds configuration for the embedded runtime.
type Config struct {
	// HostModuleName is the host module name (default: "testopt_host").
	HostModuleName string

	// MaxRequestSize limits the size of host function requests read from
	// runtime memory. Default is hostfuncs.DefaultMaxRequestSize.
	MaxRequestSize uint32

	// Logger receives SDK and forwarded runtime log records.
	Logger *slog.Logger

	// Registry provides the host functions the artifact may import. When nil,
	// the runtime support bundle with panic recovery is used.
	Registry *hostfuncs.HandlerRegistry

	// Stdout and Stderr receive the artifact's WASI standard streams.
	// Defaults discard them.
	Stdout io.Writer
	Stderr io.Writer
}

// Option configures the embedded runtime.
type Option func(*Config)

// WithHostModuleName sets the host module name (default: "testopt_host").
func WithHostModuleName(name string) Option {
	return func(c *Config) {
		c.HostModuleName = name
	}
}

// WithMaxRequestSize sets the maximum host function request size.
func WithMaxRequestSize(size uint32) Option {
	return func(c *Config) {
		c.MaxRequestSize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithRegistry sets the host function registry.
func WithRegistry(registry *hostfuncs.HandlerRegistry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithStdout routes the artifact's stdout to w.
func WithStdout(w io.Writer) Option {
	return func(c *Config) {
		c.Stdout = w
	}
}

// WithStderr routes the artifact's stderr to w.
func WithStderr(w io.Writer) Option {
	return func(c *Config) {
		c.Stderr = w
	}
}

func defaultConfig() Config {
	return Config{
		HostModuleName: DefaultHostModuleName,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
		Logger:         slog.Default(),
	}
}

// Runtime is an instantiated test-optimization runtime artifact.
type Runtime struct {
	wazero wazero.Runtime
	guest  guestABI
	boot   *bootstrap.Registrar
	logger *slog.Logger
	man    *manifest.Manifest
	cfg    Config
}

// Load compiles, links and instantiates a runtime artifact described by the
// given manifest. Startup follows the artifact's entry convention: a _start
// artifact is initialized by the loader here; an _initialize artifact has its
// entry routine registered with the bootstrap registrar and run before the
// first Call.
//
// Symbol problems (missing exports, unsatisfied host imports, ABI mismatch)
// are reported from Load, never deferred to the first call.
func Load(ctx context.Context, wasmBytes []byte, man *manifest.Manifest, opts ...Option) (*Runtime, error) {
	if man == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if err := man.Validate(); err != nil {
		return nil, err
	}
	if err := man.CheckABI(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	registry := cfg.Registry
	if registry == nil {
		var err error
		registry, err = hostfuncs.NewRegistry(
			hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
			hostfuncs.WithBundle(hostfuncs.RuntimeSupportBundle()),
		)
		if err != nil {
			return nil, fmt.Errorf("building default host registry: %w", err)
		}
	}

	// Host functions are checked against the manifest before anything is
	// instantiated: a miswired host fails loudly here.
	provided := append(registry.Names(), logMessageFunc)
	if err := man.CheckHost(provided); err != nil {
		return nil, err
	}

	r := &Runtime{
		wazero: wazero.NewRuntime(ctx),
		boot:   bootstrap.NewRegistrar(),
		logger: cfg.Logger,
		man:    man,
		cfg:    cfg,
	}

	if err := r.link(ctx, wasmBytes, registry); err != nil {
		_ = r.wazero.Close(ctx)
		return nil, err
	}

	return r, nil
}

// link compiles the artifact, instantiates its imports and the artifact
// itself, and arranges startup.
func (r *Runtime) link(ctx context.Context, wasmBytes []byte, registry *hostfuncs.HandlerRegistry) error {
	compiled, err := r.wazero.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fmt.Errorf("compiling runtime artifact: %w", err)
	}

	wasi_snapshot_preview1.MustInstantiate(ctx, r.wazero)

	// Legacy stdio bindings are linked only when the artifact actually
	// imports them; see stdio_compat.go.
	if err := r.instantiateLegacyStdio(ctx, compiled); err != nil {
		return err
	}

	if err := r.instantiateHostModule(ctx, registry); err != nil {
		return err
	}

	// Every export the manifest declares must resolve in the compiled
	// artifact. This is the unresolved-symbol failure of a traditional link,
	// surfaced as an explicit error.
	exports := compiled.ExportedFunctions()
	for _, name := range r.man.Exports {
		if _, ok := exports[name]; !ok {
			return fmt.Errorf("artifact does not export %q declared in its manifest", name)
		}
	}

	modConfig := wazero.NewModuleConfig().
		WithName(r.man.Name).
		WithStartFunctions() // startup is owned by the bootstrap registrar
	if r.cfg.Stdout != nil {
		modConfig = modConfig.WithStdout(r.cfg.Stdout)
	}
	if r.cfg.Stderr != nil {
		modConfig = modConfig.WithStderr(r.cfg.Stderr)
	}

	mod, err := r.wazero.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		return fmt.Errorf("instantiating runtime artifact: %w", err)
	}
	r.guest = &wazeroGuest{mod: mod}

	return r.arrangeStartup(ctx)
}

// Bootstrap runs the registered startup routines now instead of lazily on the
// first Call. Safe to call any number of times.
func (r *Runtime) Bootstrap(ctx context.Context) error {
	return r.boot.Run(ctx)
}

// BootstrapState reports where runtime startup is in its lifecycle.
func (r *Runtime) BootstrapState() bootstrap.State {
	return r.boot.State()
}

// Manifest returns the manifest the runtime was loaded with.
func (r *Runtime) Manifest() *manifest.Manifest {
	return r.man
}

// Close releases the runtime and everything instantiated with it. The
// bootstrap latch is not reset; a closed runtime cannot be restarted.
func (r *Runtime) Close(ctx context.Context) error {
	return r.wazero.Close(ctx)
}

// forwarder builds the log forwarder host functions use.
func (r *Runtime) forwarder() *log.Forwarder {
	return log.NewForwarder(r.logger)
}
