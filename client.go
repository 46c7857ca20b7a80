package testopt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	goruntime "runtime"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/testopt-dev/testopt-sdk/bootstrap"
	"github.com/testopt-dev/testopt-sdk/manifest"
	"github.com/testopt-dev/testopt-sdk/nativelib"
	"github.com/testopt-dev/testopt-sdk/runtime"
)

var (
	// ErrNotInitialized is returned by operations invoked before Init has
	// completed successfully.
	ErrNotInitialized = errors.New("testopt: client not initialized")

	// ErrShutdown is returned by operations invoked after Shutdown. A shut
	// down client cannot be re-initialized.
	ErrShutdown = errors.New("testopt: client has been shut down")

	// ErrClosed is returned by operations on a session, module, suite or
	// test that has already been closed.
	ErrClosed = errors.New("testopt: entity already closed")
)

// RuntimeCaller is the surface the client needs from a loaded runtime.
// *runtime.Runtime satisfies it.
type RuntimeCaller interface {
	Call(ctx context.Context, name string, request []byte) ([]byte, error)
	Bootstrap(ctx context.Context) error
	Close(ctx context.Context) error
}

// InitOptions configures the embedded runtime at initialization.
type InitOptions struct {
	Language         string            `json:"language" validate:"required"`
	RuntimeName      string            `json:"runtime_name" validate:"required"`
	RuntimeVersion   string            `json:"runtime_version" validate:"required"`
	WorkingDirectory string            `json:"working_directory,omitempty"`
	Environment      map[string]string `json:"environment_variables,omitempty"`
	GlobalTags       map[string]string `json:"global_tags,omitempty"`
	UseMockTracer    bool              `json:"use_mock_tracer,omitempty"`
}

// DefaultInitOptions returns InitOptions describing the current Go process.
func DefaultInitOptions() InitOptions {
	return InitOptions{
		Language:       "go",
		RuntimeName:    "go",
		RuntimeVersion: goruntime.Version(),
	}
}

var validate = validator.New()

type clientConfig struct {
	logger       *slog.Logger
	caller       RuntimeCaller
	artifactPath string
	runtimeOpts  []runtime.Option
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRuntime supplies an already loaded runtime instead of locating and
// loading the artifact during Init.
func WithRuntime(rc RuntimeCaller) ClientOption {
	return func(c *clientConfig) {
		c.caller = rc
	}
}

// WithArtifactPath pins the runtime artifact to an explicit path, bypassing
// the search order.
func WithArtifactPath(path string) ClientOption {
	return func(c *clientConfig) {
		c.artifactPath = path
	}
}

// WithRuntimeOptions forwards options to runtime.Load when the client loads
// the artifact itself.
func WithRuntimeOptions(opts ...runtime.Option) ClientOption {
	return func(c *clientConfig) {
		c.runtimeOpts = append(c.runtimeOpts, opts...)
	}
}

// Client is the entry point to the embedded test-optimization runtime.
//
// Init is the explicit initialization call: it loads the runtime artifact,
// runs its startup routine, and hands it the init options. The whole sequence
// is guarded by a one-time latch, so concurrent and repeated Init calls are
// safe; every caller observes the outcome of the single attempt. All other
// operations require a completed Init.
type Client struct {
	cfg   clientConfig
	latch *bootstrap.Latch

	mu     sync.RWMutex
	caller RuntimeCaller
	down   bool
}

// NewClient builds a Client. The runtime is not touched until Init.
func NewClient(opts ...ClientOption) *Client {
	cfg := clientConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{
		cfg:   cfg,
		latch: bootstrap.NewLatch(),
	}
}

// Init initializes the embedded runtime exactly once. The first caller
// performs the work; concurrent callers block until it finishes and share its
// result. After a failed Init every subsequent call returns the original
// error; there is no retry.
func (c *Client) Init(ctx context.Context, opts InitOptions) error {
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("invalid init options: %w", err)
	}
	c.mu.RLock()
	down := c.down
	c.mu.RUnlock()
	if down {
		return ErrShutdown
	}
	return c.latch.Do(ctx, func(ctx context.Context) error {
		return c.initialize(ctx, opts)
	})
}

func (c *Client) initialize(ctx context.Context, opts InitOptions) (err error) {
	caller := c.cfg.caller
	if caller == nil {
		rt, loadErr := c.loadRuntime(ctx)
		if loadErr != nil {
			return loadErr
		}
		caller = rt
		defer func() {
			if err != nil {
				_ = rt.Close(ctx)
			}
		}()
	}

	if err := caller.Bootstrap(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encoding init options: %w", err)
	}
	resp, err := caller.Call(ctx, fnInitialize, payload)
	if err != nil {
		return err
	}
	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("decoding init response: %w", err)
	}
	if !result.OK {
		return errors.New("runtime rejected initialization")
	}

	c.mu.Lock()
	if c.down {
		c.mu.Unlock()
		// Shutdown won the race; returning an error lets the deferred close
		// release a runtime we loaded ourselves instead of stranding it.
		return ErrShutdown
	}
	c.caller = caller
	c.mu.Unlock()

	c.cfg.logger.InfoContext(ctx, "test optimization runtime initialized",
		"language", opts.Language, "runtime", opts.RuntimeName)
	return nil
}

// loadRuntime locates the artifact and its manifest on disk and loads them.
func (c *Client) loadRuntime(ctx context.Context) (*runtime.Runtime, error) {
	var locateOpts []nativelib.LocateOption
	if c.cfg.artifactPath != "" {
		locateOpts = append(locateOpts, nativelib.WithPath(c.cfg.artifactPath))
	}
	artifactPath, err := nativelib.Locate(locateOpts...)
	if err != nil {
		return nil, err
	}

	wasmBytes, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("reading runtime artifact: %w", err)
	}
	manifestBytes, err := os.ReadFile(nativelib.ManifestPath(artifactPath))
	if err != nil {
		return nil, fmt.Errorf("reading artifact manifest: %w", err)
	}
	man, err := manifest.Parse(manifestBytes)
	if err != nil {
		return nil, err
	}

	rtOpts := append([]runtime.Option{runtime.WithLogger(c.cfg.logger)}, c.cfg.runtimeOpts...)
	return runtime.Load(ctx, wasmBytes, man, rtOpts...)
}

// Shutdown tells the runtime to flush and stop, then releases it. The init
// latch is not reset; a shut down client stays down.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	caller := c.caller
	c.caller = nil
	c.down = true
	c.mu.Unlock()

	if caller == nil {
		return nil
	}

	_, callErr := caller.Call(ctx, fnShutdown, nil)
	closeErr := caller.Close(ctx)
	if callErr != nil {
		return callErr
	}
	return closeErr
}

// InitState reports where client initialization is in its lifecycle.
func (c *Client) InitState() bootstrap.State {
	return c.latch.State()
}

// runtimeCaller returns the active caller, or the sentinel error describing
// why there is none.
func (c *Client) runtimeCaller() (RuntimeCaller, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.down {
		return nil, ErrShutdown
	}
	if c.caller == nil {
		return nil, ErrNotInitialized
	}
	return c.caller, nil
}

// call performs a JSON request/response round trip with the runtime. A nil
// request sends no payload; a nil response pointer discards the payload.
func (c *Client) call(ctx context.Context, name string, request, response any) error {
	caller, err := c.runtimeCaller()
	if err != nil {
		return err
	}

	var payload []byte
	if request != nil {
		payload, err = json.Marshal(request)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", name, err)
		}
	}

	resp, err := caller.Call(ctx, name, payload)
	if err != nil {
		return err
	}
	if response == nil {
		return nil
	}
	if err := json.Unmarshal(resp, response); err != nil {
		return fmt.Errorf("decoding %s response: %w", name, err)
	}
	return nil
}

// callOK is call for operations whose response is a bare acknowledgement.
func (c *Client) callOK(ctx context.Context, name string, request any) error {
	var result struct {
		OK bool `json:"ok"`
	}
	if err := c.call(ctx, name, request, &result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("runtime rejected %s", name)
	}
	return nil
}
