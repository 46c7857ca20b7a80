package nativelib

import (
	"fmt"
	"os"
	"path/filepath"
)

// LibraryFilename is the runtime artifact file name.
const LibraryFilename = "libtestopt.wasm"

// EnvSearchPath names the environment variable holding a directory to search
// for the artifact before any default location.
const EnvSearchPath = "TESTOPT_SDK_NATIVE_SEARCH_PATH"

// locateConfig holds configuration for artifact location.
type locateConfig struct {
	path       string
	searchDirs []string
}

// LocateOption configures artifact location.
type LocateOption func(*locateConfig)

// WithPath pins the artifact to an explicit file path, skipping all search.
func WithPath(path string) LocateOption {
	return func(c *locateConfig) {
		c.path = path
	}
}

// WithSearchDir appends a directory to search after the environment override.
func WithSearchDir(dir string) LocateOption {
	return func(c *locateConfig) {
		c.searchDirs = append(c.searchDirs, dir)
	}
}

// Locate resolves the runtime artifact path. Search order:
//  1. an explicit WithPath,
//  2. the TESTOPT_SDK_NATIVE_SEARCH_PATH directory,
//  3. directories added via WithSearchDir,
//  4. the per-user cache directory the downloader writes to,
//  5. the working directory.
func Locate(opts ...LocateOption) (string, error) {
	var cfg locateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.path != "" {
		if _, err := os.Stat(cfg.path); err != nil {
			return "", fmt.Errorf("runtime artifact not found at %s: %w", cfg.path, err)
		}
		return cfg.path, nil
	}

	var dirs []string
	if custom := os.Getenv(EnvSearchPath); custom != "" {
		dirs = append(dirs, custom)
	}
	dirs = append(dirs, cfg.searchDirs...)
	if cacheDir, err := defaultCacheDir(); err == nil {
		dirs = append(dirs, cacheDir)
	}
	dirs = append(dirs, ".")

	for _, dir := range dirs {
		candidate := filepath.Join(dir, LibraryFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("runtime artifact %s not found (searched %d directories; set %s or download the artifact)",
		LibraryFilename, len(dirs), EnvSearchPath)
}

// ManifestPath returns the manifest path expected next to an artifact path.
func ManifestPath(artifactPath string) string {
	return filepath.Join(filepath.Dir(artifactPath), manifestFilename)
}

const manifestFilename = "libtestopt.manifest.yaml"

// defaultCacheDir is where downloaded artifacts live.
func defaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving user cache directory: %w", err)
	}
	return filepath.Join(base, "testopt-sdk", "lib"), nil
}
