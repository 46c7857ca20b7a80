package nativelib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// EnvSkipDownload names the environment variable that disables artifact
// download (useful for air-gapped CI that provisions the artifact itself).
const EnvSkipDownload = "TESTOPT_SDK_SKIP_NATIVE_DOWNLOAD"

// DefaultBaseURL is the release channel the downloader pulls artifacts from.
const DefaultBaseURL = "https://github.com/testopt-dev/testopt-native/releases/download"

// downloadConfig holds configuration for artifact download.
type downloadConfig struct {
	baseURL string
	destDir string
	client  *http.Client
}

// DownloadOption configures artifact download.
type DownloadOption func(*downloadConfig)

// WithBaseURL overrides the release channel URL.
func WithBaseURL(url string) DownloadOption {
	return func(c *downloadConfig) {
		c.baseURL = url
	}
}

// WithDestDir overrides the destination directory (default: user cache dir).
func WithDestDir(dir string) DownloadOption {
	return func(c *downloadConfig) {
		c.destDir = dir
	}
}

// WithHTTPClient overrides the HTTP client used for the download.
func WithHTTPClient(client *http.Client) DownloadOption {
	return func(c *downloadConfig) {
		if client != nil {
			c.client = client
		}
	}
}

// Download fetches the runtime artifact and its manifest for the given
// release version and the current platform, and returns the artifact path.
// It honors TESTOPT_SDK_SKIP_NATIVE_DOWNLOAD, in which case it returns an
// empty path and no error.
func Download(ctx context.Context, version string, opts ...DownloadOption) (string, error) {
	if os.Getenv(EnvSkipDownload) != "" {
		return "", nil
	}
	if version == "" {
		return "", fmt.Errorf("release version is required")
	}

	cfg := downloadConfig{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.destDir == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			return "", err
		}
		cfg.destDir = dir
	}
	if err := os.MkdirAll(cfg.destDir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}

	triple, err := HostTriple()
	if err != nil {
		return "", err
	}

	for _, name := range []string{LibraryFilename, manifestFilename} {
		url := fmt.Sprintf("%s/%s/%s-%s", cfg.baseURL, version, triple, name)
		if err := fetchFile(ctx, cfg.client, url, filepath.Join(cfg.destDir, name)); err != nil {
			return "", err
		}
	}

	return filepath.Join(cfg.destDir, LibraryFilename), nil
}

// fetchFile downloads url to dest atomically (write to temp, then rename).
func fetchFile(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("moving %s into place: %w", dest, err)
	}
	return nil
}
