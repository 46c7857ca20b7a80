package nativelib

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTriple(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{"linux", "amd64", "linux-x64", false},
		{"linux", "arm64", "linux-arm64", false},
		{"darwin", "arm64", "macos-arm64", false},
		{"darwin", "amd64", "macos-x64", false},
		{"windows", "amd64", "windows-x64", false},
		{"plan9", "amd64", "", true},
		{"linux", "riscv64", "", true},
	}

	for _, tt := range tests {
		triple, err := resolveTriple(tt.goos, tt.goarch)
		if tt.wantErr {
			assert.Error(t, err, "%s/%s", tt.goos, tt.goarch)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, triple.String())
	}
}

func TestLocate_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.wasm")
	require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))

	got, err := Locate(WithPath(path))
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestLocate_ExplicitPathMissing(t *testing.T) {
	_, err := Locate(WithPath(filepath.Join(t.TempDir(), "absent.wasm")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLocate_EnvSearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, LibraryFilename), []byte{0}, 0o644))
	t.Setenv(EnvSearchPath, dir)

	got, err := Locate()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, LibraryFilename), got)
}

func TestLocate_SearchDirOrder(t *testing.T) {
	envDir := t.TempDir()
	optDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(envDir, LibraryFilename), []byte{1}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(optDir, LibraryFilename), []byte{2}, 0o644))
	t.Setenv(EnvSearchPath, envDir)

	// The environment override wins over WithSearchDir.
	got, err := Locate(WithSearchDir(optDir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(envDir, LibraryFilename), got)
}

func TestLocate_NotFound(t *testing.T) {
	t.Setenv(EnvSearchPath, t.TempDir())

	_, err := Locate(WithSearchDir(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), LibraryFilename)
	assert.Contains(t, err.Error(), EnvSearchPath)
}

func TestManifestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/opt/lib", manifestFilename), ManifestPath(filepath.Join("/opt/lib", LibraryFilename)))
}

func TestDownload(t *testing.T) {
	triple, err := HostTriple()
	require.NoError(t, err)

	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		_, _ = w.Write([]byte("artifact-bytes"))
	}))
	defer srv.Close()

	dest := t.TempDir()
	got, err := Download(context.Background(), "v1.4.2",
		WithBaseURL(srv.URL),
		WithDestDir(dest),
	)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, LibraryFilename), got)

	require.Len(t, requested, 2)
	assert.Equal(t, "/v1.4.2/"+triple.String()+"-"+LibraryFilename, requested[0])
	assert.Equal(t, "/v1.4.2/"+triple.String()+"-"+manifestFilename, requested[1])

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("artifact-bytes"), data)

	_, err = os.Stat(filepath.Join(dest, manifestFilename))
	require.NoError(t, err)
}

func TestDownload_SkipEnv(t *testing.T) {
	t.Setenv(EnvSkipDownload, "1")

	got, err := Download(context.Background(), "v1.4.2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDownload_MissingVersion(t *testing.T) {
	_, err := Download(context.Background(), "")
	require.Error(t, err)
}

func TestDownload_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Download(context.Background(), "v9.9.9",
		WithBaseURL(srv.URL),
		WithDestDir(t.TempDir()),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}
