// Package nativelib locates (and optionally downloads) the compiled
// test-optimization runtime artifact for the current platform.
package nativelib

import (
	"fmt"
	"runtime"
)

// Triple identifies the host platform the runtime artifact is released for.
type Triple struct {
	OS   string // "linux", "macos", "windows"
	Arch string // "x64", "arm64"
}

// String renders the triple the way release assets are named.
func (t Triple) String() string {
	return t.OS + "-" + t.Arch
}

// HostTriple resolves the release triple for the current process.
func HostTriple() (Triple, error) {
	return resolveTriple(runtime.GOOS, runtime.GOARCH)
}

func resolveTriple(goos, goarch string) (Triple, error) {
	var t Triple

	switch goos {
	case "darwin":
		t.OS = "macos"
	case "linux":
		t.OS = "linux"
	case "windows":
		t.OS = "windows"
	default:
		return Triple{}, fmt.Errorf("unsupported platform: %s", goos)
	}

	switch goarch {
	case "arm64":
		t.Arch = "arm64"
	case "amd64":
		t.Arch = "x64"
	default:
		return Triple{}, fmt.Errorf("unsupported architecture: %s", goarch)
	}

	return t, nil
}
