package hostfuncs

import (
	"context"
	"os"
	"runtime"
)

// ProcessInfoRequest asks the host for facts about the embedding process.
// It has no parameters today; the struct exists so the wire format can grow.
type ProcessInfoRequest struct{}

// ProcessInfoResponse describes the embedding process. The runtime stamps
// these onto every session it creates.
type ProcessInfoResponse struct {
	// WorkingDirectory is the process working directory.
	WorkingDirectory string `json:"working_directory"`

	// Hostname is the host machine name.
	Hostname string `json:"hostname,omitempty"`

	// Pid is the process id.
	Pid int `json:"pid"`

	// RuntimeName identifies the host language runtime (always "go").
	RuntimeName string `json:"runtime_name"`

	// RuntimeVersion is the host toolchain version (e.g., "go1.25.5").
	RuntimeVersion string `json:"runtime_version"`

	// OS and Arch describe the host target.
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// PerformProcessInfo collects process facts for the runtime.
func PerformProcessInfo(_ context.Context, _ ProcessInfoRequest) ProcessInfoResponse {
	wd, _ := os.Getwd()
	hostname, _ := os.Hostname()
	return ProcessInfoResponse{
		WorkingDirectory: wd,
		Hostname:         hostname,
		Pid:              os.Getpid(),
		RuntimeName:      "go",
		RuntimeVersion:   runtime.Version(),
		OS:               runtime.GOOS,
		Arch:             runtime.GOARCH,
	}
}
