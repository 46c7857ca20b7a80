package hostfuncs

import (
	"context"
	"os"
	"strings"
)

// defaultEnvPrefixes are the environment prefixes the runtime may read when a
// request does not narrow them further. They cover the CI provider variables
// the runtime folds into session tags.
var defaultEnvPrefixes = []string{
	"CI",
	"GIT_",
	"GITHUB_",
	"GITLAB_",
	"JENKINS_",
	"BUILDKITE",
	"CIRCLE",
	"TRAVIS",
	"TF_BUILD",
	"BITBUCKET_",
	"APPVEYOR",
	"DRONE",
	"TEAMCITY_",
	"CODEBUILD_",
}

// EnvironmentRequest asks the host for environment variables the runtime may
// read. The runtime uses these to detect the CI provider and derive session
// tags.
type EnvironmentRequest struct {
	// Prefixes narrows the result to variables starting with any of the given
	// prefixes. Empty means the host's default CI allowlist.
	Prefixes []string `json:"prefixes,omitempty"`

	// Names requests specific variables by exact name, in addition to any
	// prefix matches.
	Names []string `json:"names,omitempty"`
}

// EnvironmentResponse carries the matched environment variables.
type EnvironmentResponse struct {
	// Variables maps variable names to values. Requested names that are unset
	// are absent from the map.
	Variables map[string]string `json:"variables"`
}

// PerformEnvironmentProbe returns the environment variables matching the
// request. The probe never exposes the full environment: with no explicit
// prefixes it falls back to the CI allowlist.
func PerformEnvironmentProbe(_ context.Context, req EnvironmentRequest) EnvironmentResponse {
	prefixes := req.Prefixes
	if len(prefixes) == 0 {
		prefixes = defaultEnvPrefixes
	}

	wanted := make(map[string]struct{}, len(req.Names))
	for _, name := range req.Names {
		wanted[name] = struct{}{}
	}

	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			continue
		}
		key, value := kv[:eq], kv[eq+1:]

		if _, ok := wanted[key]; ok {
			vars[key] = value
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				vars[key] = value
				break
			}
		}
	}

	return EnvironmentResponse{Variables: vars}
}
