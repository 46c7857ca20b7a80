// Package manifest describes the runtime artifact manifest shipped next to
// the compiled test-optimization runtime. The manifest declares the artifact's
// ABI version, entry convention and symbol surface, so incompatibilities are
// reported as explicit load-time errors instead of traps on first call.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is the manifest file name expected next to the artifact.
const DefaultFilename = "libtestopt.manifest.yaml"

// ABIVersion is the runtime call ABI this SDK speaks.
const ABIVersion = 1

// EntryConvention identifies how the runtime artifact expects to be started.
type EntryConvention string

const (
	// EntryStart marks a command-convention artifact: the loader runs its
	// _start export during instantiation, so the runtime self-initializes.
	EntryStart EntryConvention = "start"

	// EntryInitialize marks a library-convention artifact: it exports
	// _initialize, which the loader does NOT run automatically. The SDK must
	// bootstrap it before the first exported call.
	EntryInitialize EntryConvention = "initialize"

	// EntryNone marks an artifact with no entry routine at all.
	EntryNone EntryConvention = "none"
)

// Manifest describes a runtime artifact.
type Manifest struct {
	// Name is the artifact name (e.g., "libtestopt").
	Name string `yaml:"name" json:"name" validate:"required"`

	// Version is the runtime release version.
	Version string `yaml:"version" json:"version" validate:"required"`

	// ABI is the call ABI version the artifact implements.
	ABI int `yaml:"abi" json:"abi" validate:"required,gte=1"`

	// Entry is the artifact's startup convention.
	Entry EntryConvention `yaml:"entry" json:"entry" validate:"required,oneof=start initialize none"`

	// EntrySymbol optionally overrides the conventional entry export name.
	// Older artifacts export a target-qualified routine (e.g.,
	// "topt_rt0_wasm32_wasi") instead of "_initialize".
	EntrySymbol string `yaml:"entry_symbol,omitempty" json:"entry_symbol,omitempty"`

	// Exports lists the functions the artifact exports to the host.
	Exports []string `yaml:"exports" json:"exports" validate:"required,min=1,dive,required"`

	// HostFunctions lists the host functions the artifact imports. Every one
	// of them must be provided by the embedding host.
	HostFunctions []string `yaml:"host_functions,omitempty" json:"host_functions,omitempty" validate:"dive,required"`
}

// Parse unmarshals YAML bytes into a Manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// EntryExport returns the export name of the artifact's entry routine, and
// false if the artifact has no entry routine.
func (m *Manifest) EntryExport() (string, bool) {
	if m.Entry == EntryNone {
		return "", false
	}
	if m.EntrySymbol != "" {
		return m.EntrySymbol, true
	}
	switch m.Entry {
	case EntryStart:
		return "_start", true
	case EntryInitialize:
		return "_initialize", true
	}
	return "", false
}

// Exports lookup helper.
func (m *Manifest) HasExport(name string) bool {
	for _, e := range m.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// CheckHost verifies that every host function the artifact imports is
// provided by the embedding host. This is the explicit equivalent of a
// link-time unresolved-symbol failure: it fires at load time, never on first
// call.
func (m *Manifest) CheckHost(provided []string) error {
	have := make(map[string]struct{}, len(provided))
	for _, name := range provided {
		have[name] = struct{}{}
	}

	var missing []string
	for _, name := range m.HostFunctions {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("artifact %s requires host functions the host does not provide: %v", m.Name, missing)
	}
	return nil
}

// CheckABI verifies the artifact speaks the host's call ABI.
func (m *Manifest) CheckABI() error {
	if m.ABI != ABIVersion {
		return fmt.Errorf("artifact %s implements ABI v%d, host speaks v%d", m.Name, m.ABI, ABIVersion)
	}
	return nil
}
