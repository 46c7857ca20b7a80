package testopt

// SessionID identifies a test session in the embedded runtime.
type SessionID uint64

// ModuleID identifies a test module within a session.
type ModuleID uint64

// SuiteID identifies a test suite within a module.
type SuiteID uint64

// TestID identifies an individual test within a suite.
type TestID uint64

// SpanID identifies a custom span attached to a session or test.
type SpanID uint64

// TestStatus is the final status a test is closed with.
type TestStatus uint8

const (
	StatusPass TestStatus = 0
	StatusFail TestStatus = 1
	StatusSkip TestStatus = 2
)

func (s TestStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusFail:
		return "fail"
	case StatusSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Settings holds the backend configuration for the current test session.
type Settings struct {
	CodeCoverage            bool               `json:"code_coverage"`
	EarlyFlakeDetection     EFDSettings        `json:"early_flake_detection"`
	FlakyTestRetriesEnabled bool               `json:"flaky_test_retries_enabled"`
	ITREnabled              bool               `json:"itr_enabled"`
	RequireGit              bool               `json:"require_git"`
	TestsSkipping           bool               `json:"tests_skipping"`
	KnownTestsEnabled       bool               `json:"known_tests_enabled"`
	TestManagement          ManagementSettings `json:"test_management"`
}

// EFDSettings configures early flake detection.
type EFDSettings struct {
	Enabled                bool                    `json:"enabled"`
	SlowTestRetries        SlowTestRetriesSettings `json:"slow_test_retries"`
	FaultySessionThreshold int                     `json:"faulty_session_threshold"`
}

// SlowTestRetriesSettings sets retry counts by test duration bucket.
type SlowTestRetriesSettings struct {
	FiveM   int `json:"five_m"`
	ThirtyS int `json:"thirty_s"`
	TenS    int `json:"ten_s"`
	FiveS   int `json:"five_s"`
}

// FlakyTestRetriesSettings configures automatic retries of flaky tests.
type FlakyTestRetriesSettings struct {
	RetryCount      int `json:"retry_count"`
	TotalRetryCount int `json:"total_retry_count"`
}

// ManagementSettings configures the test management feature.
type ManagementSettings struct {
	Enabled             bool `json:"enabled"`
	AttemptToFixRetries int  `json:"attempt_to_fix_retries"`
}

// KnownTests maps module name to suite name to the tests the backend has
// seen before.
type KnownTests map[string]map[string][]string

// SkippableTest is a test the backend determined can be skipped.
type SkippableTest struct {
	SuiteName            string `json:"suite_name"`
	TestName             string `json:"test_name"`
	Parameters           string `json:"parameters,omitempty"`
	CustomConfigurations string `json:"custom_configurations_json,omitempty"`
}

// ManagedTest is a test tracked by the test management system.
type ManagedTest struct {
	ModuleName   string `json:"module_name"`
	SuiteName    string `json:"suite_name"`
	TestName     string `json:"test_name"`
	Quarantined  bool   `json:"quarantined"`
	Disabled     bool   `json:"disabled"`
	AttemptToFix bool   `json:"attempt_to_fix"`
}
