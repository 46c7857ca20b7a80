package testopt

import "context"

// Settings fetches the backend configuration for the current session.
func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var settings Settings
	if err := c.call(ctx, fnGetSettings, nil, &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// FlakyTestRetries fetches the flaky test retry configuration.
func (c *Client) FlakyTestRetries(ctx context.Context) (FlakyTestRetriesSettings, error) {
	var settings FlakyTestRetriesSettings
	if err := c.call(ctx, fnGetFlakyTestRetries, nil, &settings); err != nil {
		return FlakyTestRetriesSettings{}, err
	}
	return settings, nil
}

// KnownTests fetches the tests the backend has seen before, keyed by module
// and suite.
func (c *Client) KnownTests(ctx context.Context) (KnownTests, error) {
	var resp struct {
		Tests []struct {
			ModuleName string `json:"module_name"`
			SuiteName  string `json:"suite_name"`
			TestName   string `json:"test_name"`
		} `json:"tests"`
	}
	if err := c.call(ctx, fnGetKnownTests, nil, &resp); err != nil {
		return nil, err
	}

	known := make(KnownTests)
	for _, t := range resp.Tests {
		suites, ok := known[t.ModuleName]
		if !ok {
			suites = make(map[string][]string)
			known[t.ModuleName] = suites
		}
		suites[t.SuiteName] = append(suites[t.SuiteName], t.TestName)
	}
	return known, nil
}

// SkippableTests fetches the tests the backend determined can be skipped.
func (c *Client) SkippableTests(ctx context.Context) ([]SkippableTest, error) {
	var resp struct {
		Tests []SkippableTest `json:"tests"`
	}
	if err := c.call(ctx, fnGetSkippableTests, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tests, nil
}

// ManagedTests fetches the tests tracked by the test management system.
func (c *Client) ManagedTests(ctx context.Context) ([]ManagedTest, error) {
	var resp struct {
		Tests []ManagedTest `json:"tests"`
	}
	if err := c.call(ctx, fnGetTestManagementTests, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tests, nil
}

// SendCodeCoveragePayload reports covered files for a test.
func (c *Client) SendCodeCoveragePayload(ctx context.Context, sessionID SessionID, suiteID SuiteID, testID TestID, files []string) error {
	req := struct {
		SessionID SessionID `json:"session_id"`
		SuiteID   SuiteID   `json:"suite_id"`
		TestID    TestID    `json:"test_id"`
		Files     []string  `json:"files"`
	}{sessionID, suiteID, testID, files}
	return c.callOK(ctx, fnSendCodeCoveragePayload, req)
}
