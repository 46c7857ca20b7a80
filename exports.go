package testopt

// Exported function names of the runtime artifact.
const (
	fnInitialize = "topt_initialize"
	fnShutdown   = "topt_shutdown"

	fnGetSettings             = "topt_get_settings"
	fnGetFlakyTestRetries     = "topt_get_flaky_test_retries_settings"
	fnGetKnownTests           = "topt_get_known_tests"
	fnGetSkippableTests       = "topt_get_skippable_tests"
	fnGetTestManagementTests  = "topt_get_test_management_tests"
	fnSendCodeCoveragePayload = "topt_send_code_coverage_payload"

	fnSessionCreate       = "topt_session_create"
	fnSessionClose        = "topt_session_close"
	fnSessionSetStringTag = "topt_session_set_string_tag"
	fnSessionSetNumberTag = "topt_session_set_number_tag"
	fnSessionSetError     = "topt_session_set_error"

	fnModuleCreate       = "topt_module_create"
	fnModuleClose        = "topt_module_close"
	fnModuleSetStringTag = "topt_module_set_string_tag"
	fnModuleSetNumberTag = "topt_module_set_number_tag"
	fnModuleSetError     = "topt_module_set_error"

	fnSuiteCreate       = "topt_suite_create"
	fnSuiteClose        = "topt_suite_close"
	fnSuiteSetStringTag = "topt_suite_set_string_tag"
	fnSuiteSetNumberTag = "topt_suite_set_number_tag"
	fnSuiteSetError     = "topt_suite_set_error"
	fnSuiteSetSource    = "topt_suite_set_source"

	fnSpanCreate       = "topt_span_create"
	fnSpanClose        = "topt_span_close"
	fnSpanSetStringTag = "topt_span_set_string_tag"
	fnSpanSetNumberTag = "topt_span_set_number_tag"
	fnSpanSetError     = "topt_span_set_error"

	fnMockTracerFinishedSpans = "topt_debug_mock_tracer_get_finished_spans"
	fnMockTracerOpenSpans     = "topt_debug_mock_tracer_get_open_spans"
	fnMockTracerReset         = "topt_debug_mock_tracer_reset"

	fnTestCreate             = "topt_test_create"
	fnTestClose              = "topt_test_close"
	fnTestSetStringTag       = "topt_test_set_string_tag"
	fnTestSetNumberTag       = "topt_test_set_number_tag"
	fnTestSetError           = "topt_test_set_error"
	fnTestSetSource          = "topt_test_set_source"
	fnTestLog                = "topt_test_log"
	fnTestSetBenchmarkString = "topt_test_set_benchmark_string_data"
	fnTestSetBenchmarkNumber = "topt_test_set_benchmark_number_data"
)
