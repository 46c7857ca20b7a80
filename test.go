package testopt

import (
	"context"
	"sync/atomic"
	"time"
)

// Test is an individual test within a suite.
type Test struct {
	ID        TestID
	SuiteID   SuiteID
	ModuleID  ModuleID
	SessionID SessionID

	c      *Client
	closed atomic.Bool
}

// TestCloseOptions controls how a test is closed. The zero value closes the
// test as passed at the current time.
type TestCloseOptions struct {
	Status     TestStatus
	FinishTime time.Time
	SkipReason string
}

// CreateTest starts a new test within the suite.
func (s *Suite) CreateTest(ctx context.Context, name string) (*Test, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	req := struct {
		SuiteID   SuiteID `json:"suite_id"`
		Name      string  `json:"name"`
		StartTime int64   `json:"start_time_unix_ns"`
	}{s.ID, name, time.Now().UnixNano()}

	var resp struct {
		Valid  bool   `json:"valid"`
		TestID TestID `json:"test_id"`
	}
	if err := s.c.call(ctx, fnTestCreate, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, errRuntimeRejected(fnTestCreate)
	}
	return &Test{
		ID:        resp.TestID,
		SuiteID:   s.ID,
		ModuleID:  s.ModuleID,
		SessionID: s.SessionID,
		c:         s.c,
	}, nil
}

// SetStringTag sets a string tag on the test.
func (t *Test) SetStringTag(ctx context.Context, key, value string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	return t.c.callOK(ctx, fnTestSetStringTag, tagRequest{
		ID: uint64(t.ID), Key: key, Value: value,
	})
}

// SetNumberTag sets a numeric tag on the test.
func (t *Test) SetNumberTag(ctx context.Context, key string, value float64) error {
	if t.closed.Load() {
		return ErrClosed
	}
	return t.c.callOK(ctx, fnTestSetNumberTag, numberTagRequest{
		ID: uint64(t.ID), Key: key, Value: value,
	})
}

// SetError records error information on the test.
func (t *Test) SetError(ctx context.Context, errType, message, stacktrace string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	return t.c.callOK(ctx, fnTestSetError, errorRequest{
		ID: uint64(t.ID), Type: errType, Message: message, Stacktrace: stacktrace,
	})
}

// SetSource records where the test's source code lives. Zero line numbers
// mean unknown.
func (t *Test) SetSource(ctx context.Context, file string, startLine, endLine int) error {
	if t.closed.Load() {
		return ErrClosed
	}
	req := struct {
		TestID    TestID `json:"test_id"`
		File      string `json:"file"`
		StartLine int    `json:"start_line,omitempty"`
		EndLine   int    `json:"end_line,omitempty"`
	}{t.ID, file, startLine, endLine}
	return t.c.callOK(ctx, fnTestSetSource, req)
}

// Log attaches a log record to the test. Tags is an optional comma-separated
// tag list.
func (t *Test) Log(ctx context.Context, message, tags string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	req := struct {
		TestID  TestID `json:"test_id"`
		Message string `json:"message"`
		Tags    string `json:"tags,omitempty"`
	}{t.ID, message, tags}
	return t.c.callOK(ctx, fnTestLog, req)
}

// SetBenchmarkStringData records benchmark string measurements for the test.
func (t *Test) SetBenchmarkStringData(ctx context.Context, measure string, values map[string]string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	req := struct {
		TestID  TestID            `json:"test_id"`
		Measure string            `json:"measure"`
		Values  map[string]string `json:"values"`
	}{t.ID, measure, values}
	return t.c.callOK(ctx, fnTestSetBenchmarkString, req)
}

// SetBenchmarkNumberData records benchmark numeric measurements for the test.
func (t *Test) SetBenchmarkNumberData(ctx context.Context, measure string, values map[string]float64) error {
	if t.closed.Load() {
		return ErrClosed
	}
	req := struct {
		TestID  TestID             `json:"test_id"`
		Measure string             `json:"measure"`
		Values  map[string]float64 `json:"values"`
	}{t.ID, measure, values}
	return t.c.callOK(ctx, fnTestSetBenchmarkNumber, req)
}

// Close finishes the test with the given status.
func (t *Test) Close(ctx context.Context, status TestStatus) error {
	return t.CloseWithOptions(ctx, TestCloseOptions{Status: status})
}

// CloseWithOptions finishes the test with explicit close options.
func (t *Test) CloseWithOptions(ctx context.Context, opts TestCloseOptions) error {
	if !t.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	finish := opts.FinishTime
	if finish.IsZero() {
		finish = time.Now()
	}
	req := struct {
		TestID     TestID `json:"test_id"`
		Status     string `json:"status"`
		FinishTime int64  `json:"finish_time_unix_ns"`
		SkipReason string `json:"skip_reason,omitempty"`
	}{t.ID, opts.Status.String(), finish.UnixNano(), opts.SkipReason}
	return t.c.callOK(ctx, fnTestClose, req)
}
