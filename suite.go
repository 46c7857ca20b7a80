package testopt

import (
	"context"
	"sync/atomic"
	"time"
)

// Suite is a test suite within a module.
type Suite struct {
	ID        SuiteID
	ModuleID  ModuleID
	SessionID SessionID

	c      *Client
	closed atomic.Bool
}

// CreateSuite starts a new suite within the module.
func (m *Module) CreateSuite(ctx context.Context, name string) (*Suite, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	req := struct {
		ModuleID  ModuleID `json:"module_id"`
		Name      string   `json:"name"`
		StartTime int64    `json:"start_time_unix_ns"`
	}{m.ID, name, time.Now().UnixNano()}

	var resp struct {
		Valid   bool    `json:"valid"`
		SuiteID SuiteID `json:"suite_id"`
	}
	if err := m.c.call(ctx, fnSuiteCreate, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, errRuntimeRejected(fnSuiteCreate)
	}
	return &Suite{ID: resp.SuiteID, ModuleID: m.ID, SessionID: m.SessionID, c: m.c}, nil
}

// SetStringTag sets a string tag on the suite.
func (s *Suite) SetStringTag(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.c.callOK(ctx, fnSuiteSetStringTag, tagRequest{
		ID: uint64(s.ID), Key: key, Value: value,
	})
}

// SetNumberTag sets a numeric tag on the suite.
func (s *Suite) SetNumberTag(ctx context.Context, key string, value float64) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.c.callOK(ctx, fnSuiteSetNumberTag, numberTagRequest{
		ID: uint64(s.ID), Key: key, Value: value,
	})
}

// SetError records error information on the suite.
func (s *Suite) SetError(ctx context.Context, errType, message, stacktrace string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.c.callOK(ctx, fnSuiteSetError, errorRequest{
		ID: uint64(s.ID), Type: errType, Message: message, Stacktrace: stacktrace,
	})
}

// SetSource records where the suite's source file lives. Zero line numbers
// mean unknown.
func (s *Suite) SetSource(ctx context.Context, file string, startLine, endLine int) error {
	if s.closed.Load() {
		return ErrClosed
	}
	req := struct {
		SuiteID   SuiteID `json:"suite_id"`
		File      string  `json:"file"`
		StartLine int     `json:"start_line,omitempty"`
		EndLine   int     `json:"end_line,omitempty"`
	}{s.ID, file, startLine, endLine}
	return s.c.callOK(ctx, fnSuiteSetSource, req)
}

// Close finishes the suite.
func (s *Suite) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	req := struct {
		SuiteID    SuiteID `json:"suite_id"`
		FinishTime int64   `json:"finish_time_unix_ns"`
	}{s.ID, time.Now().UnixNano()}
	return s.c.callOK(ctx, fnSuiteClose, req)
}
