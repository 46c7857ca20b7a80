package testopt

import (
	"context"
	"sync/atomic"
	"time"
)

// Session is a test session in the embedded runtime. All children (modules,
// suites, tests) are created through it.
type Session struct {
	ID SessionID

	c      *Client
	closed atomic.Bool
}

// CreateSession starts a new test session.
func (c *Client) CreateSession(ctx context.Context, framework, frameworkVersion string) (*Session, error) {
	req := struct {
		Framework        string `json:"framework,omitempty"`
		FrameworkVersion string `json:"framework_version,omitempty"`
		StartTime        int64  `json:"start_time_unix_ns"`
	}{framework, frameworkVersion, time.Now().UnixNano()}

	var resp struct {
		Valid     bool      `json:"valid"`
		SessionID SessionID `json:"session_id"`
	}
	if err := c.call(ctx, fnSessionCreate, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, errRuntimeRejected(fnSessionCreate)
	}
	return &Session{ID: resp.SessionID, c: c}, nil
}

// SetStringTag sets a string tag on the session.
func (s *Session) SetStringTag(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.c.callOK(ctx, fnSessionSetStringTag, tagRequest{
		ID: uint64(s.ID), Key: key, Value: value,
	})
}

// SetNumberTag sets a numeric tag on the session.
func (s *Session) SetNumberTag(ctx context.Context, key string, value float64) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.c.callOK(ctx, fnSessionSetNumberTag, numberTagRequest{
		ID: uint64(s.ID), Key: key, Value: value,
	})
}

// SetError records error information on the session.
func (s *Session) SetError(ctx context.Context, errType, message, stacktrace string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.c.callOK(ctx, fnSessionSetError, errorRequest{
		ID: uint64(s.ID), Type: errType, Message: message, Stacktrace: stacktrace,
	})
}

// Close finishes the session with the given exit code.
func (s *Session) Close(ctx context.Context, exitCode int) error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	req := struct {
		SessionID  SessionID `json:"session_id"`
		ExitCode   int       `json:"exit_code"`
		FinishTime int64     `json:"finish_time_unix_ns"`
	}{s.ID, exitCode, time.Now().UnixNano()}
	return s.c.callOK(ctx, fnSessionClose, req)
}
