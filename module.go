package testopt

import (
	"context"
	"sync/atomic"
	"time"
)

// Module is a test module (a compilation unit or package) within a session.
type Module struct {
	ID        ModuleID
	SessionID SessionID

	c      *Client
	closed atomic.Bool
}

// CreateModule starts a new module within the session.
func (s *Session) CreateModule(ctx context.Context, name, framework, frameworkVersion string) (*Module, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	req := struct {
		SessionID        SessionID `json:"session_id"`
		Name             string    `json:"name"`
		Framework        string    `json:"framework,omitempty"`
		FrameworkVersion string    `json:"framework_version,omitempty"`
		StartTime        int64     `json:"start_time_unix_ns"`
	}{s.ID, name, framework, frameworkVersion, time.Now().UnixNano()}

	var resp struct {
		Valid    bool     `json:"valid"`
		ModuleID ModuleID `json:"module_id"`
	}
	if err := s.c.call(ctx, fnModuleCreate, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, errRuntimeRejected(fnModuleCreate)
	}
	return &Module{ID: resp.ModuleID, SessionID: s.ID, c: s.c}, nil
}

// SetStringTag sets a string tag on the module.
func (m *Module) SetStringTag(ctx context.Context, key, value string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return m.c.callOK(ctx, fnModuleSetStringTag, tagRequest{
		ID: uint64(m.ID), Key: key, Value: value,
	})
}

// SetNumberTag sets a numeric tag on the module.
func (m *Module) SetNumberTag(ctx context.Context, key string, value float64) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return m.c.callOK(ctx, fnModuleSetNumberTag, numberTagRequest{
		ID: uint64(m.ID), Key: key, Value: value,
	})
}

// SetError records error information on the module.
func (m *Module) SetError(ctx context.Context, errType, message, stacktrace string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return m.c.callOK(ctx, fnModuleSetError, errorRequest{
		ID: uint64(m.ID), Type: errType, Message: message, Stacktrace: stacktrace,
	})
}

// Close finishes the module.
func (m *Module) Close(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	req := struct {
		ModuleID   ModuleID `json:"module_id"`
		FinishTime int64    `json:"finish_time_unix_ns"`
	}{m.ID, time.Now().UnixNano()}
	return m.c.callOK(ctx, fnModuleClose, req)
}
