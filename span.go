package testopt

import (
	"context"
	"sync/atomic"
	"time"
)

// Span is a custom span nested under a session or test, for instrumenting
// work the test lifecycle does not model (setup, fixtures, external calls).
type Span struct {
	ID       SpanID
	ParentID uint64

	c      *Client
	closed atomic.Bool
}

// SpanStartOptions describes a span being opened.
type SpanStartOptions struct {
	OperationName string
	ServiceName   string
	ResourceName  string
	SpanType      string
	StringTags    map[string]string
	NumberTags    map[string]float64
}

// CreateSpan opens a span under the given parent. The parent is a session or
// test identifier; zero parents the span at the trace root.
func (c *Client) CreateSpan(ctx context.Context, parentID uint64, opts SpanStartOptions) (*Span, error) {
	req := struct {
		ParentID      uint64             `json:"parent_id"`
		OperationName string             `json:"operation_name"`
		ServiceName   string             `json:"service_name,omitempty"`
		ResourceName  string             `json:"resource_name,omitempty"`
		SpanType      string             `json:"span_type,omitempty"`
		StartTime     int64              `json:"start_time_unix_ns"`
		StringTags    map[string]string  `json:"string_tags,omitempty"`
		NumberTags    map[string]float64 `json:"number_tags,omitempty"`
	}{
		ParentID:      parentID,
		OperationName: opts.OperationName,
		ServiceName:   opts.ServiceName,
		ResourceName:  opts.ResourceName,
		SpanType:      opts.SpanType,
		StartTime:     time.Now().UnixNano(),
		StringTags:    opts.StringTags,
		NumberTags:    opts.NumberTags,
	}

	var resp struct {
		Valid  bool   `json:"valid"`
		SpanID SpanID `json:"span_id"`
	}
	if err := c.call(ctx, fnSpanCreate, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, errRuntimeRejected(fnSpanCreate)
	}
	return &Span{ID: resp.SpanID, ParentID: parentID, c: c}, nil
}

// SetStringTag sets a string tag on the span.
func (s *Span) SetStringTag(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.c.callOK(ctx, fnSpanSetStringTag, tagRequest{
		ID: uint64(s.ID), Key: key, Value: value,
	})
}

// SetNumberTag sets a numeric tag on the span.
func (s *Span) SetNumberTag(ctx context.Context, key string, value float64) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.c.callOK(ctx, fnSpanSetNumberTag, numberTagRequest{
		ID: uint64(s.ID), Key: key, Value: value,
	})
}

// SetError records error information on the span.
func (s *Span) SetError(ctx context.Context, errType, message, stacktrace string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.c.callOK(ctx, fnSpanSetError, errorRequest{
		ID: uint64(s.ID), Type: errType, Message: message, Stacktrace: stacktrace,
	})
}

// Close finishes the span.
func (s *Span) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	req := struct {
		SpanID     SpanID `json:"span_id"`
		FinishTime int64  `json:"finish_time_unix_ns"`
	}{s.ID, time.Now().UnixNano()}
	return s.c.callOK(ctx, fnSpanClose, req)
}
