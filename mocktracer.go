package testopt

import (
	"context"
	"time"
)

// MockSpan is a span captured by the runtime's mock tracer. The mock tracer
// records spans instead of sending them anywhere, which lets tests assert on
// exactly what was emitted. It is only populated when Init was given
// UseMockTracer.
type MockSpan struct {
	SpanID       uint64
	TraceID      uint64
	ParentSpanID uint64

	OperationName string
	StartTime     time.Time
	FinishTime    time.Time

	StringTags map[string]string
	NumberTags map[string]float64
}

type mockSpanWire struct {
	SpanID       uint64             `json:"span_id"`
	TraceID      uint64             `json:"trace_id"`
	ParentSpanID uint64             `json:"parent_span_id"`
	Operation    string             `json:"operation_name"`
	StartTime    int64              `json:"start_time_unix_ns"`
	FinishTime   int64              `json:"finish_time_unix_ns"`
	StringTags   map[string]string  `json:"string_tags"`
	NumberTags   map[string]float64 `json:"number_tags"`
}

func (w mockSpanWire) span() MockSpan {
	s := MockSpan{
		SpanID:        w.SpanID,
		TraceID:       w.TraceID,
		ParentSpanID:  w.ParentSpanID,
		OperationName: w.Operation,
		StringTags:    w.StringTags,
		NumberTags:    w.NumberTags,
	}
	if w.StartTime != 0 {
		s.StartTime = time.Unix(0, w.StartTime)
	}
	if w.FinishTime != 0 {
		s.FinishTime = time.Unix(0, w.FinishTime)
	}
	return s
}

// MockTracerFinishedSpans returns the spans the mock tracer has recorded as
// finished since the last reset.
func (c *Client) MockTracerFinishedSpans(ctx context.Context) ([]MockSpan, error) {
	return c.mockSpans(ctx, fnMockTracerFinishedSpans)
}

// MockTracerOpenSpans returns the spans the mock tracer has recorded as
// started but not yet finished.
func (c *Client) MockTracerOpenSpans(ctx context.Context) ([]MockSpan, error) {
	return c.mockSpans(ctx, fnMockTracerOpenSpans)
}

func (c *Client) mockSpans(ctx context.Context, name string) ([]MockSpan, error) {
	var resp struct {
		Spans []mockSpanWire `json:"spans"`
	}
	if err := c.call(ctx, name, nil, &resp); err != nil {
		return nil, err
	}
	spans := make([]MockSpan, len(resp.Spans))
	for i, w := range resp.Spans {
		spans[i] = w.span()
	}
	return spans, nil
}

// MockTracerReset discards everything the mock tracer has recorded.
func (c *Client) MockTracerReset(ctx context.Context) error {
	return c.callOK(ctx, fnMockTracerReset, nil)
}
