package testopt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanLifecycle(t *testing.T) {
	ctx := context.Background()
	client, rt := initializedClient(t)
	rt.responses[fnSpanCreate] = []byte(`{"valid":true,"span_id":77}`)

	span, err := client.CreateSpan(ctx, 40, SpanStartOptions{
		OperationName: "fixture.setup",
		ResourceName:  "seed database",
		SpanType:      "test",
		StringTags:    map[string]string{"db": "postgres"},
	})
	require.NoError(t, err)
	assert.Equal(t, SpanID(77), span.ID)
	assert.Equal(t, uint64(40), span.ParentID)

	var createReq struct {
		ParentID      uint64            `json:"parent_id"`
		OperationName string            `json:"operation_name"`
		StartTime     int64             `json:"start_time_unix_ns"`
		StringTags    map[string]string `json:"string_tags"`
	}
	require.NoError(t, json.Unmarshal(rt.lastPayloads[fnSpanCreate], &createReq))
	assert.Equal(t, uint64(40), createReq.ParentID)
	assert.Equal(t, "fixture.setup", createReq.OperationName)
	assert.Positive(t, createReq.StartTime)
	assert.Equal(t, "postgres", createReq.StringTags["db"])

	require.NoError(t, span.SetStringTag(ctx, "table", "users"))
	require.NoError(t, span.SetNumberTag(ctx, "rows", 128))
	require.NoError(t, span.SetError(ctx, "timeout", "seed timed out", "stack"))

	var tag tagRequest
	require.NoError(t, json.Unmarshal(rt.lastPayloads[fnSpanSetStringTag], &tag))
	assert.Equal(t, uint64(77), tag.ID)
	assert.Equal(t, "table", tag.Key)

	require.NoError(t, span.Close(ctx))

	var closeReq struct {
		SpanID     uint64 `json:"span_id"`
		FinishTime int64  `json:"finish_time_unix_ns"`
	}
	require.NoError(t, json.Unmarshal(rt.lastPayloads[fnSpanClose], &closeReq))
	assert.Equal(t, uint64(77), closeReq.SpanID)
	assert.Positive(t, closeReq.FinishTime)
}

func TestSpanCreate_Rejected(t *testing.T) {
	client, rt := initializedClient(t)
	rt.responses[fnSpanCreate] = []byte(`{"valid":false}`)

	_, err := client.CreateSpan(context.Background(), 0, SpanStartOptions{OperationName: "op"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), fnSpanCreate)
}

func TestClosedSpanRejectsOperations(t *testing.T) {
	ctx := context.Background()
	client, rt := initializedClient(t)
	rt.responses[fnSpanCreate] = []byte(`{"valid":true,"span_id":77}`)

	span, err := client.CreateSpan(ctx, 0, SpanStartOptions{OperationName: "op"})
	require.NoError(t, err)
	require.NoError(t, span.Close(ctx))

	assert.ErrorIs(t, span.SetStringTag(ctx, "k", "v"), ErrClosed)
	assert.ErrorIs(t, span.SetNumberTag(ctx, "k", 1), ErrClosed)
	assert.ErrorIs(t, span.SetError(ctx, "t", "m", "s"), ErrClosed)
	assert.ErrorIs(t, span.Close(ctx), ErrClosed)
}

func TestSuiteSetSource(t *testing.T) {
	ctx := context.Background()
	session, rt := createSession(t)
	module, err := session.CreateModule(ctx, "m", "", "")
	require.NoError(t, err)
	suite, err := module.CreateSuite(ctx, "s")
	require.NoError(t, err)

	require.NoError(t, suite.SetSource(ctx, "storage/put_test.go", 1, 90))

	var srcReq struct {
		SuiteID   uint64 `json:"suite_id"`
		File      string `json:"file"`
		StartLine int    `json:"start_line"`
		EndLine   int    `json:"end_line"`
	}
	require.NoError(t, json.Unmarshal(rt.lastPayloads[fnSuiteSetSource], &srcReq))
	assert.Equal(t, uint64(30), srcReq.SuiteID)
	assert.Equal(t, "storage/put_test.go", srcReq.File)
	assert.Equal(t, 1, srcReq.StartLine)
	assert.Equal(t, 90, srcReq.EndLine)

	require.NoError(t, suite.Close(ctx))
	assert.ErrorIs(t, suite.SetSource(ctx, "f", 0, 0), ErrClosed)
}

func TestMockTracerSpans(t *testing.T) {
	ctx := context.Background()
	client, rt := initializedClient(t)
	rt.responses[fnMockTracerFinishedSpans] = []byte(`{"spans":[
		{"span_id":1,"trace_id":9,"parent_span_id":0,
		 "operation_name":"session",
		 "start_time_unix_ns":1500000000000000000,
		 "finish_time_unix_ns":1500000000500000000,
		 "string_tags":{"ci.provider":"github"},
		 "number_tags":{"ci.attempt":2}}
	]}`)
	rt.responses[fnMockTracerOpenSpans] = []byte(`{"spans":[
		{"span_id":2,"trace_id":9,"parent_span_id":1,"operation_name":"test"}
	]}`)

	finished, err := client.MockTracerFinishedSpans(ctx)
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, uint64(1), finished[0].SpanID)
	assert.Equal(t, uint64(9), finished[0].TraceID)
	assert.Equal(t, "session", finished[0].OperationName)
	assert.Equal(t, time.Unix(0, 1500000000000000000), finished[0].StartTime)
	assert.Equal(t, 500*time.Millisecond, finished[0].FinishTime.Sub(finished[0].StartTime))
	assert.Equal(t, "github", finished[0].StringTags["ci.provider"])
	assert.Equal(t, 2.0, finished[0].NumberTags["ci.attempt"])

	open, err := client.MockTracerOpenSpans(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, uint64(2), open[0].SpanID)
	assert.Equal(t, uint64(1), open[0].ParentSpanID)
	// An open span has no finish time yet.
	assert.True(t, open[0].FinishTime.IsZero())

	require.NoError(t, client.MockTracerReset(ctx))
	assert.Equal(t, 1, rt.callCount(fnMockTracerReset))
}

func TestMockTracerRequiresInit(t *testing.T) {
	client := NewClient(WithRuntime(newFakeRuntime()))

	_, err := client.MockTracerFinishedSpans(context.Background())
	require.ErrorIs(t, err, ErrNotInitialized)
}
