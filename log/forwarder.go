package log

import (
	"context"
	"log/slog"
)

// Forwarder routes log records emitted by the embedded runtime into a host
// slog.Logger. It is wired as the log_message host function.
type Forwarder struct {
	logger *slog.Logger
}

// NewForwarder creates a Forwarder targeting the given logger. A nil logger
// uses slog.Default().
func NewForwarder(logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{logger: logger}
}

// Forward decodes a wire payload and emits it as a slog record. Malformed
// payloads are reported once through the host logger rather than returned:
// a broken log record must never trap the runtime.
func (f *Forwarder) Forward(ctx context.Context, payload []byte) {
	rec, err := ParseRecord(payload)
	if err != nil {
		f.logger.WarnContext(ctx, "dropping malformed runtime log record", "error", err)
		return
	}

	f.logger.LogAttrs(ctx, rec.SlogLevel(), rec.Message, rec.SlogAttrs()...)
}
