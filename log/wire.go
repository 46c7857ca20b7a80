package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// RecordWire is the JSON wire format for a log record sent by the embedded
// runtime through the log_message host function.
type RecordWire struct {
	Timestamp time.Time  `json:"timestamp"`
	Attrs     []AttrWire `json:"attrs,omitempty"`
	Level     string     `json:"level"`
	Message   string     `json:"message"`
}

// AttrWire represents a single attribute for wire transfer.
type AttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "uint64", "bool", "float64", "time", "duration", "error", "json", "any"
	Value string `json:"value"` // String representation of the value
}

// ParseRecord decodes a wire payload into a RecordWire.
func ParseRecord(payload []byte) (RecordWire, error) {
	var rec RecordWire
	if err := json.Unmarshal(payload, &rec); err != nil {
		return RecordWire{}, fmt.Errorf("failed to decode log record: %w", err)
	}
	return rec, nil
}

// SlogLevel maps a wire level name to a slog.Level. Unknown names map to
// info, never an error: a log record must not fail to log.
func (r RecordWire) SlogLevel() slog.Level {
	switch r.Level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "info", "INFO":
		return slog.LevelInfo
	case "warn", "warning", "WARN":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlogAttrs converts the wire attributes to slog attributes, recovering the
// typed value where the type tag allows it.
func (r RecordWire) SlogAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(r.Attrs))
	for _, a := range r.Attrs {
		attrs = append(attrs, toSlogAttr(a))
	}
	return attrs
}

func toSlogAttr(a AttrWire) slog.Attr {
	switch a.Type {
	case "int64":
		if v, err := strconv.ParseInt(a.Value, 10, 64); err == nil {
			return slog.Int64(a.Key, v)
		}
	case "uint64":
		if v, err := strconv.ParseUint(a.Value, 10, 64); err == nil {
			return slog.Uint64(a.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(a.Value); err == nil {
			return slog.Bool(a.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
			return slog.Float64(a.Key, v)
		}
	case "time":
		if v, err := time.Parse(time.RFC3339Nano, a.Value); err == nil {
			return slog.Time(a.Key, v)
		}
	case "duration":
		if v, err := time.ParseDuration(a.Value); err == nil {
			return slog.Duration(a.Key, v)
		}
	}
	// "string", "error", "json", "any" and any unparseable value fall back to
	// the string representation.
	return slog.String(a.Key, a.Value)
}
