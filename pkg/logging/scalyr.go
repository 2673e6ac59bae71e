package logging

import (
	"encoding/json"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var scalyrPool = buffer.NewPool()

// ScalyrEncoder outputs one flat JSON object per entry, the shape Scalyr parses
type ScalyrEncoder struct {
	*zapcore.MapObjectEncoder
	config zapcore.EncoderConfig
}

// NewScalyrEncoder creates a new Scalyr-compatible encoder
func NewScalyrEncoder(config zapcore.EncoderConfig) zapcore.Encoder {
	return &ScalyrEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		config:           config,
	}
}

// EncodeEntry encodes a log entry in Scalyr-compatible format
func (e *ScalyrEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	// context fields added through With() first, entry fields override them
	obj := make(map[string]interface{}, len(e.Fields)+len(fields)+6)
	for k, v := range e.Fields {
		obj[k] = v
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	for k, v := range enc.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		obj[k] = v
	}

	obj["timestamp"] = entry.Time.UTC().Format(time.RFC3339Nano)
	obj["level"] = entry.Level.String()
	obj["message"] = entry.Message
	if entry.LoggerName != "" {
		obj["logger"] = entry.LoggerName
	}
	if entry.Caller.Defined {
		obj["file"] = entry.Caller.TrimmedPath()
		obj["line"] = entry.Caller.Line
		obj["function"] = entry.Caller.Function
	}
	if entry.Stack != "" {
		obj["stack"] = entry.Stack
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	buf := scalyrPool.Get()
	buf.AppendBytes(data)
	buf.AppendString(zapcore.DefaultLineEnding)
	return buf, nil
}

// Clone creates a copy of the encoder, including fields added with With()
func (e *ScalyrEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	return &ScalyrEncoder{
		MapObjectEncoder: clone,
		config:           e.config,
	}
}
