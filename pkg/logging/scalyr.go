package logging

import (
	"encoding/json"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// ScalyrEncoder outputs one flat JSON object per entry, the shape Scalyr
// parses without a custom parser. Fields added with logger.With accumulate
// in the embedded map encoder.
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
	fieldEnc := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		fieldEnc.Fields[k] = v
	}
	for _, field := range fields {
		field.AddTo(fieldEnc)
	}

	logObj := make(map[string]interface{}, len(fieldEnc.Fields)+8)
	for k, v := range fieldEnc.Fields {
		switch t := v.(type) {
		case time.Duration:
			logObj[k] = t.String()
		case time.Time:
			logObj[k] = t.Format(time.RFC3339Nano)
		default:
			logObj[k] = v
		}
	}

	logObj["timestamp"] = entry.Time.Format(time.RFC3339Nano)
	logObj["level"] = entry.Level.String()
	logObj["message"] = entry.Message
	if entry.LoggerName != "" {
		logObj["logger"] = entry.LoggerName
	}
	if entry.Caller.Defined {
		logObj["file"] = entry.Caller.File
		logObj["line"] = entry.Caller.Line
		logObj["function"] = entry.Caller.Function
	}
	if entry.Stack != "" {
		logObj["stack"] = entry.Stack
	}

	data, err := json.Marshal(logObj)
	if err != nil {
		return nil, err
	}
	buf := bufferPool.Get()
	buf.AppendBytes(data)
	buf.AppendString(zapcore.DefaultLineEnding)
	return buf, nil
}

// Clone creates a copy of the encoder
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
