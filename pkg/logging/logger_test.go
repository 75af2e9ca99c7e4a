package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/qzarchive/qzarchive/pkg/config"
)

func newScalyrLogger(buf *bytes.Buffer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:      "timestamp",
		LevelKey:     "level",
		MessageKey:   "message",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(NewScalyrEncoder(encoderConfig), zapcore.AddSync(buf), zapcore.InfoLevel)
	return zap.New(core)
}

func TestScalyrEncoder(t *testing.T) {
	var buf bytes.Buffer
	logger := newScalyrLogger(&buf)

	logger.Info("test message",
		zap.String("key", "value"),
		zap.Int("count", 3),
		zap.Bool("hydrated", true),
		zap.Duration("took", 1500*time.Millisecond),
		zap.Error(errors.New("boom")),
	)

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if logObj["message"] != "test message" {
		t.Errorf("Expected message 'test message', got: %v", logObj["message"])
	}
	if logObj["key"] != "value" {
		t.Errorf("Expected field 'key'='value', got: %v", logObj["key"])
	}
	if logObj["count"] != float64(3) {
		t.Errorf("Expected field 'count'=3, got: %v", logObj["count"])
	}
	if logObj["hydrated"] != true {
		t.Errorf("Expected field 'hydrated'=true, got: %v", logObj["hydrated"])
	}
	if logObj["took"] != "1.5s" {
		t.Errorf("Expected field 'took'='1.5s', got: %v", logObj["took"])
	}
	if logObj["error"] != "boom" {
		t.Errorf("Expected field 'error'='boom', got: %v", logObj["error"])
	}
	if _, ok := logObj["timestamp"]; !ok {
		t.Error("Expected 'timestamp' field in log output")
	}
}

func TestScalyrEncoder_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newScalyrLogger(&buf).With(zap.String("component", "hydrator"), zap.Int64("uin", 10001))

	logger.Info("first")

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if logObj["component"] != "hydrator" {
		t.Errorf("Expected With field 'component', got: %v", logObj["component"])
	}
	if logObj["uin"] != float64(10001) {
		t.Errorf("Expected With field 'uin'=10001, got: %v", logObj["uin"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"INFO", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARNING", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitLogger(t *testing.T) {
	old := GetLogger()
	defer SetLogger(old)

	for _, cfg := range []config.LoggingConfig{
		{Level: "INFO", Format: "json"},
		{Level: "DEBUG", Format: "text"},
		{Level: "INFO", Format: "json", ScalyrFormat: true},
	} {
		if err := InitLogger(&cfg); err != nil {
			t.Fatalf("InitLogger(%+v) error: %v", cfg, err)
		}
		if GetLogger() == nil {
			t.Fatalf("InitLogger(%+v) left a nil logger", cfg)
		}
	}
}
