package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openbook/hub/pkg/config"
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
	if err := InitLogger(&config.LoggingConfig{Level: "INFO", Format: "json", ScalyrFormat: true}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	var buf bytes.Buffer
	logger := newScalyrLogger(&buf).With(zap.String("component", "community"))

	logger.Info("role changed",
		zap.String("action", "AA"),
		zap.Int64("community_id", 7),
		zap.Bool("cached", true),
		zap.Error(errors.New("boom")))

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	tests := []struct {
		key  string
		want interface{}
	}{
		{"message", "role changed"},
		{"level", "info"},
		{"component", "community"},
		{"action", "AA"},
		{"community_id", float64(7)},
		{"cached", true},
		{"error", "boom"},
	}
	for _, tt := range tests {
		if logObj[tt.key] != tt.want {
			t.Errorf("field %q = %v, want %v", tt.key, logObj[tt.key], tt.want)
		}
	}

	if _, ok := logObj["timestamp"]; !ok {
		t.Error("Expected 'timestamp' field in log output")
	}
}

func TestInitLoggerText(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	if err := InitLogger(&config.LoggingConfig{Level: "not-a-level", Format: "text"}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if !Logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected unknown level to fall back to info")
	}
	if Logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug to be disabled")
	}
}
