package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/qzarchive/qzarchive/pkg/config"
)

var (
	// Logger is the application logger
	Logger *zap.Logger
	mu     sync.Mutex
)

// InitLogger initializes the logger with the given configuration
func InitLogger(cfg *config.LoggingConfig) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}

// New builds a logger without installing it globally
func New(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level := ParseLevel(cfg.Level)

	if cfg.Format == "text" {
		zapConfig := zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.OutputPaths = []string{"stderr"}
		return zapConfig.Build(zap.AddCaller())
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths = []string{"stderr"}

	if cfg.ScalyrFormat {
		encoderConfig := zapConfig.EncoderConfig
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

		return zap.New(
			zapcore.NewCore(NewScalyrEncoder(encoderConfig), zapcore.AddSync(os.Stderr), level),
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		), nil
	}

	return zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// ParseLevel maps config levels such as "INFO" or "warning" to zap levels,
// falling back to info.
func ParseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// SetLogger replaces the global logger
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	Logger = l
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if Logger == nil {
		// Fallback to default logger
		Logger, _ = zap.NewProduction()
	}
	return Logger
}

// WithComponent adds component name to logger
func WithComponent(component string) *zap.Logger {
	return GetLogger().With(zap.String("component", component))
}

// WithPost adds the identity of a feed post to logger
func WithPost(l *zap.Logger, authorUIN, tid string) *zap.Logger {
	return l.With(zap.String("author_uin", authorUIN), zap.String("tid", tid))
}
