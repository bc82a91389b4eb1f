package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

const (
	// LogLevelEnvVar is the environment variable that controls logging verbosity.
	// When unset or empty, logging is silent (no zap output).
	// Valid values: "debug", "info", "warn", "error"
	LogLevelEnvVar = "CLAIMSENSE_LOG_LEVEL"

	// LogFileEnvVar redirects log output to a file. The TUI owns stdout, so
	// interactive sessions should always log to a file.
	LogFileEnvVar = "CLAIMSENSE_LOG_FILE"

	// previewLimit bounds how many bytes of a body end up in a log line
	previewLimit = 256
)

// Options controls logger construction.
type Options struct {
	// Level is one of debug, info, warn, error. Empty falls back to the
	// environment, and then to silent mode.
	Level string

	// File is an output path. Empty falls back to the environment, and then
	// to stdout.
	File string
}

// Initialize creates a new logger with the specified level writing to stdout.
// If level is empty, it checks CLAIMSENSE_LOG_LEVEL.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	return InitializeWithOptions(Options{Level: level})
}

// InitializeWithOptions creates the global logger from opts.
func InitializeWithOptions(opts Options) error {
	level := opts.Level
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	output := opts.File
	if output == "" {
		output = os.Getenv(LogFileEnvVar)
	}
	if output == "" {
		output = "stdout"
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	if output == "stdout" || output == "stderr" {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		// No ANSI escapes in files
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		return zapcore.InfoLevel
	}
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogAPIRequest logs an outgoing request to the prediction service
func LogAPIRequest(method, endpoint string, bodyLen int) {
	Info("Prediction request sent",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("body_length", bodyLen),
	)
}

// LogAPIResponse logs the status of a prediction response
func LogAPIResponse(endpoint string, statusCode int, elapsed time.Duration) {
	Info("Prediction response received",
		zap.String("endpoint", endpoint),
		zap.Int("status_code", statusCode),
		zap.Duration("elapsed", elapsed),
	)
}

// LogRawBytes logs raw bytes (useful for debugging unexpected payloads)
func LogRawBytes(label string, data []byte) {
	Debug(label,
		zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)),
		zap.String("ascii", asciiDump(data)),
	)
}

// LogBridgeEvent logs a websocket bridge event
func LogBridgeEvent(remoteAddr string, direction string, kind string) {
	Debug("Bridge event",
		zap.String("remote_addr", remoteAddr),
		zap.String("direction", direction),
		zap.String("type", kind),
	)
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > previewLimit {
		return hex.EncodeToString(data[:previewLimit]) + "..."
	}
	return hex.EncodeToString(data)
}

func asciiDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > previewLimit {
		data = data[:previewLimit]
	}

	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
