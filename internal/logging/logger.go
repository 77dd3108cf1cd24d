package logging

import (
	"encoding/hex"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar selects the logging verbosity ("debug", "info", "warn",
// "error"). Leaving it unset keeps both tools silent.
const LogLevelEnvVar = "FRIGATEMX_LOG_LEVEL"

// Initialize builds the process logger at the given level. An empty level
// falls back to FRIGATEMX_LOG_LEVEL; when that is unset too, logging stays
// silent. An unrecognized value still turns logging on, at info.
func Initialize(level string) {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return
	}

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(os.Stdout),
		parsed,
	)
	logger = zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr)))
}

// consoleEncoderConfig is the development encoder with colored levels,
// ISO 8601 timestamps, and short caller paths.
func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

// InitializeFromEnv configures logging from the environment alone. CLI
// commands call this so they stay silent unless FRIGATEMX_LOG_LEVEL is set.
func InitializeFromEnv() {
	Initialize("")
}

// GetLogger returns the process logger, a no-op one until Initialize runs.
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Level wrappers over the package logger.

func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }

// LogProbeSent logs an outgoing discovery probe
func LogProbeSent(localAddr string, target string, messageID string) {
	Debug("Discovery probe sent",
		zap.String("local_addr", localAddr), zap.String("target", target),
		zap.String("message_id", messageID))
}

// LogProbeResponse logs an incoming discovery response datagram
func LogProbeResponse(source string, length int, data []byte) {
	fields := []zap.Field{zap.String("source", source), zap.Int("length", length)}

	// Include the raw XML at debug level only
	if GetLogger().Core().Enabled(zapcore.DebugLevel) {
		fields = append(fields, zap.String("payload", asciiDump(data)))
	}

	Debug("Discovery response received", fields...)
}

// LogCommandStart logs a subprocess invocation before it runs
func LogCommandStart(name string, args []string) {
	Info("Running command", zap.String("command", name), zap.Strings("args", args))
}

// LogCommandDone logs a completed subprocess with its exit status
func LogCommandDone(name string, exitCode int, duration time.Duration) {
	Info("Command finished",
		zap.String("command", name), zap.Int("exit_code", exitCode),
		zap.Duration("duration", duration))
}

// LogConfigWrite logs a configuration file save
func LogConfigWrite(path string, cameras int, backup string) {
	Info("Configuration written",
		zap.String("path", path), zap.Int("cameras", cameras),
		zap.String("backup", backup))
}

// LogConfigRecovery logs a recovery pass over a malformed configuration
func LogConfigRecovery(path string, recovered bool, droppedCameras []string) {
	Warn("Configuration recovery attempted",
		zap.String("path", path), zap.Bool("recovered", recovered),
		zap.Strings("dropped_cameras", droppedCameras))
}

// LogRawBytes dumps a payload in hex and ascii at debug level.
func LogRawBytes(label string, data []byte) {
	Debug(label, zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)), zap.String("ascii", asciiDump(data)))
}

// rawDumpLimit caps how much of a payload lands in a single log line.
const rawDumpLimit = 256

func hexDump(data []byte) string {
	if len(data) <= rawDumpLimit {
		return hex.EncodeToString(data)
	}
	return hex.EncodeToString(data[:rawDumpLimit]) + "..."
}

func asciiDump(data []byte) string {
	if len(data) > rawDumpLimit {
		data = data[:rawDumpLimit]
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c < ' ' || c > '~' {
			c = '.'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Sync flushes buffered entries. Runs once on process exit.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
