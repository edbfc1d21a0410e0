package logger

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var zapLevels = map[Level]zapcore.Level{
	DEBUG: zapcore.DebugLevel,
	INFO:  zapcore.InfoLevel,
	WARN:  zapcore.WarnLevel,
	ERROR: zapcore.ErrorLevel,
}

// ParseLevel maps "debug", "info", "warn", "error" onto a Level. Unknown
// values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides structured logging with optional PII redaction.
type Logger struct {
	mu        sync.RWMutex
	zl        *zap.Logger
	level     zap.AtomicLevel
	redactPII bool
}

var defaultLogger = newDefault()

func newDefault() *Logger {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &Logger{zl: build(lvl, "json", "", os.Stderr), level: lvl, redactPII: true}
}

// Init configures the default logger. format is "json" (default) or "console";
// service, when set, is attached to every entry as service_name.
func Init(level, format, service string) {
	l := defaultLogger
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level.SetLevel(zapLevels[ParseLevel(level)])
	l.zl = build(l.level, format, service, os.Stderr)
}

func build(lvl zap.AtomicLevel, format, service string, out zapcore.WriteSyncer) *zap.Logger {
	var enc zapcore.Encoder
	if format == "console" {
		cfg := zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(cfg)
	} else {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "timestamp"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	}
	zl := zap.New(zapcore.NewCore(enc, zapcore.Lock(out), lvl))
	if service != "" {
		zl = zl.With(zap.String("service_name", service))
	}
	return zl
}

// SetOutput replaces the default logger's sink. Intended for tests.
func SetOutput(out zapcore.WriteSyncer) {
	l := defaultLogger
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl = build(l.level, "json", "", out)
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) { defaultLogger.level.SetLevel(zapLevels[l]) }

// SetRedactPII enables or disables PII redaction for the default logger.
func SetRedactPII(r bool) {
	defaultLogger.mu.Lock()
	defaultLogger.redactPII = r
	defaultLogger.mu.Unlock()
}

// L returns the underlying zap logger for callers that prefer typed fields.
// Redaction is not applied to entries written through it.
func L() *zap.Logger {
	defaultLogger.mu.RLock()
	defer defaultLogger.mu.RUnlock()
	return defaultLogger.zl
}

// Sync flushes buffered entries.
func Sync() { _ = L().Sync() }

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { defaultLogger.log(zapcore.DebugLevel, msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { defaultLogger.log(zapcore.InfoLevel, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { defaultLogger.log(zapcore.WarnLevel, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { defaultLogger.log(zapcore.ErrorLevel, msg, fields...) }

func (l *Logger) log(level zapcore.Level, msg string, fields ...interface{}) {
	l.mu.RLock()
	zl, redact := l.zl, l.redactPII
	l.mu.RUnlock()

	ce := zl.Check(level, msg)
	if ce == nil {
		return
	}

	// Parse key-value pairs from fields
	zf := make([]zap.Field, 0, len(fields)/2)
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok && !redact {
			zf = append(zf, zap.NamedError(key, err))
			continue
		}
		val := fmt.Sprintf("%v", fields[i+1])
		if redact {
			val = redactPIIValue(key, val)
		}
		zf = append(zf, zap.String(key, val))
	}
	ce.Write(zf...)
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	// Street lines identify a household
	if strings.Contains(key, "address") {
		return RedactAddress(val)
	}
	if strings.Contains(key, "email") {
		return RedactEmail(val)
	}
	// Redact any embedded emails in generic fields
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}
