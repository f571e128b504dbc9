package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level for logging.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	ErrorLevel
)

// Logger provides structured logging with level-based filtering.
type Logger interface {
	Debug(v ...any)
	Debugf(format string, a ...any)
	Info(v ...any)
	Infof(format string, a ...any)
	Error(v ...any)
	Errorf(format string, a ...any)
	With(args ...any) Logger
}

type slogLogger struct {
	logger   *slog.Logger
	logLevel LogLevel
}

// Options selects the output of a logger built by NewWithOptions.
type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string // when set, JSON lines go to a rotating file via zap
	Writer io.Writer // defaults to os.Stdout
}

// New creates a logger with the specified level.
// Alias for NewLogger for convenience.
func New(logLevelStr string) Logger {
	return NewLogger(logLevelStr)
}

// NewLogger creates a logger with the specified level.
// Accepts: "debug", "dbg", "info", "inf", "error", "err" (case-insensitive).
// Defaults to InfoLevel if level string is unrecognized.
// Output format is JSON if LOG_FORMAT=json, otherwise human-readable text.
func NewLogger(logLevelStr string) Logger {
	return newSlogLogger(os.Stdout, logLevelStr, os.Getenv("LOG_FORMAT"))
}

// NewWithOptions creates a slog logger on stdout, or a zap logger writing to
// a lumberjack-rotated file (teed to stdout) when opts.File is set.
func NewWithOptions(opts Options) (Logger, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.File == "" {
		return newSlogLogger(opts.Writer, opts.Level, opts.Format), nil
	}
	return newZapLogger(opts.File, opts.Level, opts.Writer)
}

func newSlogLogger(w io.Writer, logLevelStr, format string) Logger {
	level := parseLevel(logLevelStr)

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: toSlogLevel(level),
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: toSlogLevel(level),
		})
	}

	return &slogLogger{
		logger:   slog.New(handler),
		logLevel: level,
	}
}

func (l *slogLogger) Debug(v ...any) {
	if l.logLevel <= DebugLevel {
		l.logger.Debug(fmt.Sprint(v...))
	}
}

func (l *slogLogger) Debugf(format string, a ...any) {
	if l.logLevel <= DebugLevel {
		l.logger.Debug(fmt.Sprintf(format, a...))
	}
}

func (l *slogLogger) Info(v ...any) {
	if l.logLevel <= InfoLevel {
		l.logger.Info(fmt.Sprint(v...))
	}
}

func (l *slogLogger) Infof(format string, a ...any) {
	if l.logLevel <= InfoLevel {
		l.logger.Info(fmt.Sprintf(format, a...))
	}
}

func (l *slogLogger) Error(v ...any) {
	if l.logLevel <= ErrorLevel {
		l.logger.Error(fmt.Sprint(v...))
	}
}

func (l *slogLogger) Errorf(format string, a ...any) {
	if l.logLevel <= ErrorLevel {
		l.logger.Error(fmt.Sprintf(format, a...))
	}
}

// With returns a new logger with additional contextual fields.
// The returned logger preserves the current log level.
func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{
		logger:   l.logger.With(args...),
		logLevel: l.logLevel,
	}
}

type zapLogger struct {
	logger *zap.SugaredLogger
}

func newZapLogger(file, logLevelStr string, console io.Writer) (Logger, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create log directory: %w", err)
	}

	sink := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	level := toZapLevel(parseLevel(logLevelStr))

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(sink), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(console), level),
	)

	z := zap.New(core, zap.ErrorOutput(zapcore.AddSync(sink))).Sugar()
	return &zapLogger{logger: z}, nil
}

func (l *zapLogger) Debug(v ...any)                 { l.logger.Debug(fmt.Sprint(v...)) }
func (l *zapLogger) Debugf(format string, a ...any) { l.logger.Debugf(format, a...) }
func (l *zapLogger) Info(v ...any)                  { l.logger.Info(fmt.Sprint(v...)) }
func (l *zapLogger) Infof(format string, a ...any)  { l.logger.Infof(format, a...) }
func (l *zapLogger) Error(v ...any)                 { l.logger.Error(fmt.Sprint(v...)) }
func (l *zapLogger) Errorf(format string, a ...any) { l.logger.Errorf(format, a...) }

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{logger: l.logger.With(args...)}
}

type noopLogger struct{}

func (noopLogger) Debug(v ...any)                 {}
func (noopLogger) Debugf(format string, a ...any) {}
func (noopLogger) Info(v ...any)                  {}
func (noopLogger) Infof(format string, a ...any)  {}
func (noopLogger) Error(v ...any)                 {}
func (noopLogger) Errorf(format string, a ...any) {}
func (noopLogger) With(args ...any) Logger        { return noopLogger{} }

// NewNoopLogger creates a no-op logger that discards all log output.
// Useful for testing or components that don't require logging.
func NewNoopLogger() Logger {
	return noopLogger{}
}

func parseLevel(level string) LogLevel {
	level = strings.ToLower(level)
	switch level {
	case "debug", "dbg":
		return DebugLevel
	case "info", "inf":
		return InfoLevel
	case "error", "err":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
