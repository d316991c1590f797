// Package logger provides structured logging built on zap.
package logger

import (
	"os"
	"time"

	"github.com/fidelizapp/fideliza-backend/internal/common/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log   *zap.Logger
	sugar *zap.SugaredLogger
)

// Init initializes the global logger.
func Init(cfg *config.LoggerConfig) error {
	level := getLogLevel(cfg.Level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var writers []zapcore.WriteSyncer

	if cfg.Output == "stdout" || cfg.Output == "" {
		writers = append(writers, zapcore.AddSync(os.Stdout))
	}

	if cfg.FilePath != "" && cfg.Output != "stdout" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		writers = append(writers, zapcore.AddSync(fileWriter))
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(writers...),
		level,
	)

	options := []zap.Option{
		zap.AddStacktrace(zapcore.ErrorLevel),
	}
	if cfg.Caller {
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	log = zap.New(core, options...)
	sugar = log.Sugar()

	return nil
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func getLogLevel(level string) zapcore.Level {
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
		return zapcore.InfoLevel
	}
}

// GetLogger returns the raw logger.
func GetLogger() *zap.Logger {
	if log == nil {
		log, _ = zap.NewDevelopment()
		sugar = log.Sugar()
	}
	return log
}

// GetSugar returns the sugared logger.
func GetSugar() *zap.SugaredLogger {
	if sugar == nil {
		log, _ = zap.NewDevelopment()
		sugar = log.Sugar()
	}
	return sugar
}

// Sync flushes buffered log entries.
func Sync() error {
	if log != nil {
		return log.Sync()
	}
	return nil
}

// Debug logs at debug level.
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info logs at info level.
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn logs at warn level.
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs at error level.
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs at fatal level and exits.
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// Debugf logs a formatted message at debug level.
func Debugf(template string, args ...interface{}) {
	GetSugar().Debugf(template, args...)
}

// Infof logs a formatted message at info level.
func Infof(template string, args ...interface{}) {
	GetSugar().Infof(template, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(template string, args ...interface{}) {
	GetSugar().Warnf(template, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(template string, args ...interface{}) {
	GetSugar().Errorf(template, args...)
}

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(template string, args ...interface{}) {
	GetSugar().Fatalf(template, args...)
}

// With returns a logger with preset fields.
func With(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

// Named returns a named logger.
func Named(name string) *zap.Logger {
	return GetLogger().Named(name)
}

// Field constructor aliases.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Any      = zap.Any
	Err      = zap.Error
	Duration = zap.Duration
	Time     = zap.Time
)

// RequestID builds a request id field.
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// UserID builds a user id field.
func UserID(id int64) zap.Field {
	return zap.Int64("user_id", id)
}

// EstablishmentID builds an establishment id field.
func EstablishmentID(id int64) zap.Field {
	return zap.Int64("establishment_id", id)
}

// CustomerID builds a customer id field.
func CustomerID(id int64) zap.Field {
	return zap.Int64("customer_id", id)
}

// TransactionNo builds a transaction number field.
func TransactionNo(no string) zap.Field {
	return zap.String("transaction_no", no)
}

// Module builds a module field.
func Module(name string) zap.Field {
	return zap.String("module", name)
}

// Action builds an action field.
func Action(name string) zap.Field {
	return zap.String("action", name)
}

// Latency builds a latency field.
func Latency(d time.Duration) zap.Field {
	return zap.Duration("latency", d)
}

// StatusCode builds an HTTP status code field.
func StatusCode(code int) zap.Field {
	return zap.Int("status_code", code)
}

// Method builds an HTTP method field.
func Method(method string) zap.Field {
	return zap.String("method", method)
}

// Path builds an HTTP path field.
func Path(path string) zap.Field {
	return zap.String("path", path)
}

// IP builds a client address field.
func IP(ip string) zap.Field {
	return zap.String("ip", ip)
}
