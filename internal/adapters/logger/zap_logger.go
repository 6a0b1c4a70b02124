package logger

import (
	"dev.rubentxu.mr-harness/internal/core/ports"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implementa la interfaz Logger usando zap
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// NewZapLogger crea una nueva instancia de ZapLogger. En modo debug usa la
// configuración de desarrollo (consola, nivel debug); si no, la de producción.
func NewZapLogger(debug bool) (*ZapLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewFromZap(logger), nil
}

// NewFromZap envuelve un *zap.Logger existente (p. ej. zaptest en los tests).
func NewFromZap(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger.Sugar()}
}

// NewNopLogger devuelve un logger que descarta todo.
func NewNopLogger() *ZapLogger {
	return NewFromZap(zap.NewNop())
}

// Debug implementa Logger.Debug
func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debugw(msg, args...)
}

// Info implementa Logger.Info
func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.logger.Infow(msg, args...)
}

// Warn implementa Logger.Warn
func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.logger.Warnw(msg, args...)
}

// Error implementa Logger.Error
func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.logger.Errorw(msg, args...)
}

// Fatal implementa Logger.Fatal
func (l *ZapLogger) Fatal(msg string, args ...interface{}) {
	l.logger.Fatalw(msg, args...)
}

// With implementa Logger.With
func (l *ZapLogger) With(args ...interface{}) ports.Logger {
	return &ZapLogger{logger: l.logger.With(args...)}
}

// Sync vacía los buffers pendientes; llamar antes de salir.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
