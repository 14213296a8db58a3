package logx

import "fmt"

// defaultLogger is the process-wide logger, configured from the environment.
var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger(LoadFromEnv())
}

// SetDefaultLogger replaces the package-level logger.
func SetDefaultLogger(l *Logger) { defaultLogger = l }

// GetDefaultLogger returns the package-level logger.
func GetDefaultLogger() *Logger { return defaultLogger }

// SetLevel sets the level on the package-level logger.
func SetLevel(level Level) { defaultLogger.SetLevel(level) }

// Simple logging functions on the default logger.

func Trace(msg string) { defaultLogger.log(LevelTrace, msg, nil, nil) }
func Debug(msg string) { defaultLogger.log(LevelDebug, msg, nil, nil) }
func Info(msg string)  { defaultLogger.log(LevelInfo, msg, nil, nil) }
func Warn(msg string)  { defaultLogger.log(LevelWarn, msg, nil, nil) }
func Error(msg string) { defaultLogger.log(LevelError, msg, nil, nil) }

func Fatal(msg string) {
	defaultLogger.log(LevelFatal, msg, nil, nil)
	defaultLogger.exitFunc(1)
}

// Formatted variants.

func Tracef(format string, args ...any) { Trace(fmt.Sprintf(format, args...)) }
func Debugf(format string, args ...any) { Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { Error(fmt.Sprintf(format, args...)) }

func Fatalf(format string, args ...any) {
	defaultLogger.log(LevelFatal, fmt.Sprintf(format, args...), nil, nil)
	defaultLogger.exitFunc(1)
}

// Structured entry points.

func WithField(key string, value any) *Entry { return defaultLogger.WithField(key, value) }
func WithFields(fields Fields) *Entry        { return defaultLogger.WithFields(fields) }
func WithError(err error) *Entry             { return defaultLogger.WithError(err) }
