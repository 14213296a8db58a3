package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Fields is structured data attached to a log entry.
type Fields map[string]any

// record is a single log entry handed to the formatter.
type record struct {
	Level     Level
	Message   string
	Fields    Fields
	Err       error
	Timestamp time.Time
}

// formatter renders a record to bytes.
type formatter interface {
	format(r *record) []byte
}

// Logger is a leveled, structured logger.
type Logger struct {
	mu        sync.Mutex
	config    *Config
	formatter formatter
	writer    io.Writer
	exitFunc  func(int)
}

// NewLogger creates a logger for the given config.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	var f formatter
	if config.Format == FormatJSON {
		f = &jsonFormatter{config: config}
	} else {
		f = &consoleFormatter{config: config}
	}
	w := io.Writer(os.Stdout)
	if config.Output != nil {
		w = config.Output
	}
	return &Logger{config: config, formatter: f, writer: w, exitFunc: os.Exit}
}

// SetLevel changes the minimum emitted level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// SetOutput redirects log output.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

func (l *Logger) log(level Level, msg string, fields Fields, err error) {
	if !l.config.Level.Enabled(level) {
		return
	}
	r := &record{Level: level, Message: msg, Fields: fields, Err: err, Timestamp: time.Now()}
	out := l.formatter.format(r)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, werr := l.writer.Write(out); werr != nil {
		fmt.Fprintf(os.Stderr, "logx: write failed: %v\n", werr)
	}
}

// WithField starts an entry with a single field.
func (l *Logger) WithField(key string, value any) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithFields starts an entry with fields.
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithError starts an entry carrying an error.
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

// ---------------------------------------------------------------------------
// Formatters
// ---------------------------------------------------------------------------

type consoleFormatter struct {
	config *Config
}

var levelColors = map[Level]string{
	LevelTrace: "\033[37m",
	LevelDebug: "\033[36m",
	LevelInfo:  "\033[32m",
	LevelWarn:  "\033[33m",
	LevelError: "\033[31m",
	LevelFatal: "\033[35m",
}

func (f *consoleFormatter) format(r *record) []byte {
	var b strings.Builder

	if f.config.EnableTimestamp {
		b.WriteString(r.Timestamp.Format(f.config.TimeFormat))
		b.WriteByte(' ')
	}

	level := fmt.Sprintf("%-5s", r.Level)
	if f.config.EnableColors {
		if c, ok := levelColors[r.Level]; ok {
			level = c + level + "\033[0m"
		}
	}
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(r.Message)

	if len(r.Fields) > 0 {
		keys := make([]string, 0, len(r.Fields))
		for k := range r.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, r.Fields[k])
		}
	}
	if r.Err != nil {
		fmt.Fprintf(&b, " error=%q", r.Err.Error())
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

type jsonFormatter struct {
	config *Config
}

func (f *jsonFormatter) format(r *record) []byte {
	payload := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		payload[k] = v
	}
	payload["level"] = r.Level.String()
	payload["message"] = r.Message
	if f.config.EnableTimestamp {
		payload["timestamp"] = r.Timestamp.Format(f.config.TimeFormat)
	}
	if r.Err != nil {
		payload["error"] = r.Err.Error()
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return []byte(fmt.Sprintf(`{"level":"ERROR","message":"logx: marshal failed: %v"}`+"\n", err))
	}
	return append(out, '\n')
}
