package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name into a LogLevel, defaulting to INFO.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(name) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// Entry represents a structured log entry
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Service   string         `json:"service,omitempty"`
	Component string         `json:"component,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger provides structured logging for the pipeline and the serving API.
type Logger struct {
	mu      sync.RWMutex
	level   LogLevel
	format  string // "json" or "text"
	output  io.Writer
	service string
}

// NewLogger creates a new logger instance
func NewLogger() *Logger {
	return &Logger{
		level:   INFO,
		format:  "text",
		output:  os.Stdout,
		service: "vtml",
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetFormat sets the logging format ("json" or "text")
func (l *Logger) SetFormat(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = strings.ToLower(format)
}

// SetOutput sets the logging output destination
func (l *Logger) SetOutput(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = output
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(DEBUG, msg, fields...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(INFO, msg, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(WARN, msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Err(err))
	}
	l.log(ERROR, msg, fields...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Err(err))
	}
	l.log(FATAL, msg, fields...)
	os.Exit(1)
}

func (l *Logger) log(level LogLevel, msg string, fields ...Field) {
	l.mu.RLock()
	if level < l.level {
		l.mu.RUnlock()
		return
	}
	format := l.format
	service := l.service
	l.mu.RUnlock()

	entry := &Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Service:   service,
		Fields:    make(map[string]any),
	}
	for _, field := range fields {
		field.apply(entry)
	}

	var line string
	if format == "json" {
		if b, err := json.Marshal(entry); err == nil {
			line = string(b)
		} else {
			line = fmt.Sprintf("failed to marshal log entry: %v", err)
		}
	} else {
		line = formatText(entry)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	fmt.Fprintln(l.output, line)
}

func formatText(entry *Entry) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s [%s] %s", entry.Timestamp, entry.Level, entry.Message))
	if entry.Component != "" {
		b.WriteString(fmt.Sprintf(" component=%s", entry.Component))
	}
	if entry.RequestID != "" {
		b.WriteString(fmt.Sprintf(" request_id=%s", entry.RequestID))
	}
	if entry.Error != "" {
		b.WriteString(fmt.Sprintf(" error=%s", entry.Error))
	}
	for key, value := range entry.Fields {
		b.WriteString(fmt.Sprintf(" %s=%v", key, value))
	}
	return b.String()
}

// Field represents a log field
type Field interface {
	apply(entry *Entry)
}

type stringField struct {
	key   string
	value string
}

func (f stringField) apply(entry *Entry) { entry.Fields[f.key] = f.value }

type intField struct {
	key   string
	value int
}

func (f intField) apply(entry *Entry) { entry.Fields[f.key] = f.value }

type floatField struct {
	key   string
	value float64
}

func (f floatField) apply(entry *Entry) { entry.Fields[f.key] = f.value }

type boolField struct {
	key   string
	value bool
}

func (f boolField) apply(entry *Entry) { entry.Fields[f.key] = f.value }

type errField struct {
	err error
}

func (f errField) apply(entry *Entry) { entry.Error = f.err.Error() }

type componentField struct {
	component string
}

func (f componentField) apply(entry *Entry) { entry.Component = f.component }

type requestIDField struct {
	requestID string
}

func (f requestIDField) apply(entry *Entry) { entry.RequestID = f.requestID }

// String creates a string field
func String(key, value string) Field {
	return stringField{key: key, value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return intField{key: key, value: value}
}

// Float creates a float field
func Float(key string, value float64) Field {
	return floatField{key: key, value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return boolField{key: key, value: value}
}

// Err creates an error field
func Err(err error) Field {
	return errField{err: err}
}

// Component creates a component field
func Component(component string) Field {
	return componentField{component: component}
}

// RequestID creates a request ID field
func RequestID(requestID string) Field {
	return requestIDField{requestID: requestID}
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		globalLogger = NewLogger()
	})
	return globalLogger
}

// InitLogger configures the global logger from the runtime configuration.
func InitLogger(level, format string) {
	logger := GetLogger()
	logger.SetLevel(ParseLevel(level))
	if format != "" {
		logger.SetFormat(format)
	}
}
