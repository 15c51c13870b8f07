// Package logger provides leveled, component-scoped logging with structured
// fields. Output is one line per entry: timestamp, level, component, message,
// then the fields as JSON.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

var (
	mu    sync.Mutex
	level = LevelInfo
	out   io.Writer = os.Stderr
)

// SetLevel sets the minimum level that will be emitted. Unrecognized names
// leave the level unchanged.
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level = LevelDebug
	case "info":
		level = LevelInfo
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	}
}

// SetOutput redirects log output (primarily for testing).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// DebugCF logs a debug message for a component with structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	logCF(LevelDebug, component, msg, fields)
}

// InfoCF logs an info message for a component with structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	logCF(LevelInfo, component, msg, fields)
}

// WarnCF logs a warning for a component with structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	logCF(LevelWarn, component, msg, fields)
}

// ErrorCF logs an error for a component with structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	logCF(LevelError, component, msg, fields)
}

func logCF(l Level, component, msg string, fields map[string]interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	var encoded []byte
	if len(fields) > 0 {
		var err error
		encoded, err = json.Marshal(fields)
		if err != nil {
			encoded = []byte(fmt.Sprintf(`{"_marshal_error":%q}`, err.Error()))
		}
	}
	ts := time.Now().Format(time.RFC3339)
	if len(encoded) > 0 {
		fmt.Fprintf(out, "%s %-5s [%s] %s %s\n", ts, l, component, msg, encoded)
	} else {
		fmt.Fprintf(out, "%s %-5s [%s] %s\n", ts, l, component, msg)
	}
}
