// Package logger is a standardized event logging framework for the
// interpreter. Events are written as newline delimited JSON so they can be
// replayed and aggregated offline.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"
)

// LogEntry is the envelope for one logged event. Exactly one of the event
// fields is set.
type LogEntry struct {
	TimestampMillis int64  `json:"timestamp_millis"`
	SessionID       string `json:"session_id,omitempty"`

	SessionStart   *SessionStart   `json:"session_start,omitempty"`
	SessionEnd     *SessionEnd     `json:"session_end,omitempty"`
	RunCommand     *RunCommand     `json:"run_command,omitempty"`
	UnknownCommand *UnknownCommand `json:"unknown_command,omitempty"`
	ProgramLoad    *ProgramLoad    `json:"program_load,omitempty"`
	ProgramRun     *ProgramRun     `json:"program_run,omitempty"`
	Panic          *Panic          `json:"panic,omitempty"`
}

// SessionStart records a console session opening.
type SessionStart struct {
	RemoteAddr string `json:"remote_addr,omitempty"`
	Term       string `json:"term,omitempty"`
}

// SessionEnd records a console session closing.
type SessionEnd struct{}

// RunCommand records a dispatched builtin command.
type RunCommand struct {
	// Line is the full input after macro expansion.
	Line string `json:"line"`
	// Command is the resolved builtin name.
	Command string `json:"command"`
	// Status is the result message, empty on success.
	Status string `json:"status,omitempty"`
}

// UnknownCommand records an input that resolved to no builtin or binary.
type UnknownCommand struct {
	Line string `json:"line"`
}

// ProgramLoad records a binary placed into machine memory.
type ProgramLoad struct {
	Path    string `json:"path"`
	Address uint32 `json:"address"`
	Size    uint32 `json:"size"`
}

// ProgramRun records control transferring into a loaded binary.
type ProgramRun struct {
	Path     string `json:"path,omitempty"`
	Address  uint32 `json:"address"`
	ExitCode int    `json:"exit_code"`
}

// Panic records a recovered panic.
type Panic struct {
	Context    string `json:"context"`
	Stacktrace string `json:"stacktrace"`
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures interpreter event logs.
type Logger struct {
	Record LogRecorder
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := json.Marshal(le)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// Discard returns a logger that drops every event, for tests.
func Discard() *Logger {
	return &Logger{Record: func(*LogEntry) error { return nil }}
}

func (l *Logger) record(sessionID string, le *LogEntry) error {
	le.TimestampMillis = time.Now().UnixMilli()
	le.SessionID = sessionID
	return l.Record(le)
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// Sessionless creates a logger without a session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: ""}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

func (l *SessionLogger) Record(le *LogEntry) error {
	return l.record(l.sessionID, le)
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}
		handler(&logEntry)
	}
	return nil
}
