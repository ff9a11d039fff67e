package logger

import (
	"encoding/json"
)

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int `json:"log_entries"`

	Sessions        int        `json:"sessions"`
	Commands        StrCounter `json:"commands"`
	CommandStatuses StrCounter `json:"command_statuses"`
	UnknownCommands StrCounter `json:"unknown_commands"`
	ProgramsRun     StrCounter `json:"programs_run"`
	Panics          []string   `json:"panics,omitempty"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch {
	case le.SessionStart != nil:
		r.Sessions++
	case le.RunCommand != nil:
		r.Commands.Increment(le.RunCommand.Command)
		if le.RunCommand.Status != "" {
			r.CommandStatuses.Increment(le.RunCommand.Status)
		}
	case le.UnknownCommand != nil:
		r.UnknownCommands.Increment(le.UnknownCommand.Line)
	case le.ProgramRun != nil:
		r.ProgramsRun.Increment(le.ProgramRun.Path)
	case le.Panic != nil:
		r.Panics = append(r.Panics, le.Panic.Context)
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}
