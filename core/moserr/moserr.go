// Package moserr defines the flat result-code enumeration shared by the
// storage layer, the parsers and the execution pipeline.
package moserr

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error is a MOS result code. The zero value (OK) is success; commands and
// storage operations that fail return one of the non-zero codes below.
type Error int

const (
	OK Error = iota
	DiskError
	InternalError
	NotReady
	NoFile
	NoPath
	InvalidName
	Denied
	Exists
	InvalidObject
	WriteProtected
	InvalidDrive
	NotEnabled
	NoFilesystem
	MkfsAborted
	Timeout
	Locked
	NotEnoughCore
	TooManyOpenFiles
	InvalidParameter
	// MOS-specific errors beyond this point
	InvalidCommand
	InvalidExecutable
	OutOfMemory
	NotImplemented
	OverlappingSystem
	BadString
)

// messages maps codes to the single line shown to the user.
// NB this table is indexed by code, so the order is important.
var messages = []string{
	"OK",
	"Error accessing disk",
	"Internal error",
	"Disk failure",
	"Could not find file",
	"Could not find path",
	"Invalid path name",
	"Access denied or directory full",
	"File already exists",
	"Invalid file or directory object",
	"Disk is write protected",
	"Logical drive number is invalid",
	"Volume has no work area",
	"No valid volume",
	"Error occurred during format",
	"Volume timeout",
	"Volume locked",
	"Working buffer could not be allocated",
	"Too many open files",
	"Invalid parameter",
	"Invalid command",
	"Invalid executable",
	"Out of memory",
	"Not implemented",
	"Load overlaps system area",
	"Bad string",
}

// Message returns the human readable message for a code, or the empty
// string if the code is out of range.
func Message(code int) string {
	if code < 0 || code >= len(messages) {
		return ""
	}
	return messages[code]
}

func (e Error) Error() string {
	if msg := Message(int(e)); msg != "" {
		return msg
	}
	return fmt.Sprintf("error %d", int(e))
}

// Code extracts the result code from an error. A nil error is OK and an
// error that is not an Error maps to InternalError.
func Code(err error) Error {
	if err == nil {
		return OK
	}
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return InternalError
}

// IsNotFound reports whether err is one of the two recoverable "keep
// searching" outcomes of a load attempt.
func IsNotFound(err error) bool {
	code := Code(err)
	return code == NoFile || code == NoPath
}

// FromFS maps a filesystem error onto the enumeration. The notDir hint
// selects NoPath over NoFile for missing entries, matching the storage
// collaborator's distinct "path not found" class.
func FromFS(err error, notDir bool) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		if notDir {
			return NoPath
		}
		return NoFile
	case errors.Is(err, fs.ErrPermission):
		return Denied
	case errors.Is(err, fs.ErrExist):
		return Exists
	case errors.Is(err, fs.ErrInvalid):
		return InvalidParameter
	default:
		return DiskError
	}
}
