// Package token implements the line scanning primitives used by the command
// interpreter: a cursor based tokenizer, numeric and string argument parsing
// and the whitespace trim applied to every input line.
package token

import (
	"strconv"
	"strings"

	"github.com/micromos/micromos/core/moserr"
)

// Cursor is an explicit position into a line buffer. It is threaded through
// parsing calls so a command can pull a few leading arguments and then hand
// the unsplit remainder of the line to a sub-command verbatim.
type Cursor struct {
	line string
	pos  int
}

// NewCursor returns a cursor at the start of line.
func NewCursor(line string) *Cursor {
	return &Cursor{line: line}
}

// Next returns the next token delimited by any of the bytes in delims,
// skipping leading delimiters. The cursor is left just past the first
// trailing delimiter. It returns false when only delimiters (or nothing)
// remain.
func (c *Cursor) Next(delims string) (string, bool) {
	for c.pos < len(c.line) && strings.IndexByte(delims, c.line[c.pos]) >= 0 {
		c.pos++
	}
	if c.pos >= len(c.line) {
		return "", false
	}
	start := c.pos
	for c.pos < len(c.line) && strings.IndexByte(delims, c.line[c.pos]) < 0 {
		c.pos++
	}
	tok := c.line[start:c.pos]
	if c.pos < len(c.line) {
		c.pos++ // consume the delimiter that ended the token
	}
	return tok, true
}

// Rest returns the unconsumed remainder of the line verbatim.
func (c *Cursor) Rest() string {
	if c.pos >= len(c.line) {
		return ""
	}
	return c.line[c.pos:]
}

// SkipSpace advances the cursor past any leading whitespace.
func (c *Cursor) SkipSpace() {
	for c.pos < len(c.line) && isSpace(c.line[c.pos]) {
		c.pos++
	}
}

// ParseNumber reads the next token as an unsigned number. A leading '&'
// selects hexadecimal, otherwise the token is decimal; any trailing
// non-numeric character is an error. The cursor is not advanced on failure.
func (c *Cursor) ParseNumber() (uint32, error) {
	save := c.pos
	tok, ok := c.Next(" ")
	if !ok {
		c.pos = save
		return 0, moserr.InvalidParameter
	}
	base := 10
	if strings.HasPrefix(tok, "&") {
		base = 16
		tok = tok[1:]
	}
	value, err := strconv.ParseUint(tok, base, 32)
	if err != nil {
		c.pos = save
		return 0, moserr.InvalidParameter
	}
	return uint32(value), nil
}

// ParseString reads the next space delimited token unmodified. The cursor is
// not advanced on failure.
func (c *Cursor) ParseString() (string, error) {
	save := c.pos
	tok, ok := c.Next(" ")
	if !ok {
		c.pos = save
		return "", moserr.InvalidParameter
	}
	return tok, nil
}

// Trim strips leading and trailing whitespace from s. A leading asterisk is
// treated as whitespace too, supporting the optional star command prefix; a
// trailing asterisk is kept.
func Trim(s string) string {
	start := 0
	for start < len(s) && (isSpace(s[start]) || s[start] == '*') {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
