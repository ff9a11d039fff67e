package sysvar

import (
	"strconv"
	"strings"

	"github.com/micromos/micromos/core/moserr"
)

// maxExpandDepth caps recursive macro expansion so a macro that references
// itself, directly or through another macro, fails instead of recursing
// forever.
const maxExpandDepth = 16

// Expand substitutes <Name> references in template with the current value of
// the named variable. Macro-valued references are themselves expanded
// recursively unless forDisplay is set, in which case their stored text is
// inserted verbatim. An unknown name, an accessor failure or a '<' with no
// matching '>' substitutes nothing rather than aborting the expansion.
//
// A <number> reference (decimal, or hexadecimal with a '&' prefix) inserts
// the single byte with that value.
func (s *Store) Expand(template string, forDisplay bool) (string, error) {
	return s.expand(template, forDisplay, 0)
}

// ExpandVariable materializes a single variable the way Expand would when
// substituting a reference to it.
func (s *Store) ExpandVariable(v *Variable, forDisplay bool) (string, error) {
	return s.expandVariable(v, forDisplay, 0)
}

func (s *Store) expand(template string, forDisplay bool, depth int) (string, error) {
	if depth > maxExpandDepth {
		return "", moserr.BadString
	}
	var out strings.Builder
	for i := 0; i < len(template); {
		c := template[i]
		if c != '<' {
			out.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(template[i+1:], '>')
		if end < 0 {
			// Unterminated reference: the rest of the template is the
			// reference and it substitutes nothing.
			break
		}
		name := template[i+1 : i+1+end]
		i += end + 2
		if name == "" {
			continue
		}
		if b, ok := parseCharRef(name); ok {
			out.WriteByte(b)
			continue
		}
		v := s.Get(name)
		if v == nil {
			continue
		}
		value, err := s.expandVariable(v, forDisplay, depth+1)
		if err != nil {
			if moserr.Code(err) == moserr.BadString {
				return "", err
			}
			continue
		}
		out.WriteString(value)
	}
	return out.String(), nil
}

func (s *Store) expandVariable(v *Variable, forDisplay bool, depth int) (string, error) {
	if v.kind == Macro && !forDisplay {
		return s.expand(v.str, forDisplay, depth+1)
	}
	return v.Value()
}

// parseCharRef interprets a <number> reference as a byte value.
func parseCharRef(name string) (byte, bool) {
	base := 10
	if strings.HasPrefix(name, "&") {
		base = 16
		name = name[1:]
	}
	n, err := strconv.ParseUint(name, base, 8)
	if err != nil {
		return 0, false
	}
	return byte(n), true
}

// EscapeControl renders control bytes in s as the two character '|' escape
// used when listing variables.
func EscapeControl(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 {
			out.WriteByte('|')
			out.WriteByte(s[i] + 0x40)
		} else {
			out.WriteByte(s[i])
		}
	}
	return out.String()
}
