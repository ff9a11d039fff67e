// Package sysvar implements the system variable store: an ordered,
// pattern-searchable collection of named, typed entries, together with the
// macro expansion language and the SetEval expression evaluator layered on
// top of it.
package sysvar

import (
	"strconv"
	"strings"

	"github.com/micromos/micromos/core/match"
	"github.com/micromos/micromos/core/moserr"
)

// Kind is the type tag of a variable's payload.
type Kind int

const (
	String Kind = iota
	Number
	Macro
	Computed
)

func (k Kind) String() string {
	switch k {
	case String:
		return "String"
	case Number:
		return "Number"
	case Macro:
		return "Macro"
	case Computed:
		return "Computed"
	default:
		return "Unknown"
	}
}

// Accessor is the callback pair backing a Computed variable. Either callback
// may be nil, making the variable write-only or read-only respectively.
type Accessor struct {
	Read  func() (string, error)
	Write func(value string) error
}

// Variable is one entry in the store. Entries are kept in a single
// ascending-by-name singly linked sequence; lookup is case-insensitive but
// the name is stored as given.
type Variable struct {
	name string
	kind Kind
	str  string
	num  int
	code *Accessor
	next *Variable
}

// Name returns the variable's label as it was first set.
func (v *Variable) Name() string { return v.name }

// Kind returns the variable's type tag.
func (v *Variable) Kind() Kind { return v.kind }

// Number returns the numeric payload of a Number variable.
func (v *Variable) Number() (int, bool) {
	return v.num, v.kind == Number
}

// Raw returns the stored text of a String or Macro variable without any
// expansion.
func (v *Variable) Raw() string { return v.str }

// Value materializes the variable for use: Computed entries go through their
// read accessor, Number entries are rendered in decimal, String and Macro
// entries return their stored text. Macro text is NOT expanded here; see
// Store.ExpandVariable.
func (v *Variable) Value() (string, error) {
	switch v.kind {
	case Computed:
		if v.code == nil || v.code.Read == nil {
			return "", moserr.Denied
		}
		return v.code.Read()
	case Number:
		return strconv.Itoa(v.num), nil
	default:
		return v.str, nil
	}
}

// Store is the ordered variable collection. The zero value is an empty
// store ready for use. It is not safe for concurrent use; the shell
// mutates it only from its single execution goroutine.
type Store struct {
	head *Variable
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of entries.
func (s *Store) Len() int {
	n := 0
	for v := s.head; v != nil; v = v.next {
		n++
	}
	return n
}

// Locate is the store's single search primitive. It scans the ordered
// sequence for the first entry matching pattern (case-insensitive, '*'
// wildcard). With a nil cursor the scan starts at the head; otherwise it
// resumes from the entry after cursor, so feeding the previous result back
// enumerates every match in order.
//
// When no match remains, the returned predecessor is the last entry scanned
// whose name sorts before where pattern would belong; Set splices new
// entries after it without a second pass.
func (s *Store) Locate(pattern string, cursor *Variable) (found, pred *Variable) {
	start := s.head
	if cursor != nil {
		start = cursor.next
		pred = cursor
	}
	for v := start; v != nil; v = v.next {
		if match.Wildcard(pattern, v.name) {
			return v, pred
		}
		if lessFold(v.name, pattern) {
			pred = v
		}
	}
	return nil, pred
}

// Get looks up a variable by exact name (no wildcard expansion of the
// argument is intended; a name containing '*' will behave as a pattern).
func (s *Store) Get(name string) *Variable {
	found, _ := s.Locate(name, nil)
	return found
}

// SetString creates or replaces name with a String payload. Writing to an
// existing Computed variable is routed through its write accessor.
func (s *Store) SetString(name, value string) error {
	return s.assign(name, String, value, 0)
}

// SetNumber creates or replaces name with a Number payload.
func (s *Store) SetNumber(name string, value int) error {
	return s.assign(name, Number, strconv.Itoa(value), value)
}

// SetMacro creates or replaces name with a Macro payload. The text is stored
// verbatim and re-expanded on every use.
func (s *Store) SetMacro(name, value string) error {
	return s.assign(name, Macro, value, 0)
}

// SetComputed registers a Computed variable backed by the given accessor
// pair. The store never owns the accessor's backing state.
func (s *Store) SetComputed(name string, code *Accessor) error {
	if code == nil {
		return moserr.InvalidParameter
	}
	found, pred := s.Locate(name, nil)
	if found != nil {
		found.kind = Computed
		found.code = code
		found.str = ""
		found.num = 0
		return nil
	}
	s.insertAfter(&Variable{name: name, kind: Computed, code: code}, pred)
	return nil
}

func (s *Store) assign(name string, kind Kind, str string, num int) error {
	found, pred := s.Locate(name, nil)
	if found != nil {
		if found.kind == Computed {
			// Read/write always goes through the accessor pair; a missing
			// write accessor is a distinct error from "not found".
			if found.code == nil || found.code.Write == nil {
				return moserr.Denied
			}
			return found.code.Write(str)
		}
		found.kind = kind
		found.str = str
		found.num = num
		return nil
	}
	s.insertAfter(&Variable{name: name, kind: kind, str: str, num: num}, pred)
	return nil
}

// insertAfter splices v into the sequence after pred, or at the head when
// pred is nil.
func (s *Store) insertAfter(v, pred *Variable) {
	if pred == nil {
		v.next = s.head
		s.head = v
		return
	}
	v.next = pred.next
	pred.next = v
}

// Remove unlinks every entry matching pattern, skipping Computed entries,
// which are never removed by pattern. It returns the number of entries
// removed.
func (s *Store) Remove(pattern string) int {
	removed := 0
	var cursor *Variable
	for {
		found, _ := s.Locate(pattern, cursor)
		if found == nil {
			return removed
		}
		if found.kind == Computed {
			cursor = found
			continue
		}
		s.unlink(found)
		removed++
		// The unlinked entry is gone; restart the scan from the head.
		cursor = nil
	}
}

// Delete unlinks a single entry previously returned by Locate or Get.
// Computed entries whose accessor pair is empty cannot be deleted.
func (s *Store) Delete(v *Variable) error {
	if v.kind == Computed && (v.code == nil || (v.code.Read == nil && v.code.Write == nil)) {
		return moserr.Denied
	}
	s.unlink(v)
	return nil
}

func (s *Store) unlink(v *Variable) {
	if s.head == v {
		s.head = v.next
		v.next = nil
		return
	}
	for p := s.head; p != nil; p = p.next {
		if p.next == v {
			p.next = v.next
			v.next = nil
			return
		}
	}
}

// Enumerate calls fn for every entry matching pattern, in sorted order.
// fn must not mutate the store; the scan holds no snapshot.
func (s *Store) Enumerate(pattern string, fn func(*Variable) error) error {
	var cursor *Variable
	for {
		found, _ := s.Locate(pattern, cursor)
		if found == nil {
			return nil
		}
		if err := fn(found); err != nil {
			return err
		}
		cursor = found
	}
}

// lessFold reports whether a sorts strictly before b, ignoring case.
func lessFold(a, b string) bool {
	return strings.ToUpper(a) < strings.ToUpper(b)
}
