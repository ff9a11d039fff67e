package sysvar

import (
	"strconv"
	"strings"

	"github.com/micromos/micromos/core/moserr"
)

// Value is the result of evaluating a SetEval expression: either a Number
// or a String.
type Value struct {
	Kind Kind
	Str  string
	Num  int
}

// Eval evaluates a small expression grammar used by the SetEval command:
// integer literals (decimal, or hexadecimal with a '&' prefix), double
// quoted string literals, variable references by name, and the operators
// + - * / applied left to right. '+' concatenates when either operand is a
// string; the other operators require numbers.
func (s *Store) Eval(expr string) (Value, error) {
	lex := &lexer{input: expr}

	left, err := s.operand(lex)
	if err != nil {
		return Value{}, err
	}

	for {
		op, ok := lex.operator()
		if !ok {
			break
		}
		right, err := s.operand(lex)
		if err != nil {
			return Value{}, err
		}
		left, err = apply(op, left, right)
		if err != nil {
			return Value{}, err
		}
	}

	if !lex.done() {
		return Value{}, moserr.InvalidParameter
	}
	return left, nil
}

func (s *Store) operand(lex *lexer) (Value, error) {
	tok, ok := lex.atom()
	if !ok {
		return Value{}, moserr.InvalidParameter
	}

	if strings.HasPrefix(tok, `"`) {
		if len(tok) < 2 || !strings.HasSuffix(tok, `"`) {
			return Value{}, moserr.BadString
		}
		return Value{Kind: String, Str: tok[1 : len(tok)-1]}, nil
	}

	if n, ok := parseInt(tok); ok {
		return Value{Kind: Number, Num: n}, nil
	}

	v := s.Get(tok)
	if v == nil {
		return Value{}, moserr.InvalidParameter
	}
	if n, ok := v.Number(); ok {
		return Value{Kind: Number, Num: n}, nil
	}
	str, err := s.ExpandVariable(v, false)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: String, Str: str}, nil
}

func apply(op byte, left, right Value) (Value, error) {
	if op == '+' && (left.Kind == String || right.Kind == String) {
		return Value{Kind: String, Str: left.text() + right.text()}, nil
	}
	if left.Kind != Number || right.Kind != Number {
		return Value{}, moserr.InvalidParameter
	}
	switch op {
	case '+':
		return Value{Kind: Number, Num: left.Num + right.Num}, nil
	case '-':
		return Value{Kind: Number, Num: left.Num - right.Num}, nil
	case '*':
		return Value{Kind: Number, Num: left.Num * right.Num}, nil
	case '/':
		if right.Num == 0 {
			return Value{}, moserr.InvalidParameter
		}
		return Value{Kind: Number, Num: left.Num / right.Num}, nil
	default:
		return Value{}, moserr.InvalidParameter
	}
}

func (v Value) text() string {
	if v.Kind == Number {
		return strconv.Itoa(v.Num)
	}
	return v.Str
}

func parseInt(tok string) (int, bool) {
	base := 10
	if strings.HasPrefix(tok, "&") {
		base = 16
		tok = tok[1:]
	}
	n, err := strconv.ParseInt(tok, base, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// lexer splits an expression into atoms and single character operators.
type lexer struct {
	input string
	pos   int
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && l.input[l.pos] == ' ' {
		l.pos++
	}
}

func (l *lexer) done() bool {
	l.skipSpace()
	return l.pos >= len(l.input)
}

func isOperator(b byte) bool {
	return b == '+' || b == '-' || b == '*' || b == '/'
}

// atom reads a quoted string or a run of non-space, non-operator bytes.
func (l *lexer) atom() (string, bool) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return "", false
	}
	if l.input[l.pos] == '"' {
		end := strings.IndexByte(l.input[l.pos+1:], '"')
		if end < 0 {
			tok := l.input[l.pos:]
			l.pos = len(l.input)
			return tok, true
		}
		tok := l.input[l.pos : l.pos+end+2]
		l.pos += end + 2
		return tok, true
	}
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != ' ' && !isOperator(l.input[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return "", false
	}
	return l.input[start:l.pos], true
}

func (l *lexer) operator() (byte, bool) {
	l.skipSpace()
	if l.pos < len(l.input) && isOperator(l.input[l.pos]) {
		op := l.input[l.pos]
		l.pos++
		return op, true
	}
	return 0, false
}
