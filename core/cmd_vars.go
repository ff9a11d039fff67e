package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/micromos/micromos/core/moserr"
	"github.com/micromos/micromos/core/sysvar"
	"github.com/micromos/micromos/core/token"
)

func cmdSet(s *Shell, args *token.Cursor) error {
	name, err := args.ParseString()
	if err != nil {
		return err
	}
	value := args.Rest()
	if value == "" {
		return moserr.InvalidParameter
	}
	// The value is expanded once at assignment time; use SETMACRO to defer
	// expansion to each read instead.
	expanded, err := s.Vars.Expand(value, false)
	if err != nil {
		return err
	}
	return s.Vars.SetString(name, expanded)
}

func cmdSetEval(s *Shell, args *token.Cursor) error {
	name, err := args.ParseString()
	if err != nil {
		return err
	}
	expr := args.Rest()
	if expr == "" {
		return moserr.InvalidParameter
	}

	v, err := s.Vars.Eval(expr)
	if err != nil {
		return err
	}
	if v.Kind == sysvar.Number {
		return s.Vars.SetNumber(name, v.Num)
	}
	return s.Vars.SetString(name, v.Str)
}

func cmdSetMacro(s *Shell, args *token.Cursor) error {
	name, err := args.ParseString()
	if err != nil {
		return err
	}
	text := args.Rest()
	if text == "" {
		return moserr.InvalidParameter
	}
	return s.Vars.SetMacro(name, text)
}

func cmdShow(s *Shell, args *token.Cursor) error {
	pattern := "*"
	if p, err := args.ParseString(); err == nil {
		pattern = p
	}

	return s.Vars.Enumerate(pattern, func(v *sysvar.Variable) error {
		fmt.Fprintf(s.stdout, "%s(%s) : %s\n", v.Name(), v.Kind(), renderVariable(s.Vars, v))
		return nil
	})
}

// renderVariable formats a variable for SHOW. Accessor failures fall back
// to the error message instead of aborting the listing.
func renderVariable(store *sysvar.Store, v *sysvar.Variable) string {
	if n, ok := v.Number(); ok {
		return strconv.Itoa(n)
	}
	value, err := store.ExpandVariable(v, true)
	if err != nil {
		return fmt.Sprintf("(%s)", err)
	}
	return sysvar.EscapeControl(value)
}

func cmdUnset(s *Shell, args *token.Cursor) error {
	pattern, err := args.ParseString()
	if err != nil {
		return err
	}
	// Removing nothing is still success.
	s.Vars.Remove(pattern)
	return nil
}

func cmdEcho(s *Shell, args *token.Cursor) error {
	expanded, err := s.Vars.Expand(args.Rest(), false)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.stdout, expanded)
	return nil
}

var (
	unescapeHex     = regexp.MustCompile(`\\x[0-9a-fA-F][0-9a-fA-F]?`)
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\f`, "\f", // form feed
		`\\`, `\`, // backslash literal
	)
)

func unescape(s string) string {
	s = unescapeHex.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseUint(arg[2:], 16, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	return unescapeReplace.Replace(s)
}

func cmdPrintf(s *Shell, args *token.Cursor) error {
	fmt.Fprint(s.stdout, unescape(args.Rest()))
	return nil
}
