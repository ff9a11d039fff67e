package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/micromos/micromos/core/moserr"
	"github.com/micromos/micromos/core/token"
)

func (s *Shell) printCommandHelp(c *Command) {
	primary := s.Commands.HelpFor(c)
	if primary.Args != "" {
		fmt.Fprintf(s.stdout, "%s %s: %s\n", primary.Name, primary.Args, primary.Help)
	} else {
		fmt.Fprintf(s.stdout, "%s: %s\n", primary.Name, primary.Help)
	}
	if aliases := s.Commands.Aliases(primary); len(aliases) > 0 {
		fmt.Fprintf(s.stdout, "Aliases: %s\n", FormatAliases(aliases))
	}
}

func cmdHelp(s *Shell, args *token.Cursor) error {
	arg, ok := args.Next(" ")
	if !ok {
		if help := s.Commands.Resolve("HELP"); help != nil {
			s.printCommandHelp(help)
		}
		var names []string
		for _, c := range s.Commands.Matching("*") {
			names = append(names, c.Name)
		}
		fmt.Fprintf(s.stdout, "Commands: %s\n", strings.Join(names, ", "))
		return nil
	}

	for ; ok; arg, ok = args.Next(" ") {
		pattern := arg
		if strings.EqualFold(arg, "ALL") {
			pattern = "*"
		}

		matches := s.Commands.Matching(pattern)
		if len(matches) == 0 {
			// A bare command word still resolves through the command
			// matcher, abbreviations included.
			c := s.Commands.Resolve(arg)
			if c == nil {
				return moserr.InvalidCommand
			}
			matches = []*Command{c}
		}
		for _, c := range matches {
			s.printCommandHelp(c)
		}
	}
	return nil
}

func cmdHotkey(s *Shell, args *token.Cursor) error {
	n, err := args.ParseNumber()
	if err != nil {
		if _, ok := args.Next(" "); ok {
			return moserr.InvalidParameter
		}
		for i := range s.Hotkeys {
			line := s.Hotkeys[i]
			if line == "" {
				line = "(not set)"
			}
			fmt.Fprintf(s.stdout, "F%d: %s\n", i+1, line)
		}
		return nil
	}

	line := token.Trim(args.Rest())
	// A quoted command keeps its interior spacing; strip one pair.
	if len(line) >= 2 && strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`) {
		line = line[1 : len(line)-1]
	}
	return s.SetHotkey(int(n), line)
}

func cmdRun(s *Shell, args *token.Cursor) error {
	addr := s.Machine.Geometry().DefaultLoad
	if n, err := args.ParseNumber(); err == nil {
		addr = n
	}
	return s.runBin("", addr, token.Trim(args.Rest()))
}

func cmdJmp(s *Shell, args *token.Cursor) error {
	addr, err := args.ParseNumber()
	if err != nil {
		return err
	}
	_, err = s.Machine.Jump(addr)
	return err
}

func cmdExec(s *Shell, args *token.Cursor) error {
	name, err := args.ParseString()
	if err != nil {
		return err
	}
	fd, err := s.Disk.Open(name)
	if err != nil {
		return err
	}
	defer fd.Close()
	return s.ExecBatch(fd)
}

func cmdMem(s *Shell, args *token.Cursor) error {
	geo := s.Machine.Geometry()
	fmt.Fprintf(s.stdout, "RAM size:     &%06X\n", geo.RAMSize)
	fmt.Fprintf(s.stdout, "System area:  &%06X - &%06X\n", geo.SystemBase, geo.RAMSize-1)
	fmt.Fprintf(s.stdout, "Default load: &%06X\n", geo.DefaultLoad)
	fmt.Fprintf(s.stdout, "Moslet load:  &%06X\n", geo.MosletLoad)
	fmt.Fprintf(s.stdout, "Variables:    %d\n", s.Vars.Len())
	return nil
}

func cmdCls(s *Shell, args *token.Cursor) error {
	s.Display.Cls()
	return nil
}

func cmdVdu(s *Shell, args *token.Cursor) error {
	var out []byte
	seen := false
	for {
		tok, ok := args.Next(" ,")
		if !ok {
			break
		}
		seen = true

		// A ';' suffix widens the value to a 16 bit little endian word.
		word := strings.HasSuffix(tok, ";")
		tok = strings.TrimSuffix(tok, ";")

		cur := token.NewCursor(tok)
		n, err := cur.ParseNumber()
		if err != nil {
			return err
		}
		if word {
			if n > 0xFFFF {
				return moserr.InvalidParameter
			}
			out = append(out, byte(n), byte(n>>8))
		} else {
			if n > 0xFF {
				return moserr.InvalidParameter
			}
			out = append(out, byte(n))
		}
	}
	if !seen {
		return moserr.InvalidParameter
	}
	return s.Display.SendBytes(out)
}

func cmdTime(s *Shell, args *token.Cursor) error {
	first, err := args.ParseNumber()
	if err != nil {
		fmt.Fprintln(s.stdout, s.Clock.DateTime())
		return nil
	}

	var parts [5]uint32
	for i := range parts {
		n, err := args.ParseNumber()
		if err != nil {
			return moserr.InvalidParameter
		}
		parts[i] = n
	}

	s.Clock.Set(time.Date(
		int(first), time.Month(parts[0]), int(parts[1]),
		int(parts[2]), int(parts[3]), int(parts[4]),
		0, time.UTC))
	return nil
}

func cmdCredits(s *Shell, args *token.Cursor) error {
	fmt.Fprintln(s.stdout, "micromos is built with:")
	for _, dep := range []string{
		"spf13/afero and spf13/cobra",
		"abiosoft/readline",
		"gliderlabs/ssh",
		"fatih/color",
		"pborman/getopt",
	} {
		fmt.Fprintf(s.stdout, "  %s\n", dep)
	}
	return nil
}
