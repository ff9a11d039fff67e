package core

import (
	"strings"

	"github.com/micromos/micromos/core/match"
	"github.com/micromos/micromos/core/token"
)

// Command describes one builtin. Commands sharing a group are aliases of
// the same operation; the group's help text lives on the first member that
// carries one and the rest are listed as aliases.
type Command struct {
	Name string
	// Args is the usage fragment shown after the name in help output.
	Args string
	// Help is the one line description. Members with no help are hidden
	// from help listings.
	Help string

	group string
	Run   func(s *Shell, args *token.Cursor) error
}

// CommandTable is the fixed builtin catalog.
type CommandTable []Command

// Builtins returns the builtin table.
// NB this list is iterated over, so the order is important.
func Builtins() CommandTable {
	return CommandTable{
		{Name: ".", group: "dir", Run: cmdDir},
		{Name: "CAT", Args: "[<path>]", Help: "Directory listing", group: "dir", Run: cmdDir},
		{Name: "CD", Args: "<path>", Help: "Change current directory", group: "cd", Run: cmdCd},
		{Name: "CDIR", group: "cd", Run: cmdCd},
		{Name: "CLS", Help: "Clear the screen", group: "cls", Run: cmdCls},
		{Name: "COPY", Args: "<src> <dst>", Help: "Create a copy of a file", group: "copy", Run: cmdCopy},
		{Name: "CP", group: "copy", Run: cmdCopy},
		{Name: "CREDITS", Help: "Output credits and version information", group: "credits", Run: cmdCredits},
		{Name: "DELETE", Args: "[-f] <path>", Help: "Delete a file or folder (must be empty)", group: "delete", Run: cmdDelete},
		{Name: "DIR", group: "dir", Run: cmdDir},
		{Name: "DISC", group: "mount", Run: cmdMount},
		{Name: "ECHO", Args: "<text>", Help: "Echo a message to the console, expanding variable references", group: "echo", Run: cmdEcho},
		{Name: "ERASE", group: "delete", Run: cmdDelete},
		{Name: "EXEC", Args: "<filename>", Help: "Run a batch file of commands", group: "exec", Run: cmdExec},
		{Name: "HELP", Args: "[<command> | all]", Help: "Display help on a command or list the commands", group: "help", Run: cmdHelp},
		{Name: "JMP", Args: "<addr>", Help: "Jump to the specified address", group: "jmp", Run: cmdJmp},
		{Name: "LOAD", Args: "<filename> [<addr>]", Help: "Load a file into memory", group: "load", Run: cmdLoad},
		{Name: "LS", group: "dir", Run: cmdDir},
		{Name: "HOTKEY", Args: "[<n> [<command>]]", Help: "Set a function key command, or list them all", group: "hotkey", Run: cmdHotkey},
		{Name: "MEM", Help: "Show the memory map", group: "mem", Run: cmdMem},
		{Name: "MKDIR", Args: "<path>", Help: "Create a new directory", group: "mkdir", Run: cmdMkdir},
		{Name: "MOUNT", Help: "Mount the disk", group: "mount", Run: cmdMount},
		{Name: "MOVE", Args: "<src> <dst>", Help: "Move or rename a file", group: "move", Run: cmdMove},
		{Name: "MV", group: "move", Run: cmdMove},
		{Name: "PRINTF", Args: "<format>", Help: "Print a formatted string, interpreting escapes", group: "printf", Run: cmdPrintf},
		{Name: "RENAME", group: "move", Run: cmdMove},
		{Name: "RM", group: "delete", Run: cmdDelete},
		{Name: "RUN", Args: "[<addr>] [<args>]", Help: "Run a binary loaded in memory", group: "run", Run: cmdRun},
		{Name: "SAVE", Args: "<filename> <addr> <size>", Help: "Save a memory range to a file", group: "save", Run: cmdSave},
		{Name: "Set", Args: "<name> <value>", Help: "Set a string system variable", group: "set", Run: cmdSet},
		{Name: "SetEval", Args: "<name> <expr>", Help: "Evaluate an expression into a system variable", group: "seteval", Run: cmdSetEval},
		{Name: "SetMacro", Args: "<name> <text>", Help: "Set a macro system variable", group: "setmacro", Run: cmdSetMacro},
		{Name: "Show", Args: "[<pattern>]", Help: "Show system variables", group: "show", Run: cmdShow},
		{Name: "TIME", Args: "[<yyyy> <mm> <dd> <hh> <mm> <ss>]", Help: "Show or set the real time clock", group: "time", Run: cmdTime},
		{Name: "TYPE", Args: "<filename>", Help: "Print the contents of a file to the console", group: "type", Run: cmdType},
		{Name: "UNSET", Args: "<pattern>", Help: "Delete system variables matching a pattern", group: "unset", Run: cmdUnset},
		{Name: "VDU", Args: "<b1> [<b2> ...]", Help: "Write bytes to the display", group: "vdu", Run: cmdVdu},
	}
}

// Resolve returns the first table entry the typed name abbreviates, or nil.
// Ties between equally valid abbreviations go to the earlier entry.
func (t CommandTable) Resolve(name string) *Command {
	for i := range t {
		if match.Abbrev(name, t[i].Name) {
			return &t[i]
		}
	}
	return nil
}

// Matching returns the help-bearing entries whose names match the glob
// pattern, in table order. Abbreviation does not apply here.
func (t CommandTable) Matching(pattern string) []*Command {
	var out []*Command
	for i := range t {
		if t[i].Help == "" {
			continue
		}
		if match.Wildcard(pattern, t[i].Name) {
			out = append(out, &t[i])
		}
	}
	return out
}

// HelpFor returns the descriptor carrying the group's help text, which may
// be cmd itself.
func (t CommandTable) HelpFor(cmd *Command) *Command {
	for i := range t {
		if t[i].group == cmd.group && t[i].Help != "" {
			return &t[i]
		}
	}
	return cmd
}

// Aliases lists the other names of cmd's group, in table order.
func (t CommandTable) Aliases(cmd *Command) []string {
	primary := t.HelpFor(cmd)
	var out []string
	for i := range t {
		if t[i].group == cmd.group && t[i].Name != primary.Name {
			out = append(out, t[i].Name)
		}
	}
	return out
}

// FormatAliases renders an alias list as "X", "X and Y" or "X, Y, and Z".
func FormatAliases(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}
