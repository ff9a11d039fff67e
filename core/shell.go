package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"

	"github.com/micromos/micromos/core/clock"
	"github.com/micromos/micromos/core/logger"
	"github.com/micromos/micromos/core/machine"
	"github.com/micromos/micromos/core/moserr"
	"github.com/micromos/micromos/core/sysvar"
	"github.com/micromos/micromos/core/token"
	"github.com/micromos/micromos/core/vfs"
)

const (
	// maxCommandName bounds the length of a candidate program name so the
	// search path can never overrun a path buffer downstream.
	maxCommandName = 246

	// binExt is appended to a program name when searching the disk.
	binExt = ".bin"

	// hotkeyCount is the number of function key slots.
	hotkeyCount = 12

	defaultPrompt = "*"
)

// Shell is one interpreter session: the variable store, the disk, the
// machine RAM and clock it operates on, and the session's I/O.
type Shell struct {
	Vars     *sysvar.Store
	Disk     *vfs.Disk
	Machine  *machine.Machine
	Clock    *clock.Clock
	Display  *Display
	Commands CommandTable
	Log      *logger.SessionLogger

	// MosletDir is searched first for external programs; BinDir last.
	MosletDir string
	BinDir    string

	// Interactive selects the full program search path. Batch contexts
	// only search the moslet directory.
	Interactive bool

	Hotkeys [hotkeyCount]string

	stdin  io.Reader
	stdout io.Writer
	rl     *readline.Instance

	errColor *color.Color
}

// Options configures a new shell. Zero fields get working defaults.
type Options struct {
	Disk    *vfs.Disk
	Machine *machine.Machine
	Clock   *clock.Clock
	Log     *logger.SessionLogger

	MosletDir string
	BinDir    string

	Interactive bool

	Stdin  io.Reader
	Stdout io.Writer

	// Color enables colored error output.
	Color bool
}

func NewShell(opts Options) *Shell {
	if opts.Disk == nil {
		opts.Disk = vfs.NewMem()
	}
	if opts.Machine == nil {
		opts.Machine = machine.New(machine.DefaultGeometry())
	}
	if opts.Clock == nil {
		opts.Clock = clock.New(time.Now)
	}
	if opts.Log == nil {
		opts.Log = logger.Discard().Sessionless()
	}
	if opts.MosletDir == "" {
		opts.MosletDir = "/mos"
	}
	if opts.BinDir == "" {
		opts.BinDir = "/bin"
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	errColor := color.New(color.FgRed, color.Bold)
	if !opts.Color {
		errColor.DisableColor()
	}

	s := &Shell{
		Vars:        sysvar.NewStore(),
		Disk:        opts.Disk,
		Machine:     opts.Machine,
		Clock:       opts.Clock,
		Display:     NewDisplay(opts.Stdout),
		Commands:    Builtins(),
		Log:         opts.Log,
		MosletDir:   opts.MosletDir,
		BinDir:      opts.BinDir,
		Interactive: opts.Interactive,
		stdin:       opts.Stdin,
		stdout:      opts.Stdout,
		errColor:    errColor,
	}
	s.setupSystemVariables()
	return s
}

// setupSystemVariables registers the built-in computed variables and the
// default prompt macro.
func (s *Shell) setupSystemVariables() {
	readOnly := func(read func() string) *sysvar.Accessor {
		return &sysvar.Accessor{Read: func() (string, error) { return read(), nil }}
	}
	writeNumber := func(write func(int) error) *sysvar.Accessor {
		return &sysvar.Accessor{Write: func(v string) error {
			cur := token.NewCursor(v)
			n, err := cur.ParseNumber()
			if err != nil {
				return err
			}
			return write(int(n))
		}}
	}

	s.Vars.SetComputed("Sys$Time", readOnly(s.Clock.Time))
	s.Vars.SetComputed("Sys$Date", readOnly(s.Clock.Date))
	s.Vars.SetComputed("Sys$Year", readOnly(s.Clock.Year))
	s.Vars.SetComputed("Current$Dir", readOnly(s.Disk.Getwd))
	s.Vars.SetComputed("Keyboard", writeNumber(s.Display.SetKeyboard))
	s.Vars.SetComputed("Console", writeNumber(s.Display.SetConsole))
	s.Vars.SetMacro("CLI$Prompt", "<Current$Dir> "+defaultPrompt)
}

// Exec runs one line through the interpreter pipeline.
func (s *Shell) Exec(line string) error {
	line = token.Trim(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "| ") {
		return nil
	}

	cur := token.NewCursor(line)
	name, ok := cur.Next(" ")
	if !ok {
		return nil
	}

	if cmd := s.Commands.Resolve(name); cmd != nil {
		err := cmd.Run(s, cur)
		s.Log.Record(&logger.LogEntry{RunCommand: &logger.RunCommand{
			Line:    line,
			Command: cmd.Name,
			Status:  statusText(err),
		}})
		return err
	}

	if len(name) > maxCommandName {
		return moserr.InvalidCommand
	}

	err := s.runProgram(name, cur.Rest())
	if moserr.Code(err) == moserr.InvalidCommand {
		s.Log.Record(&logger.LogEntry{UnknownCommand: &logger.UnknownCommand{Line: line}})
	}
	return err
}

// runProgram searches the candidate directories for name.bin, loads the
// first hit and dispatches it. Not-found outcomes continue the search;
// everything else stops it.
func (s *Shell) runProgram(name, args string) error {
	geo := s.Machine.Geometry()

	type candidate struct {
		dir  string
		addr uint32
	}
	candidates := []candidate{{s.MosletDir, geo.MosletLoad}}
	if s.Interactive {
		candidates = append(candidates,
			candidate{s.Disk.Getwd(), geo.DefaultLoad},
			candidate{s.BinDir, geo.DefaultLoad},
		)
	}

	for _, c := range candidates {
		binPath := path.Join(c.dir, name+binExt)
		size, err := s.loadBin(binPath, c.addr)
		if moserr.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		s.Log.Record(&logger.LogEntry{ProgramLoad: &logger.ProgramLoad{
			Path:    binPath,
			Address: c.addr,
			Size:    size,
		}})
		return s.runBin(binPath, c.addr, args)
	}

	return moserr.InvalidCommand
}

// loadBin loads the whole file at binPath into RAM at addr and returns its
// size.
func (s *Shell) loadBin(binPath string, addr uint32) (uint32, error) {
	info, err := s.Disk.Stat(binPath)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, moserr.NoFile
	}
	size := uint32(info.Size())

	fd, err := s.Disk.Open(binPath)
	if err != nil {
		return 0, err
	}
	defer fd.Close()

	if err := s.Machine.LoadFrom(fd, addr, size); err != nil {
		return 0, err
	}
	return size, nil
}

// runBin dispatches the loaded binary at addr and converts its result code
// into the pipeline's status.
func (s *Shell) runBin(binPath string, addr uint32, args string) error {
	code, err := s.Machine.RunBin(addr, args)
	if err != nil {
		return err
	}
	s.Log.Record(&logger.LogEntry{ProgramRun: &logger.ProgramRun{
		Path:     binPath,
		Address:  addr,
		ExitCode: code,
	}})
	if code != 0 {
		return moserr.Error(code)
	}
	return nil
}

// ExecBatch runs the lines of a batch file through the pipeline in batch
// context and reports the first failing line.
func (s *Shell) ExecBatch(r io.Reader) error {
	wasInteractive := s.Interactive
	s.Interactive = false
	defer func() { s.Interactive = wasInteractive }()

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := s.Exec(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// Prompt renders the CLI$Prompt macro, falling back to the bare default
// when the macro is missing or broken.
func (s *Shell) Prompt() string {
	v := s.Vars.Get("CLI$Prompt")
	if v == nil {
		return defaultPrompt + " "
	}
	prompt, err := s.Vars.ExpandVariable(v, false)
	if err != nil || prompt == "" {
		return defaultPrompt + " "
	}
	return prompt + " "
}

// Run reads lines from rl until EOF, executing each through the pipeline.
func (s *Shell) Run(rl *readline.Instance) {
	s.rl = rl
	defer func() { s.rl = nil }()

	for {
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return // Input closed, quit.

		case err == readline.ErrInterrupt:
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			return

		default:
			s.PrintError(s.Exec(line))
		}
	}
}

// PrintError writes the one line message for err, if it has one.
func (s *Shell) PrintError(err error) {
	if err == nil {
		return
	}
	var code moserr.Error
	if errors.As(err, &code) && moserr.Message(int(code)) == "" {
		// Codes outside the message table render nothing.
		return
	}
	s.errColor.Fprintln(s.stdout, err.Error())
}

// readLine obtains one line of input for interactive confirmations.
func (s *Shell) readLine(prompt string) (string, error) {
	if s.rl != nil {
		s.rl.SetPrompt(prompt)
		defer s.rl.SetPrompt(s.Prompt())
		return s.rl.Readline()
	}
	fmt.Fprint(s.stdout, prompt)
	line, err := bufio.NewReader(s.stdin).ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

// Confirm asks a Yes/No/Cancel question and returns 'Y', 'N' or 'C'.
func (s *Shell) Confirm(question string) byte {
	line, err := s.readLine(question + " (Yes/No/Cancel) ")
	if err != nil {
		return 'C'
	}
	switch strings.ToUpper(token.Trim(line)) {
	case "Y", "YES":
		return 'Y'
	case "N", "NO":
		return 'N'
	default:
		return 'C'
	}
}

// Hotkey returns the command bound to function key n (1 based).
func (s *Shell) Hotkey(n int) (string, error) {
	if n < 1 || n > hotkeyCount {
		return "", moserr.InvalidParameter
	}
	return s.Hotkeys[n-1], nil
}

// SetHotkey binds function key n (1 based); an empty line clears the slot.
func (s *Shell) SetHotkey(n int, line string) error {
	if n < 1 || n > hotkeyCount {
		return moserr.InvalidParameter
	}
	s.Hotkeys[n-1] = line
	return nil
}

func statusText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
