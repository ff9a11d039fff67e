package core

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromos/micromos/core/clock"
	"github.com/micromos/micromos/core/moserr"
	"github.com/micromos/micromos/core/vfs"
)

func fixedClock() *clock.Clock {
	return clock.New(func() time.Time {
		return time.Date(2024, time.March, 5, 14, 30, 45, 0, time.UTC)
	})
}

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	disk := vfs.NewMem()
	require.NoError(t, disk.Mkdir("/mos"))
	require.NoError(t, disk.Mkdir("/bin"))

	s := NewShell(Options{
		Disk:        disk,
		Clock:       fixedClock(),
		Interactive: true,
		Stdin:       strings.NewReader(""),
		Stdout:      buf,
	})
	return s, buf
}

// binImage builds a binary with a valid header declaring the given ABI mode.
func binImage(mode byte) []byte {
	buf := make([]byte, 0x100)
	copy(buf[0x40:], "MOS")
	buf[0x44] = mode
	return buf
}

func TestExecNoOps(t *testing.T) {
	s, buf := newTestShell(t)
	for _, line := range []string{
		"",
		"   ",
		"# a comment",
		"| another comment",
		"*",
	} {
		assert.NoError(t, s.Exec(line), "line %q", line)
	}
	assert.Empty(t, buf.String())
}

func TestExecStarPrefix(t *testing.T) {
	s, buf := newTestShell(t)
	// A leading asterisk is treated as whitespace.
	require.NoError(t, s.Exec("*ECHO hello"))
	assert.Equal(t, "hello\n", buf.String())
}

func TestExecBuiltinDispatch(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Disk.WriteFile("/note.txt", []byte("contents")))

	require.NoError(t, s.Exec("TYPE /note.txt"))
	assert.Equal(t, "contents", buf.String())
}

func TestExecAbbreviation(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Disk.WriteFile("/hello.txt", []byte("x")))

	// DI abbreviates DIR.
	require.NoError(t, s.Exec("DI /"))
	assert.Contains(t, buf.String(), "Directory of /")
	assert.Contains(t, buf.String(), "hello.txt")
}

func TestExecUnknownCommand(t *testing.T) {
	s, _ := newTestShell(t)
	err := s.Exec("FROB")
	assert.Equal(t, moserr.InvalidCommand, moserr.Code(err))
}

func TestExecNameTooLong(t *testing.T) {
	s, _ := newTestShell(t)
	err := s.Exec(strings.Repeat("X", 300))
	assert.Equal(t, moserr.InvalidCommand, moserr.Code(err))
}

func TestSearchPrefersMosletDir(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Disk.WriteFile("/mos/prog.bin", binImage(0)))
	require.NoError(t, s.Disk.WriteFile("/bin/prog.bin", binImage(0)))

	var gotAddr uint32
	s.Machine.ExecLegacy = func(addr uint32, args string) int {
		gotAddr = addr
		return 0
	}

	require.NoError(t, s.Exec("prog"))
	assert.Equal(t, s.Machine.Geometry().MosletLoad, gotAddr)
}

func TestSearchFallsBackToCwdThenBin(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Disk.WriteFile("/bin/prog.bin", binImage(1)))

	var gotAddr uint32
	var gotArgs string
	s.Machine.ExecExtended = func(addr uint32, args string) int {
		gotAddr = addr
		gotArgs = args
		return 0
	}

	require.NoError(t, s.Exec("prog one two"))
	assert.Equal(t, s.Machine.Geometry().DefaultLoad, gotAddr)
	assert.Equal(t, "one two", gotArgs)

	// A copy in the working directory takes precedence over the bin dir.
	require.NoError(t, s.Disk.WriteFile("/prog.bin", binImage(0)))
	legacyRan := false
	s.Machine.ExecLegacy = func(addr uint32, args string) int {
		legacyRan = true
		return 0
	}
	require.NoError(t, s.Exec("prog"))
	assert.True(t, legacyRan)
}

func TestSearchBatchOnlyMosletDir(t *testing.T) {
	s, _ := newTestShell(t)
	s.Interactive = false
	require.NoError(t, s.Disk.WriteFile("/bin/prog.bin", binImage(0)))

	err := s.Exec("prog")
	assert.Equal(t, moserr.InvalidCommand, moserr.Code(err))

	require.NoError(t, s.Disk.WriteFile("/mos/prog.bin", binImage(0)))
	ran := false
	s.Machine.ExecLegacy = func(uint32, string) int { ran = true; return 0 }
	require.NoError(t, s.Exec("prog"))
	assert.True(t, ran)
}

func TestSearchStopsOnOverlappingSystem(t *testing.T) {
	s, _ := newTestShell(t)

	// The moslet copy is too large for the moslet region; the search must
	// stop there and never reach the valid copy in the bin dir.
	oversized := make([]byte, 0x9000)
	copy(oversized[0x40:], "MOS")
	require.NoError(t, s.Disk.WriteFile("/mos/prog.bin", oversized))
	require.NoError(t, s.Disk.WriteFile("/bin/prog.bin", binImage(0)))

	ran := false
	s.Machine.ExecLegacy = func(uint32, string) int { ran = true; return 0 }

	err := s.Exec("prog")
	assert.Equal(t, moserr.OverlappingSystem, moserr.Code(err))
	assert.False(t, ran)
}

func TestExecBadHeader(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Disk.WriteFile("/bin/prog.bin", make([]byte, 0x100)))

	err := s.Exec("prog")
	assert.Equal(t, moserr.InvalidExecutable, moserr.Code(err))
}

func TestProgramExitCodeBecomesStatus(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Disk.WriteFile("/bin/prog.bin", binImage(0)))
	s.Machine.ExecLegacy = func(uint32, string) int { return int(moserr.NotReady) }

	err := s.Exec("prog")
	assert.Equal(t, moserr.NotReady, moserr.Code(err))
}

func TestPrompt(t *testing.T) {
	s, _ := newTestShell(t)
	assert.Equal(t, "/ * ", s.Prompt())

	require.NoError(t, s.Disk.Mkdir("/docs"))
	require.NoError(t, s.Exec("CD docs"))
	assert.Equal(t, "/docs * ", s.Prompt())

	// A broken prompt macro falls back to the bare default.
	require.NoError(t, s.Vars.SetMacro("CLI$Prompt", "<CLI$Prompt>"))
	assert.Equal(t, "* ", s.Prompt())
}

func TestSetAndEcho(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Exec("Set Greeting hello"))
	require.NoError(t, s.Exec("ECHO <Greeting> world"))
	assert.Equal(t, "hello world\n", buf.String())
}

func TestSetExpandsAtAssignment(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Exec("Set Where <Current$Dir>"))

	v := s.Vars.Get("Where")
	require.NotNil(t, v)
	assert.Equal(t, "/", v.Raw())
}

func TestSetEval(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Exec("SetEval Answer 6 * 7"))
	require.NoError(t, s.Exec("ECHO <Answer>"))
	assert.Equal(t, "42\n", buf.String())
}

func TestUnsetAlwaysSucceeds(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Exec("Set Tmp x"))
	require.NoError(t, s.Exec("UNSET Tmp"))
	assert.Nil(t, s.Vars.Get("Tmp"))

	// No matches is still success.
	require.NoError(t, s.Exec("UNSET Nope*"))
}

func TestUnsetSkipsComputed(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Exec("UNSET *"))
	assert.NotNil(t, s.Vars.Get("Current$Dir"))
	// The prompt macro is an owning kind and is removed.
	assert.Nil(t, s.Vars.Get("CLI$Prompt"))
}

func TestKeyboardVariableWritesThrough(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Exec("Set Keyboard 1"))
	assert.Equal(t, 1, s.Display.keyboardLayout)

	err := s.Exec("Set Keyboard banana")
	assert.Equal(t, moserr.InvalidParameter, moserr.Code(err))
}

func TestVdu(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Exec("VDU 65 &42"))
	assert.Equal(t, "AB", buf.String())

	buf.Reset()
	// A ';' suffix widens to a little endian word.
	require.NoError(t, s.Exec("VDU &4241;"))
	assert.Equal(t, "AB", buf.String())

	assert.Error(t, s.Exec("VDU"))
	assert.Error(t, s.Exec("VDU 256"))
}

func TestTime(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Exec("TIME"))
	assert.Equal(t, "Tue, 5 Mar 2024 14:30:45\n", buf.String())

	require.NoError(t, s.Exec("TIME 2030 1 2 3 4 5"))
	buf.Reset()
	require.NoError(t, s.Exec("TIME"))
	assert.Equal(t, "Wed, 2 Jan 2030 03:04:05\n", buf.String())
}

func TestHotkeys(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Exec(`HOTKEY 1 "DIR /"`))

	line, err := s.Hotkey(1)
	require.NoError(t, err)
	assert.Equal(t, "DIR /", line)

	require.NoError(t, s.Exec("HOTKEY"))
	assert.Contains(t, buf.String(), "F1: DIR /")
	assert.Contains(t, buf.String(), "F2: (not set)")

	// A bare slot number clears the binding.
	require.NoError(t, s.Exec("HOTKEY 1"))
	line, err = s.Hotkey(1)
	require.NoError(t, err)
	assert.Empty(t, line)

	assert.Error(t, s.Exec("HOTKEY 13 X"))
}

func TestExecBatchReportsFailingLine(t *testing.T) {
	s, _ := newTestShell(t)
	batch := "MKDIR /a\nFROB\nMKDIR /b\n"

	err := s.ExecBatch(strings.NewReader(batch))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, moserr.InvalidCommand, moserr.Code(err))

	// Execution stopped at the failure.
	_, err = s.Disk.Stat("/a")
	assert.NoError(t, err)
	_, err = s.Disk.Stat("/b")
	assert.Error(t, err)

	// The batch restores the interactive flag.
	assert.True(t, s.Interactive)
}

func TestExecBatchFileViaCommand(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Disk.WriteFile("/start.cmd", []byte("MKDIR /made\n")))
	require.NoError(t, s.Exec("EXEC /start.cmd"))

	info, err := s.Disk.Stat("/made")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileCommands(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Disk.WriteFile("/a.txt", []byte("payload")))

	require.NoError(t, s.Exec("COPY /a.txt /b.txt"))
	require.NoError(t, s.Exec("RENAME /b.txt /c.txt"))
	require.NoError(t, s.Exec("DELETE -f /c.txt"))
	_, err := s.Disk.Stat("/c.txt")
	assert.Equal(t, moserr.NoFile, moserr.Code(err))

	buf.Reset()
	require.NoError(t, s.Exec("TYPE /a.txt"))
	assert.Equal(t, "payload", buf.String())
}

func TestLoadAndSave(t *testing.T) {
	s, _ := newTestShell(t)
	require.NoError(t, s.Disk.WriteFile("/data.bin", []byte("abcd")))

	require.NoError(t, s.Exec("LOAD /data.bin &050000"))
	mem, err := s.Machine.Slice(0x050000, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), mem)

	require.NoError(t, s.Exec("SAVE /out.bin &050000 4"))
	data, err := s.Disk.ReadFile("/out.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), data)

	// SAVE refuses to replace an existing file.
	err = s.Exec("SAVE /out.bin &050000 4")
	assert.Equal(t, moserr.Exists, moserr.Code(err))
}

func TestPrintf(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Exec(`PRINTF one\ttwo\n\x41`))
	assert.Equal(t, "one\ttwo\nA", buf.String())
}

func TestPrintErrorUnknownCodeSilent(t *testing.T) {
	s, buf := newTestShell(t)
	s.PrintError(moserr.Error(99))
	assert.Empty(t, buf.String())

	s.PrintError(moserr.NoFile)
	assert.Equal(t, "Could not find file\n", buf.String())
}
