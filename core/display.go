package core

import (
	"fmt"
	"io"

	"github.com/micromos/micromos/core/moserr"
)

// Display is the terminal standing in for the machine's video output. VDU
// bytes are written through it verbatim; the keyboard and console settings
// it carries are exposed to the shell as write-only system variables.
type Display struct {
	out io.Writer

	keyboardLayout int
	consoleMode    int
}

func NewDisplay(out io.Writer) *Display {
	return &Display{out: out}
}

func (d *Display) Write(p []byte) (int, error) {
	return d.out.Write(p)
}

// SendBytes writes a raw VDU byte sequence to the terminal.
func (d *Display) SendBytes(b []byte) error {
	_, err := d.out.Write(b)
	return err
}

// Cls clears the screen and homes the cursor.
func (d *Display) Cls() {
	fmt.Fprint(d.out, "\x1b[2J\x1b[H")
}

// SetKeyboard selects a keyboard layout.
func (d *Display) SetKeyboard(n int) error {
	if n < 0 || n > 255 {
		return moserr.InvalidParameter
	}
	d.keyboardLayout = n
	return nil
}

// SetConsole toggles console mode.
func (d *Display) SetConsole(n int) error {
	if n < 0 || n > 1 {
		return moserr.InvalidParameter
	}
	d.consoleMode = n
	return nil
}
