package core

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log"

	"github.com/abiosoft/readline"
	"github.com/gliderlabs/ssh"
	"github.com/juju/ratelimit"

	"github.com/micromos/micromos/core/config"
	"github.com/micromos/micromos/core/logger"
	"github.com/micromos/micromos/core/machine"
	"github.com/micromos/micromos/core/vfs"
)

// Console serves the machine's command shell over SSH. Every session gets
// its own machine and variable store; the disk backing is shared through
// the configuration.
type Console struct {
	configuration *config.Configuration
	logger        *logger.Logger
	sshServer     *ssh.Server

	// sessions throttles connection handling so a misbehaving client
	// cannot spin up sessions faster than they can be served.
	sessions *ratelimit.Bucket
}

func NewConsole(configuration *config.Configuration, logDest io.Writer) (*Console, error) {
	console := &Console{
		configuration: configuration,
		logger:        logger.NewJsonLinesLogRecorder(logDest),
		sessions:      ratelimit.NewBucketWithRate(1, 5),
	}

	console.sshServer = &ssh.Server{
		Addr:    fmt.Sprintf(":%d", configuration.ConsolePort),
		Version: configuration.ConsoleBanner,
		Handler: func(sess ssh.Session) {
			console.HandleConnection(sess)
		},
	}

	if password := configuration.ConsolePassword; password != "" {
		console.sshServer.PasswordHandler = func(ctx ssh.Context, attempt string) bool {
			return 1 == subtle.ConstantTimeCompare([]byte(attempt), []byte(password))
		}
	}

	keyPem, err := configuration.PrivateKeyPem()
	if err != nil {
		return nil, fmt.Errorf("loading host key: %w", err)
	}
	console.sshServer.SetOption(ssh.HostKeyPEM(keyPem))

	return console, nil
}

// OpenDisk mounts the configured disk: a host directory when one is set,
// otherwise the gzipped tar disk image.
func OpenDisk(configuration *config.Configuration) (*vfs.Disk, error) {
	if fs := configuration.DiskDirFs(); fs != nil {
		return vfs.NewFromFs(fs), nil
	}
	fd, err := configuration.OpenDiskImage()
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return vfs.NewDiskImage(fd)
}

func (c *Console) HandleConnection(sess ssh.Session) error {
	if c.sessions.TakeAvailable(1) == 0 {
		fmt.Fprintln(sess, "console busy, try again later")
		sess.Exit(1)
		return nil
	}

	sessionLogger := c.logger.NewSession()

	ptyInfo, winch, isPty := sess.Pty()
	sessionLogger.Record(&logger.LogEntry{SessionStart: &logger.SessionStart{
		RemoteAddr: fmt.Sprintf("%s", sess.RemoteAddr()),
		Term:       ptyInfo.Term,
	}})
	defer sessionLogger.Record(&logger.LogEntry{SessionEnd: &logger.SessionEnd{}})

	disk, err := OpenDisk(c.configuration)
	if err != nil {
		fmt.Fprintln(sess, "disk unavailable")
		sess.Exit(1)
		return err
	}

	shell := NewShell(Options{
		Disk:        disk,
		Machine:     machine.New(c.configuration.Memory.Geometry()),
		Log:         sessionLogger,
		MosletDir:   c.configuration.Disk.MosletDir,
		BinDir:      c.configuration.Disk.BinDir,
		Interactive: true,
		Stdin:       sess,
		Stdout:      sess,
		Color:       isPty,
	})

	// Track window size changes for the line editor.
	windowWidth := ptyInfo.Window.Width
	go func() {
		for window := range winch {
			windowWidth = window.Width
		}
	}()

	rl, err := NewReadline(sess, sess,
		func() bool { return isPty },
		func() int { return windowWidth })
	if err != nil {
		sess.Exit(1)
		return err
	}
	defer rl.Close()

	if motd := c.configuration.Motd; motd != "" {
		fmt.Fprint(sess, motd)
	}

	shell.Run(rl)
	sess.Exit(0)
	return nil
}

func (c *Console) ListenAndServe() error {
	log.Printf("- Starting console server on %s\n", c.sshServer.Addr)
	return c.sshServer.ListenAndServe()
}

func (c *Console) Shutdown(ctx context.Context) error {
	return c.sshServer.Shutdown(ctx)
}

// NewReadline builds the line editor over the given streams. isTerminal
// and width may be nil for plain local terminals.
func NewReadline(stdin io.Reader, stdout io.Writer, isTerminal func() bool, width func() int) (*readline.Instance, error) {
	cfg := &readline.Config{
		Stdin:          readline.NewCancelableStdin(stdin),
		Stdout:         stdout,
		Stderr:         stdout,
		FuncIsTerminal: isTerminal,
		FuncGetWidth:   width,
	}
	if err := cfg.Init(); err != nil {
		return nil, err
	}
	return readline.NewEx(cfg)
}
