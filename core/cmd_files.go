package core

import (
	"fmt"
	"io"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/micromos/micromos/core/logger"
	"github.com/micromos/micromos/core/moserr"
	"github.com/micromos/micromos/core/token"
)

// argv splits the remaining arguments for getopt style flag parsing. The
// command name is prepended because getopt skips argv[0].
func argv(name string, args *token.Cursor) []string {
	return append([]string{name}, strings.Fields(args.Rest())...)
}

func cmdDir(s *Shell, args *token.Cursor) error {
	opts := getopt.New()
	opts.Bool('l', "long listing (accepted for compatibility)")
	parsed := argv("DIR", args)
	if err := opts.Getopt(parsed, nil); err != nil {
		return moserr.InvalidParameter
	}

	dir := "."
	if rest := opts.Args(); len(rest) > 0 {
		dir = rest[0]
	}

	infos, err := s.Disk.ReadDir(dir)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.stdout, "Directory of %s\n", s.Disk.Resolve(dir))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() {
			name += "/"
		}
		fmt.Fprintln(s.stdout, name)
	}
	return nil
}

func cmdCd(s *Shell, args *token.Cursor) error {
	dir, err := args.ParseString()
	if err != nil {
		return err
	}
	return s.Disk.Chdir(dir)
}

func cmdCopy(s *Shell, args *token.Cursor) error {
	src, err := args.ParseString()
	if err != nil {
		return err
	}
	dst, err := args.ParseString()
	if err != nil {
		return err
	}
	return s.Disk.Copy(src, dst)
}

func cmdDelete(s *Shell, args *token.Cursor) error {
	opts := getopt.New()
	force := opts.Bool('f', "delete without confirmation")
	parsed := argv("DELETE", args)
	if err := opts.Getopt(parsed, nil); err != nil {
		return moserr.InvalidParameter
	}
	rest := opts.Args()
	if len(rest) == 0 {
		return moserr.InvalidParameter
	}
	target := rest[0]

	if !*force {
		switch s.Confirm(fmt.Sprintf("Delete %s?", s.Disk.Resolve(target))) {
		case 'Y':
		default:
			return nil
		}
	}
	return s.Disk.Remove(target)
}

func cmdMkdir(s *Shell, args *token.Cursor) error {
	dir, err := args.ParseString()
	if err != nil {
		return err
	}
	return s.Disk.Mkdir(dir)
}

func cmdMove(s *Shell, args *token.Cursor) error {
	src, err := args.ParseString()
	if err != nil {
		return err
	}
	dst, err := args.ParseString()
	if err != nil {
		return err
	}
	return s.Disk.Rename(src, dst)
}

func cmdType(s *Shell, args *token.Cursor) error {
	name, err := args.ParseString()
	if err != nil {
		return err
	}
	fd, err := s.Disk.Open(name)
	if err != nil {
		return err
	}
	defer fd.Close()
	if _, err := io.Copy(s.stdout, fd); err != nil {
		return moserr.DiskError
	}
	return nil
}

func cmdLoad(s *Shell, args *token.Cursor) error {
	name, err := args.ParseString()
	if err != nil {
		return err
	}
	addr := s.Machine.Geometry().DefaultLoad
	if n, err := args.ParseNumber(); err == nil {
		addr = n
	}

	size, err := s.loadBin(name, addr)
	if err != nil {
		return err
	}
	s.Log.Record(&logger.LogEntry{ProgramLoad: &logger.ProgramLoad{
		Path:    s.Disk.Resolve(name),
		Address: addr,
		Size:    size,
	}})
	return nil
}

func cmdSave(s *Shell, args *token.Cursor) error {
	name, err := args.ParseString()
	if err != nil {
		return err
	}
	addr, err := args.ParseNumber()
	if err != nil {
		return err
	}
	size, err := args.ParseNumber()
	if err != nil {
		return err
	}

	data, err := s.Machine.Slice(addr, size)
	if err != nil {
		return err
	}
	return s.Disk.Save(name, data)
}

func cmdMount(s *Shell, args *token.Cursor) error {
	_, err := s.Disk.Stat("/")
	return err
}
