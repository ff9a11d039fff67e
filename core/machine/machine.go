// Package machine models the target machine's RAM: a flat byte array with a
// reserved system region, a guarded program loader and the header checks
// that select which entry trampoline a loaded binary is dispatched through.
package machine

import (
	"io"

	"github.com/micromos/micromos/core/moserr"
)

const (
	// Header layout within the first page of a loaded binary.
	headerOffset = 0x40
	modeOffset   = 0x44

	// ABI mode bytes declared by the header.
	ModeLegacy   = 0
	ModeExtended = 1
)

var headerSignature = [3]byte{'M', 'O', 'S'}

// Geometry describes the RAM regions. Addresses are absolute; the protected
// system region occupies [SystemBase, RAMSize) and user programs may only be
// placed below it.
type Geometry struct {
	// RAMSize is the total addressable RAM in bytes.
	RAMSize uint32
	// ExternTop is the last externally addressable RAM byte.
	ExternTop uint32
	// SystemBase is the bottom of the reserved system region.
	SystemBase uint32
	// DefaultLoad is where LOAD and RUN place programs by default.
	DefaultLoad uint32
	// MosletLoad is where moslets from the system directory are placed.
	MosletLoad uint32
}

// DefaultGeometry returns the stock memory map.
func DefaultGeometry() Geometry {
	return Geometry{
		RAMSize:     0x0C0000,
		ExternTop:   0x0BFFFF,
		SystemBase:  0x0B8000,
		DefaultLoad: 0x040000,
		MosletLoad:  0x0B0000,
	}
}

// Trampoline transfers control into a loaded binary. It receives the load
// address and the unsplit remainder-of-line argument string and returns the
// binary's result code.
type Trampoline func(addr uint32, args string) int

// Machine is one machine instance: its RAM and the entry trampolines for
// the two ABI modes. Trampolines left nil report NotImplemented when used.
type Machine struct {
	geo Geometry
	ram []byte

	// ExecLegacy runs binaries declaring the legacy addressing mode,
	// ExecExtended those declaring the extended mode.
	ExecLegacy   Trampoline
	ExecExtended Trampoline
}

// New returns a machine with zeroed RAM.
func New(geo Geometry) *Machine {
	return &Machine{
		geo: geo,
		ram: make([]byte, geo.RAMSize),
	}
}

// Geometry returns the machine's memory map.
func (m *Machine) Geometry() Geometry {
	return m.geo
}

// Slice returns the RAM range [addr, addr+length) for reading or writing.
func (m *Machine) Slice(addr, length uint32) ([]byte, error) {
	if addr >= m.geo.RAMSize || length > m.geo.RAMSize-addr {
		return nil, moserr.InvalidParameter
	}
	return m.ram[addr : addr+length], nil
}

// checkOverlap enforces the memory-safety guard: a load whose target starts
// in externally addressable RAM must not extend into the protected system
// region.
func (m *Machine) checkOverlap(addr, length uint32) error {
	if addr <= m.geo.ExternTop && addr+length > m.geo.SystemBase {
		return moserr.OverlappingSystem
	}
	return nil
}

// LoadFrom places length bytes from r at addr. The overlap guard runs
// before any byte is copied; on any failure the RAM is unchanged.
func (m *Machine) LoadFrom(r io.Reader, addr, length uint32) error {
	if err := m.checkOverlap(addr, length); err != nil {
		return err
	}
	dst, err := m.Slice(addr, length)
	if err != nil {
		return err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil && err != io.ErrUnexpectedEOF {
		return moserr.DiskError
	}
	copy(dst, buf)
	return nil
}

// ExecMode inspects the header of the binary at addr. It returns the
// declared ABI mode byte, or 0xFF when the signature is absent.
func (m *Machine) ExecMode(addr uint32) byte {
	hdr, err := m.Slice(addr+headerOffset, modeOffset-headerOffset+1)
	if err != nil {
		return 0xFF
	}
	if hdr[0] != headerSignature[0] || hdr[1] != headerSignature[1] || hdr[2] != headerSignature[2] {
		return 0xFF
	}
	return hdr[modeOffset-headerOffset]
}

// RunBin dispatches the binary at addr through the trampoline selected by
// its header. The trampoline's return value becomes the result code.
func (m *Machine) RunBin(addr uint32, args string) (int, error) {
	switch m.ExecMode(addr) {
	case ModeLegacy:
		return m.jump(m.ExecLegacy, addr, args)
	case ModeExtended:
		return m.jump(m.ExecExtended, addr, args)
	default:
		return 0, moserr.InvalidExecutable
	}
}

// Jump transfers control to addr without a header check, using the extended
// mode trampoline.
func (m *Machine) Jump(addr uint32) (int, error) {
	if addr >= m.geo.RAMSize {
		return 0, moserr.InvalidParameter
	}
	return m.jump(m.ExecExtended, addr, "")
}

func (m *Machine) jump(t Trampoline, addr uint32, args string) (int, error) {
	if t == nil {
		return 0, moserr.NotImplemented
	}
	return t(addr, args), nil
}
