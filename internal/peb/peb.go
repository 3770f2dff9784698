// Package peb walks a Windows process environment block to reach the
// strings stored in RTL_USER_PROCESS_PARAMETERS: the command line, the
// current directory and the environment block.
//
// The walk itself only needs a Memory to read from, so the structure
// handling is shared between the real reader and tests.
package peb

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"xproc/internal/argv"
	"xproc/internal/codec"
)

// ErrPartialRead reports a remote read that returned fewer bytes than asked.
// The walk never returns a value built from a short read.
var ErrPartialRead = errors.New("partial process memory read")

// maxEnvironmentSize bounds the environment block read from a target.
const maxEnvironmentSize = 4 << 20

// Memory reads the address space of another process.
type Memory interface {
	// Read returns up to n bytes starting at addr.
	Read(addr uint64, n int) ([]byte, error)
}

// Layout holds the offsets that differ between 32-bit and 64-bit targets.
type Layout struct {
	PointerSize       int
	ProcessParameters uint64 // PEB.ProcessParameters
	CurrentDirectory  uint64 // RTL_USER_PROCESS_PARAMETERS.CurrentDirectory.DosPath
	CommandLine       uint64
	Environment       uint64
	EnvironmentSize   uint64
}

var (
	Layout64 = Layout{
		PointerSize:       8,
		ProcessParameters: 0x20,
		CurrentDirectory:  0x38,
		CommandLine:       0x70,
		Environment:       0x80,
		EnvironmentSize:   0x3F0,
	}
	Layout32 = Layout{
		PointerSize:       4,
		ProcessParameters: 0x10,
		CurrentDirectory:  0x24,
		CommandLine:       0x40,
		Environment:       0x48,
		EnvironmentSize:   0x290,
	}
)

// Walker resolves parameter strings of one target.
type Walker struct {
	mem    Memory
	layout Layout
	peb    uint64
}

// NewWalker returns a Walker for the PEB located at pebAddr.
func NewWalker(mem Memory, layout Layout, pebAddr uint64) *Walker {
	return &Walker{mem: mem, layout: layout, peb: pebAddr}
}

// CommandLine returns the raw command line string, untokenized.
func (w *Walker) CommandLine() (string, error) {
	return w.unicodeString(w.layout.CommandLine)
}

// CurrentDirectory returns CurrentDirectory.DosPath, usually with a
// trailing separator.
func (w *Walker) CurrentDirectory() (string, error) {
	return w.unicodeString(w.layout.CurrentDirectory)
}

// Environment returns the NAME=VALUE entries of the environment block.
func (w *Walker) Environment() ([]string, error) {
	params, err := w.parameters()
	if err != nil {
		return nil, err
	}
	block, err := w.pointer(params + w.layout.Environment)
	if err != nil {
		return nil, errors.Wrap(err, "environment pointer")
	}
	size, err := w.pointer(params + w.layout.EnvironmentSize)
	if err != nil {
		return nil, errors.Wrap(err, "environment size")
	}
	if block == 0 || size == 0 {
		return []string{}, nil
	}
	if size > maxEnvironmentSize {
		size = maxEnvironmentSize
	}
	raw, err := w.read(block, int(size))
	if err != nil {
		return nil, errors.Wrap(err, "environment block")
	}
	return argv.SplitUTF16Block(codec.Units(raw)), nil
}

func (w *Walker) parameters() (uint64, error) {
	params, err := w.pointer(w.peb + w.layout.ProcessParameters)
	if err != nil {
		return 0, errors.Wrap(err, "process parameters pointer")
	}
	if params == 0 {
		return 0, errors.Wrap(ErrPartialRead, "null process parameters")
	}
	return params, nil
}

// unicodeString reads a UNICODE_STRING at off inside the parameters block:
// Length and MaximumLength (uint16 each), then a pointer-aligned Buffer.
func (w *Walker) unicodeString(off uint64) (string, error) {
	params, err := w.parameters()
	if err != nil {
		return "", err
	}
	hdr, err := w.read(params+off, 2*w.layout.PointerSize)
	if err != nil {
		return "", errors.Wrap(err, "unicode string header")
	}
	length := int(binary.LittleEndian.Uint16(hdr))
	buffer := w.decodePointer(hdr[w.layout.PointerSize:])
	if length == 0 || buffer == 0 {
		return "", nil
	}
	raw, err := w.read(buffer, length)
	if err != nil {
		return "", errors.Wrap(err, "unicode string buffer")
	}
	return codec.DecodeUTF16LE(raw)
}

func (w *Walker) pointer(addr uint64) (uint64, error) {
	b, err := w.read(addr, w.layout.PointerSize)
	if err != nil {
		return 0, err
	}
	return w.decodePointer(b), nil
}

func (w *Walker) decodePointer(b []byte) uint64 {
	if w.layout.PointerSize == 4 {
		return uint64(binary.LittleEndian.Uint32(b))
	}
	return binary.LittleEndian.Uint64(b)
}

func (w *Walker) read(addr uint64, n int) ([]byte, error) {
	b, err := w.mem.Read(addr, n)
	if err != nil {
		return nil, errors.Wrapf(err, "read %d bytes at %#x", n, addr)
	}
	if len(b) < n {
		return nil, errors.Wrapf(ErrPartialRead, "read %d of %d bytes at %#x", len(b), n, addr)
	}
	return b[:n], nil
}
