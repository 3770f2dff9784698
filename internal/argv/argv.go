// Package argv turns the raw argument and environment blobs that operating
// systems hand out into string slices.
package argv

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"xproc/internal/codec"
)

// ErrMalformed reports a blob whose framing does not match its format.
var ErrMalformed = errors.New("malformed argument block")

// SplitNUL splits a NUL separated blob the way /proc/<pid>/cmdline and
// kern.proc.args are laid out. Trailing terminators are dropped, interior
// empty strings are kept because they are legitimate arguments.
func SplitNUL(b []byte) []string {
	b = bytes.TrimRight(b, "\x00")
	if len(b) == 0 {
		return []string{}
	}
	return strings.Split(string(b), "\x00")
}

// SplitEnv splits a NUL separated environment blob. Empty entries are never
// valid environment strings and are skipped.
func SplitEnv(b []byte) []string {
	out := []string{}
	for _, part := range bytes.Split(b, []byte{0}) {
		if len(part) == 0 {
			continue
		}
		out = append(out, string(part))
	}
	return out
}

// SplitUTF16Block splits a Windows environment block: UTF-16 strings
// separated by NUL and terminated by an empty string. An unterminated tail
// is kept.
func SplitUTF16Block(units []uint16) []string {
	out := []string{}
	start := 0
	for i, u := range units {
		if u != 0 {
			continue
		}
		if i == start {
			return out
		}
		out = append(out, codec.FromUnits(units[start:i]))
		start = i + 1
	}
	if start < len(units) {
		out = append(out, codec.FromUnits(units[start:]))
	}
	return out
}

// ProcArgs is the decoded form of a macOS KERN_PROCARGS2 buffer.
type ProcArgs struct {
	ExecPath string
	Argv     []string
	Env      []string
}

// ParseProcArgs2 decodes the KERN_PROCARGS2 layout: a native-endian int32
// argc, the exec path, NUL padding, argc argument strings, then environment
// strings up to the first empty one.
func ParseProcArgs2(b []byte) (ProcArgs, error) {
	var pa ProcArgs
	if len(b) < 4 {
		return pa, errors.Wrapf(ErrMalformed, "procargs2 buffer of %d bytes", len(b))
	}
	argc := int(int32(binary.LittleEndian.Uint32(b)))
	if argc < 0 {
		return pa, errors.Wrapf(ErrMalformed, "negative argc %d", argc)
	}
	rest := b[4:]

	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return pa, errors.Wrap(ErrMalformed, "unterminated exec path")
	}
	pa.ExecPath = string(rest[:end])
	rest = rest[end:]
	for len(rest) > 0 && rest[0] == 0 {
		rest = rest[1:]
	}

	pa.Argv = make([]string, 0, argc)
	for len(pa.Argv) < argc {
		if len(rest) == 0 {
			return pa, errors.Wrapf(ErrMalformed, "expected %d arguments, found %d", argc, len(pa.Argv))
		}
		end := bytes.IndexByte(rest, 0)
		if end < 0 {
			end = len(rest)
		}
		pa.Argv = append(pa.Argv, string(rest[:end]))
		rest = rest[min(end+1, len(rest)):]
	}

	pa.Env = []string{}
	for len(rest) > 0 {
		end := bytes.IndexByte(rest, 0)
		if end == 0 {
			break
		}
		if end < 0 {
			end = len(rest)
		}
		pa.Env = append(pa.Env, string(rest[:end]))
		rest = rest[min(end+1, len(rest)):]
	}
	return pa, nil
}

// SplitKeyValue splits an environment entry at its first '='. Windows keeps
// per-drive working directories in entries such as "=C:=C:\dir", so a
// leading '=' belongs to the key.
func SplitKeyValue(entry string) (key, value string, ok bool) {
	from := 0
	if strings.HasPrefix(entry, "=") {
		from = 1
	}
	i := strings.IndexByte(entry[from:], '=')
	if i < 0 {
		return entry, "", false
	}
	i += from
	return entry[:i], entry[i+1:], true
}
