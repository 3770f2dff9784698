package pano

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"xproc/internal/registry"
)

// Source supplies NAME=VALUE entries. It is read once per poll.
type Source interface {
	Name() string
	Environ() ([]string, error)
}

// OwnEnv reads the environment of this process.
type OwnEnv struct{}

func (OwnEnv) Name() string { return "self" }

func (OwnEnv) Environ() ([]string, error) { return os.Environ(), nil }

// PeerEnv reads the environment of another process.
type PeerEnv struct {
	Registry *registry.Registry
	PID      registry.PID
}

func (p PeerEnv) Name() string { return "pid " + strconv.Itoa(p.PID) }

func (p PeerEnv) Environ() ([]string, error) {
	return p.Registry.LookupEnvironment(p.PID)
}

// StreamEnv collects KEY=VALUE lines from a reader in the background.
// Later lines for the same key replace earlier ones.
type StreamEnv struct {
	mu     sync.Mutex
	values map[string]string
	order  []string
	done   chan struct{}
	err    error
}

// NewStreamEnv starts consuming r. Lines without '=' are ignored.
func NewStreamEnv(r io.Reader) *StreamEnv {
	s := &StreamEnv{values: map[string]string{}, done: make(chan struct{})}
	go s.consume(r)
	return s
}

func (s *StreamEnv) consume(r io.Reader) {
	defer close(s.done)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		k, v, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		k = strings.TrimSpace(k)
		s.mu.Lock()
		if _, seen := s.values[k]; !seen {
			s.order = append(s.order, k)
		}
		s.values[k] = v
		s.mu.Unlock()
	}
	if err := sc.Err(); err != nil {
		s.mu.Lock()
		s.err = errors.Wrap(err, "read stdin")
		s.mu.Unlock()
	}
}

// Done is closed once the reader is exhausted.
func (s *StreamEnv) Done() <-chan struct{} { return s.done }

func (s *StreamEnv) Name() string { return "stdin" }

func (s *StreamEnv) Environ() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, k+"="+s.values[k])
	}
	return out, s.err
}

// ReadPeerID returns the pid named by the first ID=<pid> line of the file
// at path. The number is read like strtoul: leading digits only.
func ReadPeerID(path string) (registry.PID, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok || strings.TrimSpace(k) != "ID" {
			continue
		}
		return leadingUint(strings.TrimSpace(v)), true, nil
	}
	return 0, false, sc.Err()
}

// leadingUint parses the decimal prefix of s, or 0 when it does not fit
// a 31-bit pid.
func leadingUint(s string) int {
	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	n, err := strconv.ParseUint(s[:end], 10, 31)
	if err != nil {
		return 0
	}
	return int(n)
}

// ResolvePeer picks the peer pid: explicit when positive, else the ID=
// line of configPath, else the parent of this process skipping /bin/sh
// wrappers.
func ResolvePeer(reg *registry.Registry, explicit registry.PID, configPath string) registry.PID {
	if explicit > 0 {
		return explicit
	}
	if configPath != "" {
		if pid, ok, err := ReadPeerID(configPath); err == nil && ok && pid > 0 {
			return pid
		}
	}
	return reg.ParentOfSelfSkippingShell()
}
