package pano

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xproc/internal/registry"
)

type staticSource struct {
	mu  sync.Mutex
	env []string
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) Environ() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.env...), nil
}

func (s *staticSource) set(env ...string) {
	s.mu.Lock()
	s.env = env
	s.mu.Unlock()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSyncerPrecedence(t *testing.T) {
	high := &staticSource{env: []string{"PANORAMA_XANGLE=10"}}
	low := &staticSource{env: []string{"PANORAMA_XANGLE=99", "PANORAMA_TEXTURE=a.png"}}

	st := NewSyncer(0, quietLogger(), high, low).Current()
	assert.Equal(t, ViewState{Texture: "a.png", XAngle: 10}, st)
}

func TestSyncerEmitsOnlyChanges(t *testing.T) {
	src := &staticSource{env: []string{"PANORAMA_XANGLE=1"}}
	s := NewSyncer(time.Millisecond, quietLogger(), src)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := make(chan ViewState, 16)
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, func(st ViewState) { states <- st }) }()

	assert.Equal(t, 1.0, (<-states).XAngle)
	time.Sleep(10 * time.Millisecond)
	select {
	case st := <-states:
		t.Fatalf("unexpected emit without change: %v", st)
	default:
	}

	src.set("PANORAMA_XANGLE=2")
	select {
	case st := <-states:
		assert.Equal(t, 2.0, st.XAngle)
	case <-time.After(2 * time.Second):
		t.Fatal("no emit after change")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStreamEnv(t *testing.T) {
	in := "PANORAMA_TEXTURE=a.png\nnoise\n=bad\nPANORAMA_TEXTURE=b.png\r\nPANORAMA_YANGLE=5\n"
	s := NewStreamEnv(strings.NewReader(in))
	<-s.Done()

	env, err := s.Environ()
	require.NoError(t, err)
	assert.Equal(t, []string{"PANORAMA_TEXTURE=b.png", "PANORAMA_YANGLE=5"}, env)
}

func TestReadPeerID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peer.cfg")
	require.NoError(t, os.WriteFile(path, []byte("# peer\nNAME=x\nID=1234abc\nID=5\n"), 0o600))

	pid, ok, err := ReadPeerID(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, registry.PID(1234), pid)
}

func TestLeadingUint(t *testing.T) {
	assert.Equal(t, 42, leadingUint("42x"))
	assert.Equal(t, 0, leadingUint("x42"))
	assert.Equal(t, 2147483647, leadingUint("2147483647"))
	assert.Equal(t, 0, leadingUint("2147483648"))
	assert.Equal(t, 0, leadingUint("99999999999999999999"))
}

func TestResolvePeer(t *testing.T) {
	reg := registry.New()
	assert.Equal(t, registry.PID(77), ResolvePeer(reg, 77, ""))

	path := filepath.Join(t.TempDir(), "peer.cfg")
	require.NoError(t, os.WriteFile(path, []byte("ID=4242\n"), 0o600))
	assert.Equal(t, registry.PID(4242), ResolvePeer(reg, 0, path))

	assert.Equal(t, reg.ParentOfSelfSkippingShell(), ResolvePeer(reg, 0, filepath.Join(t.TempDir(), "missing")))
}

func TestPeerEnvReadsSelf(t *testing.T) {
	t.Setenv("PANORAMA_POINTER", "cursor.png")
	reg := registry.New()
	st := NewSyncer(0, quietLogger(), PeerEnv{Registry: reg, PID: reg.SelfID()}).Current()
	assert.Equal(t, "cursor.png", st.Pointer)
}
