package pano

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"xproc/internal/registry"
)

// DefaultInterval matches the viewer's redraw timer.
const DefaultInterval = 5 * time.Millisecond

// Syncer polls its sources and reports the view state when it changes.
// Sources are ordered by precedence: the first one that sets a key wins.
type Syncer struct {
	sources  []Source
	interval time.Duration
	log      logrus.FieldLogger
}

// NewSyncer returns a Syncer over sources. A non-positive interval means
// DefaultInterval; a nil logger means the standard logrus logger.
func NewSyncer(interval time.Duration, logger logrus.FieldLogger, sources ...Source) *Syncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Syncer{sources: sources, interval: interval, log: logger}
}

// Current reads every source once and merges the result.
func (s *Syncer) Current() ViewState {
	envs := make([][]string, 0, len(s.sources))
	for _, src := range s.sources {
		env, err := src.Environ()
		if err != nil {
			s.log.WithFields(logrus.Fields{"source": src.Name(), "error": err}).Debug("source unreadable")
		}
		envs = append(envs, env)
	}
	return StateFrom(func(name string) (string, bool) {
		for _, env := range envs {
			if v, ok := registry.FindEnv(env, name); ok {
				return v, true
			}
		}
		return "", false
	})
}

// Run emits the current state, then every changed state, until ctx is
// done.
func (s *Syncer) Run(ctx context.Context, emit func(ViewState)) error {
	last := s.Current()
	emit(last)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			st := s.Current()
			if st == last {
				continue
			}
			s.log.WithField("state", st.String()).Debug("view state changed")
			last = st
			emit(st)
		}
	}
}
