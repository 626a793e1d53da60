// Package snapshot keeps the manually arranged node positions of the graph view.
// The current snapshot lives in memory; every save is written to disk in the
// background through the write queue, so a lost write only costs node positions.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"historydash/app/config"
	"historydash/app/service/layout"
	"historydash/app/service/queue"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/do"
	"github.com/samber/oops"
)

var ErrInvalidSnapshot = errors.New("invalid layout snapshot")

type Service struct {
	queueSvc *queue.Service
	path     string

	mu   sync.RWMutex
	snap layout.Snapshot
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	s := &Service{
		queueSvc: do.MustInvoke[*queue.Service](di),
		path:     filepath.Join(cfg.Data.Dir, cfg.Data.LayoutFile),
		snap:     layout.Snapshot{},
	}

	snap, err := load(s.path)
	if err != nil {
		slog.Warn("Ignoring unreadable layout snapshot", "path", s.path, "error", err)
	} else {
		s.snap = snap
	}

	return s, nil
}

func load(path string) (layout.Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return layout.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap layout.Snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap == nil {
		snap = layout.Snapshot{}
	}

	return snap, nil
}

func (s *Service) Get() layout.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.Clone()
}

// Save merges positions into the current snapshot and schedules a write.
// Nodes missing from positions keep their previously saved place.
func (s *Service) Save(positions layout.Snapshot) error {
	for id, pos := range positions {
		if id == "" || !finite(pos.X) || !finite(pos.Y) {
			return oops.In("snapshot").With("id", id).Wrapf(ErrInvalidSnapshot, "bad position")
		}
	}

	s.mu.Lock()
	for id, pos := range positions {
		s.snap[id] = pos
	}
	data, err := json.Marshal(s.snap)
	s.mu.Unlock()

	if err != nil {
		return oops.In("snapshot").Wrapf(err, "marshal snapshot")
	}

	if !s.queueSvc.Add(s.path, data) {
		slog.Warn("Layout snapshot write dropped", "nodes", len(positions))
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
