// Package graph assembles the relationship graph view: filter the store, project
// the items, lay them out and restore manually arranged positions.
package graph

import (
	"historydash/app/service/layout"
	"historydash/app/service/projector"
	"historydash/app/service/snapshot"
	"historydash/app/service/store"
	"historydash/app/service/view"
	"log/slog"
	"time"

	"github.com/samber/do"
)

type Query struct {
	view.Criteria
	Direction layout.Direction
	// Fresh ignores the saved snapshot and returns computed positions only.
	Fresh bool
}

type Service struct {
	storeSvc    *store.Service
	snapshotSvc *snapshot.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		storeSvc:    do.MustInvoke[*store.Service](di),
		snapshotSvc: do.MustInvoke[*snapshot.Service](di),
	}, nil
}

func (s *Service) Build(q Query) projector.Graph {
	start := time.Now()

	items := view.Filter(s.storeSvc.List(), q.Criteria)
	g := projector.Project(items, projector.Options{})

	opts := layout.DefaultOptions()
	if q.Direction != "" {
		opts.Direction = q.Direction
	}
	g = layout.Layout(g, opts)

	if !q.Fresh {
		g = layout.Apply(g, s.snapshotSvc.Get())
	}

	slog.Debug("Graph built",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"duration", time.Since(start))

	return g
}

// SaveLayout stores the positions of nodes that exist in the store and reports
// how many were kept.
func (s *Service) SaveLayout(positions layout.Snapshot) (int, error) {
	known := make(layout.Snapshot, len(positions))
	for id, pos := range positions {
		if _, ok := s.storeSvc.Get(id); ok {
			known[id] = pos
		}
	}

	if err := s.snapshotSvc.Save(known); err != nil {
		return 0, err
	}

	return len(known), nil
}
